// Package bot sits at the transport boundary: it takes inbound messages and
// undo gestures from whatever chat platform fronts the process, routes them
// through the account service, and emits audit entries and events. It holds
// no knowledge of any particular chat platform.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mott-dev/mott/internal/audit"
	"github.com/mott-dev/mott/internal/bank"
	"github.com/mott-dev/mott/internal/events"
	"github.com/mott-dev/mott/internal/id"
	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/ocr"
	"github.com/mott-dev/mott/internal/registry"
	"github.com/mott-dev/mott/internal/respond"
)

// Attachment is an uploaded file on an inbound message.
type Attachment struct {
	ContentType string
	Data        []byte
}

// Message is one inbound chat message with its resolved identity context.
// The channel identifier doubles as the account name.
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	Sender      string
	RoleIDs     []string
	Text        string
	Attachments []Attachment
}

// Undo is a gesture (e.g. a reaction) asking to revert whatever transactions
// an earlier message produced.
type Undo struct {
	GuildID   string
	ChannelID string
	MessageID string
}

const ocrFailure = "Sorry, I couldn't read the amount from that screenshot." +
	" Please try a different screenshot, and make sure it is a screenshot rather than" +
	" a photograph of the screen. Alternatively, enter the payment manually with the pay command."

// Params configures a Dispatcher.
type Params struct {
	Registry  *registry.Registry
	Extractor ocr.Extractor // nil disables screenshot reading
	Publisher events.Publisher
	AuditDir  string // "" disables the audit trail
	Prefix    string // command prefix, e.g. "!motrader "
	Currency  string
	Log       *slog.Logger
}

// Dispatcher routes inbound traffic for all guilds.
type Dispatcher struct {
	reg       *registry.Registry
	extractor ocr.Extractor
	publisher events.Publisher
	auditDir  string
	prefix    string
	currency  string
	log       *slog.Logger
}

// New creates a Dispatcher.
func New(p Params) *Dispatcher {
	pub := p.Publisher
	if pub == nil {
		pub = events.Nop{}
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		reg:       p.Registry,
		extractor: p.Extractor,
		publisher: pub,
		auditDir:  p.AuditDir,
		prefix:    p.Prefix,
		currency:  p.Currency,
		log:       log,
	}
}

// HandleMessage processes one inbound message. It returns the response text
// and whether the message was handled at all: command messages are always
// handled; attachment messages only in watched channels; everything else is
// ignored.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg Message) (string, bool) {
	b, err := d.reg.Bank(msg.GuildID)
	if err != nil {
		d.log.Error("opening guild ledger", "guild", msg.GuildID, "err", err)
		return "Sorry, something went wrong handling that request. Please try again later.", true
	}

	if strings.HasPrefix(msg.Text, d.prefix) {
		text := strings.TrimPrefix(msg.Text, d.prefix)
		router := respond.NewRouter(b, d.currency, d.log)
		resp := router.Handle(ctx, respond.Request{Sender: msg.Sender, RoleIDs: msg.RoleIDs, Text: text})
		d.audit(msg.GuildID, msg.Sender, verbOf(text), msg.ChannelID, -1, text)
		return resp, true
	}

	if len(msg.Attachments) > 0 && d.extractor != nil {
		return d.handleAttachments(ctx, b, msg)
	}

	return "", false
}

// handleAttachments runs OCR-driven auto-payment for screenshots posted in a
// watched channel.
func (d *Dispatcher) handleAttachments(ctx context.Context, b *bank.Bank, msg Message) (string, bool) {
	names, err := b.AccountNames(ctx)
	if err != nil {
		d.log.Error("listing watched accounts", "guild", msg.GuildID, "err", err)
		return "", false
	}
	if !slices.Contains(names, msg.ChannelID) {
		return "", false
	}

	var responses []string
	for _, att := range msg.Attachments {
		if !strings.HasPrefix(att.ContentType, "image") {
			continue
		}

		amount, err := d.extractor.Amount(ctx, att.Data, att.ContentType)
		if err != nil {
			d.log.Info("screenshot extraction failed",
				"guild", msg.GuildID, "channel", msg.ChannelID, "err", err)
			responses = append(responses, ocrFailure)
			continue
		}

		key := id.MessageKey(msg.ChannelID, msg.ID)
		tx, err := b.PayVerified(ctx, msg.Sender, msg.ChannelID, amount, key)
		if err != nil {
			responses = append(responses, d.renderErr(err))
			continue
		}

		d.audit(msg.GuildID, msg.Sender, "ocr-pay", msg.ChannelID, tx.SeqID, key)

		ev := events.New(events.KindVerifiedPayment, msg.GuildID, msg.ChannelID)
		ev.Actor = msg.Sender
		ev.Value = tx.Value
		ev.SeqID = tx.SeqID
		ev.CorrelationKey = key
		if err := d.publisher.Publish(ctx, ev); err != nil {
			d.log.Error("publishing event", "event", ev.ID, "err", err)
		}

		responses = append(responses,
			fmt.Sprintf("%s paid %s %d%s (ocr-verified)", msg.Sender, msg.ChannelID, tx.Value.IntPart(), d.currency))
	}

	if len(responses) == 0 {
		return "", false
	}
	return strings.Join(responses, "\n"), true
}

// HandleUndo reverts the transactions filed under the given message. A
// gesture on a message that produced none is silently ignored.
func (d *Dispatcher) HandleUndo(ctx context.Context, u Undo) (string, bool) {
	b, err := d.reg.Bank(u.GuildID)
	if err != nil {
		d.log.Error("opening guild ledger", "guild", u.GuildID, "err", err)
		return "", false
	}

	key := id.MessageKey(u.ChannelID, u.MessageID)
	removed, err := b.RemoveByCorrelation(ctx, u.ChannelID, key)
	if err != nil {
		if errors.Is(err, ledger.ErrNoMatch) || errors.Is(err, ledger.ErrAccountNotFound) {
			return "", false
		}
		d.log.Error("undoing transactions", "guild", u.GuildID, "channel", u.ChannelID, "err", err)
		return "", false
	}

	total := removed[0].Value
	for _, tx := range removed[1:] {
		total = total.Add(tx.Value)
	}
	d.audit(u.GuildID, "", "undo", u.ChannelID, removed[0].SeqID, key)

	ev := events.New(events.KindRemoved, u.GuildID, u.ChannelID)
	ev.Value = total
	ev.SeqID = removed[0].SeqID
	ev.CorrelationKey = key
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.log.Error("publishing event", "event", ev.ID, "err", err)
	}

	return fmt.Sprintf("removed %d transaction(s) totalling %d%s from %s",
		len(removed), total.IntPart(), d.currency, u.ChannelID), true
}

func (d *Dispatcher) audit(guild, actor, action, account string, seqID int, details string) {
	if d.auditDir == "" {
		return
	}
	err := audit.Append(d.auditDir, []audit.Entry{{
		Timestamp: time.Now().UTC(),
		GuildID:   guild,
		Actor:     actor,
		Action:    action,
		Account:   account,
		SeqID:     seqID,
		Details:   details,
	}})
	if err != nil {
		d.log.Error("writing audit entry", "action", action, "err", err)
	}
}

func (d *Dispatcher) renderErr(err error) string {
	var derr *ledger.Error
	if errors.As(err, &derr) && !errors.Is(err, ledger.ErrCorrupt) {
		return derr.Message
	}
	d.log.Error("internal error recording payment", "err", err)
	return "Sorry, something went wrong handling that request. Please try again later."
}

func verbOf(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
