package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mott-dev/mott/internal/audit"
	"github.com/mott-dev/mott/internal/events"
	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/ledger/memory"
	"github.com/mott-dev/mott/internal/registry"
)

// fakeExtractor returns a fixed amount, or err when set.
type fakeExtractor struct {
	amount decimal.Decimal
	err    error
	calls  int
}

func (f *fakeExtractor) Amount(ctx context.Context, image []byte, mimeType string) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.amount, nil
}

// capturePublisher records every published event.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newDispatcher(t *testing.T, ex *fakeExtractor, pub events.Publisher, auditDir string) *Dispatcher {
	t.Helper()
	reg := registry.New(func(guildID string) (ledger.Store, error) {
		return memory.NewStore(), nil
	})
	return New(Params{
		Registry:  reg,
		Extractor: ex,
		Publisher: pub,
		AuditDir:  auditDir,
		Prefix:    "!motrader ",
		Currency:  "aUEC",
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func command(guild, channel, sender, text string, roles ...string) Message {
	return Message{
		ID:        "msg-1",
		GuildID:   guild,
		ChannelID: channel,
		Sender:    sender,
		RoleIDs:   roles,
		Text:      "!motrader " + text,
	}
}

func TestCommandFlow(t *testing.T) {
	d := newDispatcher(t, nil, nil, "")
	ctx := context.Background()

	resp, handled := d.HandleMessage(ctx, command("guild-1", "general", "BoneW", "account-create funds CEO"))
	require.True(t, handled)
	assert.Equal(t, "account: funds created for CEO", resp)

	resp, handled = d.HandleMessage(ctx, command("guild-1", "general", "BoneW", "pay funds 100"))
	require.True(t, handled)
	assert.Equal(t, "BoneW paid funds 100aUEC", resp)

	resp, handled = d.HandleMessage(ctx, command("guild-1", "general", "BoneW", "account-balance funds", "CEO"))
	require.True(t, handled)
	assert.Equal(t, "funds balance: 100aUEC", resp)
}

func TestGuildsAreIsolated(t *testing.T) {
	d := newDispatcher(t, nil, nil, "")
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "general", "BoneW", "account-create funds CEO"))

	resp, handled := d.HandleMessage(ctx, command("guild-2", "general", "BoneW", "pay funds 100"))
	require.True(t, handled)
	assert.Equal(t, "account: funds does not exist.", resp)
}

func TestNonCommandPlainTextIgnored(t *testing.T) {
	d := newDispatcher(t, nil, nil, "")
	msg := Message{ID: "msg-1", GuildID: "guild-1", ChannelID: "general", Sender: "BoneW", Text: "hello all"}
	resp, handled := d.HandleMessage(context.Background(), msg)
	assert.False(t, handled)
	assert.Empty(t, resp)
}

func TestAttachmentInUnwatchedChannelIgnored(t *testing.T) {
	ex := &fakeExtractor{amount: decimal.NewFromInt(500)}
	d := newDispatcher(t, ex, nil, "")
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-create funds CEO"))

	msg := Message{
		ID: "msg-2", GuildID: "guild-1", ChannelID: "off-topic", Sender: "BoneW",
		Attachments: []Attachment{{ContentType: "image/png", Data: []byte{0x89}}},
	}
	_, handled := d.HandleMessage(ctx, msg)
	assert.False(t, handled)
	assert.Zero(t, ex.calls)
}

func TestScreenshotPayment(t *testing.T) {
	ex := &fakeExtractor{amount: decimal.NewFromInt(820000)}
	pub := &capturePublisher{}
	auditDir := t.TempDir()
	d := newDispatcher(t, ex, pub, auditDir)
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-create funds CEO"))

	msg := Message{
		ID: "msg-2", GuildID: "guild-1", ChannelID: "funds", Sender: "greyL",
		Attachments: []Attachment{{ContentType: "image/png", Data: []byte{0x89}}},
	}
	resp, handled := d.HandleMessage(ctx, msg)
	require.True(t, handled)
	assert.Equal(t, "greyL paid funds 820000aUEC (ocr-verified)", resp)

	resp, handled = d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "last funds", "CEO"))
	require.True(t, handled)
	assert.Contains(t, resp, "ocr-verified: true")

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, events.KindVerifiedPayment, ev.Kind)
	assert.Equal(t, "guild-1", ev.GuildID)
	assert.Equal(t, "funds", ev.Account)
	assert.Equal(t, "greyL", ev.Actor)
	assert.Equal(t, "funds/msg-2", ev.CorrelationKey)
	assert.True(t, ev.Value.Equal(decimal.NewFromInt(820000)))

	entries, err := audit.Read(auditDir)
	require.NoError(t, err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, "ocr-pay")
}

func TestScreenshotExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("no amount in transcript")}
	d := newDispatcher(t, ex, nil, "")
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-create funds CEO"))

	msg := Message{
		ID: "msg-2", GuildID: "guild-1", ChannelID: "funds", Sender: "greyL",
		Attachments: []Attachment{{ContentType: "image/jpeg", Data: []byte{0xff}}},
	}
	resp, handled := d.HandleMessage(ctx, msg)
	require.True(t, handled)
	assert.Contains(t, resp, "couldn't read the amount from that screenshot")
}

func TestNonImageAttachmentSkipped(t *testing.T) {
	ex := &fakeExtractor{amount: decimal.NewFromInt(10)}
	d := newDispatcher(t, ex, nil, "")
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-create funds CEO"))

	msg := Message{
		ID: "msg-2", GuildID: "guild-1", ChannelID: "funds", Sender: "greyL",
		Attachments: []Attachment{{ContentType: "application/pdf", Data: []byte("%PDF")}},
	}
	_, handled := d.HandleMessage(ctx, msg)
	assert.False(t, handled)
	assert.Zero(t, ex.calls)
}

func TestUndoRevertsScreenshotPayment(t *testing.T) {
	ex := &fakeExtractor{amount: decimal.NewFromInt(500)}
	pub := &capturePublisher{}
	d := newDispatcher(t, ex, pub, "")
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-create funds CEO"))
	msg := Message{
		ID: "msg-2", GuildID: "guild-1", ChannelID: "funds", Sender: "greyL",
		Attachments: []Attachment{{ContentType: "image/png", Data: []byte{0x89}}},
	}
	_, handled := d.HandleMessage(ctx, msg)
	require.True(t, handled)

	resp, handled := d.HandleUndo(ctx, Undo{GuildID: "guild-1", ChannelID: "funds", MessageID: "msg-2"})
	require.True(t, handled)
	assert.Equal(t, "removed 1 transaction(s) totalling 500aUEC from funds", resp)

	resp, _ = d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-balance funds", "CEO"))
	assert.Equal(t, "funds balance: 0aUEC", resp)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.KindRemoved, pub.events[1].Kind)
}

func TestUndoWithNoMatchingTransactions(t *testing.T) {
	d := newDispatcher(t, nil, nil, "")
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "funds", "BoneW", "account-create funds CEO"))

	_, handled := d.HandleUndo(ctx, Undo{GuildID: "guild-1", ChannelID: "funds", MessageID: "never-seen"})
	assert.False(t, handled)

	// Unknown channel means unknown account; also ignored.
	_, handled = d.HandleUndo(ctx, Undo{GuildID: "guild-1", ChannelID: "off-topic", MessageID: "msg-9"})
	assert.False(t, handled)
}

func TestCommandsAreAudited(t *testing.T) {
	auditDir := t.TempDir()
	d := newDispatcher(t, nil, nil, auditDir)
	ctx := context.Background()

	d.HandleMessage(ctx, command("guild-1", "general", "BoneW", "account-create funds CEO"))
	d.HandleMessage(ctx, command("guild-1", "general", "BoneW", "pay funds 100"))

	entries, err := audit.Read(auditDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "account-create", entries[0].Action)
	assert.Equal(t, "pay", entries[1].Action)
	assert.Equal(t, "BoneW", entries[1].Actor)
	assert.Equal(t, "guild-1", entries[1].GuildID)
}
