// Package respond parses a line of command text into an account-service
// invocation and formats the result as response text. Every domain error is
// rendered here; nothing structured escapes to the transport.
package respond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mott-dev/mott/internal/bank"
	"github.com/mott-dev/mott/internal/ledger"
)

// Request is one inbound command with its resolved caller context.
type Request struct {
	Sender  string   // caller identity, shown in responses
	RoleIDs []string // caller's resolved role identities
	Text    string   // command text, transport prefix already stripped
}

// Router maps commands onto one guild's Bank.
type Router struct {
	bank     *bank.Bank
	currency string
	log      *slog.Logger
}

// NewRouter creates a Router. currency is the display suffix, e.g. "aUEC".
func NewRouter(b *bank.Bank, currency string, log *slog.Logger) *Router {
	return &Router{bank: b, currency: currency, log: log}
}

const parseFailure = "Sorry, I couldn't understand your request. Please check the help and try again."

// Handle executes one command and returns the response text.
func (r *Router) Handle(ctx context.Context, req Request) string {
	tokens := strings.Fields(req.Text)
	if len(tokens) == 0 {
		return parseFailure
	}
	verb, args := strings.ToLower(tokens[0]), tokens[1:]

	switch verb {
	case "help":
		return HelpText

	case "pay":
		if len(args) != 2 {
			return parseFailure
		}
		return r.pay(ctx, req.Sender, args[0], args[1])

	case "withdraw":
		if len(args) != 2 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		return r.withdraw(ctx, req.Sender, args[0], args[1])

	case "account-create":
		if len(args) != 2 {
			return "Please specify the owning role to create an account: account-create <account> <role>"
		}
		return r.create(ctx, args[0], args[1])

	case "account-delete":
		if len(args) != 1 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		if err := r.bank.Delete(ctx, args[0]); err != nil {
			return r.render(err)
		}
		return fmt.Sprintf("account: %s deleted", args[0])

	case "account-reset":
		if len(args) != 1 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		if err := r.bank.Reset(ctx, args[0]); err != nil {
			return r.render(err)
		}
		return fmt.Sprintf("account: %s reset", args[0])

	case "account-balance":
		if len(args) != 1 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		return r.balance(ctx, args[0])

	case "account-summary":
		if len(args) != 1 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		return r.summary(ctx, args[0])

	case "account-all":
		if len(args) != 1 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		return r.all(ctx, args[0])

	case "last":
		if len(args) != 1 {
			return parseFailure
		}
		if denial := r.gate(ctx, req, args[0]); denial != "" {
			return denial
		}
		return r.last(ctx, args[0])

	default:
		return fmt.Sprintf("Sorry, I couldn't understand your request. The command '%s' was not recognised.", verb)
	}
}

func (r *Router) create(ctx context.Context, name, role string) string {
	if err := r.bank.Create(ctx, name, role); err != nil {
		return r.render(err)
	}
	return fmt.Sprintf("account: %s created for %s", name, role)
}

func (r *Router) pay(ctx context.Context, sender, name, raw string) string {
	amount, ok := parseAmount(raw)
	if !ok {
		return fmt.Sprintf("Sorry, I couldn't understand your request. The payment value '%s' is not a number.", raw)
	}
	tx, err := r.bank.PayTo(ctx, sender, name, amount)
	if err != nil {
		return r.render(err)
	}
	return fmt.Sprintf("%s paid %s %d%s", sender, name, tx.Value.IntPart(), r.currency)
}

func (r *Router) withdraw(ctx context.Context, sender, name, raw string) string {
	amount, ok := parseAmount(raw)
	if !ok {
		return fmt.Sprintf("Sorry, I couldn't understand your request. The withdrawal value '%s' is not a number.", raw)
	}
	tx, err := r.bank.WithdrawFrom(ctx, sender, name, amount)
	if err != nil {
		return r.render(err)
	}
	return fmt.Sprintf("%s withdrew %d%s from %s", sender, tx.Value.Abs().IntPart(), r.currency, name)
}

func (r *Router) balance(ctx context.Context, name string) string {
	balance, err := r.bank.Balance(ctx, name)
	if err != nil {
		return r.render(err)
	}
	return fmt.Sprintf("%s balance: %d%s", name, balance.IntPart(), r.currency)
}

func (r *Router) summary(ctx context.Context, name string) string {
	sum, err := r.bank.Summary(ctx, name)
	if err != nil {
		return r.render(err)
	}
	balance, err := r.bank.Balance(ctx, name)
	if err != nil {
		return r.render(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### Account Summary: %s\n", name)
	for _, c := range sum.Contributions {
		fmt.Fprintf(&sb, "%q paid: %d%s\n", c.Actor, c.Total.IntPart(), r.currency)
	}
	fmt.Fprintf(&sb, "withdrawn: %d%s\n", sum.Withdrawn.IntPart(), r.currency)
	fmt.Fprintf(&sb, "balance: %d%s\n", balance.IntPart(), r.currency)
	return sb.String()
}

func (r *Router) all(ctx context.Context, name string) string {
	log, err := r.bank.All(ctx, name)
	if err != nil {
		return r.render(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### Account Transactions: %s\n", name)
	sb.WriteString("time,actor,value,ocr-verified\n")
	for _, tx := range log {
		fmt.Fprintf(&sb, "%s,%q,%d,%t\n",
			tx.Timestamp.Format(time.RFC3339), tx.Actor, tx.Value.IntPart(), tx.Verified)
	}
	return sb.String()
}

func (r *Router) last(ctx context.Context, name string) string {
	tx, err := r.bank.LastTransaction(ctx, name)
	if err != nil {
		return r.render(err)
	}
	if tx.IsWithdrawal() {
		return fmt.Sprintf("id: %d time: %s actor: %q withdrawal: %d%s",
			tx.SeqID, tx.Timestamp.Format(time.RFC3339), tx.Actor, tx.Value.Abs().IntPart(), r.currency)
	}
	return fmt.Sprintf("id: %d time: %s actor: %q value: %d%s ocr-verified: %t",
		tx.SeqID, tx.Timestamp.Format(time.RFC3339), tx.Actor, tx.Value.IntPart(), r.currency, tx.Verified)
}

// gate enforces the owning-role check for account-scoped verbs. It returns
// the denial (or error) message, or "" when the caller is allowed through.
func (r *Router) gate(ctx context.Context, req Request, name string) string {
	ok, err := r.bank.Permitted(ctx, name, req.RoleIDs)
	if err != nil {
		return r.render(err)
	}
	if ok {
		return ""
	}
	role, err := r.bank.OwningRole(ctx, name)
	if err != nil {
		return r.render(err)
	}
	return ledger.PermissionDenied(name, role).Error()
}

// render converts an error into response text. Domain errors surface their
// message; internal failures are logged and reported generically.
func (r *Router) render(err error) string {
	var derr *ledger.Error
	if errors.As(err, &derr) && !errors.Is(err, ledger.ErrCorrupt) {
		return derr.Message
	}
	r.log.Error("internal error handling command", "err", err)
	return "Sorry, something went wrong handling that request. Please try again later."
}

// parseAmount accepts a non-negative amount: decimal digits with at most one
// decimal point. Anything else, including signs, is rejected.
func parseAmount(s string) (decimal.Decimal, bool) {
	whole, frac, hasDot := strings.Cut(s, ".")
	if !isDigits(whole) || (hasDot && !isDigits(frac)) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
