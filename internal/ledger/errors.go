package ledger

import (
	"errors"
	"fmt"
)

// Kind sentinels for the domain error taxonomy. Match with errors.Is.
var (
	ErrAccountExists    = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("account does not exist")
	ErrAccountEmpty     = errors.New("account has no transactions")
	ErrNoMatch          = errors.New("no matching transactions")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrCorrupt          = errors.New("ledger state inconsistent")
)

// Error is a domain error tied to a specific account. It unwraps to one of
// the kind sentinels above, and carries the account name so a transport can
// substitute a display-friendly name before showing the message to a user.
type Error struct {
	Kind    error
	Account string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// AccountExists reports a create against a name already in use.
func AccountExists(name string) *Error {
	return &Error{
		Kind:    ErrAccountExists,
		Account: name,
		Message: fmt.Sprintf("account: %s already exists. Perhaps you intended to delete or reset?", name),
	}
}

// AccountNotFound reports an operation against an unknown account.
func AccountNotFound(name string) *Error {
	return &Error{
		Kind:    ErrAccountNotFound,
		Account: name,
		Message: fmt.Sprintf("account: %s does not exist.", name),
	}
}

// AccountEmpty reports a query against an account with no transactions.
func AccountEmpty(name string) *Error {
	return &Error{
		Kind:    ErrAccountEmpty,
		Account: name,
		Message: fmt.Sprintf("account: %s has no transactions yet.", name),
	}
}

// NoMatch reports a removal where no transaction carried the key.
func NoMatch(name, key string) *Error {
	return &Error{
		Kind:    ErrNoMatch,
		Account: name,
		Message: fmt.Sprintf("account: %s has no transactions matching %q.", name, key),
	}
}

// PermissionDenied reports a caller whose roles do not include the owning role.
func PermissionDenied(name, owningRole string) *Error {
	return &Error{
		Kind:    ErrPermissionDenied,
		Account: name,
		Message: fmt.Sprintf("Sorry, you must be %s to manage account: %s", owningRole, name),
	}
}

// InvalidAmount reports a non-positive payment or withdrawal magnitude.
func InvalidAmount(name, detail string) *Error {
	return &Error{
		Kind:    ErrInvalidAmount,
		Account: name,
		Message: detail,
	}
}

// Corrupt reports an internal consistency failure, such as an account present
// in the index whose log is unreadable. Not recoverable at the router layer.
func Corrupt(name, detail string) *Error {
	return &Error{
		Kind:    ErrCorrupt,
		Account: name,
		Message: fmt.Sprintf("ledger state for account %s is inconsistent: %s", name, detail),
	}
}
