// Package vaulterrors defines the sum-typed error taxonomy shared across
// the vault core (spec §7). Internally, errors are tagged by [Kind] so Go
// callers can dispatch with errors.Is/errors.As; at a command or IPC
// boundary, Error() renders to a "<kind>: <detail>" string a caller can
// parse back by prefix.
package vaulterrors

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories spec §7 defines.
type Kind string

const (
	// KindLocked indicates a field operation was attempted while the
	// session is locked. Callers recover by prompting unlock.
	KindLocked Kind = "locked"

	// KindNotSetup indicates unlock was attempted before setup, or that
	// persisted blobs are missing. Callers recover by prompting setup.
	KindNotSetup Kind = "not_setup"

	// KindInvalidPassword indicates unwrap failed: wrong password, wrong
	// secret key, or a tampered blob. Never disambiguated further.
	KindInvalidPassword Kind = "invalid_password"

	// KindInvalidSecretKey indicates malformed secret-key text (prefix,
	// group count, or alphabet). Distinct from InvalidPassword so the UI
	// can localize it to the secret-key field.
	KindInvalidSecretKey Kind = "invalid_secret_key"

	// KindEncryption indicates an internal AEAD or encoding failure during
	// encryption. Treated as data corruption; no retry.
	KindEncryption Kind = "encryption"

	// KindDecryption indicates an internal AEAD or encoding failure during
	// decryption. Treated as data corruption; no retry.
	KindDecryption Kind = "decryption"

	// KindKeyring indicates a persistence-backend error from the keyring
	// collaborator.
	KindKeyring Kind = "keyring"

	// KindNotFound indicates a missing item or missing snapshot file.
	KindNotFound Kind = "not_found"

	// KindHTTP indicates a non-2xx, non-401, non-409 transport response,
	// or a failure to build, send, read or parse a sync request/response.
	KindHTTP Kind = "http"

	// KindAuth indicates a 401 from the sync service; callers should
	// trigger re-login.
	KindAuth Kind = "auth"

	// KindConflict indicates a 409 from the sync service; callers should
	// refetch and merge. See [ConflictRevision].
	KindConflict Kind = "conflict"
)

// Error is the sum-typed error every vault-core package returns. It always
// carries a [Kind]; Cause is optional context for debugging, reachable via
// Unwrap, and is not part of the cross-boundary string contract: Error()
// does not include it.
type Error struct {
	Kind     Kind
	Detail   string
	Cause    error
	revision *int
}

// New creates an *Error of the given kind with a detail string.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap creates an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// NewConflict creates a [KindConflict] error carrying the server's
// revision number, retrievable with [ConflictRevision].
func NewConflict(serverRevision int) *Error {
	return &Error{
		Kind:     KindConflict,
		Detail:   fmt.Sprintf("server revision %d", serverRevision),
		revision: &serverRevision,
	}
}

// ConflictRevision extracts the server revision carried by a
// [KindConflict] error, if any was attached via [NewConflict].
func ConflictRevision(err error) (revision int, ok bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}

	if e.Kind != KindConflict || e.revision == nil {
		return 0, false
	}

	return *e.revision, true
}

// Error implements the error interface, rendering "<kind>: <detail>" for
// the cross-boundary string contract (spec §6/§7).
func (e *Error) Error() string {
	if len(e.Detail) == 0 {
		return string(e.Kind)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap exposes Cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel for the same [Kind], allowing
// errors.Is(err, vaulterrors.ErrLocked) to work regardless of Detail/Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons, one per [Kind]. A returned
// *Error for the same Kind but with detail/cause still satisfies
// errors.Is(err, ErrX) via [Error.Is].
var (
	ErrLocked           = &Error{Kind: KindLocked}
	ErrNotSetup         = &Error{Kind: KindNotSetup}
	ErrInvalidPassword  = &Error{Kind: KindInvalidPassword}
	ErrInvalidSecretKey = &Error{Kind: KindInvalidSecretKey}
	ErrEncryption       = &Error{Kind: KindEncryption}
	ErrDecryption       = &Error{Kind: KindDecryption}
	ErrKeyring          = &Error{Kind: KindKeyring}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrHTTP             = &Error{Kind: KindHTTP}
	ErrAuth             = &Error{Kind: KindAuth}
	ErrConflict         = &Error{Kind: KindConflict}
)
