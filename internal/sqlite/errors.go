package sqlite

import (
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// storeError converts an error surfacing from the engine into the uniform
// *types.StoreError. Errors that already are StoreErrors pass through.
func storeError(op string, kind types.ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var se *types.StoreError
	if errors.As(err, &se) {
		return err
	}
	if kind == types.KindStorage && isConstraint(err) {
		kind = types.KindConstraint
	}
	return &types.StoreError{Op: op, Kind: kind, Err: err}
}

// isConstraint reports whether err is a SQLite constraint failure, or one of
// the argument errors the store rejects before touching the engine.
func isConstraint(err error) bool {
	if errors.Is(err, types.ErrInvalidID) || errors.Is(err, types.ErrInvalidData) {
		return true
	}
	var e *msqlite.Error
	if !errors.As(err, &e) {
		return false
	}
	// Extended result codes carry the primary code in the low byte.
	return e.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
