package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Transient errors roll the batch back and are retried on the next cycle;
// fatal errors abort the process with exit code 2.

// IsTransient reports whether a database error is safe to retry
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code.Class())
		switch class {
		case "08", // connection exceptions
			"40", // transaction rollback (serialization, deadlock)
			"53", // insufficient resources
			"57": // operator intervention, statement timeout
			return true
		}
		return false
	}

	// Driver-level connection failures surface as plain errors
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "i/o timeout")
}

// IsFatal reports whether a database error indicates schema or auth drift
func IsFatal(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code.Class())
		switch class {
		case "28", // invalid authorization
			"3D", // invalid catalog name
			"42": // syntax error or undefined object
			return true
		}
	}
	return false
}
