package races

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when no race has the requested id.
var ErrNotFound = errors.New("race not found")

var errNoRowsAffected = errors.New("no rows affected")

// ValidationError lists form fields that failed validation, keyed by form
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return "invalid race: " + strings.Join(msgs, "; ")
}

// StoreWriteError is a failed repository mutation. It is not recoverable
// by the workflow.
type StoreWriteError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s race %d: %v", e.Op, e.ID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
