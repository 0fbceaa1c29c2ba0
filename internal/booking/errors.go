package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDateBlocked is returned when the requested date is on the
	// clinic's blocked list.
	ErrDateBlocked = errors.New("booking: date is blocked")

	// ErrSlotTaken is returned when a non-cancelled appointment already
	// holds the requested date/time.
	ErrSlotTaken = errors.New("booking: slot already taken")

	// errReferenceTaken signals a reference-number collision on insert.
	// The service retries once with a fresh code before giving up.
	errReferenceTaken = errors.New("booking: reference number already exists")
)

// FieldErrors collects validation messages keyed by submission field.
type FieldErrors map[string][]string

// Add appends a message for a field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("booking: invalid fields: %s", strings.Join(fields, ", "))
}
