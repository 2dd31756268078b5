package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldErrors maps a dotted field path (for example
// "content_blocks.2.data.text") to a human readable message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error
func (e FieldErrors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Merge flattens an ozzo error (possibly nested) under prefix
func (e FieldErrors) Merge(prefix string, err error) {
	if err == nil {
		return
	}

	var errs ozzo.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			if fieldErr == nil {
				continue
			}
			e.Merge(join(prefix, field), fieldErr)
		}
		return
	}

	if prefix == "" {
		prefix = "_"
	}
	e.Add(prefix, err.Error())
}

// Empty reports whether no errors were recorded
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Fields returns the field paths in sorted order
func (e FieldErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
