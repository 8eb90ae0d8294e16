// Package validation composes per-field rule chains into form schemas.
//
// A Schema validates a flat map of string form values. Each field has an
// ordered chain of rules; the first failing rule supplies the field's message.
// Rules report user-facing messages as errors and never panic on bad input.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Rule checks a single field value. A non-nil error's text is shown to the user.
type Rule func(ctx context.Context, value string) error

// Chain is an ordered list of rules for one field.
type Chain struct {
	rules []Rule
}

// String returns a chain for a string field.
func String(rules ...Rule) Chain {
	return Chain{rules: rules}
}

// Number returns a chain for a numeric field. Empty values fail with
// requiredMsg and non-numeric values with MsgMustBeNumber before any of rules run.
func Number(requiredMsg string, rules ...Rule) Chain {
	return Chain{rules: append([]Rule{Required(requiredMsg), numeric}, rules...)}
}

// Concat appends the rules of others to c and returns the result.
func (c Chain) Concat(others ...Chain) Chain {
	rules := append([]Rule(nil), c.rules...)
	for _, o := range others {
		rules = append(rules, o.rules...)
	}
	return Chain{rules: rules}
}

// With appends rules to c.
func (c Chain) With(rules ...Rule) Chain {
	return Chain{rules: append(append([]Rule(nil), c.rules...), rules...)}
}

// Validate runs the rules in order and returns the first failure.
func (c Chain) Validate(ctx context.Context, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation failed: %v", r)
		}
	}()
	for _, rule := range c.rules {
		if err := rule(ctx, value); err != nil {
			return err
		}
	}
	return nil
}

// Field binds a chain to a form field name.
type Field struct {
	Name  string
	Chain Chain
}

// Schema is an ordered set of field chains.
type Schema struct {
	fields []Field
}

// Object builds a schema from fields. Later fields with the same name replace
// earlier ones.
func Object(fields ...Field) *Schema {
	s := &Schema{}
	for _, f := range fields {
		s.set(f)
	}
	return s
}

func (s *Schema) set(f Field) {
	for i := range s.fields {
		if s.fields[i].Name == f.Name {
			s.fields[i] = f
			return
		}
	}
	s.fields = append(s.fields, f)
}

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// ValidateAt validates a single field. Unknown fields pass.
func (s *Schema) ValidateAt(ctx context.Context, field, value string) error {
	for _, f := range s.fields {
		if f.Name == field {
			return f.Chain.Validate(ctx, value)
		}
	}
	return nil
}

// Validate runs every field chain and collects the failures. Missing values
// are validated as the empty string.
func (s *Schema) Validate(ctx context.Context, values map[string]string) Errors {
	errs := Errors{}
	for _, f := range s.fields {
		if err := f.Chain.Validate(ctx, values[f.Name]); err != nil {
			errs[f.Name] = err.Error()
		}
	}
	return errs
}

// Errors maps a field name to its message.
type Errors map[string]string

// IsEmpty reports whether no field failed.
func (e Errors) IsEmpty() bool {
	return len(e) == 0
}

// Error joins the messages so Errors can travel as an error value.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Message returns a rule error carrying msg verbatim.
func Message(msg string) error {
	return errors.New(msg)
}

// Required fails with msg when the trimmed value is empty.
func Required(msg string) Rule {
	return func(_ context.Context, value string) error {
		if strings.TrimSpace(value) == "" {
			return Message(msg)
		}
		return nil
	}
}

func numeric(_ context.Context, value string) error {
	value = strings.TrimSpace(value)
	seenDot, seenDigit := false, false
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot:
			seenDot = true
		default:
			return Message(MsgMustBeNumber)
		}
	}
	if !seenDigit {
		return Message(MsgMustBeNumber)
	}
	return nil
}
