package validation

import (
	"context"
	"errors"
	"testing"
)

func TestChainStopsAtFirstFailure(t *testing.T) {
	calls := 0
	count := func(context.Context, string) error { calls++; return nil }
	fail := func(msg string) Rule {
		return func(context.Context, string) error { return errors.New(msg) }
	}

	c := String(count, fail("first"), fail("second"), count)
	err := c.Validate(context.Background(), "x")
	if err == nil || err.Error() != "first" {
		t.Fatalf("Validate() = %v, want first", err)
	}
	if calls != 1 {
		t.Errorf("rules after a failure ran: calls = %d", calls)
	}
}

func TestChainConcat(t *testing.T) {
	a := String(Required("a"))
	b := String(func(context.Context, string) error { return errors.New("b") })

	joined := a.Concat(b)
	if err := joined.Validate(context.Background(), ""); err == nil || err.Error() != "a" {
		t.Errorf("empty value: %v, want a", err)
	}
	if err := joined.Validate(context.Background(), "v"); err == nil || err.Error() != "b" {
		t.Errorf("filled value: %v, want b", err)
	}
	// Concat must not mutate the receiver
	if err := a.Validate(context.Background(), "v"); err != nil {
		t.Errorf("receiver mutated: %v", err)
	}
}

func TestChainRecoversFromPanickingRule(t *testing.T) {
	c := String(func(context.Context, string) error { panic("boom") })
	if err := c.Validate(context.Background(), "v"); err == nil {
		t.Error("expected an error from a panicking rule")
	}
}

func TestNumber(t *testing.T) {
	c := Number(MsgAmountRequired)

	tests := []struct {
		value string
		want  string
	}{
		{"", MsgAmountRequired},
		{"   ", MsgAmountRequired},
		{"abc", MsgMustBeNumber},
		{"1.2.3", MsgMustBeNumber},
		{"-1", MsgMustBeNumber},
		{".", MsgMustBeNumber},
		{"0.5", ""},
		{".5", ""},
		{"10", ""},
	}

	for _, tt := range tests {
		err := c.Validate(context.Background(), tt.value)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tt.want {
			t.Errorf("Validate(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestSchemaValidate(t *testing.T) {
	s := Object(
		Field{Name: "a", Chain: String(Required("a required"))},
		Field{Name: "b", Chain: String(Required("b required"))},
		Field{Name: "c", Chain: String()},
	)

	if got := s.Fields(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Fields() = %v", got)
	}

	errs := s.Validate(context.Background(), map[string]string{"a": "set"})
	if errs.IsEmpty() {
		t.Fatal("expected errors")
	}
	if _, ok := errs["a"]; ok {
		t.Error("field a should pass")
	}
	if errs["b"] != "b required" {
		t.Errorf("errs[b] = %q", errs["b"])
	}
	if _, ok := errs["c"]; ok {
		t.Error("field without rules should pass when empty")
	}

	if err := s.ValidateAt(context.Background(), "unknown", ""); err != nil {
		t.Errorf("unknown field should pass, got %v", err)
	}
}

func TestObjectReplacesDuplicateFields(t *testing.T) {
	s := Object(
		Field{Name: "a", Chain: String(Required("old"))},
		Field{Name: "a", Chain: String(Required("new"))},
	)
	if n := len(s.Fields()); n != 1 {
		t.Fatalf("len(Fields()) = %d, want 1", n)
	}
	if err := s.ValidateAt(context.Background(), "a", ""); err == nil || err.Error() != "new" {
		t.Errorf("ValidateAt() = %v, want new", err)
	}
}
