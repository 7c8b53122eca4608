package policy

import (
	"strings"
	"testing"
)

func TestValidateNewItemAcceptsMinimalItem(t *testing.T) {
	item, report := DefaultRules().ValidateNewItem(map[string]any{"title": "milk"})
	if !report.Valid() {
		t.Fatalf("unexpected validation errors: %#v", report.Errors)
	}
	if item.Title != "milk" || item.Completed {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestValidateNewItemTrimsTitle(t *testing.T) {
	item, report := DefaultRules().ValidateNewItem(map[string]any{"title": "  bread  ", "completed": true})
	if !report.Valid() {
		t.Fatalf("unexpected validation errors: %#v", report.Errors)
	}
	if item.Title != "bread" || !item.Completed {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestValidateNewItemTitleRules(t *testing.T) {
	cases := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{name: "empty", input: map[string]any{"title": "", "completed": true}, want: "title is missing"},
		{name: "blank", input: map[string]any{"title": "   "}, want: "title is missing"},
		{name: "absent", input: map[string]any{"completed": true}, want: "title is required"},
		{name: "too short", input: map[string]any{"title": "a"}, want: "title length must be at least 2 characters long"},
		{name: "too long", input: map[string]any{"title": strings.Repeat("x", 51)}, want: "title length must be less than or equal to 50 characters long"},
		{name: "not a string", input: map[string]any{"title": 42.0}, want: "title must be a string"},
		{name: "null", input: map[string]any{"title": nil}, want: "title must be a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, report := DefaultRules().ValidateNewItem(tc.input)
			if report.Valid() {
				t.Fatal("expected validation failure")
			}
			reasons := report.Reasons()
			if reasons["title"] != tc.want {
				t.Fatalf("title reason = %q, want %q", reasons["title"], tc.want)
			}
		})
	}
}

func TestValidateNewItemCountsRunesNotBytes(t *testing.T) {
	title := strings.Repeat("ä", 50)
	if _, report := DefaultRules().ValidateNewItem(map[string]any{"title": title}); !report.Valid() {
		t.Fatalf("50 runes must be accepted, got %#v", report.Errors)
	}
}

func TestValidateNewItemReportsEveryInvalidField(t *testing.T) {
	_, report := DefaultRules().ValidateNewItem(map[string]any{
		"title":     "",
		"completed": "yes",
		"quantity":  3.0,
	})
	reasons := report.Reasons()
	if len(reasons) != 3 {
		t.Fatalf("expected three reasons, got %#v", reasons)
	}
	if reasons["completed"] != "completed must be a boolean" {
		t.Fatalf("unexpected completed reason %q", reasons["completed"])
	}
	if reasons["quantity"] != "quantity is not allowed" {
		t.Fatalf("unexpected quantity reason %q", reasons["quantity"])
	}
}

func TestValidateNewItemStrictVariantRequiresCompleted(t *testing.T) {
	rules := DefaultRules()
	rules.RequireCompleted = true
	_, report := rules.ValidateNewItem(map[string]any{"title": "milk"})
	if report.Reasons()["completed"] != "completed is required" {
		t.Fatalf("expected completed to be required, got %#v", report.Errors)
	}
}

func TestValidateNewItemRejectsNonObject(t *testing.T) {
	for _, input := range []any{nil, "milk", []any{"milk"}, 1.0} {
		_, report := DefaultRules().ValidateNewItem(input)
		if report.Reasons()["itemInfo"] == "" {
			t.Fatalf("expected itemInfo reason for %#v, got %#v", input, report.Errors)
		}
	}
}

func TestValidateItemUpdateAllowsPartialUpdates(t *testing.T) {
	update, report := DefaultRules().ValidateItemUpdate(map[string]any{"title": "oat milk"})
	if !report.Valid() {
		t.Fatalf("unexpected validation errors: %#v", report.Errors)
	}
	if update.Title == nil || *update.Title != "oat milk" {
		t.Fatalf("unexpected title %v", update.Title)
	}
	if update.Completed != nil {
		t.Fatal("completed must stay unset")
	}

	update, report = DefaultRules().ValidateItemUpdate(map[string]any{})
	if !report.Valid() || !update.IsEmpty() {
		t.Fatalf("empty update must be valid and empty, got %+v %#v", update, report.Errors)
	}
}

func TestValidateItemUpdateChecksPresentFields(t *testing.T) {
	_, report := DefaultRules().ValidateItemUpdate(map[string]any{"title": "", "completed": 1.0})
	reasons := report.Reasons()
	if reasons["title"] != "title is missing" {
		t.Fatalf("unexpected title reason %q", reasons["title"])
	}
	if reasons["completed"] != "completed must be a boolean" {
		t.Fatalf("unexpected completed reason %q", reasons["completed"])
	}

	_, report = DefaultRules().ValidateItemUpdate("new title")
	if report.Reasons()["itemUpdate"] == "" {
		t.Fatalf("expected itemUpdate reason, got %#v", report.Errors)
	}
}

func TestRulesNormalizeInvalidBounds(t *testing.T) {
	rules := Rules{TitleMinLength: 0, TitleMaxLength: -1}.normalized()
	if rules.TitleMinLength != DefaultTitleMinLength || rules.TitleMaxLength != DefaultTitleMaxLength {
		t.Fatalf("unexpected normalized rules %+v", rules)
	}

	custom := Rules{TitleMinLength: 3, TitleMaxLength: 10}
	if _, report := custom.ValidateNewItem(map[string]any{"title": "ab"}); report.Valid() {
		t.Fatal("custom minimum must be enforced")
	}
}
