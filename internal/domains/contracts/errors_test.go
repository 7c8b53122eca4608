package contracts

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapCategorizedError_NewErrorUsesProvidedCategory(t *testing.T) {
	wrapped := WrapCategorizedError(ErrorCategoryStorage, errors.New("boom"))
	var classified *CategorizedError
	if !errors.As(wrapped, &classified) {
		t.Fatalf("expected categorized error, got %T", wrapped)
	}
	if classified.Category != ErrorCategoryStorage {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryStorage, classified.Category)
	}
}

func TestWrapCategorizedError_NormalizesUnknownCategoryToAPI(t *testing.T) {
	wrapped := WrapCategorizedError("unknown", errors.New("boom"))
	if got := ErrorCategory(wrapped); got != ErrorCategoryAPI {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryAPI, got)
	}
}

func TestWrapCategorizedError_KeepsExistingCategory(t *testing.T) {
	inner := WrapCategorizedError(ErrorCategoryStorage, errors.New("disk"))
	outer := WrapCategorizedError(ErrorCategoryNetwork, fmt.Errorf("save: %w", inner))
	if got := ErrorCategory(outer); got != ErrorCategoryStorage {
		t.Fatalf("expected inner category to win, got %q", got)
	}
	if WrapCategorizedError(ErrorCategoryStorage, nil) != nil {
		t.Fatal("wrapping nil must return nil")
	}
}

func TestErrorCategory_DefaultsToAPIForRegularErrors(t *testing.T) {
	if got := ErrorCategory(errors.New("plain")); got != ErrorCategoryAPI {
		t.Fatalf("expected default category=%q, got %q", ErrorCategoryAPI, got)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Fault
	}{
		{name: "nil", err: nil, want: FaultNone},
		{name: "sentinel", err: ErrItemNotFound, want: FaultNotFound},
		{name: "typed", err: NewItemNotFound("abc"), want: FaultNotFound},
		{name: "wrapped typed", err: fmt.Errorf("lookup: %w", NewItemNotFound("abc")), want: FaultNotFound},
		{name: "categorized not found", err: WrapCategorizedError(ErrorCategoryStorage, NewItemNotFound("abc")), want: FaultNotFound},
		{name: "other", err: errors.New("database is locked"), want: FaultUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyError(tc.err); got != tc.want {
				t.Fatalf("ClassifyError() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestItemNotFoundErrorMessage(t *testing.T) {
	if got := NewItemNotFound("abc").Error(); got != `item "abc" not found` {
		t.Fatalf("unexpected message %q", got)
	}
	var empty *ItemNotFoundError
	if got := empty.Error(); got != "item not found" {
		t.Fatalf("unexpected message for nil error %q", got)
	}
}
