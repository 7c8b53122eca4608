package models

import "strings"

type Item struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	Completed bool   `json:"completed" db:"completed"`
}

type NewItem struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// ItemUpdate is a partial overlay; nil fields keep the stored value.
type ItemUpdate struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func (u ItemUpdate) IsEmpty() bool {
	return u.Title == nil && u.Completed == nil
}

func (u ItemUpdate) ApplyTo(item Item) Item {
	if u.Title != nil {
		item.Title = *u.Title
	}
	if u.Completed != nil {
		item.Completed = *u.Completed
	}
	return item
}

type FieldError struct {
	Message string `json:"message"`
}

// ValidationReport carries at most one message per invalid field.
// A report without errors means the input passed.
type ValidationReport struct {
	Errors map[string]FieldError `json:"errors,omitempty"`
}

func (r ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

// Add records message for field unless the field already has one.
func (r *ValidationReport) Add(field, message string) {
	field = strings.TrimSpace(field)
	if field == "" {
		return
	}
	if r.Errors == nil {
		r.Errors = make(map[string]FieldError)
	}
	if _, exists := r.Errors[field]; exists {
		return
	}
	r.Errors[field] = FieldError{Message: message}
}

// Reasons flattens the report into the field -> message map sent to clients.
func (r ValidationReport) Reasons() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for field, fieldErr := range r.Errors {
		out[field] = fieldErr.Message
	}
	return out
}
