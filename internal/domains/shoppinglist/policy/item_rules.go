package policy

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"shoplist/go-backend/pkg/models"
)

const (
	DefaultTitleMinLength = 2
	DefaultTitleMaxLength = 50
)

const (
	FieldTitle      = "title"
	FieldCompleted  = "completed"
	FieldItemInfo   = "itemInfo"
	FieldItemUpdate = "itemUpdate"
)

// Rules holds the item constraints shared by the create and update rule sets.
// RequireCompleted selects the strict create variant where completed must be
// sent explicitly.
type Rules struct {
	TitleMinLength   int
	TitleMaxLength   int
	RequireCompleted bool
}

func DefaultRules() Rules {
	return Rules{
		TitleMinLength: DefaultTitleMinLength,
		TitleMaxLength: DefaultTitleMaxLength,
	}
}

func (r Rules) normalized() Rules {
	if r.TitleMinLength < 1 {
		r.TitleMinLength = DefaultTitleMinLength
	}
	if r.TitleMaxLength < r.TitleMinLength {
		r.TitleMaxLength = max(DefaultTitleMaxLength, r.TitleMinLength)
	}
	return r
}

// ValidateNewItem checks a decoded create payload. The returned item holds the
// trimmed title and is only meaningful when the report is valid.
func (r Rules) ValidateNewItem(input any) (models.NewItem, models.ValidationReport) {
	r = r.normalized()
	var report models.ValidationReport
	fields, ok := input.(map[string]any)
	if !ok {
		report.Add(FieldItemInfo, FieldItemInfo+" must be an object")
		return models.NewItem{}, report
	}

	var item models.NewItem
	rawTitle, present := fields[FieldTitle]
	if !present {
		report.Add(FieldTitle, FieldTitle+" is required")
	} else if title, ok := r.checkTitle(rawTitle, &report); ok {
		item.Title = title
	}

	rawCompleted, present := fields[FieldCompleted]
	if !present {
		if r.RequireCompleted {
			report.Add(FieldCompleted, FieldCompleted+" is required")
		}
	} else if completed, ok := checkCompleted(rawCompleted, &report); ok {
		item.Completed = completed
	}

	rejectUnknownFields(fields, &report)
	return item, report
}

// ValidateItemUpdate checks a decoded partial update. Every field is optional
// but must satisfy the create constraints when present.
func (r Rules) ValidateItemUpdate(input any) (models.ItemUpdate, models.ValidationReport) {
	r = r.normalized()
	var report models.ValidationReport
	fields, ok := input.(map[string]any)
	if !ok {
		report.Add(FieldItemUpdate, FieldItemUpdate+" must be an object")
		return models.ItemUpdate{}, report
	}

	var update models.ItemUpdate
	if rawTitle, present := fields[FieldTitle]; present {
		if title, ok := r.checkTitle(rawTitle, &report); ok {
			update.Title = &title
		}
	}
	if rawCompleted, present := fields[FieldCompleted]; present {
		if completed, ok := checkCompleted(rawCompleted, &report); ok {
			update.Completed = &completed
		}
	}

	rejectUnknownFields(fields, &report)
	return update, report
}

func (r Rules) checkTitle(raw any, report *models.ValidationReport) (string, bool) {
	title, ok := raw.(string)
	if !ok {
		report.Add(FieldTitle, FieldTitle+" must be a string")
		return "", false
	}
	title = strings.TrimSpace(title)
	length := utf8.RuneCountInString(title)
	switch {
	case length == 0:
		report.Add(FieldTitle, FieldTitle+" is missing")
		return "", false
	case length < r.TitleMinLength:
		report.Add(FieldTitle, fmt.Sprintf("%s length must be at least %d characters long", FieldTitle, r.TitleMinLength))
		return "", false
	case length > r.TitleMaxLength:
		report.Add(FieldTitle, fmt.Sprintf("%s length must be less than or equal to %d characters long", FieldTitle, r.TitleMaxLength))
		return "", false
	}
	return title, true
}

func checkCompleted(raw any, report *models.ValidationReport) (bool, bool) {
	completed, ok := raw.(bool)
	if !ok {
		report.Add(FieldCompleted, FieldCompleted+" must be a boolean")
		return false, false
	}
	return completed, true
}

func rejectUnknownFields(fields map[string]any, report *models.ValidationReport) {
	unknown := make([]string, 0)
	for key := range fields {
		if key != FieldTitle && key != FieldCompleted {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		report.Add(key, key+" is not allowed")
	}
}
