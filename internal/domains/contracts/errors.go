package contracts

import (
	"errors"
	"strings"
)

const (
	ErrorCategoryAPI     = "api"
	ErrorCategoryStorage = "storage"
	ErrorCategoryNetwork = "network"
)

// Fault is the outcome class of a service call, used to pick between a fail
// and an error envelope.
type Fault int

const (
	FaultNone Fault = iota
	FaultNotFound
	FaultUnexpected
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultNotFound:
		return "not_found"
	default:
		return "unexpected"
	}
}

func ClassifyError(err error) Fault {
	switch {
	case err == nil:
		return FaultNone
	case errors.Is(err, ErrItemNotFound):
		return FaultNotFound
	default:
		return FaultUnexpected
	}
}

func NewItemNotFound(id string) error {
	return &ItemNotFoundError{ID: id}
}

var knownCategories = map[string]struct{}{
	ErrorCategoryAPI:     {},
	ErrorCategoryStorage: {},
	ErrorCategoryNetwork: {},
}

func categoryOrAPI(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if _, ok := knownCategories[category]; ok {
		return category
	}
	return ErrorCategoryAPI
}

// WrapCategorizedError tags err with category. An error that already carries
// a category anywhere in its chain is returned unchanged.
func WrapCategorizedError(category string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *CategorizedError
	if errors.As(err, &tagged) {
		return err
	}
	return &CategorizedError{Category: categoryOrAPI(category), Err: err}
}

// ErrorCategory reports the outermost category in err's chain, or api.
func ErrorCategory(err error) string {
	var tagged *CategorizedError
	if !errors.As(err, &tagged) {
		return ErrorCategoryAPI
	}
	return categoryOrAPI(tagged.Category)
}
