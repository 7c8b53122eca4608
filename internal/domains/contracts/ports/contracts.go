package ports

import (
	"context"
	"errors"
	"fmt"

	"shoplist/go-backend/pkg/models"
)

// ItemValidator is a transport-neutral validation contract. Validation never
// fails with an error value; problems are reported per field.
type ItemValidator interface {
	ValidateNewItem(input any) (models.NewItem, models.ValidationReport)
	ValidateItemUpdate(input any) (models.ItemUpdate, models.ValidationReport)
}

// ItemAPI is a transport-neutral shopping list item contract.
type ItemAPI interface {
	Create(ctx context.Context, info models.NewItem) (models.Item, error)
	FindByID(ctx context.Context, id string) (models.Item, error)
	FindAll(ctx context.Context) ([]models.Item, error)
	Update(ctx context.Context, id string, update models.ItemUpdate) (models.Item, error)
	Delete(ctx context.Context, id string) (models.Item, error)
}

type ShoppingListService interface {
	ItemValidator
	ItemAPI
}

type ItemRepository interface {
	ItemAPI
	Close() error
}

var ErrItemNotFound = errors.New("item not found")

type ItemNotFoundError struct {
	ID string
}

func (e *ItemNotFoundError) Error() string {
	if e == nil || e.ID == "" {
		return ErrItemNotFound.Error()
	}
	return fmt.Sprintf("item %q not found", e.ID)
}

func (e *ItemNotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}
