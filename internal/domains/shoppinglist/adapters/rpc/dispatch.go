package rpc

import (
	"context"

	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/internal/domains/rpckit"
	"shoplist/go-backend/pkg/models"
)

const (
	EventCreate = "shoppingListItem:create"
	EventList   = "shoppingListItem:list"
	EventRead   = "shoppingListItem:read"
	EventUpdate = "shoppingListItem:update"
	EventDelete = "shoppingListItem:delete"
)

const FieldItemID = "itemId"

var events = []string{EventCreate, EventList, EventRead, EventUpdate, EventDelete}

func Events() []string {
	return append([]string(nil), events...)
}

func IsKnownEvent(event string) bool {
	for _, known := range events {
		if known == event {
			return true
		}
	}
	return false
}

// Dispatch runs one shopping list event against the service. The caller has
// already checked that the event carries an acknowledgement; the returned
// response is what gets acknowledged. The bool is false for unknown events.
func Dispatch(ctx context.Context, service contracts.ShoppingListService, event string, args []any) (models.Response, bool) {
	switch event {
	case EventCreate:
		info, report := service.ValidateNewItem(argAt(args, 0))
		if !report.Valid() {
			return rpckit.FailValidation(report), true
		}
		return itemResult(service.Create(ctx, info)), true
	case EventList:
		items, err := service.FindAll(ctx)
		if err != nil {
			return rpckit.Error(err), true
		}
		return rpckit.Success(items), true
	case EventRead:
		return callWithItemID(args, func(id string) models.Response {
			return itemResult(service.FindByID(ctx, id))
		}), true
	case EventUpdate:
		return callWithItemID(args, func(id string) models.Response {
			update, report := service.ValidateItemUpdate(argAt(args, 1))
			if !report.Valid() {
				return rpckit.FailValidation(report)
			}
			return itemResult(service.Update(ctx, id, update))
		}), true
	case EventDelete:
		return callWithItemID(args, func(id string) models.Response {
			return itemResult(service.Delete(ctx, id))
		}), true
	default:
		return models.Response{}, false
	}
}

func argAt(args []any, index int) any {
	if index < 0 || index >= len(args) {
		return nil
	}
	return args[index]
}

func callWithItemID(args []any, call func(id string) models.Response) models.Response {
	id, reason, ok := itemIDArg(args)
	if !ok {
		return rpckit.FailField(FieldItemID, reason)
	}
	return call(id)
}

// itemIDArg treats a missing argument, null and "" as absent.
func itemIDArg(args []any) (string, string, bool) {
	raw := argAt(args, 0)
	switch v := raw.(type) {
	case nil:
		return "", "itemId is required", false
	case string:
		if v == "" {
			return "", "itemId is required", false
		}
		return v, "", true
	default:
		return "", "itemId must be a string", false
	}
}

func itemResult(item models.Item, err error) models.Response {
	switch contracts.ClassifyError(err) {
	case contracts.FaultNone:
		return rpckit.Success(item)
	case contracts.FaultNotFound:
		return rpckit.FailField(FieldItemID, err.Error())
	default:
		return rpckit.Error(err)
	}
}
