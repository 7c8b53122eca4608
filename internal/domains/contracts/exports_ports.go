package contracts

import contractports "shoplist/go-backend/internal/domains/contracts/ports"

type ItemValidator = contractports.ItemValidator
type ItemAPI = contractports.ItemAPI
type ShoppingListService = contractports.ShoppingListService
type ItemRepository = contractports.ItemRepository
type ItemNotFoundError = contractports.ItemNotFoundError
type CategorizedError = contractports.CategorizedError

var ErrItemNotFound = contractports.ErrItemNotFound
