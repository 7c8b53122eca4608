package shoppinglist

import (
	"shoplist/go-backend/internal/domains/shoppinglist/policy"
	shoppinglistusecase "shoplist/go-backend/internal/domains/shoppinglist/usecase"
)

type Service = shoppinglistusecase.Service
type ServiceDeps = shoppinglistusecase.ServiceDeps
type Rules = policy.Rules

func NewService(deps ServiceDeps) (*Service, error) {
	return shoppinglistusecase.NewService(deps)
}

func DefaultRules() Rules {
	return policy.DefaultRules()
}
