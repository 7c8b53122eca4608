package usecase

import (
	"context"
	"errors"
	"log/slog"

	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/internal/domains/shoppinglist/policy"
	"shoplist/go-backend/pkg/models"
)

var ErrRepositoryRequired = errors.New("item repository is required")

type ServiceDeps struct {
	Repository  contracts.ItemRepository
	Rules       policy.Rules
	Logger      *slog.Logger
	RecordError func(category string, err error)
}

// Service composes an item repository with the validation rules. It holds no
// state of its own; concurrency guarantees come from the repository.
type Service struct {
	repo        contracts.ItemRepository
	rules       policy.Rules
	logger      *slog.Logger
	recordError func(category string, err error)
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Repository == nil {
		return nil, ErrRepositoryRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rules := deps.Rules
	if rules == (policy.Rules{}) {
		rules = policy.DefaultRules()
	}
	return &Service{
		repo:        deps.Repository,
		rules:       rules,
		logger:      logger,
		recordError: deps.RecordError,
	}, nil
}

var _ contracts.ShoppingListService = (*Service)(nil)

func (s *Service) ValidateNewItem(input any) (models.NewItem, models.ValidationReport) {
	return s.rules.ValidateNewItem(input)
}

func (s *Service) ValidateItemUpdate(input any) (models.ItemUpdate, models.ValidationReport) {
	return s.rules.ValidateItemUpdate(input)
}

func (s *Service) Create(ctx context.Context, info models.NewItem) (models.Item, error) {
	item, err := s.repo.Create(ctx, info)
	if err != nil {
		s.observeError("create", err)
		return models.Item{}, err
	}
	return item, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (models.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.observeError("find_by_id", err)
		return models.Item{}, err
	}
	return item, nil
}

func (s *Service) FindAll(ctx context.Context) ([]models.Item, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		s.observeError("find_all", err)
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, id string, update models.ItemUpdate) (models.Item, error) {
	item, err := s.repo.Update(ctx, id, update)
	if err != nil {
		s.observeError("update", err)
		return models.Item{}, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) (models.Item, error) {
	item, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.observeError("delete", err)
		return models.Item{}, err
	}
	return item, nil
}

// Not-found is an expected outcome and is not logged.
func (s *Service) observeError(operation string, err error) {
	if contracts.ClassifyError(err) != contracts.FaultUnexpected {
		return
	}
	category := contracts.ErrorCategory(err)
	s.logger.Error("shopping list error",
		"component", "shoppinglist",
		"operation", operation,
		"category", category,
		"error", err.Error(),
	)
	if s.recordError != nil {
		s.recordError(category, err)
	}
}
