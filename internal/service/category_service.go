package service

import (
	"context"
	"errors"
	"strings"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CategoryService defines business operations for unit categories.
type CategoryService interface {
	Create(ctx context.Context, req dto.CategoryRequest) (dto.CategoryResponse, error)
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (dto.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	units repository.UnitRepository
	store ObjectStore
}

func NewCategoryService(repo repository.CategoryRepository, units repository.UnitRepository, store ObjectStore) CategoryService {
	return &categoryService{repo: repo, units: units, store: store}
}

func categoryToResponse(c *model.Category) dto.CategoryResponse {
	subs := c.Subcategories.Data()
	out := dto.CategoryResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		ImageKey:      c.ImageKey,
		Subcategories: make([]dto.SubcategoryDTO, len(subs)),
	}
	for i, sc := range subs {
		out.Subcategories[i] = dto.SubcategoryDTO{Name: sc.Name, SubSubcategories: sc.SubSubcategories}
	}
	return out
}

func subcategoriesFrom(in []dto.SubcategoryDTO) datatypes.JSONType[[]model.Subcategory] {
	subs := make([]model.Subcategory, len(in))
	for i, sc := range in {
		subs[i] = model.Subcategory{Name: strings.TrimSpace(sc.Name), SubSubcategories: sc.SubSubcategories}
		if subs[i].SubSubcategories == nil {
			subs[i].SubSubcategories = []string{}
		}
	}
	return datatypes.NewJSONType(subs)
}

func (s *categoryService) Create(ctx context.Context, req dto.CategoryRequest) (dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CategoryResponse{}, err
	}
	if existing != nil {
		return dto.CategoryResponse{}, ErrDuplicateCategory
	}

	c := &model.Category{Name: name, Subcategories: subcategoriesFrom(req.Subcategories)}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoryResponse{}, ErrDuplicateCategory
		}
		return dto.CategoryResponse{}, err
	}
	return categoryToResponse(c), nil
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoryResponse, 0, len(list))
	for i := range list {
		result = append(result, categoryToResponse(&list[i]))
	}
	return result, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.CategoryResponse{}, notFoundAs(err, ErrCategoryNotFound)
	}
	return categoryToResponse(c), nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.CategoryResponse{}, notFoundAs(err, ErrCategoryNotFound)
	}

	name := strings.TrimSpace(req.Name)
	if !strings.EqualFold(name, c.Name) {
		existing, err := s.repo.FindByName(ctx, name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, err
		}
		if existing != nil && existing.ID != id {
			return dto.CategoryResponse{}, ErrDuplicateCategory
		}
	}
	c.Name = name
	c.Subcategories = subcategoriesFrom(req.Subcategories)

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoryResponse{}, ErrDuplicateCategory
		}
		return dto.CategoryResponse{}, err
	}
	return categoryToResponse(c), nil
}

// Delete refuses while any unit, retired ones included, references the category.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, ErrCategoryNotFound)
	}
	n, err := s.units.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundAs(err, ErrCategoryNotFound)
	}
	if c.ImageKey != nil && s.store != nil {
		_ = s.store.Remove(ctx, *c.ImageKey)
	}
	return nil
}
