package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"dealerstock/internal/dto"
	"dealerstock/internal/infra"
	"dealerstock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ObjectStore is the blob storage used for images and export artifacts.
// *infra.ObjectStorage satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// Upload is one file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

const maxUnitImages = 5

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ImageService interface {
	// ReplaceUnitImages stores files and swaps them in for the unit's current images.
	ReplaceUnitImages(ctx context.Context, unitID uuid.UUID, files []Upload) (*dto.UnitResponse, error)
	SetCategoryImage(ctx context.Context, categoryID uuid.UUID, file Upload) (*dto.CategoryResponse, error)
	RemoveCategoryImage(ctx context.Context, categoryID uuid.UUID) (*dto.CategoryResponse, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type imageService struct {
	store      ObjectStore
	units      repository.UnitRepository
	categories repository.CategoryRepository
}

func NewImageService(store ObjectStore, units repository.UnitRepository, categories repository.CategoryRepository) ImageService {
	return &imageService{store: store, units: units, categories: categories}
}

func (s *imageService) ReplaceUnitImages(ctx context.Context, unitID uuid.UUID, files []Upload) (*dto.UnitResponse, error) {
	if len(files) > maxUnitImages {
		return nil, ErrTooManyImages
	}
	for _, f := range files {
		if _, ok := imageExt[f.ContentType]; !ok {
			return nil, ErrUnsupportedImage
		}
	}
	u, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, notFoundAs(err, ErrUnitNotFound)
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := path.Join("units", unitID.String(), uuid.NewString()+imageExt[f.ContentType])
		if err := s.store.Put(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			s.removeAll(ctx, keys)
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := s.units.SetImages(ctx, unitID, keys); err != nil {
		s.removeAll(ctx, keys)
		return nil, notFoundAs(err, ErrUnitNotFound)
	}
	s.removeAll(ctx, u.Images)

	u, err = s.units.FindByID(ctx, unitID)
	if err != nil {
		return nil, notFoundAs(err, ErrUnitNotFound)
	}
	resp := unitToResponse(u)
	return &resp, nil
}

func (s *imageService) SetCategoryImage(ctx context.Context, categoryID uuid.UUID, file Upload) (*dto.CategoryResponse, error) {
	ext, ok := imageExt[file.ContentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}
	c, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, notFoundAs(err, ErrCategoryNotFound)
	}
	key := path.Join("categories", categoryID.String(), uuid.NewString()+ext)
	if err := s.store.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return nil, err
	}
	previous := c.ImageKey
	c.ImageKey = &key
	if err := s.categories.Update(ctx, c); err != nil {
		s.removeAll(ctx, []string{key})
		return nil, err
	}
	if previous != nil {
		s.removeAll(ctx, []string{*previous})
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *imageService) RemoveCategoryImage(ctx context.Context, categoryID uuid.UUID) (*dto.CategoryResponse, error) {
	c, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, notFoundAs(err, ErrCategoryNotFound)
	}
	if c.ImageKey != nil {
		key := *c.ImageKey
		c.ImageKey = nil
		if err := s.categories.Update(ctx, c); err != nil {
			return nil, err
		}
		s.removeAll(ctx, []string{key})
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

// Open streams a stored object. Only image prefixes are served here.
func (s *imageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if !strings.HasPrefix(key, "units/") && !strings.HasPrefix(key, "categories/") {
		return nil, ErrFileNotFound
	}
	rc, err := s.store.Get(ctx, key)
	if errors.Is(err, infra.ErrObjectNotFound) {
		return nil, ErrFileNotFound
	}
	return rc, err
}

// removeAll deletes objects best-effort; orphans are logged, not returned.
func (s *imageService) removeAll(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.store.Remove(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("images: remove failed")
		}
	}
}
