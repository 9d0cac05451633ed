package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/workshophq/workshop/internal/models"
	"gorm.io/gorm"
)

// Service implements the content API over the database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// CollectionByHandle resolves a collection by its handle.
func (s *Service) CollectionByHandle(ctx context.Context, handle string) (*models.CollectionModel, error) {
	var col models.CollectionModel
	if err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: collection %s", ErrNotFound, handle)
		}
		return nil, err
	}
	return &col, nil
}

// Find locates an existing content object by id, whichever type it is.
func (s *Service) Find(ctx context.Context, id string) (Content, error) {
	var entry models.EntryModel
	err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err == nil {
		return s.wrapEntry(&entry)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var page models.PageModel
	err = s.db.WithContext(ctx).First(&page, "id = ?", id).Error
	if err == nil {
		return &pageContent{db: s.db, model: &page}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var global models.GlobalModel
	err = s.db.WithContext(ctx).First(&global, "id = ?", id).Error
	if err == nil {
		return &globalContent{db: s.db, model: &global}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FindGlobalByHandle locates a global set by its handle.
func (s *Service) FindGlobalByHandle(ctx context.Context, handle string) (Content, error) {
	var global models.GlobalModel
	if err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&global).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: global %s", ErrNotFound, handle)
		}
		return nil, err
	}
	return &globalContent{db: s.db, model: &global}, nil
}

// NewEntry builds an unsaved entry under the given collection.
func (s *Service) NewEntry(spec EntrySpec) Content {
	model := &models.EntryModel{
		Slug:      spec.Slug,
		Published: spec.Published,
		Date:      spec.Date,
		OrderKey:  spec.OrderKey,
		Fieldset:  spec.Fieldset,
		Data:      spec.Data,
	}
	route := ""
	if spec.Collection != nil {
		model.Collection = spec.Collection.Handle
		route = spec.Collection.Route
		if route == "" {
			route = spec.Collection.Handle
		}
	}
	return &entryContent{db: s.db, model: model, route: route}
}

// NewPage builds an unsaved page at the given URL.
func (s *Service) NewPage(spec PageSpec) Content {
	return &pageContent{db: s.db, model: &models.PageModel{
		URL:       spec.URL,
		Parent:    spec.Parent,
		Slug:      spec.Slug,
		Published: spec.Published,
		Fieldset:  spec.Fieldset,
		Data:      spec.Data,
	}}
}

func (s *Service) wrapEntry(entry *models.EntryModel) (Content, error) {
	route := entry.Collection
	var col models.CollectionModel
	err := s.db.Where("handle = ?", entry.Collection).First(&col).Error
	if err == nil && col.Route != "" {
		route = col.Route
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &entryContent{db: s.db, model: entry, route: route}, nil
}
