// Package content is the CMS content API: it locates, instantiates and
// persists entries, pages and globals, and hides which is which behind the
// Content interface.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/workshophq/workshop/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no content object matches.
var ErrNotFound = errors.New("content not found")

// Content is an opaque handle to a single content object. A handle is
// request-scoped; Save persists the underlying record.
type Content interface {
	ID() string
	Type() string
	Data() map[string]interface{}
	MergeData(fields map[string]interface{})
	FieldsetHandle() string
	URLPath() string
	EnsureID()
	Save(ctx context.Context) error
	Delete(ctx context.Context) error
}

// EntrySpec describes a new entry to build under a collection.
type EntrySpec struct {
	Collection *models.CollectionModel
	Slug       string
	Published  bool
	Date       *time.Time
	OrderKey   *int
	Fieldset   string
	Data       map[string]interface{}
}

// PageSpec describes a new page to build at parent+slug.
type PageSpec struct {
	URL       string
	Parent    string
	Slug      string
	Published bool
	Fieldset  string
	Data      map[string]interface{}
}

type entryContent struct {
	db    *gorm.DB
	model *models.EntryModel
	route string
}

func (e *entryContent) ID() string   { return e.model.ID }
func (e *entryContent) Type() string { return "entry" }

func (e *entryContent) Data() map[string]interface{} {
	if e.model.Data == nil {
		e.model.Data = models.JSONMap{}
	}
	return e.model.Data
}

func (e *entryContent) MergeData(fields map[string]interface{}) {
	data := e.Data()
	for k, v := range fields {
		data[k] = v
	}
}

func (e *entryContent) FieldsetHandle() string { return e.model.Fieldset }

func (e *entryContent) URLPath() string {
	return JoinURL(e.route, e.model.Slug)
}

func (e *entryContent) EnsureID() {
	if e.model.ID == "" {
		e.model.ID = uuid.New().String()
	}
}

func (e *entryContent) Save(ctx context.Context) error {
	return e.db.WithContext(ctx).Save(e.model).Error
}

func (e *entryContent) Delete(ctx context.Context) error {
	return e.db.WithContext(ctx).Delete(e.model).Error
}

type pageContent struct {
	db    *gorm.DB
	model *models.PageModel
}

func (p *pageContent) ID() string   { return p.model.ID }
func (p *pageContent) Type() string { return "page" }

func (p *pageContent) Data() map[string]interface{} {
	if p.model.Data == nil {
		p.model.Data = models.JSONMap{}
	}
	return p.model.Data
}

func (p *pageContent) MergeData(fields map[string]interface{}) {
	data := p.Data()
	for k, v := range fields {
		data[k] = v
	}
}

func (p *pageContent) FieldsetHandle() string { return p.model.Fieldset }
func (p *pageContent) URLPath() string        { return p.model.URL }

func (p *pageContent) EnsureID() {
	if p.model.ID == "" {
		p.model.ID = uuid.New().String()
	}
}

func (p *pageContent) Save(ctx context.Context) error {
	return p.db.WithContext(ctx).Save(p.model).Error
}

func (p *pageContent) Delete(ctx context.Context) error {
	return p.db.WithContext(ctx).Delete(p.model).Error
}

type globalContent struct {
	db    *gorm.DB
	model *models.GlobalModel
}

func (g *globalContent) ID() string   { return g.model.ID }
func (g *globalContent) Type() string { return "global" }

func (g *globalContent) Data() map[string]interface{} {
	if g.model.Data == nil {
		g.model.Data = models.JSONMap{}
	}
	return g.model.Data
}

func (g *globalContent) MergeData(fields map[string]interface{}) {
	data := g.Data()
	for k, v := range fields {
		data[k] = v
	}
}

func (g *globalContent) FieldsetHandle() string { return g.model.Fieldset }
func (g *globalContent) URLPath() string        { return "/" }

func (g *globalContent) EnsureID() {
	if g.model.ID == "" {
		g.model.ID = uuid.New().String()
	}
}

func (g *globalContent) Save(ctx context.Context) error {
	return g.db.WithContext(ctx).Save(g.model).Error
}

func (g *globalContent) Delete(ctx context.Context) error {
	return g.db.WithContext(ctx).Delete(g.model).Error
}

// JoinURL assembles URL segments into a rooted path.
func JoinURL(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return "/" + strings.Join(cleaned, "/")
}
