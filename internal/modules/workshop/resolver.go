package workshop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/workshophq/workshop/internal/config"
	"github.com/workshophq/workshop/internal/modules/content"
	"github.com/workshophq/workshop/internal/modules/fieldset"
	"github.com/workshophq/workshop/internal/modules/storage/asset"
	"github.com/workshophq/workshop/internal/pkg/flash"
	"github.com/workshophq/workshop/internal/pkg/slugify"
	"go.uber.org/zap"
)

// Resolver turns a classified request into a persisted content object: it
// locates or builds the target, derives the slug, validates the fields,
// uploads files and saves.
type Resolver struct {
	cfg     config.WorkshopConfig
	theming config.ThemingConfig
	api     ContentAPI
	fsets   FieldsetAPI
	assets  asset.Store
	log     *zap.Logger
}

func NewResolver(cfg config.WorkshopConfig, theming config.ThemingConfig, api ContentAPI, fsets FieldsetAPI, assets asset.Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cfg: cfg, theming: theming, api: api, fsets: fsets, assets: assets, log: log}
}

// EntryCreate creates an entry in a collection.
func (r *Resolver) EntryCreate(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	if m.Collection == "" {
		return nil, ErrMissingCollection
	}

	col, err := r.api.CollectionByHandle(ctx, m.Collection)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, &ValidationError{Bag: flash.BagWorkshop, Fields: Errors{
				"collection": fmt.Sprintf("The %s collection does not exist.", m.Collection),
			}}
		}
		return nil, err
	}

	fsHandle := m.Fieldset
	if fsHandle == "" {
		fsHandle = col.Fieldset
	}
	fs, err := r.resolveFieldset(fsHandle)
	if err != nil {
		return nil, err
	}

	m = deriveSlug(m, fields)

	if verr := r.check(fs, m, fields); verr != nil {
		return nil, verr
	}
	if err := r.uploadFiles(ctx, fs, fields); err != nil {
		return nil, err
	}

	spec := content.EntrySpec{
		Collection: col,
		Slug:       m.Slug,
		Published:  m.Published,
		Fieldset:   fsHandle,
		Data:       r.whitelist(fs, fields),
	}
	if col.Order == "date" {
		date := parseDate(m.Date)
		spec.Date = &date
	} else if m.Order != "" {
		if n, err := strconv.Atoi(m.Order); err == nil {
			spec.OrderKey = &n
		}
	}

	cnt := r.api.NewEntry(spec)
	return cnt, r.persist(ctx, cnt)
}

// EntryUpdate updates an existing entry resolved by id.
func (r *Resolver) EntryUpdate(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	cnt, err := r.api.Find(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, cnt, m, fields)
}

// PageCreate creates a page at parent + slug.
func (r *Resolver) PageCreate(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	fsHandle := m.Fieldset
	if fsHandle == "" {
		fsHandle = r.defaultPageFieldset()
	}
	fs, err := r.resolveFieldset(fsHandle)
	if err != nil {
		return nil, err
	}

	m = deriveSlug(m, fields)

	if verr := r.check(fs, m, fields); verr != nil {
		return nil, verr
	}
	if err := r.uploadFiles(ctx, fs, fields); err != nil {
		return nil, err
	}

	cnt := r.api.NewPage(content.PageSpec{
		URL:       content.JoinURL(m.Parent, m.Slug),
		Parent:    m.Parent,
		Slug:      m.Slug,
		Published: m.Published,
		Fieldset:  fsHandle,
		Data:      r.whitelist(fs, fields),
	})
	return cnt, r.persist(ctx, cnt)
}

// PageUpdate updates an existing page resolved by id.
func (r *Resolver) PageUpdate(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	cnt, err := r.api.Find(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, cnt, m, fields)
}

// GlobalUpdate updates a global set, resolved by id or by handle.
func (r *Resolver) GlobalUpdate(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	cnt, err := r.api.Find(ctx, m.ID)
	if errors.Is(err, content.ErrNotFound) && m.ID != "" {
		cnt, err = r.api.FindGlobalByHandle(ctx, m.ID)
	}
	if err != nil {
		return nil, err
	}
	return r.update(ctx, cnt, m, fields)
}

// EntryDelete removes an existing entry. No validation pass.
func (r *Resolver) EntryDelete(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	return r.delete(ctx, m, "entry")
}

// PageDelete removes an existing page. No validation pass.
func (r *Resolver) PageDelete(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error) {
	return r.delete(ctx, m, "page")
}

// update validates and merges new field values into an existing content
// object. Untouched fields persist; same-named fields are overwritten.
func (r *Resolver) update(ctx context.Context, cnt content.Content, m Meta, fields map[string]interface{}) (content.Content, error) {
	fsHandle := m.Fieldset
	if fsHandle == "" {
		fsHandle = cnt.FieldsetHandle()
	}
	fs, err := r.resolveFieldset(fsHandle)
	if err != nil {
		return nil, err
	}

	m = deriveSlug(m, fields)

	if verr := r.check(fs, m, fields); verr != nil {
		return nil, verr
	}
	if err := r.uploadFiles(ctx, fs, fields); err != nil {
		return nil, err
	}

	cnt.MergeData(r.whitelist(fs, fields))
	return cnt, r.persist(ctx, cnt)
}

func (r *Resolver) delete(ctx context.Context, m Meta, wantType string) (content.Content, error) {
	cnt, err := r.api.Find(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if cnt.Type() != wantType {
		return nil, fmt.Errorf("%w: %s is not a %s", content.ErrNotFound, m.ID, wantType)
	}
	if err := cnt.Delete(ctx); err != nil {
		return nil, err
	}
	r.log.Info("content deleted", zap.String("type", wantType), zap.String("id", cnt.ID()))
	return cnt, nil
}

// check runs the derived validation rules. Nothing is mutated or persisted
// when it fails.
func (r *Resolver) check(fs *fieldset.Fieldset, m Meta, fields map[string]interface{}) error {
	rules := buildRules(fs, m.Slugify)
	if errs := runRules(fields, rules, fs.Labels()); errs != nil {
		return &ValidationError{Bag: flash.BagWorkshop, Fields: errs}
	}
	return nil
}

func (r *Resolver) persist(ctx context.Context, cnt content.Content) error {
	cnt.EnsureID()
	if err := cnt.Save(ctx); err != nil {
		return fmt.Errorf("save %s: %w", cnt.Type(), err)
	}
	r.log.Info("content saved",
		zap.String("type", cnt.Type()),
		zap.String("id", cnt.ID()),
		zap.String("url", cnt.URLPath()),
	)
	return nil
}

// resolveFieldset loads the named fieldset. An empty or unknown handle
// resolves to an empty schema so validation still runs the forced slug rule.
func (r *Resolver) resolveFieldset(handle string) (*fieldset.Fieldset, error) {
	if handle == "" {
		return &fieldset.Fieldset{Fields: map[string]fieldset.Field{}}, nil
	}
	fs, err := r.fsets.Get(handle)
	if err != nil {
		if errors.Is(err, fieldset.ErrNotFound) {
			return &fieldset.Fieldset{Handle: handle, Fields: map[string]fieldset.Field{}}, nil
		}
		return nil, err
	}
	return fs, nil
}

// defaultPageFieldset picks the configured page fieldset, falling back to
// the site-wide default.
func (r *Resolver) defaultPageFieldset() string {
	if h := r.theming.DefaultPageFieldset; h != "" && r.fsets.Exists(h) {
		return h
	}
	return r.theming.DefaultFieldset
}

// whitelist restricts content fields to the fieldset's declared names plus
// "title" when the whitelist option is on. Dropped fields are dropped
// silently.
func (r *Resolver) whitelist(fs *fieldset.Fieldset, fields map[string]interface{}) map[string]interface{} {
	if !r.cfg.Whitelist {
		return fields
	}

	allowed := make(map[string]bool, len(fs.Fields)+1)
	for name := range fs.Fields {
		allowed[name] = true
	}
	allowed["title"] = true

	filtered := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if allowed[k] {
			filtered[k] = v
		}
	}
	return filtered
}

// deriveSlug fills in Meta.Slug. An explicitly supplied slug wins untouched;
// otherwise the slugify-source field is transformed, falling back to the
// first content field in sorted key order when the source is absent.
func deriveSlug(m Meta, fields map[string]interface{}) Meta {
	if m.Slug != "" {
		return m
	}

	source := ""
	if v, ok := fields[m.Slugify]; ok {
		source = stringValue(v)
	} else if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		source = stringValue(fields[keys[0]])
	}

	m.Slug = slugify.Make(source)
	return m
}

// parseDate accepts the common date shapes a form posts; anything else
// falls back to now.
func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
