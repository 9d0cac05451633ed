package workshop

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workshophq/workshop/internal/config"
	"github.com/workshophq/workshop/internal/models"
	"github.com/workshophq/workshop/internal/modules/content"
	"github.com/workshophq/workshop/internal/modules/fieldset"
)

// fakeContent is an in-memory content.Content that counts persistence calls.
type fakeContent struct {
	id       string
	typ      string
	fsHandle string
	url      string
	data     map[string]interface{}
	saves    int
	deletes  int
}

func (f *fakeContent) ID() string   { return f.id }
func (f *fakeContent) Type() string { return f.typ }

func (f *fakeContent) Data() map[string]interface{} {
	if f.data == nil {
		f.data = map[string]interface{}{}
	}
	return f.data
}

func (f *fakeContent) MergeData(fields map[string]interface{}) {
	data := f.Data()
	for k, v := range fields {
		data[k] = v
	}
}

func (f *fakeContent) FieldsetHandle() string { return f.fsHandle }
func (f *fakeContent) URLPath() string        { return f.url }

func (f *fakeContent) EnsureID() {
	if f.id == "" {
		f.id = "generated-id"
	}
}

func (f *fakeContent) Save(ctx context.Context) error {
	f.saves++
	return nil
}

func (f *fakeContent) Delete(ctx context.Context) error {
	f.deletes++
	return nil
}

// fakeAPI is an in-memory ContentAPI.
type fakeAPI struct {
	collections map[string]*models.CollectionModel
	objects     map[string]*fakeContent
	globals     map[string]*fakeContent

	lastEntrySpec *content.EntrySpec
	lastPageSpec  *content.PageSpec
	created       []*fakeContent
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		collections: map[string]*models.CollectionModel{},
		objects:     map[string]*fakeContent{},
		globals:     map[string]*fakeContent{},
	}
}

func (f *fakeAPI) CollectionByHandle(ctx context.Context, handle string) (*models.CollectionModel, error) {
	if col, ok := f.collections[handle]; ok {
		return col, nil
	}
	return nil, content.ErrNotFound
}

func (f *fakeAPI) Find(ctx context.Context, id string) (content.Content, error) {
	if obj, ok := f.objects[id]; ok {
		return obj, nil
	}
	return nil, content.ErrNotFound
}

func (f *fakeAPI) FindGlobalByHandle(ctx context.Context, handle string) (content.Content, error) {
	if obj, ok := f.globals[handle]; ok {
		return obj, nil
	}
	return nil, content.ErrNotFound
}

func (f *fakeAPI) NewEntry(spec content.EntrySpec) content.Content {
	f.lastEntrySpec = &spec
	route := spec.Collection.Route
	if route == "" {
		route = spec.Collection.Handle
	}
	cnt := &fakeContent{
		typ:      "entry",
		fsHandle: spec.Fieldset,
		url:      content.JoinURL(route, spec.Slug),
		data:     spec.Data,
	}
	f.created = append(f.created, cnt)
	return cnt
}

func (f *fakeAPI) NewPage(spec content.PageSpec) content.Content {
	f.lastPageSpec = &spec
	cnt := &fakeContent{
		typ:      "page",
		fsHandle: spec.Fieldset,
		url:      spec.URL,
		data:     spec.Data,
	}
	f.created = append(f.created, cnt)
	return cnt
}

func (f *fakeAPI) totalSaves() int {
	n := 0
	for _, c := range f.created {
		n += c.saves
	}
	for _, c := range f.objects {
		n += c.saves
	}
	for _, c := range f.globals {
		n += c.saves
	}
	return n
}

// fakeFieldsets is an in-memory FieldsetAPI.
type fakeFieldsets struct {
	sets map[string]*fieldset.Fieldset
}

func (f *fakeFieldsets) Get(handle string) (*fieldset.Fieldset, error) {
	if fs, ok := f.sets[handle]; ok {
		return fs, nil
	}
	return nil, fieldset.ErrNotFound
}

func (f *fakeFieldsets) Exists(handle string) bool {
	_, ok := f.sets[handle]
	return ok
}

// fakeStore records stored files and hands back deterministic URLs.
type fakeStore struct {
	stored []string
}

func (s *fakeStore) Store(ctx context.Context, container, folder, filename string, r io.Reader, size int64, contentType string) (string, error) {
	s.stored = append(s.stored, filename)
	return fmt.Sprintf("https://cdn.test/%s/%s/%s", container, folder, filename), nil
}

type testEnv struct {
	api      *fakeAPI
	fsets    *fakeFieldsets
	store    *fakeStore
	resolver *Resolver
}

func newTestEnv(cfg config.WorkshopConfig, theming config.ThemingConfig) *testEnv {
	api := newFakeAPI()
	api.collections["blog"] = &models.CollectionModel{
		Handle:   "blog",
		Route:    "blog",
		Order:    "date",
		Fieldset: "post",
	}

	fsets := &fakeFieldsets{sets: map[string]*fieldset.Fieldset{
		"post": {
			Handle: "post",
			Fields: map[string]fieldset.Field{
				"title": {Display: "Title", Validate: "required"},
				"body":  {},
				"photo": {Type: fieldset.TypeAssets, Container: "main", Folder: "img", MaxFiles: 1},
			},
		},
		"page": {
			Handle: "page",
			Fields: map[string]fieldset.Field{
				"title": {Display: "Title"},
				"body":  {},
			},
		},
	}}

	store := &fakeStore{}
	return &testEnv{
		api:      api,
		fsets:    fsets,
		store:    store,
		resolver: NewResolver(cfg, theming, api, fsets, store, nil),
	}
}

func TestEntryCreate(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	m := Meta{Collection: "blog", Published: true, Slugify: "title", Parent: "/"}
	fields := map[string]interface{}{"title": "Hello World", "body": "text"}

	cnt, err := env.resolver.EntryCreate(context.Background(), m, fields)
	require.NoError(t, err)

	assert.Equal(t, "entry", cnt.Type())
	assert.Equal(t, "generated-id", cnt.ID())
	assert.Equal(t, "/blog/hello-world", cnt.URLPath())
	assert.Equal(t, 1, env.api.totalSaves(), "exactly one persist per submission")

	spec := env.api.lastEntrySpec
	require.NotNil(t, spec)
	assert.Equal(t, "hello-world", spec.Slug)
	assert.True(t, spec.Published)
	assert.Equal(t, "post", spec.Fieldset)
	require.NotNil(t, spec.Date, "date-ordered collections stamp a date")
	assert.Equal(t, "Hello World", spec.Data["title"])
}

func TestEntryCreateMissingCollection(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	_, err := env.resolver.EntryCreate(context.Background(), Meta{Slugify: "title"}, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, ErrMissingCollection)
	assert.Zero(t, env.api.totalSaves())
}

func TestEntryCreateUnknownCollection(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	m := Meta{Collection: "missing", Slugify: "title"}
	_, err := env.resolver.EntryCreate(context.Background(), m, map[string]interface{}{"title": "x"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "workshop", verr.Bag)
	assert.Contains(t, verr.Fields["collection"], "missing")
	assert.Zero(t, env.api.totalSaves())
}

func TestEntryCreateValidationFailureNothingPersisted(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	m := Meta{Collection: "blog", Slugify: "title"}
	_, err := env.resolver.EntryCreate(context.Background(), m, map[string]interface{}{"body": "no title"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The Title field is required.", verr.Fields["title"])
	assert.Zero(t, env.api.totalSaves())
	assert.Empty(t, env.store.stored, "no uploads on validation failure")
}

func TestEntryCreateExplicitSlugWins(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	m := Meta{Collection: "blog", Slug: "my-custom-slug", Slugify: "title"}
	_, err := env.resolver.EntryCreate(context.Background(), m, map[string]interface{}{"title": "Hello World"})
	require.NoError(t, err)

	assert.Equal(t, "my-custom-slug", env.api.lastEntrySpec.Slug)
}

func TestEntryCreateNumericOrder(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.collections["projects"] = &models.CollectionModel{
		Handle: "projects", Order: "number", Fieldset: "post",
	}

	m := Meta{Collection: "projects", Order: "3", Slugify: "title"}
	_, err := env.resolver.EntryCreate(context.Background(), m, map[string]interface{}{"title": "Thing"})
	require.NoError(t, err)

	spec := env.api.lastEntrySpec
	assert.Nil(t, spec.Date)
	require.NotNil(t, spec.OrderKey)
	assert.Equal(t, 3, *spec.OrderKey)
}

func TestEntryCreateWhitelistDropsUndeclared(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{Whitelist: true}, config.ThemingConfig{})

	m := Meta{Collection: "blog", Slugify: "title"}
	fields := map[string]interface{}{
		"title":    "Hello",
		"body":     "text",
		"sneaky":   "dropped",
		"is_admin": "true",
	}

	_, err := env.resolver.EntryCreate(context.Background(), m, fields)
	require.NoError(t, err)

	data := env.api.lastEntrySpec.Data
	assert.Contains(t, data, "title")
	assert.Contains(t, data, "body")
	assert.NotContains(t, data, "sneaky")
	assert.NotContains(t, data, "is_admin")
}

func TestEntryCreateFieldsetOverride(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	m := Meta{Collection: "blog", Fieldset: "page", Slugify: "title"}
	_, err := env.resolver.EntryCreate(context.Background(), m, map[string]interface{}{"title": "Hello"})
	require.NoError(t, err)

	assert.Equal(t, "page", env.api.lastEntrySpec.Fieldset)
}

func TestEntryUpdateMergesFields(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.objects["e1"] = &fakeContent{
		id: "e1", typ: "entry", fsHandle: "post", url: "/blog/old",
		data: map[string]interface{}{"title": "Old", "author": "jane"},
	}

	m := Meta{ID: "e1", Slugify: "title"}
	cnt, err := env.resolver.EntryUpdate(context.Background(), m, map[string]interface{}{"title": "New Title"})
	require.NoError(t, err)

	assert.Equal(t, "New Title", cnt.Data()["title"], "same-named field overwritten")
	assert.Equal(t, "jane", cnt.Data()["author"], "untouched field survives")
	assert.Equal(t, 1, env.api.objects["e1"].saves)
}

func TestEntryUpdateNotFound(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})

	_, err := env.resolver.EntryUpdate(context.Background(), Meta{ID: "nope", Slugify: "title"}, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestPageCreate(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{DefaultPageFieldset: "page"})

	m := Meta{Parent: "/about", Published: true, Slugify: "title"}
	cnt, err := env.resolver.PageCreate(context.Background(), m, map[string]interface{}{"title": "Our Team"})
	require.NoError(t, err)

	assert.Equal(t, "page", cnt.Type())
	assert.Equal(t, "/about/our-team", cnt.URLPath())

	spec := env.api.lastPageSpec
	require.NotNil(t, spec)
	assert.Equal(t, "/about", spec.Parent)
	assert.Equal(t, "our-team", spec.Slug)
	assert.Equal(t, "page", spec.Fieldset)
}

func TestPageCreateRootParent(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{DefaultPageFieldset: "page"})

	m := Meta{Parent: "/", Slugify: "title"}
	cnt, err := env.resolver.PageCreate(context.Background(), m, map[string]interface{}{"title": "Contact"})
	require.NoError(t, err)

	assert.Equal(t, "/contact", cnt.URLPath())
}

func TestGlobalUpdateByID(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.objects["g1"] = &fakeContent{
		id: "g1", typ: "global", fsHandle: "post",
		data: map[string]interface{}{"title": "Site"},
	}

	m := Meta{ID: "g1", Slugify: "title"}
	cnt, err := env.resolver.GlobalUpdate(context.Background(), m, map[string]interface{}{"title": "New Site"})
	require.NoError(t, err)
	assert.Equal(t, "New Site", cnt.Data()["title"])
}

func TestGlobalUpdateByHandleFallback(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.globals["settings"] = &fakeContent{
		id: "g2", typ: "global", fsHandle: "post",
		data: map[string]interface{}{"title": "Settings"},
	}

	m := Meta{ID: "settings", Slugify: "title"}
	cnt, err := env.resolver.GlobalUpdate(context.Background(), m, map[string]interface{}{"title": "Tuned"})
	require.NoError(t, err)

	assert.Equal(t, "Tuned", cnt.Data()["title"])
	assert.Equal(t, 1, env.api.globals["settings"].saves)
}

func TestEntryDelete(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.objects["e1"] = &fakeContent{id: "e1", typ: "entry"}

	_, err := env.resolver.EntryDelete(context.Background(), Meta{ID: "e1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, env.api.objects["e1"].deletes)
}

func TestEntryDeleteTypeMismatch(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.objects["p1"] = &fakeContent{id: "p1", typ: "page"}

	_, err := env.resolver.EntryDelete(context.Background(), Meta{ID: "p1"}, nil)
	assert.ErrorIs(t, err, content.ErrNotFound)
	assert.Zero(t, env.api.objects["p1"].deletes)
}

func TestPageDelete(t *testing.T) {
	env := newTestEnv(config.WorkshopConfig{}, config.ThemingConfig{})
	env.api.objects["p1"] = &fakeContent{id: "p1", typ: "page"}

	_, err := env.resolver.PageDelete(context.Background(), Meta{ID: "p1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, env.api.objects["p1"].deletes)
}

func TestDeriveSlug(t *testing.T) {
	base := Meta{Slugify: "title"}

	m := deriveSlug(base, map[string]interface{}{"title": "Hello World"})
	assert.Equal(t, "hello-world", m.Slug)

	explicit := base
	explicit.Slug = "keep-me"
	m = deriveSlug(explicit, map[string]interface{}{"title": "Hello World"})
	assert.Equal(t, "keep-me", m.Slug)

	// Absent slugify source falls back to the first field in key order.
	m = deriveSlug(base, map[string]interface{}{"zeta": "Last", "alpha": "First Value"})
	assert.Equal(t, "first-value", m.Slug)

	m = deriveSlug(base, map[string]interface{}{})
	assert.Equal(t, "", m.Slug)
}

func TestParseDate(t *testing.T) {
	got := parseDate("2026-08-30")
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), got)

	got = parseDate("2026-08-30 14:30")
	assert.Equal(t, 14, got.Hour())

	// Unparseable dates fall back to now.
	assert.WithinDuration(t, time.Now(), parseDate("whenever"), time.Minute)
}
