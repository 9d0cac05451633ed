package fieldset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postFieldset = `
title: Blog Post
fields:
  title:
    type: text
    display: Title
    validate: required|min=3
  body:
    type: textarea
  contact:
    type: email
    display: Contact Email
  photo:
    type: assets
    container: main
    folder: uploads
    max_files: 1
`

func writeFieldset(t *testing.T, dir, handle, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, handle+".yaml"), []byte(body), 0o644))
}

func TestServiceGet(t *testing.T) {
	dir := t.TempDir()
	writeFieldset(t, dir, "post", postFieldset)

	svc := NewService(dir)
	fs, err := svc.Get("post")
	require.NoError(t, err)

	assert.Equal(t, "post", fs.Handle)
	assert.Equal(t, "Blog Post", fs.Title)
	assert.Len(t, fs.Fields, 4)

	photo := fs.Fields["photo"]
	assert.Equal(t, TypeAssets, photo.Type)
	assert.Equal(t, "main", photo.Container)
	assert.Equal(t, 1, photo.MaxFiles)
}

func TestServiceGetMissing(t *testing.T) {
	svc := NewService(t.TempDir())

	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceExists(t *testing.T) {
	dir := t.TempDir()
	writeFieldset(t, dir, "post", postFieldset)

	svc := NewService(dir)
	assert.True(t, svc.Exists("post"))
	assert.False(t, svc.Exists("missing"))
}

func TestServiceCachesLoads(t *testing.T) {
	dir := t.TempDir()
	writeFieldset(t, dir, "post", postFieldset)

	svc := NewService(dir)
	_, err := svc.Get("post")
	require.NoError(t, err)

	// Deleting the file must not invalidate the cached schema.
	require.NoError(t, os.Remove(filepath.Join(dir, "post.yaml")))
	_, err = svc.Get("post")
	assert.NoError(t, err)
}

func TestRules(t *testing.T) {
	dir := t.TempDir()
	writeFieldset(t, dir, "post", postFieldset)

	svc := NewService(dir)
	fs, err := svc.Get("post")
	require.NoError(t, err)

	rules := fs.Rules()
	assert.Equal(t, "required|min=3", rules["title"])
	assert.Equal(t, "", rules["body"])
	assert.Equal(t, "email", rules["contact"], "email type implies the email rule")
}

func TestRulesImpliedTokenNotDuplicated(t *testing.T) {
	fs := &Fieldset{Fields: map[string]Field{
		"contact": {Type: "email", Validate: "required|email"},
	}}
	assert.Equal(t, "required|email", fs.Rules()["contact"])
}

func TestLabels(t *testing.T) {
	fs := &Fieldset{Fields: map[string]Field{
		"title": {Display: "Title"},
		"body":  {},
	}}

	labels := fs.Labels()
	assert.Equal(t, "Title", labels["title"])
	assert.Equal(t, "body", labels["body"], "falls back to the field name")
}

func TestFieldNames(t *testing.T) {
	fs := &Fieldset{Fields: map[string]Field{"a": {}, "b": {}}}
	assert.ElementsMatch(t, []string{"a", "b"}, fs.FieldNames())
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFieldset(t, dir, "bad", "fields: [not: a: map")

	svc := NewService(dir)
	_, err := svc.Get("bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
