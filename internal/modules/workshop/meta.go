package workshop

import (
	"errors"
	"fmt"

	"github.com/workshophq/workshop/internal/pkg/crypt"
)

// Meta holds the structural attributes that describe how content is created
// or updated, as opposed to the content's own field data. A Meta is built
// once by Classify and never mutated afterwards.
type Meta struct {
	ID         string // identifier of existing content
	Collection string // an entry's collection handle
	Date       string // an entry's optional date
	Fieldset   string // explicit fieldset override
	Order      string // an entry or page's order key
	Published  bool   // published status, defaults to true
	Parent     string // a page's parent path, defaults to root
	Redirect   string // success redirect: literal URL or the "url" sentinel
	Slug       string // pre-set slug; empty means derive from Slugify
	Slugify    string // field to slugify, defaults to "title"
}

func defaultMeta() Meta {
	return Meta{
		Published: true,
		Parent:    "/",
		Slugify:   "title",
	}
}

const metaFieldName = "_meta"

var metaKeys = map[string]struct{}{
	"id": {}, "collection": {}, "date": {}, "fieldset": {}, "order": {},
	"published": {}, "parent": {}, "redirect": {}, "slug": {}, "slugify": {},
}

// Classify splits raw form fields into the meta record and the remaining
// content fields. Plain meta fields override the built-in defaults; a
// decrypted _meta overlay overrides both. The input map is not modified and
// no recognized meta key survives into the returned field map.
func Classify(raw map[string]interface{}, codec Codec) (Meta, map[string]interface{}, error) {
	meta := defaultMeta()
	fields := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		fields[k] = v
	}

	for key := range metaKeys {
		if v, ok := fields[key]; ok {
			meta.set(key, v)
			delete(fields, key)
		}
	}

	if payload, ok := fields[metaFieldName]; ok {
		sealed := stringValue(payload)
		overlay, err := codec.Decrypt(sealed)
		if err != nil {
			if !errors.Is(err, crypt.ErrMalformedMeta) {
				err = fmt.Errorf("%w: %v", crypt.ErrMalformedMeta, err)
			}
			return Meta{}, nil, err
		}
		for key, v := range overlay {
			if _, ok := metaKeys[key]; ok {
				meta.set(key, v)
			}
		}
		delete(fields, metaFieldName)
	}

	return meta, fields, nil
}

func (m *Meta) set(key string, raw interface{}) {
	value := formatValue(raw)
	switch key {
	case "id":
		m.ID = asString(value)
	case "collection":
		m.Collection = asString(value)
	case "date":
		m.Date = asString(value)
	case "fieldset":
		m.Fieldset = asString(value)
	case "order":
		m.Order = asString(value)
	case "published":
		if b, ok := value.(bool); ok {
			m.Published = b
		} else if s := asString(value); s != "" {
			m.Published = s != "false"
		}
	case "parent":
		if s := asString(value); s != "" {
			m.Parent = s
		}
	case "redirect":
		m.Redirect = asString(value)
	case "slug":
		m.Slug = asString(value)
	case "slugify":
		if s := asString(value); s != "" {
			m.Slugify = s
		}
	}
}

// formatValue coerces the literal strings "true" and "false" to booleans and
// passes everything else through.
func formatValue(v interface{}) interface{} {
	switch s := stringValue(v); s {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// stringValue flattens a form value to a single string: multi-valued fields
// contribute their first value.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	case bool:
		if t {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return t.String()
	}
	return ""
}

func asString(v interface{}) string {
	if b, ok := v.(bool); ok {
		if b {
			return "true"
		}
		return "false"
	}
	return stringValue(v)
}
