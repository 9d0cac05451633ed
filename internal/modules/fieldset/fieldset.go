// Package fieldset loads content schemas from YAML files and compiles them
// into validation rules and display labels.
package fieldset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no fieldset exists for a handle.
var ErrNotFound = errors.New("fieldset not found")

// TypeAssets marks a field whose submitted values are file uploads.
const TypeAssets = "assets"

// Field is a single field definition inside a fieldset.
type Field struct {
	Type     string `yaml:"type"`
	Display  string `yaml:"display"`
	Validate string `yaml:"validate"` // pipe-delimited rule tokens

	// Asset fields only.
	Container string `yaml:"container"`
	Folder    string `yaml:"folder"`
	MaxFiles  int    `yaml:"max_files"`
}

// Fieldset describes a content type: its fields, their types and per-field
// configuration.
type Fieldset struct {
	Handle string           `yaml:"-"`
	Title  string           `yaml:"title"`
	Fields map[string]Field `yaml:"fields"`
}

// FieldNames returns the declared field names.
func (f *Fieldset) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	return names
}

// Rules compiles per-field pipe-delimited validation rule strings from each
// field's explicit validate config plus tokens implied by its type.
func (f *Fieldset) Rules() map[string]string {
	rules := make(map[string]string, len(f.Fields))
	for name, field := range f.Fields {
		tokens := splitRule(field.Validate)
		if implied := impliedToken(field.Type); implied != "" && !hasToken(tokens, implied) {
			tokens = append(tokens, implied)
		}
		rules[name] = strings.Join(tokens, "|")
	}
	return rules
}

// Labels returns human-readable attribute names, falling back to the field
// name itself.
func (f *Fieldset) Labels() map[string]string {
	labels := make(map[string]string, len(f.Fields))
	for name, field := range f.Fields {
		if field.Display != "" {
			labels[name] = field.Display
		} else {
			labels[name] = name
		}
	}
	return labels
}

func impliedToken(fieldType string) string {
	switch fieldType {
	case "email":
		return "email"
	case "url", "link":
		return "url"
	case "integer":
		return "numeric"
	default:
		return ""
	}
}

func splitRule(rule string) []string {
	if strings.TrimSpace(rule) == "" {
		return nil
	}
	parts := strings.Split(rule, "|")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func hasToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Service loads fieldsets from a directory of YAML files, one file per
// handle, and caches them in memory.
type Service struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Fieldset
}

func NewService(dir string) *Service {
	return &Service{dir: dir, cache: make(map[string]*Fieldset)}
}

// Get returns the fieldset for the given handle.
func (s *Service) Get(handle string) (*Fieldset, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	if fs, ok := s.cache[handle]; ok {
		s.mu.RUnlock()
		return fs, nil
	}
	s.mu.RUnlock()

	fs, err := s.load(handle)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[handle] = fs
	s.mu.Unlock()
	return fs, nil
}

// Exists reports whether a fieldset is defined for the handle.
func (s *Service) Exists(handle string) bool {
	_, err := s.Get(handle)
	return err == nil
}

func (s *Service) load(handle string) (*Fieldset, error) {
	var data []byte
	var err error
	for _, ext := range []string{".yaml", ".yml"} {
		data, err = os.ReadFile(filepath.Join(s.dir, handle+ext))
		if err == nil {
			break
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
		}
		return nil, fmt.Errorf("read fieldset %s: %w", handle, err)
	}

	fs := &Fieldset{Handle: handle}
	if err := yaml.Unmarshal(data, fs); err != nil {
		return nil, fmt.Errorf("parse fieldset %s: %w", handle, err)
	}
	if fs.Fields == nil {
		fs.Fields = map[string]Field{}
	}
	return fs, nil
}
