// Package workshop lets front-end HTML forms create and update CMS content.
// A form posts its fields plus an encrypted meta payload; the handler
// classifies the request, resolves the target content object, validates the
// submitted fields against the fieldset and persists the result.
package workshop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/workshophq/workshop/internal/models"
	"github.com/workshophq/workshop/internal/modules/content"
	"github.com/workshophq/workshop/internal/modules/fieldset"
)

// Operation enumerates the supported form actions. Dispatch is a static
// table checked at startup, not name-based reflection.
type Operation string

const (
	OpEntryCreate  Operation = "entry:create"
	OpEntryUpdate  Operation = "entry:update"
	OpEntryDelete  Operation = "entry:delete"
	OpPageCreate   Operation = "page:create"
	OpPageUpdate   Operation = "page:update"
	OpPageDelete   Operation = "page:delete"
	OpGlobalUpdate Operation = "global:update"
)

// Operations lists every supported operation.
func Operations() []Operation {
	return []Operation{
		OpEntryCreate, OpEntryUpdate, OpEntryDelete,
		OpPageCreate, OpPageUpdate, OpPageDelete,
		OpGlobalUpdate,
	}
}

// Path returns the route suffix for the operation, e.g. "/entry/create".
func (op Operation) Path() string {
	return "/" + strings.ReplaceAll(string(op), ":", "/")
}

// ContentAPI is the slice of the CMS content layer the workshop consumes.
type ContentAPI interface {
	CollectionByHandle(ctx context.Context, handle string) (*models.CollectionModel, error)
	Find(ctx context.Context, id string) (content.Content, error)
	FindGlobalByHandle(ctx context.Context, handle string) (content.Content, error)
	NewEntry(spec content.EntrySpec) content.Content
	NewPage(spec content.PageSpec) content.Content
}

// FieldsetAPI resolves fieldsets by handle.
type FieldsetAPI interface {
	Get(handle string) (*fieldset.Fieldset, error)
	Exists(handle string) bool
}

// Codec seals and opens the meta payload a rendered form carries.
type Codec interface {
	Encrypt(meta map[string]string) (string, error)
	Decrypt(payload string) (map[string]string, error)
}

// ErrMissingCollection is returned when entry:create is posted without a
// collection. It surfaces as a user-facing form error, not a crash.
var ErrMissingCollection = errors.New("a collection is required")

// Errors maps field names to human-readable validation messages.
type Errors map[string]string

// ValidationError carries per-field messages scoped to a named error bag so
// they never collide with unrelated forms on the same rendered page.
type ValidationError struct {
	Bag    string
	Fields Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}
