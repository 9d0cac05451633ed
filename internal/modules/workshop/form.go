package workshop

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Builder renders form scaffolding for the workshop endpoints. Meta
// parameters given to a form are sealed into a hidden _meta input so the
// visitor cannot repoint the form at other content.
type Builder struct {
	codec    Codec
	basePath string
}

// FormOptions control the rendered <form> tag.
type FormOptions struct {
	// Meta attributes to seal into the hidden _meta input, e.g.
	// {"collection": "blog", "redirect": "url"}.
	Meta map[string]string
	// Attrs are extra HTML attributes for the form tag.
	Attrs map[string]string
	// Files adds the multipart enctype for forms with uploads.
	Files bool
}

func NewBuilder(codec Codec, basePath string) *Builder {
	return &Builder{codec: codec, basePath: strings.TrimRight(basePath, "/")}
}

// Open renders the opening form tag for an operation, including the sealed
// meta input when meta parameters are present.
func (b *Builder) Open(op Operation, opts FormOptions) (string, error) {
	var sb strings.Builder

	sb.WriteString(`<form method="POST" action="`)
	sb.WriteString(html.EscapeString(b.basePath + op.Path()))
	sb.WriteString(`"`)

	keys := make([]string, 0, len(opts.Attrs))
	for k := range opts.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, ` %s="%s"`, k, html.EscapeString(opts.Attrs[k]))
	}

	if opts.Files {
		sb.WriteString(` enctype="multipart/form-data"`)
	}
	sb.WriteString(">")

	if len(opts.Meta) > 0 {
		payload, err := b.codec.Encrypt(opts.Meta)
		if err != nil {
			return "", fmt.Errorf("seal form meta: %w", err)
		}
		fmt.Fprintf(&sb, `<input type="hidden" name="_meta" value="%s" />`, html.EscapeString(payload))
	}

	return sb.String(), nil
}

// Close renders the closing form tag.
func (b *Builder) Close() string { return "</form>" }
