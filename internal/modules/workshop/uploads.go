package workshop

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/workshophq/workshop/internal/modules/fieldset"
)

// uploadFiles stores every submitted file into the asset backend and
// replaces the field's value with the stored URL(s). Fields carrying files
// that the fieldset does not declare as asset fields are dropped, not
// rejected. Runs strictly before merge so persisted content never holds raw
// upload handles.
func (r *Resolver) uploadFiles(ctx context.Context, fs *fieldset.Fieldset, fields map[string]interface{}) error {
	for key, value := range fields {
		headers := fileHeaders(value)
		if headers == nil {
			continue
		}

		def, ok := fs.Fields[key]
		if !ok || def.Type != fieldset.TypeAssets {
			delete(fields, key)
			continue
		}

		urls := make([]string, 0, len(headers))
		for _, fh := range headers {
			url, err := r.storeFile(ctx, def, fh)
			if err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			urls = append(urls, url)
		}

		if def.MaxFiles == 1 {
			if len(urls) > 0 {
				fields[key] = urls[0]
			} else {
				delete(fields, key)
			}
		} else {
			fields[key] = urls
		}
	}
	return nil
}

func (r *Resolver) storeFile(ctx context.Context, def fieldset.Field, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	return r.assets.Store(ctx, def.Container, def.Folder, fh.Filename, f, fh.Size, contentType)
}

func fileHeaders(v interface{}) []*multipart.FileHeader {
	switch t := v.(type) {
	case *multipart.FileHeader:
		if t == nil {
			return nil
		}
		return []*multipart.FileHeader{t}
	case []*multipart.FileHeader:
		return t
	default:
		return nil
	}
}
