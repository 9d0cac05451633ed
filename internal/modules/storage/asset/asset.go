// Package asset stores uploaded files and hands back public URLs.
package asset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/workshophq/workshop/internal/config"
	"github.com/workshophq/workshop/internal/models"
	"gorm.io/gorm"
)

// Store persists one uploaded file into a container/folder and returns its
// public URL.
type Store interface {
	Store(ctx context.Context, container, folder, filename string, r io.Reader, size int64, contentType string) (string, error)
}

// New builds the configured storage backend.
func New(cfg config.StorageConfig, staticDir string, db *gorm.DB) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(staticDir, cfg.BaseURL, db), nil
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// Local writes assets under a static directory served by the app itself.
type Local struct {
	dir     string
	baseURL string
	db      *gorm.DB
}

func NewLocal(dir, baseURL string, db *gorm.DB) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), db: db}
}

func (l *Local) Store(ctx context.Context, container, folder, filename string, r io.Reader, size int64, contentType string) (string, error) {
	name := buildFileName(filename)
	rel := path.Join(safeSegment(container), safeSegment(folder), name)

	dst := filepath.Join(l.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write asset: %w", err)
	}

	url := l.baseURL + "/static/" + rel
	if l.db != nil {
		_ = l.db.WithContext(ctx).Create(&models.AssetModel{
			Container: container,
			Path:      rel,
			URL:       url,
			Size:      size,
		}).Error
	}
	return url, nil
}

// buildFileName prefixes a short random id so repeated uploads of the same
// file never clobber each other.
func buildFileName(original string) string {
	base := filepath.Base(original)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" || base == "." {
		base = "upload"
	}
	return uuid.New().String()[:8] + "-" + base
}

func safeSegment(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "/")
	s = strings.ReplaceAll(s, "..", "")
	if s == "" {
		return "uploads"
	}
	return s
}
