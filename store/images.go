package store

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ImageStore keeps uploaded product images in postgres and hands out the
// public URL they are served from.
type ImageStore struct {
	Db      *sql.DB
	BaseURL string

	now func() time.Time
}

func NewImageStore(db *sql.DB, baseURL string) *ImageStore {
	return &ImageStore{Db: db, BaseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// ObjectName is the key an upload named fileName is stored under.
func (s *ImageStore) ObjectName(fileName string) string {
	base := unsafeName.ReplaceAllString(path.Base(fileName), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), base)
}

func (s *ImageStore) URL(name string) string {
	return s.BaseURL + "/images/" + name
}

// Put stores data and returns the URL it will be served from.
func (s *ImageStore) Put(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	name := s.ObjectName(fileName)
	if _, err := s.Db.ExecContext(ctx, `
		INSERT INTO product_images (name, content_type, data, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	`, name, contentType, data); err != nil {
		return "", errors.Wrap(err, "upload-image")
	}

	return s.URL(name), nil
}

func (s *ImageStore) Get(ctx context.Context, name string) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	img := Image{Name: name}
	err := s.Db.QueryRowContext(ctx, `SELECT content_type, data FROM product_images WHERE name = $1`, name).
		Scan(&img.ContentType, &img.Data)
	if err != nil {
		return Image{}, notFound(err, "fetch-image")
	}

	return img, nil
}
