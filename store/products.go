package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"solarcatalog/models"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const productColumns = `id, name, description, category, image_url, whatsapp_number, status, created_at, updated_at`

type ProductStore struct {
	Db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{Db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (product models.Product, err error) {
	var description, imageUrl, whatsappNumber sql.NullString
	var status string

	err = row.Scan(&product.Id, &product.Name, &description, &product.Category, &imageUrl,
		&whatsappNumber, &status, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return
	}

	product.Description = description.String
	product.ImageUrl = imageUrl.String
	product.WhatsappNumber = whatsappNumber.String
	product.Status = models.Status(status)

	return
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// FetchAll returns products newest first. An empty status returns every row.
func (s *ProductStore) FetchAll(ctx context.Context, status models.Status) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := `SELECT ` + productColumns + ` FROM products`
	var stms []interface{}

	if status != "" {
		q += " WHERE status = $1"
		stms = append(stms, string(status))
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.Db.QueryContext(ctx, q, stms...)
	if err != nil {
		return nil, errors.Wrap(err, "fetch-products")
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "fetch-products")
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "fetch-products")
	}

	return products, nil
}

func (s *ProductStore) FetchByID(ctx context.Context, id string) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	product, err := scanProduct(s.Db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return models.Product{}, notFound(err, "fetch-product")
	}

	return product, nil
}

func (s *ProductStore) Insert(ctx context.Context, form models.ProductForm) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	id := uuid.Must(uuid.NewV4()).String()

	product, err := scanProduct(s.Db.QueryRowContext(ctx, `
		INSERT INTO products
		(id, name, description, category, image_url, whatsapp_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING `+productColumns,
		id, strings.TrimSpace(form.Name), nullable(form.Description), form.Category,
		nullable(form.ImageUrl), nullable(form.WhatsappNumber), string(form.Status)))
	if err != nil {
		return models.Product{}, errors.Wrap(err, "insert-product")
	}

	return product, nil
}

// Update overwrites every editable field and refreshes updated_at.
func (s *ProductStore) Update(ctx context.Context, id string, form models.ProductForm) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	product, err := scanProduct(s.Db.QueryRowContext(ctx, `
		UPDATE products SET
		name = $2, description = $3, category = $4, image_url = $5, whatsapp_number = $6,
		status = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+productColumns,
		id, strings.TrimSpace(form.Name), nullable(form.Description), form.Category,
		nullable(form.ImageUrl), nullable(form.WhatsappNumber), string(form.Status)))
	if err != nil {
		return models.Product{}, notFound(err, "update-product")
	}

	return product, nil
}

// ToggleStatus flips active and inactive in a single UPDATE.
func (s *ProductStore) ToggleStatus(ctx context.Context, id string) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	product, err := scanProduct(s.Db.QueryRowContext(ctx, `
		UPDATE products
		SET status = CASE WHEN status = 'active' THEN 'inactive' ELSE 'active' END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+productColumns, id))
	if err != nil {
		return models.Product{}, notFound(err, "toggle-product-status")
	}

	return product, nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.Db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete-product")
	}

	if n, _ := tag.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteMany removes all ids or none of them.
func (s *ProductStore) DeleteMany(ctx context.Context, ids []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "delete-products")
	}
	defer tx.Rollback()

	tag, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "delete-products")
	}

	t, _ := tag.RowsAffected()
	if int(t) != len(ids) {
		return errors.Wrap(models.ErrNotFound, fmt.Sprintf("expected-%d-deleted-but-got-%d", len(ids), t))
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "delete-products")
	}

	return nil
}
