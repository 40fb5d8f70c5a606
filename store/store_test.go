package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"solarcatalog/models"

	"github.com/DATA-DOG/go-sqlmock"
	pkgerrors "github.com/pkg/errors"
	"gotest.tools/assert"
)

var productLabel = []string{"id", "name", "description", "category", "image_url",
	"whatsapp_number", "status", "created_at", "updated_at"}

const mockID = "63eb226a-d612-412b-b8d4-a3e17b7d2226"

func TestFetchAll(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewProductStore(db)
	ctx := context.Background()

	// err select
	dbMock.ExpectQuery("SELECT id.* FROM products WHERE status = \\$1 ORDER BY created_at DESC").
		WithArgs("active").WillReturnError(errors.New("err-select"))

	_, err = s.FetchAll(ctx, models.StatusActive)
	assert.ErrorContains(t, err, "err-select")

	// active only, nullable columns
	now := time.Now()
	dbMock.ExpectQuery("SELECT id.* FROM products WHERE status = \\$1 ORDER BY created_at DESC").
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows(productLabel).
			AddRow(mockID, "Renew Power 550W", nil, "Solar Panel", nil, "919529989096", "active", now, now))

	products, err := s.FetchAll(ctx, models.StatusActive)
	assert.NilError(t, err)
	assert.Equal(t, 1, len(products))
	assert.Equal(t, "", products[0].Description)
	assert.Equal(t, models.StatusActive, products[0].Status)

	// no status filter
	dbMock.ExpectQuery("SELECT id.* FROM products ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(productLabel))

	products, err = s.FetchAll(ctx, "")
	assert.NilError(t, err)
	assert.Assert(t, products != nil)
	assert.Equal(t, 0, len(products))

	// scan error
	dbMock.ExpectQuery("SELECT id.*").
		WillReturnRows(sqlmock.NewRows(productLabel).
			AddRow(mockID, "x", nil, "Cable", nil, nil, "active", false, false))

	_, err = s.FetchAll(ctx, "")
	assert.ErrorContains(t, err, "Scan error")

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestFetchByID(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewProductStore(db)
	ctx := context.Background()

	_, err = s.FetchByID(ctx, "not-a-uuid")
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT id.* FROM products WHERE id = \\$1").
		WithArgs(mockID).WillReturnError(sql.ErrNoRows)

	_, err = s.FetchByID(ctx, mockID)
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT id.* FROM products WHERE id = \\$1").
		WithArgs(mockID).WillReturnError(errors.New("err-conn"))

	_, err = s.FetchByID(ctx, mockID)
	assert.Error(t, err, "fetch-product: err-conn")
	assert.Assert(t, !errors.Is(err, models.ErrNotFound))

	now := time.Now()
	dbMock.ExpectQuery("SELECT id.* FROM products WHERE id = \\$1").
		WithArgs(mockID).
		WillReturnRows(sqlmock.NewRows(productLabel).
			AddRow(mockID, "ACDB Box", "box", "ACDB-DCDB", "http://x/images/1-a.png", "91", "inactive", now, now))

	product, err := s.FetchByID(ctx, mockID)
	assert.NilError(t, err)
	assert.Equal(t, "http://x/images/1-a.png", product.ImageUrl)
	assert.Equal(t, models.StatusInactive, product.Status)

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestInsertAndUpdate(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewProductStore(db)
	ctx := context.Background()
	now := time.Now()

	form := models.ProductForm{
		Name:           "  Renew Power 550W ",
		Category:       "Solar Panel",
		WhatsappNumber: "919529989096",
		Status:         models.StatusActive,
	}

	dbMock.ExpectQuery("INSERT INTO products").
		WithArgs(sqlmock.AnyArg(), "Renew Power 550W", nil, "Solar Panel", nil, "919529989096", "active").
		WillReturnRows(sqlmock.NewRows(productLabel).
			AddRow(mockID, "Renew Power 550W", nil, "Solar Panel", nil, "919529989096", "active", now, now))

	product, err := s.Insert(ctx, form)
	assert.NilError(t, err)
	assert.Equal(t, mockID, product.Id)

	dbMock.ExpectQuery("INSERT INTO products").WillReturnError(errors.New("err-insert"))
	_, err = s.Insert(ctx, form)
	assert.Error(t, err, "insert-product: err-insert")

	// update missing row
	dbMock.ExpectQuery("UPDATE products SET").WillReturnError(sql.ErrNoRows)
	_, err = s.Update(ctx, mockID, form)
	assert.Equal(t, models.ErrNotFound, err)

	_, err = s.Update(ctx, "bad-id", form)
	assert.Equal(t, models.ErrNotFound, err)

	later := now.Add(time.Minute)
	dbMock.ExpectQuery("UPDATE products SET").
		WithArgs(mockID, "Renew Power 550W", nil, "Solar Panel", nil, "919529989096", "active").
		WillReturnRows(sqlmock.NewRows(productLabel).
			AddRow(mockID, "Renew Power 550W", nil, "Solar Panel", nil, "919529989096", "active", now, later))

	product, err = s.Update(ctx, mockID, form)
	assert.NilError(t, err)
	assert.Equal(t, later, product.UpdatedAt)

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestToggleStatus(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewProductStore(db)
	ctx := context.Background()
	now := time.Now()

	_, err = s.ToggleStatus(ctx, "x")
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("UPDATE products SET status = CASE WHEN status = 'active' THEN 'inactive' ELSE 'active' END, updated_at = CURRENT_TIMESTAMP WHERE id = \\$1").
		WithArgs(mockID).
		WillReturnRows(sqlmock.NewRows(productLabel).
			AddRow(mockID, "Renew Power 550W", "desc", "Solar Panel", nil, "91", "inactive", now, now))

	product, err := s.ToggleStatus(ctx, mockID)
	assert.NilError(t, err)
	assert.Equal(t, models.StatusInactive, product.Status)
	assert.Equal(t, "desc", product.Description)

	dbMock.ExpectQuery("UPDATE products").WithArgs(mockID).WillReturnError(sql.ErrNoRows)
	_, err = s.ToggleStatus(ctx, mockID)
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("UPDATE products").WithArgs(mockID).WillReturnError(errors.New("err-update"))
	_, err = s.ToggleStatus(ctx, mockID)
	assert.Error(t, err, "toggle-product-status: err-update")

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewProductStore(db)
	ctx := context.Background()

	assert.Equal(t, models.ErrNotFound, s.Delete(ctx, "x"))

	dbMock.ExpectExec("DELETE FROM products WHERE id = \\$1").WithArgs(mockID).
		WillReturnError(errors.New("err-delete"))
	assert.Error(t, s.Delete(ctx, mockID), "delete-product: err-delete")

	dbMock.ExpectExec("DELETE FROM products WHERE id = \\$1").WithArgs(mockID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Equal(t, models.ErrNotFound, s.Delete(ctx, mockID))

	dbMock.ExpectExec("DELETE FROM products WHERE id = \\$1").WithArgs(mockID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NilError(t, s.Delete(ctx, mockID))

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestDeleteMany(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewProductStore(db)
	ctx := context.Background()
	ids := []string{mockID, "63eb226a-d612-412b-b8d4-a3e17b7d2227"}

	dbMock.ExpectBegin().WillReturnError(errors.New("err-begin"))
	assert.Error(t, s.DeleteMany(ctx, ids), "delete-products: err-begin")

	dbMock.ExpectBegin()
	dbMock.ExpectExec("DELETE FROM products WHERE id = ANY").WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectRollback()
	err = s.DeleteMany(ctx, ids)
	assert.Assert(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, models.ErrNotFound, pkgerrors.Cause(err))
	assert.ErrorContains(t, err, "expected-2-deleted-but-got-1")

	dbMock.ExpectBegin()
	dbMock.ExpectExec("DELETE FROM products WHERE id = ANY").WillReturnResult(sqlmock.NewResult(0, 2))
	dbMock.ExpectCommit()
	assert.NilError(t, s.DeleteMany(ctx, ids))

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestLookupRole(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewRoleStore(db)
	ctx := context.Background()

	_, err = s.LookupRole(ctx, "")
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT role FROM user_roles").WithArgs(mockID).WillReturnError(sql.ErrNoRows)
	_, err = s.LookupRole(ctx, mockID)
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT role FROM user_roles").WithArgs(mockID).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))
	role, err := s.LookupRole(ctx, mockID)
	assert.NilError(t, err)
	assert.Equal(t, "user", role)

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestAuthenticate(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewUserStore(db)
	ctx := context.Background()
	label := []string{"id", "email", "name", "created_at", "updated_at", "is_correct"}

	dbMock.ExpectQuery("SELECT id.*FROM users").WillReturnRows(sqlmock.NewRows(label))
	_, err = s.Authenticate(ctx, "test@gmail.com", "test1234")
	assert.Equal(t, models.ErrUnauthenticated, err)

	dbMock.ExpectQuery("SELECT id.*FROM users").
		WillReturnRows(sqlmock.NewRows(label).AddRow(mockID, "test@gmail.com", "test", time.Now(), time.Now(), false))
	_, err = s.Authenticate(ctx, "test@gmail.com", "test1234")
	assert.Equal(t, models.ErrUnauthenticated, err)

	dbMock.ExpectQuery("SELECT id.*FROM users").WillReturnError(errors.New("err-select"))
	_, err = s.Authenticate(ctx, "test@gmail.com", "test1234")
	assert.Error(t, err, "authenticate: err-select")

	dbMock.ExpectQuery("SELECT id.*FROM users").WithArgs("test@gmail.com", "test1234").
		WillReturnRows(sqlmock.NewRows(label).AddRow(mockID, "test@gmail.com", "test", time.Now(), time.Now(), true))
	user, err := s.Authenticate(ctx, "test@gmail.com", "test1234")
	assert.NilError(t, err)
	assert.Equal(t, mockID, user.Id)
	assert.Equal(t, "", user.Role)

	dbMock.ExpectQuery("UPDATE users SET password").WithArgs("newpassword", mockID).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("test@gmail.com"))
	email, err := s.UpdatePassword(ctx, mockID, "newpassword")
	assert.NilError(t, err)
	assert.Equal(t, "test@gmail.com", email)

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestUserProfile(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewUserStore(db)
	ctx := context.Background()
	label := []string{"id", "email", "name", "created_at", "updated_at"}

	// not a uuid, no query
	_, err = s.FindByID(ctx, "1")
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT id.*FROM users WHERE id = \\$1").WithArgs(mockID).
		WillReturnRows(sqlmock.NewRows(label))
	_, err = s.FindByID(ctx, mockID)
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT id.*FROM users WHERE id = \\$1").WithArgs(mockID).
		WillReturnRows(sqlmock.NewRows(label).AddRow(mockID, "test@gmail.com", "test", time.Now(), time.Now()))
	user, err := s.FindByID(ctx, mockID)
	assert.NilError(t, err)
	assert.Equal(t, "test@gmail.com", user.Email)

	dbMock.ExpectQuery("SELECT EXISTS").WithArgs("taken@gmail.com", mockID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	taken, err := s.EmailTaken(ctx, "taken@gmail.com", mockID)
	assert.NilError(t, err)
	assert.Assert(t, taken)

	dbMock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("err-select"))
	_, err = s.EmailTaken(ctx, "taken@gmail.com", mockID)
	assert.Error(t, err, "check-email: err-select")

	// without password
	dbMock.ExpectExec("UPDATE users SET name = \\$1, email = \\$2, updated_at = CURRENT_TIMESTAMP WHERE id = \\$3").
		WithArgs("test", "test@gmail.com", mockID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err = s.UpdateProfile(ctx, mockID, models.ProfileForm{Name: "test", Email: "test@gmail.com"})
	assert.NilError(t, err)

	// with password
	dbMock.ExpectExec("password = crypt\\(\\$3, gen_salt\\('bf', 8\\)\\) WHERE id = \\$4").
		WithArgs("test", "test@gmail.com", "newpassword", mockID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err = s.UpdateProfile(ctx, mockID, models.ProfileForm{Name: "test", Email: "test@gmail.com", Password: "newpassword"})
	assert.NilError(t, err)

	dbMock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.UpdateProfile(ctx, mockID, models.ProfileForm{Name: "test", Email: "test@gmail.com"})
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectExec("UPDATE users").WillReturnError(errors.New("err-update"))
	err = s.UpdateProfile(ctx, mockID, models.ProfileForm{Name: "test", Email: "test@gmail.com"})
	assert.Error(t, err, "update-user: err-update")

	assert.NilError(t, dbMock.ExpectationsWereMet())
}

func TestImageStore(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)
	s := NewImageStore(db, "https://solar.example.com/")
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	assert.Equal(t, "1700000000000-my-panel.png", s.ObjectName("../my panel.png"))
	assert.Equal(t, "1700000000000-image", s.ObjectName("***"))

	dbMock.ExpectExec("INSERT INTO product_images").
		WithArgs("1700000000000-panel.png", "image/png", []byte("png")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	url, err := s.Put(ctx, "panel.png", "image/png", []byte("png"))
	assert.NilError(t, err)
	assert.Equal(t, "https://solar.example.com/images/1700000000000-panel.png", url)

	dbMock.ExpectExec("INSERT INTO product_images").WillReturnError(errors.New("err-upload"))
	_, err = s.Put(ctx, "panel.png", "image/png", []byte("png"))
	assert.Error(t, err, "upload-image: err-upload")

	dbMock.ExpectQuery("SELECT content_type, data FROM product_images").WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = s.Get(ctx, "missing")
	assert.Equal(t, models.ErrNotFound, err)

	dbMock.ExpectQuery("SELECT content_type, data FROM product_images").WithArgs("1-a.png").
		WillReturnRows(sqlmock.NewRows([]string{"content_type", "data"}).AddRow("image/png", []byte("png")))
	img, err := s.Get(ctx, "1-a.png")
	assert.NilError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.DeepEqual(t, []byte("png"), img.Data)

	assert.NilError(t, dbMock.ExpectationsWereMet())
}
