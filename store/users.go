package store

import (
	"context"
	"database/sql"
	"fmt"

	"solarcatalog/models"

	"github.com/pkg/errors"
)

// RoleStore reads user_roles. Rows are provisioned outside the application.
type RoleStore struct {
	Db *sql.DB
}

func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{Db: db}
}

func (s *RoleStore) LookupRole(ctx context.Context, userID string) (string, error) {
	if !validID(userID) {
		return "", models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var role string
	if err := s.Db.QueryRowContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&role); err != nil {
		return "", notFound(err, "lookup-role")
	}

	return role, nil
}

type UserStore struct {
	Db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{Db: db}
}

// Authenticate checks the credentials and returns ErrUnauthenticated for an
// unknown email or a wrong password alike.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	var correct bool
	err := s.Db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at, updated_at, password = crypt($2, password)
		FROM users
		WHERE email = $1 AND NOT deleted
	`, email, password).Scan(&user.Id, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt, &correct)

	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, models.ErrUnauthenticated
		}
		return models.User{}, errors.Wrap(err, "authenticate")
	}

	if !correct {
		return models.User{}, models.ErrUnauthenticated
	}

	return user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := s.Db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at, updated_at FROM users WHERE email = $1 AND NOT deleted
	`, email).Scan(&user.Id, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err, "find-user")
	}

	return user, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, password string) (email string, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = s.Db.QueryRowContext(ctx,
		`UPDATE users SET password = crypt($1, gen_salt('bf', 8)), updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND NOT deleted RETURNING email`,
		password, id).Scan(&email)
	if err != nil {
		err = notFound(err, "update-password")
	}

	return
}

func (s *UserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	if !validID(id) {
		return models.User{}, models.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := s.Db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1 AND NOT deleted
	`, id).Scan(&user.Id, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err, "find-user")
	}

	return user, nil
}

// EmailTaken reports whether another user already owns email.
func (s *UserStore) EmailTaken(ctx context.Context, email, exceptID string) (exists bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = s.Db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2 AND NOT deleted)", email, exceptID).Scan(&exists)
	if err != nil {
		err = errors.Wrap(err, "check-email")
	}
	return
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, form models.ProfileForm) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := "UPDATE users SET name = $1, email = $2, updated_at = CURRENT_TIMESTAMP"
	stms := []interface{}{form.Name, form.Email}

	if form.Password != "" {
		stms = append(stms, form.Password)
		q += fmt.Sprintf(", password = crypt($%d, gen_salt('bf', 8))", len(stms))
	}

	stms = append(stms, id)
	q += fmt.Sprintf(" WHERE id = $%d AND NOT deleted", len(stms))

	tag, err := s.Db.ExecContext(ctx, q, stms...)
	if err != nil {
		return errors.Wrap(err, "update-user")
	}

	if n, _ := tag.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}

	return nil
}
