// Package access decides whether a request may reach an admin resource.
//
// Every enforcement point (request middleware, admin route guard and the
// login action) goes through IsAdmin and Gate so that they cannot drift
// apart.
package access

import (
	"context"
	"strings"

	"solarcatalog/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const LoginPath = "/admin/login"

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

var publicExact = []string{"/", "/favicon.ico", "/healthz"}

var publicPrefixes = []string{"/products", "/contact", LoginPath, "/_next", "/images", "/static"}

// IsPublicPath reports whether path can be served without an identity.
func IsPublicPath(path string) bool {
	for _, p := range publicExact {
		if path == p {
			return true
		}
	}

	for _, p := range publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

// IsAdmin is the only role predicate in the application.
func IsAdmin(role string) bool {
	return role == string(models.Admin)
}

type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (string, error)
}

// IdentityResolver returns the identity of the current request, or nil when
// there is none.
type IdentityResolver func() (*models.User, error)

type Gate struct {
	Roles RoleLookup
}

func NewGate(roles RoleLookup) *Gate {
	return &Gate{Roles: roles}
}

// Authorize returns nil only for an identity whose role record is admin.
// A missing role record is ErrUnauthorized; any other lookup failure is
// returned as is and must be treated as a denial.
func (g *Gate) Authorize(ctx context.Context, user *models.User) error {
	if user == nil || user.Id == "" {
		return models.ErrUnauthenticated
	}

	role, err := g.Roles.LookupRole(ctx, user.Id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return err
	}

	if !IsAdmin(role) {
		return models.ErrUnauthorized
	}

	user.Role = role
	return nil
}

// Check runs the whole gate for a request path. resolve is not called for
// public paths.
func (g *Gate) Check(ctx context.Context, path string, resolve IdentityResolver) Decision {
	if IsPublicPath(path) {
		return Allow
	}

	user, err := resolve()
	if err != nil {
		zap.L().Warn("access: identity resolution failed", zap.String("path", path), zap.Error(err))
		return Deny
	}

	if err := g.Authorize(ctx, user); err != nil {
		zap.L().Info("access: denied", zap.String("path", path), zap.Error(err))
		return Deny
	}

	return Allow
}
