package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/repository/memory"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatal("token already expired")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseTokenRejectsForeignOrExpired(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	other := NewTokenManager("other", 5)
	token, _, _ := other.GenerateToken("user-1", domain.RoleUser)
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}

	expired := NewTokenManager("secret", 1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, _ = expired.GenerateToken("user-1", domain.RoleUser)
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	if err != nil {
		t.Fatal(err)
	}
	if ComparePassword(hash, "s3cret!") != nil {
		t.Fatal("matching password rejected")
	}
	if ComparePassword(hash, "wrong") == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestMiddlewareRoles(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	admin := &domain.User{Name: "Admin", Email: "admin@x.com", Role: domain.RoleAdmin}
	user := &domain.User{Name: "User", Email: "user@x.com", Role: domain.RoleUser}
	for _, u := range []*domain.User{admin, user} {
		if err := store.Users().Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	tm := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tm, store.Users())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.SendStatus(de.HTTPStatus)
		},
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/public", mw.Optional, func(c *fiber.Ctx) error {
		if p, ok := PrincipalFromContext(c); ok && p.IsAdmin() {
			return c.SendStatus(http.StatusAccepted)
		}
		return c.SendStatus(http.StatusOK)
	})

	adminToken, _, _ := tm.GenerateToken(admin.ID, admin.Role)
	userToken, _, _ := tm.GenerateToken(user.ID, user.Role)

	cases := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"admin allowed", "/admin", adminToken, http.StatusOK},
		{"user forbidden", "/admin", userToken, http.StatusForbidden},
		{"anonymous unauthorized", "/admin", "", http.StatusUnauthorized},
		{"garbage token", "/admin", "garbage", http.StatusUnauthorized},
		{"optional anonymous", "/public", "", http.StatusOK},
		{"optional admin", "/public", adminToken, http.StatusAccepted},
		{"optional bad token ignored", "/public", "garbage", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}
