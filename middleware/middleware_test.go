package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"tutoring/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	t.Setenv("BYTE_KEY", "middleware-test")

	token, err := GenerateJWT(5, "leila", domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 5, claims.UserID)
	assert.Equal(t, "leila", claims.Username)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	t.Setenv("BYTE_KEY", "another-key")
	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyJWTRejectsExpiredToken(t *testing.T) {
	t.Setenv("BYTE_KEY", "middleware-test")
	claims := &domain.Claims{
		Username: "leila",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("middleware-test"))
	require.NoError(t, err)

	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestAuthRequiredAndRoles(t *testing.T) {
	t.Setenv("BYTE_KEY", "middleware-test")

	app := fiber.New()
	app.Get("/teachers", AuthRequired(), RoleRequired(domain.RoleAdmin, domain.RoleTeacher), func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*domain.Claims)
		return c.SendString(claims.Username)
	})
	app.Get("/admins", AuthRequired(), RoleRequired(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	teacher, err := GenerateJWT(2, "karim", domain.RoleTeacher)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/teachers", "", fiber.StatusUnauthorized},
		{"garbage token", "/teachers", "Bearer nope", fiber.StatusUnauthorized},
		{"teacher allowed", "/teachers", "Bearer " + teacher, fiber.StatusOK},
		{"teacher forbidden", "/admins", "Bearer " + teacher, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
