package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/roadmap/pkg/httpcontext"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func run(t *testing.T, authorization string, extra map[string]string) (*fasthttp.RequestCtx, bool) {
	t.Helper()
	var ctx fasthttp.RequestCtx
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	for k, v := range extra {
		ctx.Request.Header.Set(k, v)
	}
	called := false
	handler := JWTAuth(testSecret, "family-roadmap", nil)(func(*fasthttp.RequestCtx) { called = true })
	handler(&ctx)
	return &ctx, called
}

func TestJWTAuth_ForwardsClaims(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"user_id": "u-anna",
		"email":   "anna@example.com",
		"name":    "Anna",
		"iss":     "family-roadmap",
	}, testSecret)

	ctx, called := run(t, "Bearer "+token, nil)

	require.True(t, called)
	id := httpcontext.RequestIdentity(ctx)
	assert.Equal(t, "u-anna", id.UserID)
	assert.Equal(t, "anna@example.com", id.Email)
	assert.Equal(t, "Anna", id.Name)
}

func TestJWTAuth_FallsBackToSubject(t *testing.T) {
	token := signed(t, jwt.MapClaims{"sub": "u-bram"}, testSecret)

	ctx, called := run(t, token, nil)

	require.True(t, called)
	assert.Equal(t, "u-bram", httpcontext.RequestIdentity(ctx).UserID)
}

func TestJWTAuth_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"missing", func(*testing.T) string { return "" }},
		{"garbage", func(*testing.T) string { return "Bearer not-a-token" }},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + signed(t, jwt.MapClaims{"user_id": "u-1"}, "other")
		}},
		{"wrong issuer", func(t *testing.T) string {
			return "Bearer " + signed(t, jwt.MapClaims{"user_id": "u-1", "iss": "elsewhere"}, testSecret)
		}},
		{"no subject", func(t *testing.T) string {
			return "Bearer " + signed(t, jwt.MapClaims{"email": "x@example.com"}, testSecret)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, called := run(t, tt.token(t), nil)
			assert.False(t, called)
			assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		})
	}
}

func TestJWTAuth_IgnoresSpoofedHeaders(t *testing.T) {
	token := signed(t, jwt.MapClaims{"user_id": "u-anna"}, testSecret)

	ctx, called := run(t, "Bearer "+token, map[string]string{
		httpcontext.HeaderUserID:    "u-admin",
		httpcontext.HeaderUserEmail: "admin@example.com",
	})

	require.True(t, called)
	id := httpcontext.RequestIdentity(ctx)
	assert.Equal(t, "u-anna", id.UserID)
	assert.Empty(t, id.Email)
}
