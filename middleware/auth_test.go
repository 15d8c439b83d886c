package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"parley/tools/security"
)

func testRouter(opts *AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", Auth(opts), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return engine
}

func TestAuthBearerHeader(t *testing.T) {
	req := require.New(t)
	jwt := security.DefaultOptions([]byte("secret"))
	engine := testRouter(DefaultAuthOptions(jwt))

	token, _, err := security.Generate(jwt, "u42")
	req.NoError(err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("u42", w.Body.String())
}

func TestAuthCookie(t *testing.T) {
	req := require.New(t)
	jwt := security.DefaultOptions([]byte("secret"))
	engine := testRouter(DefaultAuthOptions(jwt))

	token, _, err := security.Generate(jwt, "u42")
	req.NoError(err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("u42", w.Body.String())
}

func TestAuthMissingToken(t *testing.T) {
	req := require.New(t)
	engine := testRouter(DefaultAuthOptions(security.DefaultOptions([]byte("secret"))))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestAuthBadToken(t *testing.T) {
	req := require.New(t)
	engine := testRouter(DefaultAuthOptions(security.DefaultOptions([]byte("secret"))))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer nope.nope.nope")
	engine.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	req := require.New(t)
	engine := testRouter(DefaultAuthOptions(security.DefaultOptions([]byte("secret"))))

	token, _, err := security.Generate(security.DefaultOptions([]byte("other")), "u42")
	req.NoError(err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	engine.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)
}
