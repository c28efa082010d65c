package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(testSecret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(200, actor(c))
	})
	r.GET("/probe", handlers...)
	return r
}

func issueToken(t *testing.T, u User) string {
	t.Helper()
	s, err := signToken(testSecret, u)
	require.NoError(t, err)
	return s
}

func TestAuth_NoToken(t *testing.T) {
	r := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_GarbageToken(t *testing.T) {
	r := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongSecret(t *testing.T) {
	s, err := signToken("some-other-secret", User{ID: 1, Role: RoleUser})
	require.NoError(t, err)

	r := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+s)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BearerToken(t *testing.T) {
	tok := issueToken(t, User{ID: 42, Role: RoleDesigner, Email: "d@example.com"})

	r := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"role":"designer","email":"d@example.com"}`, w.Body.String())
}

func TestAuth_CookieToken(t *testing.T) {
	tok := issueToken(t, User{ID: 7, Role: RoleUser, Email: "o@example.com"})

	r := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: tok})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"user","email":"o@example.com"}`, w.Body.String())
}

func TestRequireRole_Forbidden(t *testing.T) {
	tok := issueToken(t, User{ID: 42, Role: RoleDesigner})

	r := testRouter(RequireRole(RoleUser))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_Allowed(t *testing.T) {
	tok := issueToken(t, User{ID: 42, Role: RoleDesigner})

	r := testRouter(RequireRole(RoleDesigner))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenFromRequest_BearerWinsOverCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer from-header")
	c.Request.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"})

	assert.Equal(t, "from-header", tokenFromRequest(c))
}
