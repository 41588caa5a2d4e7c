package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/costeo/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) (*gin.Engine, *auth.Signer) {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	r := NewRouter(logrus.NewEntry(l), NewMetrics("test"), []string{"http://localhost:3000"})
	signer := auth.NewSigner("secret")
	r.GET("/whoami", Auth(signer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "tenant": TenantID(c)})
	})
	r.GET("/admin", Auth(signer), RequireRole(auth.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/page", func(c *gin.Context) {
		limit, offset := Page(c)
		c.JSON(http.StatusOK, gin.H{"limit": limit, "offset": offset})
	})
	return r, signer
}

func get(r http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthRequestIDAndMetrics(t *testing.T) {
	r, _ := testRouter(t)

	w := get(r, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(r, "/healthz", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = get(r, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `costeo_http_requests_total{method="GET",route="/healthz",service="test",status="200"} 2`)
}

func TestAuthAndRoles(t *testing.T) {
	r, signer := testRouter(t)
	owner, _, err := signer.Issue("u1", "t1", auth.RoleOwner, "ana@example.com")
	require.NoError(t, err)
	admin, _, err := signer.Issue("u2", "t2", auth.RoleAdmin, "root@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", map[string]string{"Authorization": "Bearer nope"}).Code)

	w := get(r, "/whoami", map[string]string{"Authorization": "Bearer " + owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","tenant":"t1"}`, w.Body.String())

	w = get(r, "/whoami", map[string]string{"Cookie": "token=" + owner})
	assert.Equal(t, http.StatusOK, w.Code, "cookie auth")

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", map[string]string{"Authorization": "Bearer " + owner}).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", map[string]string{"Authorization": "Bearer " + admin}).Code)
}

func TestPage(t *testing.T) {
	r, _ := testRouter(t)
	for path, want := range map[string]string{
		"/page":                     `{"limit":20,"offset":0}`,
		"/page?limit=50&offset=10":  `{"limit":50,"offset":10}`,
		"/page?limit=500&offset=-3": `{"limit":20,"offset":0}`,
		"/page?limit=abc":           `{"limit":20,"offset":0}`,
	} {
		assert.JSONEq(t, want, get(r, path, nil).Body.String(), path)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
