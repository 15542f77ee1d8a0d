package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	raw, err := IssueToken(testSecret, "user1", time.Minute)
	require.NoError(t, err)

	sub, err := ParseSubject(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "user1", sub)
}

func TestParseSubjectRejections(t *testing.T) {
	raw, err := IssueToken(testSecret, "user1", time.Minute)
	require.NoError(t, err)

	_, err = ParseSubject("wrong-secret", raw)
	assert.Error(t, err)

	expired, err := IssueToken(testSecret, "user1", -time.Minute)
	require.NoError(t, err)
	_, err = ParseSubject(testSecret, expired)
	assert.Error(t, err)

	_, err = ParseSubject(testSecret, "not.a.token")
	assert.Error(t, err)

	empty, err := IssueToken(testSecret, "", time.Minute)
	require.NoError(t, err)
	_, err = ParseSubject(testSecret, empty)
	assert.ErrorIs(t, err, errNoSubject)
}

func newAuthedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestMiddlewareAcceptsBearerHeader(t *testing.T) {
	raw, err := IssueToken(testSecret, "user1", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	newAuthedRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user1")
}

func TestMiddlewareAcceptsQueryToken(t *testing.T) {
	raw, err := IssueToken(testSecret, "user2", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami?token="+raw, nil)
	rec := httptest.NewRecorder()
	newAuthedRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user2")
}

func TestMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	r := newAuthedRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
