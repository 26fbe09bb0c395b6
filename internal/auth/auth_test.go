package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, claims, err := issuer.Issue(&models.User{ID: 7, Username: "kadrovyk", Role: models.RolePersonnelOfficer})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), parsed.UserID)
	assert.Equal(t, models.RolePersonnelOfficer, parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	assert.Error(t, err)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(&models.User{ID: 1, Username: "a", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	assert.Error(t, err)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDenylist()
	require.NoError(t, d.Add(ctx, "live", time.Now().Add(time.Hour)))
	require.NoError(t, d.Add(ctx, "gone", time.Now().Add(-time.Minute)))

	ok, err := d.Contains(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.Contains(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = d.Contains(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizer(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	cases := []struct {
		role, obj, act string
		want           bool
	}{
		{models.RoleAdmin, ResAudit, ActRead, true},
		{models.RoleAdmin, ResOrders, ActExecute, true},
		{models.RoleStaffOfficer, ResReporting, ActRead, true},
		{models.RoleStaffOfficer, ResPersonnel, ActWrite, false},
		{models.RoleCommander, ResPersonnel, ActRead, true},
		{models.RoleCommander, ResDocuments, ActReview, true},
		{models.RoleCommander, ResOrders, ActExecute, false},
		{models.RolePersonnelOfficer, ResOrders, ActExecute, true},
		{models.RolePersonnelOfficer, ResAudit, ActRead, false},
		{"", ResPersonnel, ActRead, false},
	}
	for _, tc := range cases {
		got, err := a.Allowed(tc.role, tc.obj, tc.act)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.obj, tc.act)
	}
}

func TestJWTMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	denylist := NewMemoryDenylist()
	authz, err := NewAuthorizer()
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", JWTMiddleware(issuer, denylist), authz.Require(ResPersonnel, ActWrite), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetInt64(KeyUserID)})
	})
	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer abc").Code)

	token, claims, err := issuer.Issue(&models.User{ID: 3, Username: "officer", Role: models.RolePersonnelOfficer})
	require.NoError(t, err)
	w := call("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())

	viewer, _, err := issuer.Issue(&models.User{ID: 4, Username: "viewer", Role: models.RoleStaffOfficer})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+viewer).Code)

	require.NoError(t, denylist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+token).Code)
}

func TestRateLimit(t *testing.T) {
	store, err := NewLimiterStore(nil)
	require.NoError(t, err)
	limit, err := RateLimit("2-M", store)
	require.NoError(t, err)
	_, err = RateLimit("often", store)
	assert.Error(t, err)

	router := gin.New()
	router.POST("/login", limit, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
