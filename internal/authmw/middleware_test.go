package authmw

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://kc.test/realms/clubs"
	testAudience = "clubs-front"
)

func newTestAuth(t *testing.T) (*KeycloakAuth, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &KeycloakAuth{
		Issuer:   testIssuer,
		Audience: testAudience,
		ClientID: "clubs-front",
		Keyfunc: func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		},
		Leeway: time.Second,
	}, key
}

func sign(t *testing.T, key *rsa.PrivateKey, username string, realmRoles, clientRoles []string) string {
	t.Helper()

	claims := KCClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			Subject:   "sub-" + username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		PreferredUsername: username,
	}
	claims.RealmAccess.Roles = realmRoles
	claims.ResourceAccess = map[string]struct {
		Roles []string `json:"roles"`
	}{"clubs-front": {Roles: clientRoles}}

	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func serve(a *KeycloakAuth, header string, roles ...string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", a.RequireRoles(roles...), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"username": id.Username, "roles": id.Roles, "admin": id.IsAdmin()})
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRolesAcceptsClientRoles(t *testing.T) {
	a, key := newTestAuth(t)
	token := sign(t, key, "maria", []string{"member"}, []string{"leader", "member"})

	w := serve(a, "Bearer "+token, RoleLeader)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
		Admin    bool     `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "maria", body.Username)
	assert.Equal(t, []string{"member", "leader"}, body.Roles)
	assert.False(t, body.Admin)
}

func TestRequireRolesRejects(t *testing.T) {
	a, key := newTestAuth(t)

	assert.Equal(t, http.StatusUnauthorized, serve(a, "", RoleMember).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(a, "Bearer not-a-jwt", RoleMember).Code)

	token := sign(t, key, "nikos", []string{"member"}, nil)
	assert.Equal(t, http.StatusForbidden, serve(a, "Bearer "+token, RoleAdmin).Code)

	other, _ := rsa.GenerateKey(rand.Reader, 2048)
	forged := sign(t, other, "eve", []string{"admin"}, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(a, "Bearer "+forged, RoleAdmin).Code)
}

func TestCookieFallback(t *testing.T) {
	a, key := newTestAuth(t)
	token := sign(t, key, "eleni", []string{"admin"}, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", a.RequireRoles(RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUniq(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniq([]string{"a", "", "b", "a"}))
	assert.True(t, hasAnyRole([]string{"member"}, "leader", "member"))
	assert.False(t, hasAnyRole(nil, "member"))
}
