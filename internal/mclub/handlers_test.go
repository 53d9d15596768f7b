package mclub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/membership"
)

func testEngine(id *auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	apperr.SetupValidation()

	e := gin.New()
	e.Use(func(c *gin.Context) {
		if id != nil {
			auth.SetIdentity(c, *id)
		}
	})
	e.GET("/clubs/:clubid", handleGetClub)
	e.POST("/clubs/:clubid/members", addClubMemberHandler)
	e.GET("/clubs", handleMyClubs)
	e.POST("/admin/clubs", createHandler)
	e.PUT("/admin/clubs", updateHandler)
	e.DELETE("/admin/clubs", deleteHandler)
	e.GET("/admin/clubs", getHandler)
	return e
}

func do(e *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestHandlersRejectBeforeStorage(t *testing.T) {
	olga := &auth.Identity{Username: "olga", Roles: []string{auth.RoleAdmin}}

	tests := []struct {
		name     string
		id       *auth.Identity
		method   string
		target   string
		body     string
		wantCode int
		wantIn   string
	}{
		{"no identity", nil, http.MethodGet, "/clubs/1", "", http.StatusUnauthorized, "unauthorized"},
		{"bad club id", olga, http.MethodGet, "/clubs/abc", "", http.StatusBadRequest, "clubId"},
		{"zero club id", olga, http.MethodPost, "/clubs/0/members", `{"username":"x"}`, http.StatusBadRequest, "clubId"},
		{"my clubs anonymous", nil, http.MethodGet, "/clubs", "", http.StatusUnauthorized, "unauthorized"},
		{"create missing name", olga, http.MethodPost, "/admin/clubs", `{"description":"x"}`, http.StatusBadRequest, `"name"`},
		{"create short name", olga, http.MethodPost, "/admin/clubs", `{"name":"x"}`, http.StatusBadRequest, `"name"`},
		{"create malformed", olga, http.MethodPost, "/admin/clubs", `{"name":`, http.StatusBadRequest, "malformed"},
		{"update without id", olga, http.MethodPut, "/admin/clubs", `{"name":"Chess"}`, http.StatusBadRequest, "clubid"},
		{"delete bad id", olga, http.MethodDelete, "/admin/clubs?clubid=-1", "", http.StatusBadRequest, "clubid"},
		{"list bad id", olga, http.MethodGet, "/admin/clubs?clubid=x", "", http.StatusBadRequest, "clubid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(testEngine(tt.id), tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantIn)
		})
	}
}

func TestCanChangeRole(t *testing.T) {
	owner := membership.Access{Role: membership.RoleOwner}
	leader := membership.Access{Role: membership.RoleLeader}
	admin := membership.Access{Admin: true}
	member := membership.Access{Role: membership.RoleMember}

	assert.True(t, canChangeRole(owner, membership.RoleOwner))
	assert.True(t, canChangeRole(admin, membership.RoleOwner))
	assert.True(t, canChangeRole(leader, membership.RoleLeader))
	assert.False(t, canChangeRole(leader, membership.RoleOwner))
	assert.False(t, canChangeRole(member, membership.RoleMember))
}

func TestWithViewer(t *testing.T) {
	club := Club{ClubID: 4, Members: []ClubMember{
		{Username: "olga", Role: membership.RoleLeader},
		{Username: "petros", Role: membership.RoleMember},
	}}

	c := club.withViewer(membership.Access{Role: roleOf(club.Members, "petros")})
	assert.Equal(t, membership.RoleMember, c.ViewerRole)
	assert.False(t, c.LeaderView)

	c = club.withViewer(membership.Access{Role: roleOf(club.Members, "olga")})
	assert.True(t, c.LeaderView)

	c = club.withViewer(membership.Access{Role: roleOf(club.Members, "nobody"), Admin: true})
	assert.Equal(t, membership.RoleNone, c.ViewerRole)
	assert.True(t, c.LeaderView)
}

func TestCleanUsername(t *testing.T) {
	require.Equal(t, "olga", cleanUsername("  Olga "))
}
