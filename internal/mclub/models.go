package mclub

import (
	"strings"
	"time"

	"kyri56xcaesar/clubs-proj/internal/membership"
)

type Club struct {
	ClubID      int64     `json:"clubId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`

	Leader      string       `json:"leader,omitempty"`
	MemberCount int          `json:"memberCount"`
	Members     []ClubMember `json:"members,omitempty"`

	// filled for the caller only
	ViewerRole membership.Role `json:"viewerRole,omitempty"`
	LeaderView bool            `json:"leaderView"`
}

type ClubMember struct {
	ClubID   int64           `json:"clubId,omitempty"`
	Username string          `json:"username"`
	Role     membership.Role `json:"role"`
	JoinedAt *time.Time      `json:"joinedAt,omitempty"`
}

type CreateClubRequest struct {
	Name        string `json:"name" form:"name" binding:"required,min=2,max=64"`
	Description string `json:"description" form:"description" binding:"max=500"`
	Leader      string `json:"leader" form:"leader"`
}

type UpdateClubRequest struct {
	Name        *string `json:"name" form:"name" binding:"omitempty,min=2,max=64"`
	Description *string `json:"description" form:"description" binding:"omitempty,max=500"`
}

type AddClubMemberRequest struct {
	Username string `json:"username" binding:"required,min=1,max=255"`
	Role     string `json:"role" binding:"omitempty,oneof=owner leader member"`
}

// withViewer decorates c for the user asking for it.
func (c Club) withViewer(a membership.Access) Club {
	c.ViewerRole = a.Role
	c.LeaderView = a.CanManage()
	return c
}

// canChangeRole: only owners and admins may hand out or take away the owner role.
func canChangeRole(a membership.Access, target membership.Role) bool {
	if a.Admin || a.Role == membership.RoleOwner {
		return true
	}
	return a.CanManage() && target != membership.RoleOwner
}

func cleanUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
