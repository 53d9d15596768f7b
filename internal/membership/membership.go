// Package membership answers "what is this user in this club" for every
// service that shares the clubs database.
package membership

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"kyri56xcaesar/clubs-proj/internal/authmw"
)

type Role string

const (
	RoleNone   Role = ""
	RoleOwner  Role = "owner"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleOwner, RoleLeader, RoleMember:
		return r, true
	case "":
		return RoleMember, true
	}
	return RoleNone, false
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RoleIn reads the role of username in the club, RoleNone if not a member.
func RoleIn(ctx context.Context, q Querier, clubID int64, username string) (Role, error) {
	var role string
	err := q.QueryRow(ctx, `
		SELECT role FROM club_members
		WHERE clubid = $1 AND username = $2
	`, clubID, username).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoleNone, nil
	}
	if err != nil {
		return RoleNone, err
	}
	return Role(role), nil
}

// Access is what a caller may do inside one club.
type Access struct {
	ClubID   int64
	Username string
	Role     Role
	Admin    bool
}

// CanView: members of any kind and admins.
func (a Access) CanView() bool {
	return a.Admin || a.Role != RoleNone
}

// CanManage: owners, leaders and admins. They also get the leader view of the board.
func (a Access) CanManage() bool {
	return a.Admin || a.Role == RoleOwner || a.Role == RoleLeader
}

// Resolve combines the caller's global roles with their club role.
func Resolve(ctx context.Context, q Querier, id authmw.Identity, clubID int64) (Access, error) {
	role, err := RoleIn(ctx, q, clubID, id.Username)
	if err != nil {
		return Access{}, err
	}
	return Access{ClubID: clubID, Username: id.Username, Role: role, Admin: id.IsAdmin()}, nil
}
