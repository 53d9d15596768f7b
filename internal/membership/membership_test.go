package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/authmw"
)

type fakeRow struct {
	role string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.role
	return nil
}

type fakeQuerier map[string]fakeRow

func (f fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if row, ok := f[args[1].(string)]; ok {
		return row
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func TestResolve(t *testing.T) {
	q := fakeQuerier{
		"olga":   {role: "leader"},
		"petros": {role: "member"},
		"broken": {err: errors.New("conn closed")},
	}
	ctx := context.Background()

	a, err := Resolve(ctx, q, authmw.Identity{Username: "olga"}, 3)
	require.NoError(t, err)
	assert.True(t, a.CanManage())
	assert.True(t, a.CanView())

	a, err = Resolve(ctx, q, authmw.Identity{Username: "petros"}, 3)
	require.NoError(t, err)
	assert.False(t, a.CanManage())
	assert.True(t, a.CanView())

	a, err = Resolve(ctx, q, authmw.Identity{Username: "stranger"}, 3)
	require.NoError(t, err)
	assert.Equal(t, RoleNone, a.Role)
	assert.False(t, a.CanView())

	a, err = Resolve(ctx, q, authmw.Identity{Username: "stranger", Roles: []string{authmw.RoleAdmin}}, 3)
	require.NoError(t, err)
	assert.True(t, a.CanManage())

	_, err = Resolve(ctx, q, authmw.Identity{Username: "broken"}, 3)
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("")
	assert.True(t, ok)
	assert.Equal(t, RoleMember, r)

	_, ok = ParseRole("captain")
	assert.False(t, ok)
}
