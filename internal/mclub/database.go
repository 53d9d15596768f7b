package mclub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"kyri56xcaesar/clubs-proj/internal/membership"
)

var errNoFields = errors.New("no fields to update")

// clubColumns expects clubs aliased as c and all its members joined as m.
const clubColumns = `
          c.clubid,
          c.name,
          COALESCE(c.description,'') AS description,
          c.created_at,

          COALESCE((
            SELECT cm.username
            FROM club_members cm
            WHERE cm.clubid = c.clubid AND cm.role IN ('owner', 'leader')
            ORDER BY (cm.role = 'leader') DESC, cm.joined_at
            LIMIT 1
          ), '') AS leader,

          COUNT(m.username) AS member_count,

          COALESCE(
            json_agg(
              json_build_object('username', m.username, 'role', m.role, 'joinedAt', m.joined_at)
              ORDER BY (m.role = 'owner') DESC, (m.role = 'leader') DESC, m.username
            ) FILTER (WHERE m.username IS NOT NULL),
            '[]'::json
          ) AS members_json`

func CreateClub(ctx context.Context, req CreateClubRequest, ownerUsername string) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO clubs(name, description) VALUES($1, $2) RETURNING clubid`,
		strings.TrimSpace(req.Name), req.Description,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO club_members (clubid, username, role)
		VALUES ($1, $2, 'owner')
	`, id, ownerUsername)
	if err != nil {
		return 0, err
	}

	if leader := cleanUsername(req.Leader); leader != "" && leader != ownerUsername {
		_, err = tx.Exec(ctx, `
			INSERT INTO club_members (clubid, username, role)
			VALUES ($1, $2, 'leader')
		`, id, leader)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func DeleteClub(ctx context.Context, id int64) error {
	res, err := pool.Exec(ctx, `DELETE FROM clubs WHERE clubid = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func orderClause(order string) string {
	switch order {
	case "created_asc":
		return "c.created_at ASC"
	case "name_asc":
		return "c.name ASC"
	case "name_desc":
		return "c.name DESC"
	case "created_desc":
		fallthrough
	default:
		return "c.created_at DESC"
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

func scanClubs(rows pgx.Rows, capacity int) ([]Club, error) {
	defer rows.Close()

	out := make([]Club, 0, capacity)
	for rows.Next() {
		var (
			c           Club
			membersJSON []byte
		)
		if err := rows.Scan(
			&c.ClubID,
			&c.Name,
			&c.Description,
			&c.CreatedAt,
			&c.Leader,
			&c.MemberCount,
			&membersJSON,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(membersJSON, &c.Members); err != nil {
			return nil, fmt.Errorf("unmarshal members_json: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func ListClubs(ctx context.Context, clubID *int64, name *string, limit int, order string) ([]Club, error) {
	limit = normalizeLimit(limit)

	var (
		where  string
		args   []any
		argIdx = 1
	)
	if clubID != nil {
		where = fmt.Sprintf("WHERE c.clubid = $%d", argIdx)
		args = append(args, *clubID)
		argIdx++
	} else if name != nil && strings.TrimSpace(*name) != "" {
		where = fmt.Sprintf("WHERE c.name ILIKE $%d", argIdx)
		args = append(args, "%"+strings.TrimSpace(*name)+"%")
		argIdx++
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM clubs c
        LEFT JOIN club_members m ON m.clubid = c.clubid
        %s
        GROUP BY c.clubid
        ORDER BY %s
        LIMIT $%d
    `, clubColumns, where, orderClause(order), argIdx)
	args = append(args, limit)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanClubs(rows, limit)
}

func ListClubsForUser(ctx context.Context, username string, limit int) ([]Club, error) {
	limit = normalizeLimit(limit)

	rows, err := pool.Query(ctx, `
        SELECT `+clubColumns+`
        FROM clubs c
        JOIN club_members me
          ON me.clubid = c.clubid AND me.username = $1
        LEFT JOIN club_members m
          ON m.clubid = c.clubid
        GROUP BY c.clubid
        ORDER BY c.created_at DESC
        LIMIT $2
    `, username, limit)
	if err != nil {
		return nil, err
	}
	return scanClubs(rows, limit)
}

func GetClub(ctx context.Context, clubID int64) (Club, error) {
	clubs, err := ListClubs(ctx, &clubID, nil, 1, "")
	if err != nil {
		return Club{}, err
	}
	if len(clubs) == 0 {
		return Club{}, pgx.ErrNoRows
	}
	return clubs[0], nil
}

func UpdateClub(ctx context.Context, clubID int64, req UpdateClubRequest) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	i := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		args = append(args, strings.TrimSpace(*req.Name))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if len(sets) == 0 {
		return errNoFields
	}

	args = append(args, clubID)
	q := fmt.Sprintf("UPDATE clubs SET %s WHERE clubid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func AddMember(ctx context.Context, clubID int64, username string, role membership.Role) error {
	if role == membership.RoleNone {
		role = membership.RoleMember
	}
	_, err := pool.Exec(ctx, `
        INSERT INTO club_members (clubid, username, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (clubid, username) DO UPDATE SET role = EXCLUDED.role
    `, clubID, username, string(role))
	return err
}

func RemoveMember(ctx context.Context, clubID int64, username string) error {
	ct, err := pool.Exec(ctx, `
        DELETE FROM club_members
        WHERE clubid = $1 AND username = $2
    `, clubID, username)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
