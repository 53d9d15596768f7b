package mdocument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

var (
	errNoFields      = errors.New("no fields to update")
	errMissingTarget = errors.New("some documents do not exist in this club")
)

// documentColumns expects smart_documents aliased as d.
const documentColumns = `
	d.documentid, d.clubid, COALESCE(c.name,''), d.title, COALESCE(d.description,''),
	d.priority, d.doc_type, d.due_date, d.status, d.template_id, COALESCE(t.file_path,''),
	d.created_by, d.created_at, d.updated_at,
	COALESCE((
	  SELECT json_agg(json_build_object(
	    'userId', a.username,
	    'submissionStatus', a.submission_status,
	    'fileName', COALESCE(a.file_name,''),
	    'filePath', COALESCE(a.file_path,''),
	    'fileSize', COALESCE(a.file_size,0),
	    'mimeType', COALESCE(a.mime_type,''),
	    'adminComment', COALESCE(a.admin_comment,''),
	    'submittedAt', to_char(a.submitted_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS'),
	    'reviewedAt', to_char(a.reviewed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS')
	  ) ORDER BY a.username)
	  FROM document_assignees a
	  WHERE a.documentid = d.documentid
	), '[]'::json) AS assignees_json`

const documentFrom = `
	FROM smart_documents d
	LEFT JOIN clubs c ON c.clubid = d.clubid
	LEFT JOIN document_templates t ON t.templateid = d.template_id`

func scanDocument(row pgx.Row) (Document, error) {
	var (
		d             Document
		assigneesJSON []byte
	)
	err := row.Scan(
		&d.ID, &d.ClubID, &d.ClubName, &d.Title, &d.Description,
		&d.Priority, &d.Type, &d.DueDate, &d.Status, &d.TemplateID, &d.TemplatePath,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&assigneesJSON,
	)
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(assigneesJSON, &d.AssignedMembers); err != nil {
		return Document{}, fmt.Errorf("unmarshal assignees_json: %w", err)
	}
	return d, nil
}

func collectDocuments(rows pgx.Rows) ([]Document, error) {
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type ListFilter struct {
	ClubID   int64
	Status   string
	Assignee string
	Limit    int
	Offset   int
	Order    string
}

// ListDocuments returns one page of documents matching f and whether more follow.
func ListDocuments(ctx context.Context, f ListFilter) ([]Document, bool, error) {
	where := []string{"d.clubid = $1"}
	args := []any{f.ClubID}
	i := 2

	if s := strings.TrimSpace(f.Status); s != "" {
		where = append(where, fmt.Sprintf("d.status = $%d", i))
		args = append(args, s)
		i++
	}
	if u := strings.TrimSpace(f.Assignee); u != "" {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM document_assignees x WHERE x.documentid = d.documentid AND x.username = $%d)", i))
		args = append(args, u)
		i++
	}

	limit := normalizeLimit(f.Limit)
	args = append(args, limit+1, f.Offset)
	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s %s
		WHERE %s
		ORDER BY %s, d.documentid
		LIMIT $%d OFFSET $%d
	`, documentColumns, documentFrom, strings.Join(where, " AND "), documentOrderClause(f.Order), i, i+1), args...)
	if err != nil {
		return nil, false, err
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, false, err
	}
	if len(docs) > limit {
		return docs[:limit], true, nil
	}
	return docs, false, nil
}

func GetDocument(ctx context.Context, clubID, documentID int64) (Document, error) {
	return scanDocument(pool.QueryRow(ctx, `
		SELECT `+documentColumns+documentFrom+`
		WHERE d.clubid = $1 AND d.documentid = $2
	`, clubID, documentID))
}

// GetDocuments loads the listed documents of a club. Missing ids are an error.
func GetDocuments(ctx context.Context, clubID int64, ids []int64) ([]Document, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+documentColumns+documentFrom+`
		WHERE d.clubid = $1 AND d.documentid = ANY($2)
		ORDER BY d.documentid
	`, clubID, ids)
	if err != nil {
		return nil, err
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}
	if len(docs) != len(ids) {
		return nil, errMissingTarget
	}
	return docs, nil
}

func CreateDocument(ctx context.Context, clubID int64, author string, req CreateDocumentRequest) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var due schedule.Timestamp
	if req.DueDate != nil {
		due = *req.DueDate
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO smart_documents (clubid, title, description, priority, doc_type, due_date, status, template_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING documentid
	`, clubID, strings.TrimSpace(req.Title), req.Description, string(req.Priority), string(req.Type),
		due, string(req.Status), req.TemplateID, author).Scan(&id)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO document_assignees (documentid, username)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`, id, req.AssignedMembers); err != nil {
		return 0, err
	}

	return id, tx.Commit(ctx)
}

func UpdateDocument(ctx context.Context, clubID, documentID int64, req UpdateDocumentRequest) error {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 9)
	i := 1

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, v)
		i++
	}
	if req.Title != nil {
		add("title", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Priority != nil {
		add("priority", string(*req.Priority))
	}
	if req.Type != nil {
		add("doc_type", string(*req.Type))
	}
	if req.DueDate != nil {
		add("due_date", *req.DueDate)
	}
	if req.Status != nil {
		add("status", string(*req.Status))
	}
	if req.TemplateID != nil {
		add("template_id", *req.TemplateID)
	}

	if len(sets) == 0 && req.AssignedMembers == nil {
		return errNoFields
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sets = append(sets, "updated_at = now()")
	args = append(args, clubID, documentID)
	q := fmt.Sprintf("UPDATE smart_documents SET %s WHERE clubid = $%d AND documentid = $%d",
		strings.Join(sets, ", "), i, i+1)

	ct, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if req.AssignedMembers != nil {
		users := cleanUsers(*req.AssignedMembers)
		if _, err := tx.Exec(ctx, `
			DELETE FROM document_assignees WHERE documentid = $1 AND NOT (username = ANY($2::text[]))
		`, documentID, users); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO document_assignees (documentid, username)
			SELECT $1, unnest($2::text[])
			ON CONFLICT DO NOTHING
		`, documentID, users); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteDocuments removes the documents of a club and returns the file paths
// their assignees had uploaded. Either all ids are deleted or none.
func DeleteDocuments(ctx context.Context, clubID int64, ids []int64) ([]string, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT a.file_path
		FROM document_assignees a
		JOIN smart_documents d ON d.documentid = a.documentid
		WHERE d.clubid = $1 AND d.documentid = ANY($2) AND a.file_path IS NOT NULL
	`, clubID, ids)
	if err != nil {
		return nil, err
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx, `DELETE FROM smart_documents WHERE clubid = $1 AND documentid = ANY($2)`, clubID, ids)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != int64(len(ids)) {
		return nil, errMissingTarget
	}
	return paths, tx.Commit(ctx)
}

// SetStatus moves all ids to status. Either all ids are updated or none.
func SetStatus(ctx context.Context, clubID int64, ids []int64, status schedule.DocumentStatus) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE smart_documents SET status = $1, updated_at = now()
		WHERE clubid = $2 AND documentid = ANY($3)
	`, string(status), clubID, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != int64(len(ids)) {
		return errMissingTarget
	}
	return tx.Commit(ctx)
}

// AssignMembers adds every user to every document. Either all ids exist or
// nothing is written.
func AssignMembers(ctx context.Context, clubID int64, ids []int64, users []string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var found int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM smart_documents WHERE clubid = $1 AND documentid = ANY($2)
	`, clubID, ids).Scan(&found); err != nil {
		return err
	}
	if found != len(ids) {
		return errMissingTarget
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO document_assignees (documentid, username)
		SELECT d, u FROM unnest($1::bigint[]) AS d, unnest($2::text[]) AS u
		ON CONFLICT DO NOTHING
	`, ids, users); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// NonMembers returns the users that are not members of the club.
func NonMembers(ctx context.Context, clubID int64, users []string) ([]string, error) {
	if len(users) == 0 {
		return nil, nil
	}
	rows, err := pool.Query(ctx, `
		SELECT u FROM unnest($2::text[]) AS u
		WHERE NOT EXISTS (SELECT 1 FROM club_members m WHERE m.clubid = $1 AND m.username = u)
	`, clubID, users)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// SetMemberStatus moves an assignee from one status to the next. The from
// status guards against concurrent changes.
func SetMemberStatus(ctx context.Context, documentID int64, username string, from, to SubmissionStatus, comment *string) error {
	reviewed := to == Approved || to == NeedsRevision
	ct, err := pool.Exec(ctx, `
		UPDATE document_assignees
		SET submission_status = $1,
		    admin_comment = COALESCE($2, admin_comment),
		    reviewed_at = CASE WHEN $3 THEN now() ELSE reviewed_at END
		WHERE documentid = $4 AND username = $5 AND submission_status = $6
	`, string(to), comment, reviewed, documentID, username, string(from))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// StoreMemberFile records an upload and marks the assignee Submitted.
func StoreMemberFile(ctx context.Context, documentID int64, username string, from SubmissionStatus, m AssignedMember) error {
	ct, err := pool.Exec(ctx, `
		UPDATE document_assignees
		SET submission_status = $1, file_name = $2, file_path = $3, file_size = $4, mime_type = $5,
		    submitted_at = now()
		WHERE documentid = $6 AND username = $7 AND submission_status = $8
	`, string(Submitted), m.FileName, m.FilePath, m.FileSize, m.MimeType, documentID, username, string(from))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := pool.Query(ctx, `
		SELECT templateid, name, COALESCE(description,''), doc_type, COALESCE(file_path,''), created_at
		FROM document_templates
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.FilePath, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func GetTemplate(ctx context.Context, id int64) (Template, error) {
	var t Template
	err := pool.QueryRow(ctx, `
		SELECT templateid, name, COALESCE(description,''), doc_type, COALESCE(file_path,''), created_at
		FROM document_templates WHERE templateid = $1
	`, id).Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.FilePath, &t.CreatedAt)
	return t, err
}

func CreateTemplate(ctx context.Context, req TemplateRequest) (int64, error) {
	if req.Type == "" {
		req.Type = TypeOther
	}
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO document_templates (name, description, doc_type, file_path)
		VALUES ($1, $2, $3, NULLIF($4,''))
		RETURNING templateid
	`, strings.TrimSpace(req.Name), req.Description, string(req.Type), req.FilePath).Scan(&id)
	return id, err
}

func UpdateTemplate(ctx context.Context, id int64, req TemplateRequest) error {
	if req.Type == "" {
		req.Type = TypeOther
	}
	ct, err := pool.Exec(ctx, `
		UPDATE document_templates
		SET name = $1, description = $2, doc_type = $3, file_path = NULLIF($4,'')
		WHERE templateid = $5
	`, strings.TrimSpace(req.Name), req.Description, string(req.Type), req.FilePath, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func DeleteTemplate(ctx context.Context, id int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM document_templates WHERE templateid = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SeedTemplates inserts catalogue entries whose names are not taken yet and
// returns how many were added.
func SeedTemplates(ctx context.Context, seeds []TemplateRequest) (int, error) {
	added := 0
	for _, s := range seeds {
		if s.Type == "" {
			s.Type = TypeOther
		}
		ct, err := pool.Exec(ctx, `
			INSERT INTO document_templates (name, description, doc_type, file_path)
			VALUES ($1, $2, $3, NULLIF($4,''))
			ON CONFLICT (name) DO NOTHING
		`, strings.TrimSpace(s.Name), s.Description, string(s.Type), s.FilePath)
		if err != nil {
			return added, fmt.Errorf("seed template %q: %w", s.Name, err)
		}
		added += int(ct.RowsAffected())
	}
	return added, nil
}
