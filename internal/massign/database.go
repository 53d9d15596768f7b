package massign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

var errNoFields = errors.New("no fields to update")

// assignmentColumns expects assignments aliased as a and the viewer's own
// submission left joined as s.
const assignmentColumns = `
	a.assignmentid, a.clubid, a.title, COALESCE(a.description,''),
	a.available_date, a.due_date, a.max_score, a.created_by, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM assignment_submissions x WHERE x.assignmentid = a.assignmentid) AS submission_count,
	s.submissionid, s.submitted_at, s.graded_at, s.score`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var (
		a           Assignment
		subID       *int64
		submittedAt schedule.Timestamp
		gradedAt    schedule.Timestamp
		score       *float64
	)
	err := row.Scan(
		&a.ID, &a.ClubID, &a.Title, &a.Description,
		&a.AvailableDate, &a.DueDate, &a.MaxScore, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		&a.SubmissionCount,
		&subID, &submittedAt, &gradedAt, &score,
	)
	if err != nil {
		return Assignment{}, err
	}
	if subID != nil {
		a.UserSubmission = &Submission{
			ID:           *subID,
			AssignmentID: a.ID,
			SubmittedAt:  submittedAt,
			GradedAt:     gradedAt,
			Score:        score,
		}
	}
	return a, nil
}

// ListAssignments returns one page of a club's assignments and whether more follow.
func ListAssignments(ctx context.Context, clubID int64, viewer string, limit, offset int, order string) ([]Assignment, bool, error) {
	limit = normalizeLimit(limit)

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM assignments a
		LEFT JOIN assignment_submissions s
		  ON s.assignmentid = a.assignmentid AND s.username = $2
		WHERE a.clubid = $1
		ORDER BY %s, a.assignmentid
		LIMIT $3 OFFSET $4
	`, assignmentColumns, assignmentOrderClause(order)), clubID, viewer, limit+1, offset)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	out := make([]Assignment, 0, limit+1)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, false, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}

func GetAssignment(ctx context.Context, clubID, assignmentID int64, viewer string) (Assignment, error) {
	return scanAssignment(pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments a
		LEFT JOIN assignment_submissions s
		  ON s.assignmentid = a.assignmentid AND s.username = $3
		WHERE a.clubid = $1 AND a.assignmentid = $2
	`, clubID, assignmentID, viewer))
}

func CreateAssignment(ctx context.Context, clubID int64, author string, req CreateAssignmentRequest) (int64, error) {
	var available, due schedule.Timestamp
	if req.AvailableDate != nil {
		available = *req.AvailableDate
	}
	if req.DueDate != nil {
		due = *req.DueDate
	}

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO assignments (clubid, title, description, available_date, due_date, max_score, created_by)
		VALUES ($1, $2, $3, COALESCE($4, now()), $5, $6, $7)
		RETURNING assignmentid
	`, clubID, strings.TrimSpace(req.Title), req.Description, available, due, req.MaxScore, author).Scan(&id)
	return id, err
}

func UpdateAssignment(ctx context.Context, clubID, assignmentID int64, req UpdateAssignmentRequest) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	i := 1

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", i))
		args = append(args, strings.TrimSpace(*req.Title))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if req.AvailableDate != nil {
		sets = append(sets, fmt.Sprintf("available_date = COALESCE($%d, now())", i))
		args = append(args, *req.AvailableDate)
		i++
	}
	if req.DueDate != nil {
		sets = append(sets, fmt.Sprintf("due_date = $%d", i))
		args = append(args, *req.DueDate)
		i++
	}
	if req.MaxScore != nil {
		sets = append(sets, fmt.Sprintf("max_score = $%d", i))
		args = append(args, *req.MaxScore)
		i++
	}

	if len(sets) == 0 {
		return errNoFields
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, clubID, assignmentID)
	q := fmt.Sprintf("UPDATE assignments SET %s WHERE clubid = $%d AND assignmentid = $%d",
		strings.Join(sets, ", "), i, i+1)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteAssignment removes the assignment and returns the file paths of its
// submissions so the caller can drop the blobs.
func DeleteAssignment(ctx context.Context, clubID, assignmentID int64) ([]string, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT s.file_path
		FROM assignment_submissions s
		JOIN assignments a ON a.assignmentid = s.assignmentid
		WHERE a.clubid = $1 AND a.assignmentid = $2 AND s.file_path IS NOT NULL
	`, clubID, assignmentID)
	if err != nil {
		return nil, err
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx, `DELETE FROM assignments WHERE clubid = $1 AND assignmentid = $2`, clubID, assignmentID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return paths, tx.Commit(ctx)
}

const submissionColumns = `
	submissionid, assignmentid, username, submission_type, COALESCE(text_content,''),
	COALESCE(file_name,''), COALESCE(file_path,''), COALESCE(file_size,0), COALESCE(mime_type,''),
	score, COALESCE(comment,''), graded_at, COALESCE(graded_by,''), submitted_at, updated_at`

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	err := row.Scan(
		&s.ID, &s.AssignmentID, &s.UserID, &s.SubmissionType, &s.TextContent,
		&s.FileName, &s.FilePath, &s.FileSize, &s.MimeType,
		&s.Score, &s.Comment, &s.GradedAt, &s.GradedBy, &s.SubmittedAt, &s.UpdatedAt,
	)
	return s, err
}

// GetOwnSubmission returns nil, nil when the user has not submitted yet.
func GetOwnSubmission(ctx context.Context, assignmentID int64, username string) (*Submission, error) {
	s, err := scanSubmission(pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM assignment_submissions
		WHERE assignmentid = $1 AND username = $2
	`, assignmentID, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func GetSubmission(ctx context.Context, assignmentID, submissionID int64) (Submission, error) {
	return scanSubmission(pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM assignment_submissions
		WHERE assignmentid = $1 AND submissionid = $2
	`, assignmentID, submissionID))
}

func ListSubmissions(ctx context.Context, assignmentID int64, limit int) ([]Submission, error) {
	limit = normalizeLimit(limit)

	rows, err := pool.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM assignment_submissions
		WHERE assignmentid = $1
		ORDER BY submitted_at ASC
		LIMIT $2
	`, assignmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Submission, 0, limit)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertSubmission stores s as the user's submission. Graded rows are left
// untouched and reported with pgx.ErrNoRows.
func UpsertSubmission(ctx context.Context, s Submission) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO assignment_submissions
		  (assignmentid, username, submission_type, text_content, file_name, file_path, file_size, mime_type)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,0), NULLIF($8,''))
		ON CONFLICT (assignmentid, username) DO UPDATE SET
		  submission_type = EXCLUDED.submission_type,
		  text_content    = EXCLUDED.text_content,
		  file_name       = EXCLUDED.file_name,
		  file_path       = EXCLUDED.file_path,
		  file_size       = EXCLUDED.file_size,
		  mime_type       = EXCLUDED.mime_type,
		  submitted_at    = now(),
		  updated_at      = now()
		WHERE assignment_submissions.graded_at IS NULL
		RETURNING submissionid
	`, s.AssignmentID, s.UserID, string(s.SubmissionType), s.TextContent,
		s.FileName, s.FilePath, s.FileSize, s.MimeType).Scan(&id)
	return id, err
}

func GradeSubmission(ctx context.Context, assignmentID, submissionID int64, score float64, comment, grader string) error {
	ct, err := pool.Exec(ctx, `
		UPDATE assignment_submissions
		SET score = $1, comment = NULLIF($2,''), graded_by = $3, graded_at = now(), updated_at = now()
		WHERE assignmentid = $4 AND submissionid = $5
	`, score, comment, grader, assignmentID, submissionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func CreateComment(ctx context.Context, assignmentID int64, author, body string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO assignment_comments (assignmentid, author, body)
		VALUES ($1, $2, $3)
		RETURNING commentid
	`, assignmentID, author, strings.TrimSpace(body)).Scan(&id)
	return id, err
}

func GetComment(ctx context.Context, assignmentID, commentID int64) (Comment, error) {
	var cmt Comment
	err := pool.QueryRow(ctx, `
		SELECT commentid, assignmentid, author, body, created_at, updated_at
		FROM assignment_comments
		WHERE assignmentid = $1 AND commentid = $2
	`, assignmentID, commentID).Scan(&cmt.ID, &cmt.AssignmentID, &cmt.Author, &cmt.Body, &cmt.CreatedAt, &cmt.UpdatedAt)
	return cmt, err
}

func UpdateComment(ctx context.Context, commentID int64, body string) error {
	ct, err := pool.Exec(ctx, `
		UPDATE assignment_comments SET body = $1, updated_at = now() WHERE commentid = $2
	`, strings.TrimSpace(body), commentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func DeleteComment(ctx context.Context, commentID int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM assignment_comments WHERE commentid = $1`, commentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func ListComments(ctx context.Context, assignmentID int64, limit int, order string) ([]Comment, error) {
	orderSQL := "created_at ASC"
	if order == "created_desc" {
		orderSQL = "created_at DESC"
	}

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT commentid, assignmentid, author, body, created_at, updated_at
		FROM assignment_comments
		WHERE assignmentid = $1
		ORDER BY %s
		LIMIT $2
	`, orderSQL), assignmentID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var cmt Comment
		if err := rows.Scan(&cmt.ID, &cmt.AssignmentID, &cmt.Author, &cmt.Body, &cmt.CreatedAt, &cmt.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cmt)
	}
	return out, rows.Err()
}
