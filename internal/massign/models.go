package massign

import (
	"strings"
	"time"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	"kyri56xcaesar/clubs-proj/internal/blob"
	"kyri56xcaesar/clubs-proj/internal/schedule"
)

type SubmissionType string

const (
	SubmissionText SubmissionType = "text"
	SubmissionFile SubmissionType = "file"
)

type Assignment struct {
	ID            int64              `json:"id"`
	ClubID        int64              `json:"clubId"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	AvailableDate schedule.Timestamp `json:"availableDate"`
	DueDate       schedule.Timestamp `json:"dueDate"`
	MaxScore      *float64           `json:"maxScore,omitempty"`
	CreatedBy     string             `json:"createdBy"`
	CreatedAt     schedule.Timestamp `json:"createdAt"`
	UpdatedAt     schedule.Timestamp `json:"updatedAt"`

	SubmissionCount int         `json:"submissionCount"`
	UserSubmission  *Submission `json:"userSubmission,omitempty"`
}

type Submission struct {
	ID             int64          `json:"id"`
	AssignmentID   int64          `json:"assignmentId"`
	UserID         string         `json:"userId"`
	SubmissionType SubmissionType `json:"submissionType"`
	TextContent    string         `json:"textContent,omitempty"`

	FileName string `json:"fileName,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`

	Score       *float64           `json:"score,omitempty"`
	Comment     string             `json:"comment,omitempty"`
	GradedAt    schedule.Timestamp `json:"gradedAt"`
	GradedBy    string             `json:"gradedBy,omitempty"`
	SubmittedAt schedule.Timestamp `json:"submittedAt"`
	UpdatedAt   schedule.Timestamp `json:"updatedAt"`
}

func (s *Submission) Graded() bool {
	return s != nil && !s.GradedAt.IsZero()
}

func (s *Submission) setFileURL(apiBase string) {
	if s != nil && s.FilePath != "" {
		s.FileURL = blob.FileURL(apiBase, s.FilePath)
	}
}

type Comment struct {
	ID           int64              `json:"id"`
	AssignmentID int64              `json:"assignmentId"`
	Author       string             `json:"author"`
	Body         string             `json:"body"`
	CreatedAt    schedule.Timestamp `json:"createdAt"`
	UpdatedAt    schedule.Timestamp `json:"updatedAt"`
}

type CreateAssignmentRequest struct {
	Title         string              `json:"title" binding:"required,min=2,max=200"`
	Description   string              `json:"description" binding:"max=5000"`
	AvailableDate *schedule.Timestamp `json:"availableDate"`
	DueDate       *schedule.Timestamp `json:"dueDate"`
	MaxScore      *float64            `json:"maxScore" binding:"omitempty,gt=0"`
}

type UpdateAssignmentRequest struct {
	Title         *string             `json:"title" binding:"omitempty,min=2,max=200"`
	Description   *string             `json:"description" binding:"omitempty,max=5000"`
	AvailableDate *schedule.Timestamp `json:"availableDate"`
	DueDate       *schedule.Timestamp `json:"dueDate"`
	MaxScore      *float64            `json:"maxScore" binding:"omitempty,gt=0"`
}

type SubmitTextRequest struct {
	TextContent string `json:"textContent" binding:"required,max=20000"`
}

type GradeRequest struct {
	Score   *float64 `json:"score" binding:"required"`
	Comment string   `json:"comment" binding:"max=5000"`
}

type CommentRequest struct {
	Body string `json:"body" binding:"required,min=1,max=2000"`
}

func normalizeLimit(n int) int {
	if n <= 0 {
		return 50
	}
	if n > 200 {
		return 200
	}
	return n
}

func assignmentOrderClause(order string) string {
	switch order {
	case "created_asc":
		return "a.created_at ASC"
	case "due_asc":
		return "a.due_date ASC NULLS LAST"
	case "due_desc":
		return "a.due_date DESC NULLS LAST"
	case "title_asc":
		return "a.title ASC"
	case "created_desc":
		fallthrough
	default:
		return "a.created_at DESC"
	}
}

func deref(t *schedule.Timestamp) schedule.Timestamp {
	if t == nil {
		return schedule.Timestamp{}
	}
	return *t
}

// validateWindow: an assignment cannot be due before it opens.
func validateWindow(available, due schedule.Timestamp) error {
	if !available.IsZero() && !due.IsZero() && available.After(due.Time) {
		return apperr.Invalid("availableDate", "must not be after dueDate")
	}
	return nil
}

// applyUpdate returns a with req applied, for validation before storage.
func applyUpdate(a Assignment, req UpdateAssignmentRequest) Assignment {
	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.AvailableDate != nil {
		a.AvailableDate = *req.AvailableDate
	}
	if req.DueDate != nil {
		a.DueDate = *req.DueDate
	}
	if req.MaxScore != nil {
		a.MaxScore = req.MaxScore
	}
	return a
}

func validateScore(score float64, maxScore *float64) error {
	if score < 0 {
		return apperr.Invalid("score", "must be at least 0")
	}
	if maxScore != nil && score > *maxScore {
		return apperr.Invalid("score", "must not exceed the maximum score")
	}
	return nil
}

// checkSubmittable decides whether user may (re)submit to a at now.
func checkSubmittable(now time.Time, a Assignment, existing *Submission) error {
	if !a.AvailableDate.IsZero() && a.AvailableDate.After(now) {
		return apperr.Conflict("assignment is not available yet")
	}
	if existing.Graded() {
		return apperr.Conflict("graded submissions are read-only")
	}
	return nil
}

// canEditComment: authors edit their own comments; leaders may also delete.
func canEditComment(cmt Comment, username string, manager, deleting bool) bool {
	if cmt.Author == username {
		return true
	}
	return deleting && manager
}
