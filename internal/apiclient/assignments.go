package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

type AssignmentInput struct {
	Title         string              `json:"title,omitempty"`
	Description   string              `json:"description,omitempty"`
	AvailableDate *schedule.Timestamp `json:"availableDate,omitempty"`
	DueDate       *schedule.Timestamp `json:"dueDate,omitempty"`
	MaxScore      *float64            `json:"maxScore,omitempty"`
}

func (in AssignmentInput) validate(creating bool) error {
	if creating && strings.TrimSpace(in.Title) == "" {
		return invalid("title", "is required")
	}
	if in.AvailableDate != nil && in.DueDate != nil &&
		!in.AvailableDate.IsZero() && !in.DueDate.IsZero() && in.AvailableDate.After(in.DueDate.Time) {
		return invalid("availableDate", "must not be after the due date")
	}
	if in.MaxScore != nil && *in.MaxScore <= 0 {
		return invalid("maxScore", "must be positive")
	}
	return nil
}

type Submission struct {
	ID             int64    `json:"id"`
	AssignmentID   int64    `json:"assignmentId"`
	UserID         string   `json:"userId"`
	SubmissionType string   `json:"submissionType"`
	TextContent    string   `json:"textContent,omitempty"`
	FileName       string   `json:"fileName,omitempty"`
	FileSize       int64    `json:"fileSize,omitempty"`
	FileURL        string   `json:"fileUrl,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	Comment        string   `json:"comment,omitempty"`
	GradedAt       string   `json:"gradedAt"`
	GradedBy       string   `json:"gradedBy,omitempty"`
	SubmittedAt    string   `json:"submittedAt"`
}

func (s Submission) Graded() bool {
	return s.GradedAt != ""
}

type Comment struct {
	ID           int64  `json:"id"`
	AssignmentID int64  `json:"assignmentId"`
	Author       string `json:"author"`
	Body         string `json:"body"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func (c *Client) assignmentsURL(clubID int64) string {
	return fmt.Sprintf("%s/clubs/%d/assignments", c.AssignmentBase, clubID)
}

func (c *Client) assignmentURL(clubID, assignmentID int64, rest ...string) string {
	u := fmt.Sprintf("%s/%d", c.assignmentsURL(clubID), assignmentID)
	for _, r := range rest {
		u += "/" + r
	}
	return u
}

// Assignments lists all of the club's assignments, page by page. The response
// also says whether the caller gets the leader view.
func (c *Client) Assignments(ctx context.Context, clubID int64) (ItemsResponse[schedule.Assignment], error) {
	return listAll[schedule.Assignment](ctx, c, c.assignmentsURL(clubID))
}

func (c *Client) Assignment(ctx context.Context, clubID, assignmentID int64) (schedule.Assignment, error) {
	var a schedule.Assignment
	err := c.doJSON(ctx, http.MethodGet, c.assignmentURL(clubID, assignmentID), nil, &a)
	return a, err
}

func (c *Client) CreateAssignment(ctx context.Context, clubID int64, in AssignmentInput) (int64, error) {
	if err := in.validate(true); err != nil {
		return 0, err
	}
	var out Created
	err := c.doJSON(ctx, http.MethodPost, c.assignmentsURL(clubID), in, &out)
	return out.ID, err
}

func (c *Client) UpdateAssignment(ctx context.Context, clubID, assignmentID int64, in AssignmentInput) error {
	if err := in.validate(false); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPut, c.assignmentURL(clubID, assignmentID), in, nil)
}

func (c *Client) DeleteAssignment(ctx context.Context, clubID, assignmentID int64) error {
	return c.doJSON(ctx, http.MethodDelete, c.assignmentURL(clubID, assignmentID), nil, nil)
}

func (c *Client) SubmitText(ctx context.Context, clubID, assignmentID int64, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, invalid("textContent", "is required")
	}
	var out Created
	err := c.doJSON(ctx, http.MethodPost, c.assignmentURL(clubID, assignmentID, "submit"),
		map[string]string{"textContent": text}, &out)
	return out.ID, err
}

func (c *Client) SubmitFile(ctx context.Context, clubID, assignmentID int64, fileName string, r io.Reader) (int64, error) {
	if fileName == "" {
		return 0, invalid("file", "a file name is required")
	}
	var out Created
	err := c.upload(ctx, c.assignmentURL(clubID, assignmentID, "submit"), fileName, r, &out)
	return out.ID, err
}

// MySubmission returns the caller's submission, nil when there is none.
func (c *Client) MySubmission(ctx context.Context, clubID, assignmentID int64) (*Submission, error) {
	var s Submission
	err := c.doJSON(ctx, http.MethodGet, c.assignmentURL(clubID, assignmentID, "submission"), nil, &s)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Submissions(ctx context.Context, clubID, assignmentID int64) ([]Submission, error) {
	var resp ItemsResponse[Submission]
	err := c.doJSON(ctx, http.MethodGet, c.assignmentURL(clubID, assignmentID, "submissions"), nil, &resp)
	return resp.Items, err
}

func (c *Client) Submission(ctx context.Context, clubID, assignmentID, submissionID int64) (Submission, error) {
	var s Submission
	err := c.doJSON(ctx, http.MethodGet,
		c.assignmentURL(clubID, assignmentID, "submissions", fmt.Sprint(submissionID)), nil, &s)
	return s, err
}

// Grade is one grading action. MaxScore, when known, bounds Score before
// anything is sent.
type Grade struct {
	ClubID       int64    `json:"-"`
	AssignmentID int64    `json:"-"`
	SubmissionID int64    `json:"-"`
	MaxScore     *float64 `json:"-"`

	Score   float64 `json:"score"`
	Comment string  `json:"comment,omitempty"`
}

func (g Grade) validate() error {
	if g.Score < 0 {
		return invalid("score", "must not be negative")
	}
	if g.MaxScore != nil && g.Score > *g.MaxScore {
		return invalid("score", fmt.Sprintf("must not exceed %g", *g.MaxScore))
	}
	return nil
}

func (c *Client) Grade(ctx context.Context, g Grade) error {
	if err := g.validate(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch,
		c.assignmentURL(g.ClubID, g.AssignmentID, "submissions", fmt.Sprint(g.SubmissionID), "grade"), g, nil)
}

func (c *Client) Comments(ctx context.Context, clubID, assignmentID int64) ([]Comment, error) {
	var resp ItemsResponse[Comment]
	err := c.doJSON(ctx, http.MethodGet, c.assignmentURL(clubID, assignmentID, "comments"), nil, &resp)
	return resp.Items, err
}

func (c *Client) AddComment(ctx context.Context, clubID, assignmentID int64, body string) (int64, error) {
	if strings.TrimSpace(body) == "" {
		return 0, invalid("body", "is required")
	}
	var out Created
	err := c.doJSON(ctx, http.MethodPost, c.assignmentURL(clubID, assignmentID, "comments"),
		map[string]string{"body": body}, &out)
	return out.ID, err
}

func (c *Client) EditComment(ctx context.Context, clubID, assignmentID, commentID int64, body string) error {
	if strings.TrimSpace(body) == "" {
		return invalid("body", "is required")
	}
	return c.doJSON(ctx, http.MethodPatch,
		c.assignmentURL(clubID, assignmentID, "comments", fmt.Sprint(commentID)), map[string]string{"body": body}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, clubID, assignmentID, commentID int64) error {
	return c.doJSON(ctx, http.MethodDelete,
		c.assignmentURL(clubID, assignmentID, "comments", fmt.Sprint(commentID)), nil, nil)
}
