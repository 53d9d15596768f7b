package mdocument

import (
	"slices"
	"strings"
	"time"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	"kyri56xcaesar/clubs-proj/internal/blob"
	"kyri56xcaesar/clubs-proj/internal/schedule"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type DocType string

const (
	TypeReport       DocType = "Report"
	TypeProposal     DocType = "Proposal"
	TypeMinutes      DocType = "Minutes"
	TypeBudget       DocType = "Budget"
	TypePresentation DocType = "Presentation"
	TypeOther        DocType = "Other"
)

// SubmissionStatus is where an assigned member stands on a document.
type SubmissionStatus string

const (
	NotSubmitted  SubmissionStatus = "Not Submitted"
	Submitted     SubmissionStatus = "Submitted"
	Approved      SubmissionStatus = "Approved"
	NeedsRevision SubmissionStatus = "Needs Revision"
)

const (
	decisionApprove = "approve"
	decisionRevise  = "revise"
)

var memberTransitions = map[SubmissionStatus][]SubmissionStatus{
	NotSubmitted:  {Submitted},
	Submitted:     {Approved, NeedsRevision},
	NeedsRevision: {Submitted},
	Approved:      nil,
}

func (s SubmissionStatus) Valid() bool {
	_, ok := memberTransitions[s]
	return ok
}

// canTransition reports whether an assignee may move from one submission
// status to the next. Approved is terminal.
func canTransition(from, to SubmissionStatus) bool {
	return slices.Contains(memberTransitions[from], to)
}

func checkTransition(from, to SubmissionStatus) error {
	if !to.Valid() {
		return apperr.Invalid("submissionStatus", "unknown status")
	}
	if !canTransition(from, to) {
		return apperr.Conflict("cannot move from " + string(from) + " to " + string(to))
	}
	return nil
}

// reviewOutcome maps a review decision to the status it sets.
func reviewOutcome(decision string) (SubmissionStatus, bool) {
	switch strings.ToLower(decision) {
	case decisionApprove:
		return Approved, true
	case decisionRevise:
		return NeedsRevision, true
	}
	return "", false
}

type Document struct {
	ID              int64                   `json:"id"`
	ClubID          int64                   `json:"clubId"`
	ClubName        string                  `json:"clubName"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Priority        Priority                `json:"priority"`
	Type            DocType                 `json:"type"`
	DueDate         schedule.Timestamp      `json:"dueDate"`
	Status          schedule.DocumentStatus `json:"status"`
	AssignedMembers []AssignedMember        `json:"assignedMembers"`
	TemplateID      *int64                  `json:"templateId,omitempty"`
	TemplatePath    string                  `json:"templatePath,omitempty"`
	CreatedBy       string                  `json:"createdBy"`
	CreatedAt       schedule.Timestamp      `json:"createdAt"`
	UpdatedAt       schedule.Timestamp      `json:"updatedAt"`
	IsOverdue       bool                    `json:"isOverdue"`
}

type AssignedMember struct {
	UserID           string             `json:"userId"`
	SubmissionStatus SubmissionStatus   `json:"submissionStatus"`
	FileName         string             `json:"fileName,omitempty"`
	FilePath         string             `json:"filePath,omitempty"`
	FileSize         int64              `json:"fileSize,omitempty"`
	MimeType         string             `json:"mimeType,omitempty"`
	FileURL          string             `json:"fileUrl,omitempty"`
	AdminComment     string             `json:"adminComment,omitempty"`
	SubmittedAt      schedule.Timestamp `json:"submittedAt"`
	ReviewedAt       schedule.Timestamp `json:"reviewedAt"`
}

// finish fills the fields derived at fetch time.
func (d *Document) finish(now time.Time, apiBase string) {
	d.IsOverdue = schedule.DocumentOverdue(now, d.DueDate.Time, d.Status)
	if d.AssignedMembers == nil {
		d.AssignedMembers = []AssignedMember{}
	}
	for i := range d.AssignedMembers {
		if p := d.AssignedMembers[i].FilePath; p != "" {
			d.AssignedMembers[i].FileURL = blob.FileURL(apiBase, p)
		}
	}
	if d.TemplatePath != "" && !strings.HasPrefix(d.TemplatePath, "http") {
		d.TemplatePath = blob.FileURL(apiBase, d.TemplatePath)
	}
}

func (d Document) assignee(username string) (AssignedMember, bool) {
	for _, m := range d.AssignedMembers {
		if m.UserID == username {
			return m, true
		}
	}
	return AssignedMember{}, false
}

type Template struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        DocType            `json:"type"`
	FilePath    string             `json:"filePath,omitempty"`
	CreatedAt   schedule.Timestamp `json:"createdAt"`
}

type CreateDocumentRequest struct {
	Title           string                  `json:"title" binding:"required,min=2,max=200"`
	Description     string                  `json:"description" binding:"max=5000"`
	Priority        Priority                `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	Type            DocType                 `json:"type" binding:"omitempty,oneof=Report Proposal Minutes Budget Presentation Other"`
	DueDate         *schedule.Timestamp     `json:"dueDate"`
	Status          schedule.DocumentStatus `json:"status" binding:"omitempty,oneof='Open' 'In Progress' 'Completed'"`
	AssignedMembers []string                `json:"assignedMembers" binding:"omitempty,dive,min=1,max=255"`
	TemplateID      *int64                  `json:"templateId" binding:"omitempty,gt=0"`
}

func (r *CreateDocumentRequest) defaults() {
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Type == "" {
		r.Type = TypeOther
	}
	if r.Status == "" {
		r.Status = schedule.DocumentOpen
	}
	r.AssignedMembers = cleanUsers(r.AssignedMembers)
}

type UpdateDocumentRequest struct {
	Title           *string                  `json:"title" binding:"omitempty,min=2,max=200"`
	Description     *string                  `json:"description" binding:"omitempty,max=5000"`
	Priority        *Priority                `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	Type            *DocType                 `json:"type" binding:"omitempty,oneof=Report Proposal Minutes Budget Presentation Other"`
	DueDate         *schedule.Timestamp      `json:"dueDate"`
	Status          *schedule.DocumentStatus `json:"status" binding:"omitempty,oneof='Open' 'In Progress' 'Completed'"`
	AssignedMembers *[]string                `json:"assignedMembers"`
	TemplateID      *int64                   `json:"templateId" binding:"omitempty,gt=0"`
}

type StatusRequest struct {
	Status schedule.DocumentStatus `json:"status" binding:"required,oneof='Open' 'In Progress' 'Completed'"`
}

type MemberStatusRequest struct {
	UserID           string           `json:"userId" binding:"required"`
	SubmissionStatus SubmissionStatus `json:"submissionStatus" binding:"required"`
}

type ReviewRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Decision string `json:"decision" binding:"required,oneof=approve revise"`
	Comment  string `json:"comment" binding:"max=5000"`
}

type BulkIDsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
}

type BulkStatusRequest struct {
	IDs    []int64                 `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
	Status schedule.DocumentStatus `json:"status" binding:"required,oneof='Open' 'In Progress' 'Completed'"`
}

type BulkAssignRequest struct {
	IDs     []int64  `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
	UserIDs []string `json:"userIds" binding:"required,min=1,dive,min=1,max=255"`
}

type TemplateRequest struct {
	Name        string  `json:"name" toml:"name" binding:"required,min=2,max=120"`
	Description string  `json:"description" toml:"description" binding:"max=2000"`
	Type        DocType `json:"type" toml:"type" binding:"omitempty,oneof=Report Proposal Minutes Budget Presentation Other"`
	FilePath    string  `json:"filePath" toml:"file_path" binding:"max=500"`
}

func cleanUsers(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, u := range in {
		u = strings.ToLower(strings.TrimSpace(u))
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func uniqueIDs(in []int64) []int64 {
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
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

func documentOrderClause(order string) string {
	switch order {
	case "created_asc":
		return "d.created_at ASC"
	case "due_asc":
		return "d.due_date ASC NULLS LAST"
	case "due_desc":
		return "d.due_date DESC NULLS LAST"
	case "priority_desc":
		return "CASE d.priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END, d.due_date ASC NULLS LAST"
	case "created_desc":
		fallthrough
	default:
		return "d.created_at DESC"
	}
}
