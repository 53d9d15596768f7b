package schedule

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindAssignment    Kind = "assignment"
	KindSmartDocument Kind = "smartDocument"
)

// DocumentStatus is the three-state workflow of a smart document. Any state
// can move to any other.
type DocumentStatus string

const (
	DocumentOpen       DocumentStatus = "Open"
	DocumentInProgress DocumentStatus = "In Progress"
	DocumentCompleted  DocumentStatus = "Completed"
)

func (s DocumentStatus) Valid() bool {
	return s == DocumentOpen || s == DocumentInProgress || s == DocumentCompleted
}

// Assignment is an assignment as the board receives it from the API.
type Assignment struct {
	ID              int64       `json:"id"`
	ClubID          int64       `json:"clubId"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	AvailableDate   string      `json:"availableDate"`
	DueDate         string      `json:"dueDate"`
	CreatedAt       string      `json:"createdAt"`
	MaxScore        *float64    `json:"maxScore,omitempty"`
	SubmissionCount int         `json:"submissionCount"`
	UserSubmission  *Submission `json:"userSubmission,omitempty"`
}

// Submission is the viewer's own submission on an assignment.
type Submission struct {
	ID          int64    `json:"id"`
	SubmittedAt string   `json:"submittedAt"`
	GradedAt    string   `json:"gradedAt,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// Document is a smart document as the board receives it from the API.
type Document struct {
	ID          int64          `json:"id"`
	ClubID      int64          `json:"clubId"`
	ClubName    string         `json:"clubName"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    string         `json:"priority"`
	DueDate     string         `json:"dueDate"`
	CreatedAt   string         `json:"createdAt"`
	Status      DocumentStatus `json:"status"`
	IsOverdue   bool           `json:"isOverdue"`
}

// Item is one entry of the unified board: an *AssignmentItem or a *DocumentItem.
// The set is closed; switch on the concrete type.
type Item interface {
	Kind() Kind
	item()
}

type AssignmentItem struct {
	Type Kind `json:"type"`
	Assignment
	Label Status `json:"label"`

	window  Window
	created time.Time
	sub     *SubmissionFacts
}

func (*AssignmentItem) Kind() Kind { return KindAssignment }
func (*AssignmentItem) item()      {}

type DocumentItem struct {
	Type Kind `json:"type"`
	Document
	Label Status `json:"label"`

	due     time.Time
	created time.Time
}

func (*DocumentItem) Kind() Kind { return KindSmartDocument }
func (*DocumentItem) item()      {}

// Unscheduled records an item that could not be placed because one of its
// timestamps did not parse.
type Unscheduled struct {
	Type   Kind   `json:"type"`
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// NormalizeAssignment parses the timestamps of a and wraps it as a board item.
func (p Parser) NormalizeAssignment(a Assignment) (*AssignmentItem, error) {
	available, err := p.ParseOptional(a.AvailableDate)
	if err != nil {
		return nil, fmt.Errorf("availableDate: %w", err)
	}
	due, err := p.ParseOptional(a.DueDate)
	if err != nil {
		return nil, fmt.Errorf("dueDate: %w", err)
	}
	created, err := p.ParseOptional(a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("createdAt: %w", err)
	}

	it := &AssignmentItem{
		Type:       KindAssignment,
		Assignment: a,
		window:     Window{Available: available, Due: due},
		created:    created,
	}

	if s := a.UserSubmission; s != nil {
		submitted, err := p.ParseOptional(s.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("submittedAt: %w", err)
		}
		graded, err := p.ParseOptional(s.GradedAt)
		if err != nil {
			return nil, fmt.Errorf("gradedAt: %w", err)
		}
		it.sub = &SubmissionFacts{SubmittedAt: submitted, Graded: !graded.IsZero()}
	}

	return it, nil
}

// NormalizeDocument parses the timestamps of d and wraps it as a board item.
func (p Parser) NormalizeDocument(d Document) (*DocumentItem, error) {
	due, err := p.ParseOptional(d.DueDate)
	if err != nil {
		return nil, fmt.Errorf("dueDate: %w", err)
	}
	created, err := p.ParseOptional(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("createdAt: %w", err)
	}

	return &DocumentItem{
		Type:     KindSmartDocument,
		Document: d,
		due:      due,
		created:  created,
	}, nil
}

// Normalize parses both lists. Records that fail are returned as Unscheduled
// instead of being silently misplaced.
func (p Parser) Normalize(as []Assignment, ds []Document) ([]*AssignmentItem, []*DocumentItem, []Unscheduled) {
	var (
		aItems = make([]*AssignmentItem, 0, len(as))
		dItems = make([]*DocumentItem, 0, len(ds))
		bad    []Unscheduled
	)

	for _, a := range as {
		it, err := p.NormalizeAssignment(a)
		if err != nil {
			bad = append(bad, Unscheduled{Type: KindAssignment, ID: a.ID, Title: a.Title, Reason: err.Error()})
			continue
		}
		aItems = append(aItems, it)
	}

	for _, d := range ds {
		it, err := p.NormalizeDocument(d)
		if err != nil {
			bad = append(bad, Unscheduled{Type: KindSmartDocument, ID: d.ID, Title: d.Title, Reason: err.Error()})
			continue
		}
		dItems = append(dItems, it)
	}

	return aItems, dItems, bad
}

func itemTitle(it Item) string {
	switch v := it.(type) {
	case *AssignmentItem:
		return v.Title
	case *DocumentItem:
		return v.Title
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}

func itemDue(it Item) time.Time {
	switch v := it.(type) {
	case *AssignmentItem:
		return v.window.Due
	case *DocumentItem:
		return v.due
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}

func itemCreated(it Item) time.Time {
	switch v := it.(type) {
	case *AssignmentItem:
		return v.created
	case *DocumentItem:
		return v.created
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}

func itemSubmissionCount(it Item) int {
	switch v := it.(type) {
	case *AssignmentItem:
		return v.SubmissionCount
	case *DocumentItem:
		return 0
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}
