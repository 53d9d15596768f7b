package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

// Document is a smart document with its assignees. The embedded record is
// what the board consumes.
type Document struct {
	schedule.Document
	Type            string           `json:"type"`
	TemplateID      *int64           `json:"templateId,omitempty"`
	TemplatePath    string           `json:"templatePath,omitempty"`
	CreatedBy       string           `json:"createdBy"`
	AssignedMembers []AssignedMember `json:"assignedMembers"`
}

type AssignedMember struct {
	UserID           string `json:"userId"`
	SubmissionStatus string `json:"submissionStatus"`
	FileName         string `json:"fileName,omitempty"`
	FileURL          string `json:"fileUrl,omitempty"`
	AdminComment     string `json:"adminComment,omitempty"`
	SubmittedAt      string `json:"submittedAt"`
	ReviewedAt       string `json:"reviewedAt"`
}

type DocumentInput struct {
	Title           string                  `json:"title,omitempty"`
	Description     string                  `json:"description,omitempty"`
	Priority        string                  `json:"priority,omitempty"`
	Type            string                  `json:"type,omitempty"`
	DueDate         *schedule.Timestamp     `json:"dueDate,omitempty"`
	Status          schedule.DocumentStatus `json:"status,omitempty"`
	AssignedMembers []string                `json:"assignedMembers,omitempty"`
	TemplateID      *int64                  `json:"templateId,omitempty"`
}

type Template struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	FilePath    string `json:"filePath,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func (c *Client) documentsURL(clubID int64) string {
	return fmt.Sprintf("%s/clubs/%d/documents", c.DocumentBase, clubID)
}

func (c *Client) documentURL(clubID, documentID int64, rest ...string) string {
	u := fmt.Sprintf("%s/%d", c.documentsURL(clubID), documentID)
	for _, r := range rest {
		u += "/" + r
	}
	return u
}

func checkStatus(s schedule.DocumentStatus) error {
	if !s.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", s))
	}
	return nil
}

func (c *Client) Documents(ctx context.Context, clubID int64) (ItemsResponse[Document], error) {
	return listAll[Document](ctx, c, c.documentsURL(clubID))
}

func (c *Client) Document(ctx context.Context, clubID, documentID int64) (Document, error) {
	var d Document
	err := c.doJSON(ctx, http.MethodGet, c.documentURL(clubID, documentID), nil, &d)
	return d, err
}

func (c *Client) CreateDocument(ctx context.Context, clubID int64, in DocumentInput) (int64, error) {
	if strings.TrimSpace(in.Title) == "" {
		return 0, invalid("title", "is required")
	}
	if in.Status != "" {
		if err := checkStatus(in.Status); err != nil {
			return 0, err
		}
	}
	var out Created
	err := c.doJSON(ctx, http.MethodPost, c.documentsURL(clubID), in, &out)
	return out.ID, err
}

func (c *Client) UpdateDocument(ctx context.Context, clubID, documentID int64, in DocumentInput) error {
	if in.Status != "" {
		if err := checkStatus(in.Status); err != nil {
			return err
		}
	}
	return c.doJSON(ctx, http.MethodPatch, c.documentURL(clubID, documentID), in, nil)
}

func (c *Client) DeleteDocument(ctx context.Context, clubID, documentID int64) error {
	return c.doJSON(ctx, http.MethodDelete, c.documentURL(clubID, documentID), nil, nil)
}

func (c *Client) SetDocumentStatus(ctx context.Context, clubID, documentID int64, status schedule.DocumentStatus) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, c.documentURL(clubID, documentID, "status"),
		map[string]schedule.DocumentStatus{"status": status}, nil)
}

func (c *Client) SetMemberStatus(ctx context.Context, clubID, documentID int64, userID, status string) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("userId", "is required")
	}
	return c.doJSON(ctx, http.MethodPatch, c.documentURL(clubID, documentID, "member-status"),
		map[string]string{"userId": userID, "submissionStatus": status}, nil)
}

func (c *Client) SubmitDocumentFile(ctx context.Context, clubID, documentID int64, fileName string, r io.Reader) error {
	if fileName == "" {
		return invalid("file", "a file name is required")
	}
	return c.upload(ctx, c.documentURL(clubID, documentID, "submit"), fileName, r, nil)
}

// Review approves a submitted document or sends it back with decision "revise".
func (c *Client) Review(ctx context.Context, clubID, documentID int64, userID, decision, comment string) error {
	if decision != "approve" && decision != "revise" {
		return invalid("decision", "must be approve or revise")
	}
	if strings.TrimSpace(userID) == "" {
		return invalid("userId", "is required")
	}
	return c.doJSON(ctx, http.MethodPost, c.documentURL(clubID, documentID, "review"),
		map[string]string{"userId": userID, "decision": decision, "comment": comment}, nil)
}

func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	var resp ItemsResponse[Template]
	err := c.doJSON(ctx, http.MethodGet, c.DocumentBase+"/clubs/documents/templates", nil, &resp)
	return resp.Items, err
}

func (c *Client) CreateTemplate(ctx context.Context, t Template) (int64, error) {
	if strings.TrimSpace(t.Name) == "" {
		return 0, invalid("name", "is required")
	}
	body := map[string]string{"name": t.Name, "description": t.Description, "type": t.Type, "filePath": t.FilePath}
	var out Created
	err := c.doJSON(ctx, http.MethodPost, c.DocumentBase+"/clubs/documents/templates", body, &out)
	return out.ID, err
}

func (c *Client) DeleteTemplate(ctx context.Context, templateID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/clubs/documents/templates/%d", c.DocumentBase, templateID), nil, nil)
}
