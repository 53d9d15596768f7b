package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Club struct {
	ClubID      int64        `json:"clubId"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
	Leader      string       `json:"leader,omitempty"`
	MemberCount int          `json:"memberCount"`
	Members     []ClubMember `json:"members,omitempty"`
	ViewerRole  string       `json:"viewerRole,omitempty"`
	LeaderView  bool         `json:"leaderView"`
}

type ClubMember struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// MyClubs lists the clubs the caller belongs to, each with the caller's role.
func (c *Client) MyClubs(ctx context.Context) ([]Club, error) {
	var resp ItemsResponse[Club]
	err := c.doJSON(ctx, http.MethodGet, withQuery(c.ClubBase+"/clubs", url.Values{"limit": {"200"}}), nil, &resp)
	return resp.Items, err
}

func (c *Client) Club(ctx context.Context, clubID int64) (Club, error) {
	var club Club
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/clubs/%d", c.ClubBase, clubID), nil, &club)
	return club, err
}

func (c *Client) AddMember(ctx context.Context, clubID int64, username, role string) error {
	if strings.TrimSpace(username) == "" {
		return invalid("username", "is required")
	}
	body := map[string]string{"username": username, "role": role}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/clubs/%d/members", c.ClubBase, clubID), body, nil)
}

func (c *Client) RemoveMember(ctx context.Context, clubID int64, username string) error {
	return c.doJSON(ctx, http.MethodDelete,
		fmt.Sprintf("%s/clubs/%d/members/%s", c.ClubBase, clubID, url.PathEscape(username)), nil, nil)
}

// AdminClubs lists every club. Admin only.
func (c *Client) AdminClubs(ctx context.Context) ([]Club, error) {
	var resp ItemsResponse[Club]
	err := c.doJSON(ctx, http.MethodGet, withQuery(c.ClubBase+"/admin/clubs", url.Values{"limit": {"200"}}), nil, &resp)
	return resp.Items, err
}
