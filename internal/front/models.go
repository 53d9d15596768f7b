package front

import (
	"encoding/xml"

	"golang.org/x/text/language"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

const boardPath = "/api/v1/authenticated/board"

// boardQuery is the parsed refinement plus the echo sent back to the client.
type boardQuery struct {
	schedule.Query
	ClubIDs []int64
}

type QueryEcho struct {
	Search   string   `json:"search,omitempty" xml:"search,omitempty"`
	Statuses []string `json:"status,omitempty" xml:"status,omitempty"`
	Graded   string   `json:"graded,omitempty" xml:"graded,omitempty"`
	Sort     string   `json:"sort,omitempty" xml:"sort,omitempty"`
}

type Counts struct {
	Current     int `json:"current" xml:"current"`
	Upcoming    int `json:"upcoming" xml:"upcoming"`
	Overdue     int `json:"overdue" xml:"overdue"`
	Past        int `json:"past" xml:"past"`
	Unscheduled int `json:"unscheduled" xml:"unscheduled"`
}

type ClubSummary struct {
	ClubID     int64  `json:"clubId" xml:"clubId"`
	Name       string `json:"name" xml:"name"`
	LeaderView bool   `json:"leaderView" xml:"leaderView"`
}

type BoardResponse struct {
	XMLName xml.Name `json:"-" xml:"board"`

	ClubID      int64  `json:"clubId,omitempty" xml:"clubId,omitempty"`
	ClubName    string `json:"clubName,omitempty" xml:"clubName,omitempty"`
	LeaderView  bool   `json:"leaderView" xml:"leaderView"`
	GeneratedAt string `json:"generatedAt" xml:"generatedAt"`

	Clubs  []ClubSummary    `json:"clubs,omitempty" xml:"clubs>club,omitempty"`
	Query  QueryEcho        `json:"query" xml:"query"`
	Counts Counts           `json:"counts" xml:"counts"`
	Board  schedule.Buckets `json:"board" xml:"buckets"`
}

func countsOf(b schedule.Buckets) Counts {
	return Counts{
		Current:     len(b.Current),
		Upcoming:    len(b.Upcoming),
		Overdue:     len(b.Overdue),
		Past:        len(b.Past),
		Unscheduled: len(b.Unscheduled),
	}
}

func (q boardQuery) echo() QueryEcho {
	statuses := make([]string, 0, len(q.Statuses))
	for _, st := range q.Statuses {
		statuses = append(statuses, string(st))
	}
	return QueryEcho{Search: q.Search, Statuses: statuses, Graded: string(q.Graded), Sort: q.Sort.String()}
}

func preferredLanguage(header string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	return tags[0]
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=255"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken" binding:"required"`
}

type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int    `json:"expiresIn"`
	RefreshExpiresIn int    `json:"refreshExpiresIn"`
}
