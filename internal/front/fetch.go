package front

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"golang.org/x/sync/errgroup"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	"kyri56xcaesar/clubs-proj/internal/apperr"
	"kyri56xcaesar/clubs-proj/internal/schedule"
)

// maxClubFetches bounds the clubs fetched at once for the all-clubs board.
const maxClubFetches = 4

// Downstream is what the board needs from the backend services.
type Downstream interface {
	MyClubs(ctx context.Context) ([]apiclient.Club, error)
	Club(ctx context.Context, clubID int64) (apiclient.Club, error)
	Assignments(ctx context.Context, clubID int64) (apiclient.ItemsResponse[schedule.Assignment], error)
	Documents(ctx context.Context, clubID int64) (apiclient.ItemsResponse[apiclient.Document], error)
}

// downstreamFor returns the backend client acting as the token's owner.
var downstreamFor = func(token string) Downstream {
	return client.WithToken(token)
}

type clubRecords struct {
	club        apiclient.Club
	assignments []schedule.Assignment
	documents   []schedule.Document
}

// fetchClub loads both kinds of work of one club in parallel.
func fetchClub(ctx context.Context, d Downstream, club apiclient.Club) (clubRecords, error) {
	out := clubRecords{club: club}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := d.Assignments(gctx, club.ClubID)
		out.assignments = resp.Items
		return err
	})
	g.Go(func() error {
		resp, err := d.Documents(gctx, club.ClubID)
		out.documents = make([]schedule.Document, 0, len(resp.Items))
		for _, doc := range resp.Items {
			out.documents = append(out.documents, doc.Document)
		}
		return err
	})
	return out, g.Wait()
}

// fetchClubs loads every club, a few at a time. Any failure fails the board.
func fetchClubs(ctx context.Context, d Downstream, clubs []apiclient.Club) ([]clubRecords, error) {
	out := make([]clubRecords, len(clubs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxClubFetches)
	for i, club := range clubs {
		g.Go(func() error {
			recs, err := fetchClub(gctx, d, club)
			out[i] = recs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func onlyClubs(clubs []apiclient.Club, ids []int64) []apiclient.Club {
	if len(ids) == 0 {
		return clubs
	}
	out := make([]apiclient.Club, 0, len(ids))
	for _, c := range clubs {
		if slices.Contains(ids, c.ClubID) {
			out = append(out, c)
		}
	}
	return out
}

// upstream turns a backend failure into the gateway's own error. Client side
// failures keep their status, everything else is a bad gateway.
func upstream(err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
		code := apiErr.Code
		if code == "" {
			code = "upstream_error"
		}
		return apperr.New(code, apiErr.Message).SetHttpStatusCode(apiErr.Status).SetDebug(err)
	}
	return apperr.New("upstream_error", "a backend service failed").
		SetHttpStatusCode(http.StatusBadGateway).SetDebug(err)
}
