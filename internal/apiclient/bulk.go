package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"kyri56xcaesar/clubs-proj/internal/schedule"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

// Ref points at one item of one club.
type Ref struct {
	ClubID int64
	ID     int64
}

// perClub runs f once per club, concurrently. The first error cancels the
// other calls and is the only one returned.
func perClub(ctx context.Context, refs []Ref, f func(ctx context.Context, clubID int64, ids []int64) error) error {
	if len(refs) == 0 {
		return invalid("ids", "nothing selected")
	}
	clubs, groups := utils.GroupBy(refs, func(r Ref) int64 { return r.ClubID })

	g, gctx := errgroup.WithContext(ctx)
	for _, clubID := range clubs {
		ids := utils.Map(groups[clubID], func(r Ref) int64 { return r.ID })
		g.Go(func() error {
			return f(gctx, clubID, ids)
		})
	}
	return g.Wait()
}

func (c *Client) BulkUpdateStatus(ctx context.Context, refs []Ref, status schedule.DocumentStatus) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	return perClub(ctx, refs, func(ctx context.Context, clubID int64, ids []int64) error {
		body := map[string]any{"ids": ids, "status": status}
		return c.doJSON(ctx, http.MethodPost, c.documentsURL(clubID)+"/bulk-update-status", body, nil)
	})
}

func (c *Client) BulkAssign(ctx context.Context, refs []Ref, userIDs []string) error {
	users := utils.Filter(utils.Map(userIDs, strings.TrimSpace), func(s string) bool { return s != "" })
	if len(users) == 0 {
		return invalid("userIds", "pick at least one member")
	}
	return perClub(ctx, refs, func(ctx context.Context, clubID int64, ids []int64) error {
		body := map[string]any{"ids": ids, "userIds": users}
		return c.doJSON(ctx, http.MethodPost, c.documentsURL(clubID)+"/bulk-assign", body, nil)
	})
}

func (c *Client) BulkDelete(ctx context.Context, refs []Ref) error {
	return perClub(ctx, refs, func(ctx context.Context, clubID int64, ids []int64) error {
		return c.doJSON(ctx, http.MethodPost, c.documentsURL(clubID)+"/bulk-delete", map[string]any{"ids": ids}, nil)
	})
}

// BulkExport returns one zip archive per club.
func (c *Client) BulkExport(ctx context.Context, refs []Ref) (map[int64][]byte, error) {
	var mu sync.Mutex
	out := map[int64][]byte{}
	err := perClub(ctx, refs, func(ctx context.Context, clubID int64, ids []int64) error {
		b, err := c.doRaw(ctx, http.MethodPost, c.documentsURL(clubID)+"/bulk-export", map[string]any{"ids": ids})
		if err != nil {
			return err
		}
		mu.Lock()
		out[clubID] = b
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BulkGrade validates every grade first, then grades club by club, one
// club per goroutine.
func (c *Client) BulkGrade(ctx context.Context, grades []Grade) error {
	if len(grades) == 0 {
		return invalid("grades", "nothing selected")
	}
	for i, g := range grades {
		if err := g.validate(); err != nil {
			return fmt.Errorf("grade %d: %w", i+1, err)
		}
	}

	clubs, groups := utils.GroupBy(grades, func(g Grade) int64 { return g.ClubID })
	g, gctx := errgroup.WithContext(ctx)
	for _, clubID := range clubs {
		batch := groups[clubID]
		g.Go(func() error {
			for _, gr := range batch {
				if err := c.doJSON(gctx, http.MethodPatch,
					c.assignmentURL(gr.ClubID, gr.AssignmentID, "submissions", fmt.Sprint(gr.SubmissionID), "grade"), gr, nil); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
