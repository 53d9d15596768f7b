package front

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	"kyri56xcaesar/clubs-proj/internal/apperr"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/schedule"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

// now is swapped by tests.
var now = time.Now

func parseBoardQuery(c *gin.Context) (boardQuery, error) {
	var q boardQuery
	q.Search = c.Query("search")
	q.Language = preferredLanguage(c.GetHeader("Accept-Language"))

	for _, s := range utils.SplitFields(c.Query("status")) {
		st, ok := schedule.ParseStatus(s)
		if !ok {
			return q, apperr.Invalid("status", "unknown status "+s)
		}
		q.Statuses = append(q.Statuses, st)
	}

	graded, err := schedule.ParseGradedFilter(c.Query("graded"))
	if err != nil {
		return q, apperr.Invalid("graded", "must be graded, ungraded or not-submitted").SetDebug(err)
	}
	q.Graded = graded

	sort, err := schedule.ParseSort(c.Query("sort"))
	if err != nil {
		return q, apperr.Invalid("sort", err.Error()).SetDebug(err)
	}
	q.Sort = sort

	if raw := c.Query("clubs"); raw != "" {
		ids, err := utils.SplitToInt64(raw, ",")
		if err != nil {
			return q, apperr.Invalid("clubs", "must be a comma separated list of ids").SetDebug(err)
		}
		q.ClubIDs = ids
	}
	return q, nil
}

// respondMissingClub sends the caller back to a board that always exists.
func respondMissingClub(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Info("board for a missing club", "error", err)
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
		"error":    "club not found",
		"code":     apperr.CodeNotFound,
		"redirect": boardPath,
	})
}

func handleClubBoard(c *gin.Context) {
	clubID, err := utils.ParseID(c.Param("clubid"))
	if err != nil {
		respondMissingClub(c, err)
		return
	}
	q, err := parseBoardQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	id, ok := auth.IdentityFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized())
		return
	}

	ctx := c.Request.Context()
	down := downstreamFor(id.AccessToken)

	club, err := down.Club(ctx, clubID)
	if apiclient.IsNotFound(err) {
		respondMissingClub(c, err)
		return
	}
	if err != nil {
		apperr.Respond(c, upstream(err))
		return
	}

	recs, err := fetchClub(ctx, down, club)
	if err != nil {
		apperr.Respond(c, upstream(err))
		return
	}

	view := schedule.View{Now: now(), Leader: club.LeaderView || id.IsAdmin()}
	b := schedule.Board(schedule.DefaultParser, view, recs.assignments, recs.documents, q.Query)

	respondInFormat(c, BoardResponse{
		ClubID:      club.ClubID,
		ClubName:    club.Name,
		LeaderView:  view.Leader,
		GeneratedAt: schedule.FormatSQL(view.Now),
		Query:       q.echo(),
		Counts:      countsOf(b),
		Board:       b,
	})
}

// handleMyBoard merges the boards of all the caller's clubs. Each club keeps
// the caller's own view of it.
func handleMyBoard(c *gin.Context) {
	q, err := parseBoardQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	id, ok := auth.IdentityFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized())
		return
	}

	ctx := c.Request.Context()
	down := downstreamFor(id.AccessToken)

	clubs, err := down.MyClubs(ctx)
	if err != nil {
		apperr.Respond(c, upstream(err))
		return
	}
	clubs = onlyClubs(clubs, q.ClubIDs)

	all, err := fetchClubs(ctx, down, clubs)
	if err != nil {
		apperr.Respond(c, upstream(err))
		return
	}

	at := now()
	boards := make([]schedule.Buckets, 0, len(all))
	summaries := make([]ClubSummary, 0, len(all))
	anyLeader := false
	for _, recs := range all {
		view := schedule.View{Now: at, Leader: recs.club.LeaderView || id.IsAdmin()}
		anyLeader = anyLeader || view.Leader
		boards = append(boards, schedule.Board(schedule.DefaultParser, view, recs.assignments, recs.documents, q.Query))
		summaries = append(summaries, ClubSummary{ClubID: recs.club.ClubID, Name: recs.club.Name, LeaderView: view.Leader})
	}
	b := schedule.Combine(q.Sort, q.Language, boards...)

	respondInFormat(c, BoardResponse{
		LeaderView:  anyLeader,
		GeneratedAt: schedule.FormatSQL(at),
		Clubs:       summaries,
		Query:       q.echo(),
		Counts:      countsOf(b),
		Board:       b,
	})
}
