package membership

import (
	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

// ClubParam is the route parameter naming the club.
const ClubParam = "clubid"

// FromRoute resolves the caller against the club in the route. Callers that
// cannot see the club get a 404 when it does not exist and a 403 otherwise.
func FromRoute(c *gin.Context, q Querier) (Access, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return Access{}, apperr.Unauthorized()
	}
	clubID, err := utils.ParseID(c.Param(ClubParam))
	if err != nil {
		return Access{}, apperr.Invalid("clubId", "must be a positive integer").SetDebug(err)
	}

	ctx := c.Request.Context()
	a, err := Resolve(ctx, q, id, clubID)
	if err != nil {
		return Access{}, err
	}
	if a.CanView() {
		return a, nil
	}

	var exists bool
	err = q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clubs WHERE clubid = $1)`, clubID).Scan(&exists)
	if err != nil {
		return Access{}, err
	}
	if !exists {
		return Access{}, apperr.NotFound("club")
	}
	return Access{}, apperr.Forbidden("not a member of this club")
}

// RequireManager is FromRoute plus the leader check.
func RequireManager(c *gin.Context, q Querier) (Access, error) {
	a, err := FromRoute(c, q)
	if err != nil {
		return a, err
	}
	if !a.CanManage() {
		return a, apperr.Forbidden("only club leaders can do this")
	}
	return a, nil
}
