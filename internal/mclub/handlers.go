package mclub

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/membership"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

// access loads the caller's standing in the club named by the route.
func access(c *gin.Context) (membership.Access, error) {
	return membership.FromRoute(c, pool)
}

func createHandler(c *gin.Context) {
	var req CreateClubRequest
	if err := c.ShouldBind(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}

	id, _ := auth.IdentityFrom(c)
	clubID, err := CreateClub(c.Request.Context(), req, id.Username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("club created", "club_id", clubID, "owner", id.Username)
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "clubId": clubID})
}

func updateHandler(c *gin.Context) {
	clubID, err := utils.ParseID(c.Query("clubid"))
	if err != nil {
		apperr.Respond(c, apperr.BadRequest("missing/invalid clubid"))
		return
	}

	var req UpdateClubRequest
	if err := c.ShouldBind(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}

	err = UpdateClub(c.Request.Context(), clubID, req)
	if errors.Is(err, errNoFields) {
		apperr.Respond(c, apperr.BadRequest("provide name and/or description"))
		return
	}
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func deleteHandler(c *gin.Context) {
	clubID, err := utils.ParseID(c.Query("clubid"))
	if err != nil {
		apperr.Respond(c, apperr.BadRequest("missing/invalid clubid"))
		return
	}

	if err := DeleteClub(c.Request.Context(), clubID); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	order := c.DefaultQuery("order", "created_desc")

	var (
		clubID *int64
		name   *string
	)
	if idStr := c.Query("clubid"); idStr != "" {
		id, err := utils.ParseID(idStr)
		if err != nil {
			apperr.Respond(c, apperr.BadRequest("invalid clubid"))
			return
		}
		clubID = &id
	} else if nameStr := c.Query("name"); nameStr != "" {
		name = &nameStr
	}

	clubs, err := ListClubs(c.Request.Context(), clubID, name, limit, order)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	payload := gin.H{
		"items": clubs,
		"limit": normalizeLimit(limit),
		"order": order,
	}
	if clubID != nil {
		payload["clubId"] = *clubID
	}
	if name != nil {
		payload["name"] = *name
	}

	c.JSON(http.StatusOK, payload)
}

func handleMyClubs(c *gin.Context) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthorized())
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	clubs, err := ListClubsForUser(c.Request.Context(), id.Username, limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	for i := range clubs {
		clubs[i] = clubs[i].withViewer(membership.Access{
			Role:  roleOf(clubs[i].Members, id.Username),
			Admin: id.IsAdmin(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": clubs, "limit": normalizeLimit(limit)})
}

func handleGetClub(c *gin.Context) {
	a, err := access(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	club, err := GetClub(c.Request.Context(), a.ClubID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, club.withViewer(a))
}

func addClubMemberHandler(c *gin.Context) {
	a, err := access(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !a.CanManage() {
		apperr.Respond(c, apperr.Forbidden("only club leaders can add members"))
		return
	}

	var req AddClubMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	username := cleanUsername(req.Username)
	if !utils.IsValidUsername(username) {
		apperr.Respond(c, apperr.Invalid("username", "contains invalid characters"))
		return
	}
	role, _ := membership.ParseRole(req.Role)
	if !canChangeRole(a, role) {
		apperr.Respond(c, apperr.Forbidden("only owners can add owners"))
		return
	}

	if kc != nil {
		exists, err := kc.UserExists(c.Request.Context(), username)
		if err != nil {
			apperr.Respond(c, apperr.New("upstream_error", "could not verify user").
				SetHttpStatusCode(http.StatusBadGateway).SetDebug(err))
			return
		}
		if !exists {
			apperr.Respond(c, apperr.NotFound("user"))
			return
		}
	}

	if err := AddMember(c.Request.Context(), a.ClubID, username, role); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "clubId": a.ClubID, "username": username, "role": role})
}

func removeClubMemberHandler(c *gin.Context) {
	a, err := access(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	username := cleanUsername(c.Param("username"))
	// members may leave on their own
	if !a.CanManage() && username != a.Username {
		apperr.Respond(c, apperr.Forbidden("only club leaders can remove members"))
		return
	}

	target, err := membership.RoleIn(c.Request.Context(), pool, a.ClubID, username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if target == membership.RoleNone {
		apperr.Respond(c, apperr.NotFound("member"))
		return
	}
	if username != a.Username && !canChangeRole(a, target) {
		apperr.Respond(c, apperr.Forbidden("only owners can remove owners"))
		return
	}

	if err := RemoveMember(c.Request.Context(), a.ClubID, username); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func roleOf(members []ClubMember, username string) membership.Role {
	for _, m := range members {
		if m.Username == username {
			return m.Role
		}
	}
	return membership.RoleNone
}
