package front

import (
	"errors"
	"net/http"

	"github.com/Nerzal/gocloak/v13"
	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

func handleAdminGetUserByUsername(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.Param("username")
	if !utils.IsValidUsername(username) {
		apperr.Respond(c, apperr.Invalid("username", "contains characters that are not allowed"))
		return
	}
	if kc == nil {
		apperr.Respond(c, directoryUnavailable())
		return
	}

	adminJWT, err := kc.LoginAdmin(ctx)
	if err != nil {
		apperr.Respond(c, apperr.Internal().SetDebug(err))
		return
	}

	u, err := kc.GetUserByUsername(ctx, adminJWT.AccessToken, username)
	if errors.Is(err, auth.ErrUserNotFound) {
		apperr.Respond(c, apperr.NotFound("user"))
		return
	}
	if err != nil {
		apperr.Respond(c, apperr.Internal().SetDebug(err))
		return
	}

	respondInFormat(c, gin.H{
		"id":            gocloak.PString(u.ID),
		"username":      gocloak.PString(u.Username),
		"email":         gocloak.PString(u.Email),
		"emailVerified": gocloak.PBool(u.EmailVerified),
		"firstName":     gocloak.PString(u.FirstName),
		"lastName":      gocloak.PString(u.LastName),
		"enabled":       gocloak.PBool(u.Enabled),
		"createdAt":     gocloak.PInt64(u.CreatedTimestamp),
	})
}

// handleAdminClubs lists every club with its member count, for the admin overview.
func handleAdminClubs(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	clubs, err := client.WithToken(id.AccessToken).AdminClubs(c.Request.Context())
	if err != nil {
		apperr.Respond(c, upstream(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": clubs})
}
