package front

import (
	"net/http"

	"github.com/Nerzal/gocloak/v13"
	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

func tokens(jwt *gocloak.JWT) TokenResponse {
	return TokenResponse{
		AccessToken:      jwt.AccessToken,
		RefreshToken:     jwt.RefreshToken,
		ExpiresIn:        jwt.ExpiresIn,
		RefreshExpiresIn: jwt.RefreshExpiresIn,
	}
}

func directoryUnavailable() *apperr.Error {
	return apperr.New("unavailable", "user directory is not configured").SetHttpStatusCode(http.StatusServiceUnavailable)
}

// handleLogin exchanges a username and password for keycloak tokens.
func handleLogin(c *gin.Context) {
	var r LoginRequest
	if err := c.ShouldBind(&r); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	if !utils.IsValidUsername(r.Username) {
		apperr.Respond(c, apperr.Invalid("username", "contains characters that are not allowed"))
		return
	}
	if kc == nil {
		apperr.Respond(c, directoryUnavailable())
		return
	}

	jwt, err := kc.LoginUser(c.Request.Context(), r.Username, r.Password)
	if err != nil {
		logger.FromContext(c.Request.Context()).Info("login failed", "username", r.Username, "error", err)
		apperr.Respond(c, apperr.New(apperr.CodeUnauthorized, "invalid username or password").
			SetHttpStatusCode(http.StatusUnauthorized))
		return
	}

	c.JSON(http.StatusOK, tokens(jwt))
}

func handleRefresh(c *gin.Context) {
	var r RefreshRequest
	if err := c.ShouldBind(&r); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	if kc == nil {
		apperr.Respond(c, directoryUnavailable())
		return
	}

	jwt, err := kc.RefreshUser(c.Request.Context(), r.RefreshToken)
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.CodeUnauthorized, "session expired, log in again").
			SetHttpStatusCode(http.StatusUnauthorized).SetDebug(err))
		return
	}

	c.JSON(http.StatusOK, tokens(jwt))
}
