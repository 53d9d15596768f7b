package front

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/conf"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/svc"
)

var (
	config conf.Config
	engine *gin.Engine
	client *apiclient.Client
	kc     *auth.Service
)

func setRoutes(kcAuth *auth.KeycloakAuth) {
	apiV1 := engine.Group(svc.APIVersion)
	{
		apiV1.POST("/login", handleLogin)
		apiV1.POST("/refresh", handleRefresh)
	}

	verified := apiV1.Group("/authenticated")
	verified.Use(kcAuth.RequireRoles(auth.RoleMember, auth.RoleLeader, auth.RoleAdmin))
	{
		verified.GET("/board", handleMyBoard)
		verified.GET("/clubs/:clubid/board", handleClubBoard)

		admin := verified.Group("/admin")
		admin.Use(kcAuth.RequireRoles(auth.RoleAdmin))
		{
			admin.GET("/users/:username", handleAdminGetUserByUsername)
			admin.GET("/clubs", handleAdminClubs)
		}
	}
}

func InitAndServe(confPath string) {
	config = conf.Load(confPath, "5045", "")
	log := logger.New(os.Stdout, config.LogLevel, config.LogFormat).With("service", "front")
	slog.SetDefault(log)

	client = apiclient.New(
		config.ClubServiceAddress,
		config.AssignmentServiceAddress,
		config.DocumentServiceAddress,
		config.RequestTimeout,
	)
	kc = svc.KeycloakAdmin(context.Background(), config)

	engine = svc.NewEngine(config, log)
	setRoutes(svc.MustKeycloakAuth(config))

	svc.Serve(config, engine, nil)
}

// respondInFormat answers in json unless the caller asks for xml.
func respondInFormat(c *gin.Context, data any) {
	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "xml":
		c.XML(http.StatusOK, data)
	default:
		c.JSON(http.StatusOK, data)
	}
}
