package mclub

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/conf"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/svc"
)

var (
	config conf.Config
	engine *gin.Engine
	pool   *pgxpool.Pool
	kc     *auth.Service
)

func setRoutes(kcAuth *auth.KeycloakAuth) {
	root := engine.Group("/")

	member := root.Group("/")
	member.Use(kcAuth.RequireRoles(auth.RoleMember, auth.RoleLeader, auth.RoleAdmin))
	{
		member.GET("/clubs", handleMyClubs)
		member.GET("/clubs/:clubid", handleGetClub)
		member.POST("/clubs/:clubid/members", addClubMemberHandler)
		member.DELETE("/clubs/:clubid/members/:username", removeClubMemberHandler)
	}

	admin := root.Group("/admin")
	admin.Use(kcAuth.RequireRoles(auth.RoleAdmin))
	{
		admin.POST("/clubs", createHandler)
		admin.PUT("/clubs", updateHandler)
		admin.DELETE("/clubs", deleteHandler)
		admin.GET("/clubs", getHandler)
	}
}

func InitAndServe(confPath string) {
	config = conf.Load(confPath, "5015", "./internal/mclub/db/init.sql")
	log := logger.New(os.Stdout, config.LogLevel, config.LogFormat).With("service", "clubs")
	slog.SetDefault(log)

	engine = svc.NewEngine(config, log)
	setRoutes(svc.MustKeycloakAuth(config))

	ctx := context.Background()
	var err error
	pool, err = svc.OpenDB(ctx, config)
	if err != nil {
		log.Error("database", "error", err)
		os.Exit(1)
	}
	kc = svc.KeycloakAdmin(ctx, config)

	svc.Serve(config, engine, pool.Close)
}
