package mdocument

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/blob"
	"kyri56xcaesar/clubs-proj/internal/conf"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/membership"
	"kyri56xcaesar/clubs-proj/internal/svc"
)

var (
	config conf.Config
	engine *gin.Engine
	pool   *pgxpool.Pool
	store  blob.Store
)

func maxUploadBytes() int64 {
	if config.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(config.MaxUploadMB) << 20
}

func setRoutes(kcAuth *auth.KeycloakAuth) {
	secure := engine.Group("/")
	secure.Use(kcAuth.RequireRoles(auth.RoleMember, auth.RoleLeader, auth.RoleAdmin))
	{
		secure.GET(blob.FilesPath+"*key", blob.ServeHandler(store))

		templates := secure.Group("/clubs/documents/templates")
		templates.GET("", handleListTemplates)
		templates.GET("/:templateid", handleGetTemplate)

		manage := templates.Group("")
		manage.Use(kcAuth.RequireRoles(auth.RoleLeader, auth.RoleAdmin))
		manage.POST("", handleCreateTemplate)
		manage.PUT("/:templateid", handleUpdateTemplate)
		manage.DELETE("/:templateid", handleDeleteTemplate)

		docs := secure.Group("/clubs/:" + membership.ClubParam + "/documents")
		docs.GET("", handleListDocuments)
		docs.POST("", handleCreateDocument)

		docs.POST("/bulk-update-status", handleBulkStatus)
		docs.POST("/bulk-assign", handleBulkAssign)
		docs.POST("/bulk-delete", handleBulkDelete)
		docs.POST("/bulk-export", handleBulkExport)

		docs.GET("/:documentid", handleGetDocument)
		docs.PUT("/:documentid", handleUpdateDocument)
		docs.PATCH("/:documentid", handleUpdateDocument)
		docs.DELETE("/:documentid", handleDeleteDocument)
		docs.PATCH("/:documentid/status", handleSetStatus)
		docs.PATCH("/:documentid/member-status", handleMemberStatus)
		docs.POST("/:documentid/submit", handleSubmitDocument)
		docs.POST("/:documentid/review", handleReview)
	}
}

func seedTemplates(ctx context.Context, log *slog.Logger) {
	if config.TemplateCatalog == "" {
		return
	}
	seeds, err := LoadCatalog(config.TemplateCatalog)
	if err != nil {
		log.Warn("template catalog not loaded", "path", config.TemplateCatalog, "error", err)
		return
	}
	added, err := SeedTemplates(ctx, seeds)
	if err != nil {
		log.Warn("template seeding stopped", "error", err)
	}
	log.Info("templates seeded", "catalog", len(seeds), "added", added)
}

func InitAndServe(confPath string) {
	config = conf.Load(confPath, "5035", "./internal/mdocument/db/init.sql")
	log := logger.New(os.Stdout, config.LogLevel, config.LogFormat).With("service", "documents")
	slog.SetDefault(log)

	ctx := context.Background()
	var err error
	store, err = blob.Open(ctx, config.StorageBackend, config.StorageDir, config.S3Region, config.S3Bucket)
	if err != nil {
		log.Error("file storage", "error", err)
		os.Exit(1)
	}

	engine = svc.NewEngine(config, log)
	setRoutes(svc.MustKeycloakAuth(config))

	pool, err = svc.OpenDB(ctx, config)
	if err != nil {
		log.Error("database", "error", err)
		os.Exit(1)
	}
	seedTemplates(ctx, log)

	svc.Serve(config, engine, pool.Close)
}
