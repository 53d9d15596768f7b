package massign

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

		club := secure.Group("/clubs/:" + membership.ClubParam + "/assignments")
		club.GET("", handleListAssignments)
		club.POST("", handleCreateAssignment)
		club.GET("/:assignmentid", handleGetAssignment)
		club.PUT("/:assignmentid", handleUpdateAssignment)
		club.DELETE("/:assignmentid", handleDeleteAssignment)

		club.POST("/:assignmentid/submit", handleSubmit)
		club.GET("/:assignmentid/submission", handleMySubmission)
		club.GET("/:assignmentid/submissions", handleListSubmissions)
		club.GET("/:assignmentid/submissions/:submissionid", handleGetSubmission)
		club.PATCH("/:assignmentid/submissions/:submissionid/grade", handleGrade)

		club.GET("/:assignmentid/comments", handleListComments)
		club.POST("/:assignmentid/comments", handleCreateComment)
		club.PUT("/:assignmentid/comments/:commentid", handleUpdateComment)
		club.PATCH("/:assignmentid/comments/:commentid", handleUpdateComment)
		club.DELETE("/:assignmentid/comments/:commentid", handleDeleteComment)
	}
}

func InitAndServe(confPath string) {
	config = conf.Load(confPath, "5030", "./internal/massign/db/init.sql")
	log := logger.New(os.Stdout, config.LogLevel, config.LogFormat).With("service", "assignments")
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

	svc.Serve(config, engine, pool.Close)
}
