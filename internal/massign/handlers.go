package massign

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	"kyri56xcaesar/clubs-proj/internal/blob"
	"kyri56xcaesar/clubs-proj/internal/logger"
	"kyri56xcaesar/clubs-proj/internal/membership"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

func idParam(c *gin.Context, name, field string) (int64, error) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		return 0, apperr.Invalid(field, "must be a positive integer").SetDebug(err)
	}
	return id, nil
}

func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what).SetDebug(err)
	}
	return err
}

func handleListAssignments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	order := c.DefaultQuery("order", "created_desc")
	offset, err := utils.ParseOffset(c.Query("offset"))
	if err != nil {
		apperr.Respond(c, apperr.Invalid("offset", "must be a non-negative integer"))
		return
	}

	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	items, hasMore, err := ListAssignments(c.Request.Context(), a.ClubID, a.Username, limit, offset, order)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	for i := range items {
		items[i].UserSubmission.setFileURL(config.APIBase)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"limit":      normalizeLimit(limit),
		"offset":     offset,
		"hasMore":    hasMore,
		"order":      order,
		"leaderView": a.CanManage(),
	})
}

func handleGetAssignment(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	asg, err := GetAssignment(c.Request.Context(), a.ClubID, assignmentID, a.Username)
	if err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}

	c.JSON(http.StatusOK, asg)
}

func handleCreateAssignment(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	if err := validateWindow(deref(req.AvailableDate), deref(req.DueDate)); err != nil {
		apperr.Respond(c, err)
		return
	}

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	id, err := CreateAssignment(c.Request.Context(), a.ClubID, a.Username, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("assignment created", "club_id", a.ClubID, "assignment_id", id)
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": id})
}

func handleUpdateAssignment(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	current, err := GetAssignment(c.Request.Context(), a.ClubID, assignmentID, a.Username)
	if err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	next := applyUpdate(current, req)
	if err := validateWindow(next.AvailableDate, next.DueDate); err != nil {
		apperr.Respond(c, err)
		return
	}

	err = UpdateAssignment(c.Request.Context(), a.ClubID, assignmentID, req)
	if errors.Is(err, errNoFields) {
		apperr.Respond(c, apperr.BadRequest("provide fields to update"))
		return
	}
	if err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleDeleteAssignment(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	paths, err := DeleteAssignment(c.Request.Context(), a.ClubID, assignmentID)
	if err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	removeBlobs(c, paths...)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// removeBlobs is best effort: the rows are already gone.
func removeBlobs(c *gin.Context, paths ...string) {
	log := logger.FromContext(c.Request.Context())
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := store.Delete(c.Request.Context(), blob.KeyFromPath(p)); err != nil {
			log.Warn("failed to delete blob", "path", p, "error", err)
		}
	}
}

// readSubmission decodes the body as either a JSON text submission or a
// multipart upload. Nothing is stored yet.
func readSubmission(c *gin.Context) (Submission, *blob.Upload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req SubmitTextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return Submission{}, nil, apperr.Validation(err)
		}
		if strings.TrimSpace(req.TextContent) == "" {
			return Submission{}, nil, apperr.Invalid("textContent", "must not be blank")
		}
		return Submission{SubmissionType: SubmissionText, TextContent: req.TextContent}, nil, nil
	}

	f, err := blob.ReadUpload(c, "file", maxUploadBytes())
	if err != nil {
		return Submission{}, nil, err
	}
	return Submission{SubmissionType: SubmissionFile}, f, nil
}

func handleSubmit(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	sub, upload, err := readSubmission(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	asg, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username)
	if err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	existing, err := GetOwnSubmission(ctx, assignmentID, a.Username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := checkSubmittable(time.Now(), asg, existing); err != nil {
		apperr.Respond(c, err)
		return
	}

	sub.AssignmentID = assignmentID
	sub.UserID = a.Username
	if upload != nil {
		key := blob.NewKey(fmt.Sprintf("submissions/%d", assignmentID), upload.Header.Filename)
		obj, err := upload.Save(ctx, store, key)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		sub.FileName, sub.FilePath, sub.FileSize, sub.MimeType = obj.FileName, obj.FilePath, obj.FileSize, obj.MimeType
	}

	id, err := saveSubmission(ctx, sub)
	if err != nil {
		removeBlobs(c, sub.FilePath)
		apperr.Respond(c, err)
		return
	}
	if existing != nil && existing.FilePath != "" && existing.FilePath != sub.FilePath {
		removeBlobs(c, existing.FilePath)
	}

	logger.FromContext(ctx).Info("submission stored",
		"assignment_id", assignmentID, "submission_id", id, "type", sub.SubmissionType)
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": id})
}

var upsertSubmission = UpsertSubmission

// saveSubmission stores sub. The store leaves graded rows alone, which
// surfaces here as a conflict.
func saveSubmission(ctx context.Context, sub Submission) (int64, error) {
	id, err := upsertSubmission(ctx, sub)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Conflict("graded submissions are read-only").SetDebug(err)
	}
	return id, err
}

func handleMySubmission(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username); err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	sub, err := GetOwnSubmission(ctx, assignmentID, a.Username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if sub == nil {
		apperr.Respond(c, apperr.NotFound("submission"))
		return
	}
	sub.setFileURL(config.APIBase)

	c.JSON(http.StatusOK, sub)
}

func handleListSubmissions(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username); err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	subs, err := ListSubmissions(ctx, assignmentID, limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	for i := range subs {
		subs[i].setFileURL(config.APIBase)
	}

	c.JSON(http.StatusOK, gin.H{"items": subs, "limit": normalizeLimit(limit)})
}

func handleGetSubmission(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	submissionID, err := idParam(c, "submissionid", "submissionId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username); err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	sub, err := GetSubmission(ctx, assignmentID, submissionID)
	if err != nil {
		apperr.Respond(c, notFound("submission", err))
		return
	}
	if !a.CanManage() && sub.UserID != a.Username {
		apperr.Respond(c, apperr.Forbidden("not your submission"))
		return
	}
	sub.setFileURL(config.APIBase)

	c.JSON(http.StatusOK, sub)
}

func handleGrade(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	submissionID, err := idParam(c, "submissionid", "submissionId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	if err := validateScore(*req.Score, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	asg, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username)
	if err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	if err := validateScore(*req.Score, asg.MaxScore); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := GradeSubmission(ctx, assignmentID, submissionID, *req.Score, req.Comment, a.Username); err != nil {
		apperr.Respond(c, notFound("submission", err))
		return
	}

	logger.FromContext(ctx).Info("submission graded",
		"assignment_id", assignmentID, "submission_id", submissionID, "score", *req.Score)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleListComments(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	order := c.DefaultQuery("order", "created_asc")

	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username); err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	comments, err := ListComments(ctx, assignmentID, limit, order)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": comments, "limit": normalizeLimit(limit), "order": order})
}

func handleCreateComment(c *gin.Context) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}

	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username); err != nil {
		apperr.Respond(c, notFound("assignment", err))
		return
	}
	id, err := CreateComment(ctx, assignmentID, a.Username, req.Body)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": id})
}

// commentTarget loads the comment named by the route and checks the caller may touch it.
func commentTarget(c *gin.Context, deleting bool) (Comment, error) {
	assignmentID, err := idParam(c, "assignmentid", "assignmentId")
	if err != nil {
		return Comment{}, err
	}
	commentID, err := idParam(c, "commentid", "commentId")
	if err != nil {
		return Comment{}, err
	}

	a, err := membership.FromRoute(c, pool)
	if err != nil {
		return Comment{}, err
	}
	ctx := c.Request.Context()

	if _, err := GetAssignment(ctx, a.ClubID, assignmentID, a.Username); err != nil {
		return Comment{}, notFound("assignment", err)
	}
	cmt, err := GetComment(ctx, assignmentID, commentID)
	if err != nil {
		return Comment{}, notFound("comment", err)
	}
	if !canEditComment(cmt, a.Username, a.CanManage(), deleting) {
		return Comment{}, apperr.Forbidden("only the author can change this comment")
	}
	return cmt, nil
}

func handleUpdateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	cmt, err := commentTarget(c, false)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := UpdateComment(c.Request.Context(), cmt.ID, req.Body); err != nil {
		apperr.Respond(c, notFound("comment", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleDeleteComment(c *gin.Context) {
	cmt, err := commentTarget(c, true)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := DeleteComment(c.Request.Context(), cmt.ID); err != nil {
		apperr.Respond(c, notFound("comment", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
