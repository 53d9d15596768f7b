package mdocument

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
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

func storeErr(what string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound(what).SetDebug(err)
	case errors.Is(err, errMissingTarget):
		return apperr.NotFound(what).SetDebug(err)
	}
	return err
}

func derive(docs ...*Document) {
	now := time.Now()
	for _, d := range docs {
		d.finish(now, config.APIBase)
	}
}

// checkAssignees rejects users that are not members of the club.
func checkAssignees(c *gin.Context, clubID int64, field string, users []string) error {
	for _, u := range users {
		if !utils.IsValidUsername(u) {
			return apperr.Invalid(field, fmt.Sprintf("%q is not a valid username", u))
		}
	}
	outsiders, err := NonMembers(c.Request.Context(), clubID, users)
	if err != nil {
		return err
	}
	if len(outsiders) > 0 {
		return apperr.Invalid(field, fmt.Sprintf("not club members: %v", outsiders))
	}
	return nil
}

func handleListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	order := c.DefaultQuery("order", "created_desc")
	status := c.Query("status")
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

	f := ListFilter{ClubID: a.ClubID, Status: status, Assignee: c.Query("assignee"), Limit: limit, Offset: offset, Order: order}
	if c.Query("mine") == "true" {
		f.Assignee = a.Username
	}
	docs, hasMore, err := ListDocuments(c.Request.Context(), f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	for i := range docs {
		derive(&docs[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      docs,
		"limit":      normalizeLimit(limit),
		"offset":     offset,
		"hasMore":    hasMore,
		"order":      order,
		"status":     status,
		"leaderView": a.CanManage(),
	})
}

func handleGetDocument(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	d, err := GetDocument(c.Request.Context(), a.ClubID, documentID)
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}
	derive(&d)

	c.JSON(http.StatusOK, d)
}

func handleCreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	req.defaults()

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := checkAssignees(c, a.ClubID, "assignedMembers", req.AssignedMembers); err != nil {
		apperr.Respond(c, err)
		return
	}

	id, err := CreateDocument(c.Request.Context(), a.ClubID, a.Username, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("document created", "club_id", a.ClubID, "document_id", id)
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": id})
}

func handleUpdateDocument(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if req.AssignedMembers != nil {
		users := cleanUsers(*req.AssignedMembers)
		if err := checkAssignees(c, a.ClubID, "assignedMembers", users); err != nil {
			apperr.Respond(c, err)
			return
		}
		req.AssignedMembers = &users
	}

	err = UpdateDocument(c.Request.Context(), a.ClubID, documentID, req)
	if errors.Is(err, errNoFields) {
		apperr.Respond(c, apperr.BadRequest("provide fields to update"))
		return
	}
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleDeleteDocument(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	paths, err := DeleteDocuments(c.Request.Context(), a.ClubID, []int64{documentID})
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}
	removeBlobs(c, paths...)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

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

// handleSetStatus moves the document itself; leaders and assignees may do it.
func handleSetStatus(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req StatusRequest
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

	d, err := GetDocument(ctx, a.ClubID, documentID)
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}
	if _, assigned := d.assignee(a.Username); !assigned && !a.CanManage() {
		apperr.Respond(c, apperr.Forbidden("only leaders and assignees can change the status"))
		return
	}

	if err := SetStatus(ctx, a.ClubID, []int64{documentID}, req.Status); err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "documentStatus": req.Status})
}

func handleMemberStatus(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req MemberStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	if !req.SubmissionStatus.Valid() {
		apperr.Respond(c, apperr.Invalid("submissionStatus", "unknown status"))
		return
	}

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := moveAssignee(c, a, documentID, req.UserID, req.SubmissionStatus, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "submissionStatus": req.SubmissionStatus})
}

func handleReview(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	to, ok := reviewOutcome(req.Decision)
	if !ok {
		apperr.Respond(c, apperr.Invalid("decision", "must be approve or revise"))
		return
	}

	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := moveAssignee(c, a, documentID, req.UserID, to, &req.Comment); err != nil {
		apperr.Respond(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("document reviewed",
		"document_id", documentID, "user", req.UserID, "outcome", to)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "submissionStatus": to})
}

func moveAssignee(c *gin.Context, a membership.Access, documentID int64, user string, to SubmissionStatus, comment *string) error {
	ctx := c.Request.Context()
	d, err := GetDocument(ctx, a.ClubID, documentID)
	if err != nil {
		return storeErr("document", err)
	}
	users := cleanUsers([]string{user})
	if len(users) == 0 {
		return apperr.Invalid("userId", "must not be blank")
	}
	m, ok := d.assignee(users[0])
	if !ok {
		return apperr.NotFound("assignee")
	}
	if err := checkTransition(m.SubmissionStatus, to); err != nil {
		return err
	}
	return statusRace(SetMemberStatus(ctx, documentID, m.UserID, m.SubmissionStatus, to, comment))
}

// statusRace reports a guarded status update that matched no row, meaning
// someone else moved the assignee first.
func statusRace(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict("submission status changed concurrently").SetDebug(err)
	}
	return err
}

func handleSubmitDocument(c *gin.Context) {
	documentID, err := idParam(c, "documentid", "documentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	upload, err := blob.ReadUpload(c, "file", maxUploadBytes())
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

	d, err := GetDocument(ctx, a.ClubID, documentID)
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}
	m, ok := d.assignee(a.Username)
	if !ok {
		apperr.Respond(c, apperr.Forbidden("you are not assigned to this document"))
		return
	}
	if err := checkTransition(m.SubmissionStatus, Submitted); err != nil {
		apperr.Respond(c, err)
		return
	}

	key := blob.NewKey(fmt.Sprintf("documents/%d/%s", documentID, a.Username), upload.Header.Filename)
	obj, err := upload.Save(ctx, store, key)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	next := AssignedMember{FileName: obj.FileName, FilePath: obj.FilePath, FileSize: obj.FileSize, MimeType: obj.MimeType}
	if err := StoreMemberFile(ctx, documentID, a.Username, m.SubmissionStatus, next); err != nil {
		removeBlobs(c, obj.FilePath)
		apperr.Respond(c, statusRace(err))
		return
	}
	if m.FilePath != "" && m.FilePath != obj.FilePath {
		removeBlobs(c, m.FilePath)
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "ok",
		"filePath": obj.FilePath,
		"fileUrl":  blob.FileURL(config.APIBase, obj.FilePath),
	})
}

func handleBulkStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ids := uniqueIDs(req.IDs)
	if err := SetStatus(c.Request.Context(), a.ClubID, ids, req.Status); err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "updated": len(ids)})
}

func handleBulkAssign(c *gin.Context) {
	var req BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	users := cleanUsers(req.UserIDs)
	if err := checkAssignees(c, a.ClubID, "userIds", users); err != nil {
		apperr.Respond(c, err)
		return
	}
	ids := uniqueIDs(req.IDs)
	if err := AssignMembers(c.Request.Context(), a.ClubID, ids, users); err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "updated": len(ids)})
}

func handleBulkDelete(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	a, err := membership.RequireManager(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ids := uniqueIDs(req.IDs)
	paths, err := DeleteDocuments(c.Request.Context(), a.ClubID, ids)
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}
	removeBlobs(c, paths...)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": len(ids)})
}

func handleBulkExport(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	a, err := membership.FromRoute(c, pool)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	docs, err := GetDocuments(c.Request.Context(), a.ClubID, uniqueIDs(req.IDs))
	if err != nil {
		apperr.Respond(c, storeErr("document", err))
		return
	}
	for i := range docs {
		derive(&docs[i])
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="`+ExportFileName(a.ClubID, time.Now())+`"`)
	c.Status(http.StatusOK)
	if err := WriteExport(c.Writer, docs); err != nil {
		// headers are gone, only the log can tell
		logger.FromContext(c.Request.Context()).Error("export failed", "club_id", a.ClubID, "error", err)
		_ = c.Error(err)
	}
}

func handleListTemplates(c *gin.Context) {
	templates, err := ListTemplates(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": templates})
}

func handleGetTemplate(c *gin.Context) {
	id, err := idParam(c, "templateid", "templateId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	t, err := GetTemplate(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, storeErr("template", err))
		return
	}
	c.JSON(http.StatusOK, t)
}

func handleCreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	id, err := CreateTemplate(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": id})
}

func handleUpdateTemplate(c *gin.Context) {
	id, err := idParam(c, "templateid", "templateId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err))
		return
	}
	if err := UpdateTemplate(c.Request.Context(), id, req); err != nil {
		apperr.Respond(c, storeErr("template", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleDeleteTemplate(c *gin.Context) {
	id, err := idParam(c, "templateid", "templateId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := DeleteTemplate(c.Request.Context(), id); err != nil {
		apperr.Respond(c, storeErr("template", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
