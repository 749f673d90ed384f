package http

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/importer"
	"github.com/akarpovich/deckport/internal/tasks"
)

// SessionStore is the session persistence the import controller needs.
type SessionStore interface {
	Create(fileName string) (*entities.ImportSession, error)
	Complete(id uint, total, imported, failed int, failures any) error
	Fail(id uint, reason string) error
}

// ApkgImportController handles archive uploads, synchronously or through
// the task queue.
type ApkgImportController struct {
	importer   tasks.ArchiveImporter
	sessions   SessionStore
	taskClient *tasks.Client
	defaults   importer.Options
	maxBytes   int64
}

func NewApkgImportController(
	imp tasks.ArchiveImporter,
	sessions SessionStore,
	taskClient *tasks.Client,
	defaults importer.Options,
	maxBytes int64,
) *ApkgImportController {
	return &ApkgImportController{
		importer:   imp,
		sessions:   sessions,
		taskClient: taskClient,
		defaults:   defaults,
		maxBytes:   maxBytes,
	}
}

// ImportResponse is the synchronous import reply.
type ImportResponse struct {
	SessionID uint             `json:"session_id,omitempty"`
	Result    *importer.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// AsyncImportResponse acknowledges a queued import.
type AsyncImportResponse struct {
	SessionID uint   `json:"session_id"`
	TaskID    string `json:"task_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Import handles POST /api/import/apkg: upload, run, reply with the full
// result including per-row failures.
func (c *ApkgImportController) Import(ctx *gin.Context) {
	data, fileName, ok := c.readUpload(ctx)
	if !ok {
		return
	}

	opts := c.runOptions(ctx, fileName)

	var session *entities.ImportSession
	if c.sessions != nil {
		var err error
		session, err = c.sessions.Create(fileName)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, ImportResponse{Error: fmt.Sprintf("failed to open session: %v", err)})
			return
		}
	}

	result, err := c.importer.Run(ctx.Request.Context(), data, opts)
	if err != nil {
		if session != nil {
			_ = c.sessions.Fail(session.ID, err.Error())
		}
		response := ImportResponse{Result: result, Error: err.Error()}
		if session != nil {
			response.SessionID = session.ID
		}
		ctx.JSON(http.StatusUnprocessableEntity, response)
		return
	}

	if session != nil {
		_ = c.sessions.Complete(session.ID, result.Stats.Total, result.Stats.Imported, result.Stats.Failed, result.Failures)
	}

	response := ImportResponse{Result: result}
	if session != nil {
		response.SessionID = session.ID
	}
	ctx.JSON(http.StatusOK, response)
}

// ImportAsync handles POST /api/import/apkg/async: spool the upload to
// disk, open a session and enqueue the import task.
func (c *ApkgImportController) ImportAsync(ctx *gin.Context) {
	if c.taskClient == nil {
		ctx.JSON(http.StatusServiceUnavailable, AsyncImportResponse{Error: "task queue disabled"})
		return
	}

	data, fileName, ok := c.readUpload(ctx)
	if !ok {
		return
	}

	session, err := c.sessions.Create(fileName)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, AsyncImportResponse{Error: fmt.Sprintf("failed to open session: %v", err)})
		return
	}

	spool, err := os.CreateTemp("", "deckport-upload-*.apkg")
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, AsyncImportResponse{SessionID: session.ID, Error: err.Error()})
		return
	}
	if _, err := spool.Write(data); err != nil {
		spool.Close()
		os.Remove(spool.Name())
		ctx.JSON(http.StatusInternalServerError, AsyncImportResponse{SessionID: session.ID, Error: err.Error()})
		return
	}
	spool.Close()

	ids, err := c.taskClient.Add(tasks.ImportArchiveTask{
		SessionID:  session.ID,
		FilePath:   spool.Name(),
		FileName:   fileName,
		TargetDeck: ctx.PostForm("target_deck"),
	}).Save()
	if err != nil {
		os.Remove(spool.Name())
		_ = c.sessions.Fail(session.ID, err.Error())
		ctx.JSON(http.StatusInternalServerError, AsyncImportResponse{SessionID: session.ID, Error: err.Error()})
		return
	}

	response := AsyncImportResponse{SessionID: session.ID}
	if len(ids) > 0 {
		response.TaskID = ids[0]
	}
	ctx.JSON(http.StatusAccepted, response)
}

// readUpload pulls the archive out of the multipart form, enforcing the
// upload size limit. Replies with an error itself when the form is bad.
func (c *ApkgImportController) readUpload(ctx *gin.Context) ([]byte, string, bool) {
	file, header, err := ctx.Request.FormFile("archive")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ImportResponse{Error: "archive file not provided"})
		return nil, "", false
	}
	defer file.Close()

	if c.maxBytes > 0 && header.Size > c.maxBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, ImportResponse{
			Error: fmt.Sprintf("file too large (max %d MB)", c.maxBytes/(1024*1024)),
		})
		return nil, "", false
	}

	limit := c.maxBytes
	if limit <= 0 {
		limit = 1 << 30
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ImportResponse{Error: fmt.Sprintf("failed to read upload: %v", err)})
		return nil, "", false
	}
	return data, header.Filename, true
}

// runOptions folds per-request form overrides into the configured defaults.
func (c *ApkgImportController) runOptions(ctx *gin.Context, fileName string) importer.Options {
	opts := c.defaults
	opts.FileName = fileName
	if target := ctx.PostForm("target_deck"); target != "" {
		opts.TargetDeckName = target
	}
	return opts
}
