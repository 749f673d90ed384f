package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/importer"
)

// SessionReader provides read access to import sessions.
type SessionReader interface {
	GetByID(id uint) (*entities.ImportSession, error)
	List(limit int) ([]entities.ImportSession, error)
}

// SessionsController exposes import run history.
type SessionsController struct {
	sessions SessionReader
}

func NewSessionsController(sessions SessionReader) *SessionsController {
	return &SessionsController{sessions: sessions}
}

// SessionResponse is one session with its failures decoded.
type SessionResponse struct {
	entities.ImportSession
	Failures []importer.Failure `json:"failures,omitempty"`
}

// Get handles GET /api/import/sessions/:id.
func (c *SessionsController) Get(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	session, err := c.sessions.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := SessionResponse{ImportSession: *session}
	if session.FailureJSON != "" {
		// Failures were serialized at completion time; a decode error
		// only hides them, it does not hide the session.
		_ = json.Unmarshal([]byte(session.FailureJSON), &response.Failures)
	}
	ctx.JSON(http.StatusOK, response)
}

// List handles GET /api/import/sessions.
func (c *SessionsController) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	sessions, err := c.sessions.List(limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
