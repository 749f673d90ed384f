package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akarpovich/deckport/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db           *database.Database
	queueEnabled bool
	version      string
}

func NewHealthController(db *database.Database, queueEnabled bool, version string) *HealthController {
	return &HealthController{
		db:           db,
		queueEnabled: queueEnabled,
		version:      version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// The card store is the one hard dependency; everything else degrades.
	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["store"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["store"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not configured"
	}

	if h.queueEnabled {
		checks["import_queue"] = "enabled"
	} else {
		checks["import_queue"] = "disabled"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
