package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/programs-board/internal/board"
	"github.com/garyellow/programs-board/internal/program"
)

const htmlContentType = "text/html; charset=utf-8"

// Query parameters carrying the control values.
const (
	paramDifficulty = "difficulty"
	paramStipend    = "stipend"
	paramSort       = "sort"
)

func filterFromQuery(c *gin.Context) program.Filter {
	return program.ParseFilter(
		c.Query(paramDifficulty),
		c.Query(paramStipend),
		c.DefaultQuery(paramSort, board.DefaultSort),
	)
}

func hasFilterQuery(c *gin.Context) bool {
	q := c.Request.URL.Query()
	return q.Has(paramDifficulty) || q.Has(paramStipend) || q.Has(paramSort)
}

// grid returns the grid markup for the request. Without filter parameters it
// serves the board's own container, which holds the default view.
func (a *Application) grid(c *gin.Context, f program.Filter) string {
	if !hasFilterQuery(c) {
		if html := a.container.HTML(); html != "" {
			return html
		}
	}
	return a.board.View(f)
}

// page serves the full HTML document with the filter form and the grid.
func (a *Application) page(c *gin.Context) {
	f := filterFromQuery(c)

	c.Status(http.StatusOK)
	c.Header("Content-Type", htmlContentType)
	if err := pageTemplate.Execute(c.Writer, newPageData(f, a.grid(c, f))); err != nil {
		a.logger.WithError(err).Error("Failed to render page")
		a.metrics.RecordHTTPError("server_error", "/")
	}
}

// fragment serves only the grid markup.
func (a *Application) fragment(c *gin.Context) {
	f := filterFromQuery(c)
	c.Data(http.StatusOK, htmlContentType, []byte(a.grid(c, f)))
}

// listPrograms serves the filtered working set as JSON.
func (a *Application) listPrograms(c *gin.Context) {
	state := a.board.State()
	switch state {
	case board.StateLoaded:
	case board.StateFailed:
		a.metrics.RecordHTTPError("not_ready", "/api/programs")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"state": state.String(),
			"error": "Failed to load programs. Please refresh the page.",
		})
		return
	default:
		a.metrics.RecordHTTPError("not_ready", "/api/programs")
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"state": state.String(),
			"error": "programs are still loading",
		})
		return
	}

	f := filterFromQuery(c)
	programs := a.board.Programs(f)
	c.JSON(http.StatusOK, gin.H{
		"state": state.String(),
		"total": a.board.Count(),
		"count": len(programs),
		"filter": gin.H{
			paramDifficulty: f.Difficulty,
			paramStipend:    f.Stipend.String(),
			paramSort:       f.Sort.String(),
		},
		"programs": programs,
	})
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// readinessCheck reports ready once the working set has loaded, including
// when it loaded empty.
func (a *Application) readinessCheck(c *gin.Context) {
	state := a.board.State()
	if state != board.StateLoaded {
		a.logger.WithField("state", state.String()).Debug("Readiness check: board not loaded")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": state.String(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"programs": a.board.Count(),
		"source":   a.board.Source(),
	})
}

func (a *Application) notFound(c *gin.Context) {
	a.metrics.RecordHTTPError("not_found", "unmatched")
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
