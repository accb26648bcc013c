package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streamhub/internal/auth"
	"streamhub/internal/history"
)

type progressRequest struct {
	EpisodeID string   `json:"episode_id" form:"episode_id"`
	Progress  *float64 `json:"progress" form:"progress"`
}

func (a *api) listHistory(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	entries, err := a.Tracker.ListHistory(c.Request.Context(), p.ID, queryInt(c, "limit", history.DefaultLimit))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (a *api) showProgress(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	rows, err := a.Tracker.ShowProgress(c.Request.Context(), p.ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (a *api) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := bindInput(c, &req); err != nil {
		fail(c, err)
		return
	}
	p, _ := auth.PrincipalFrom(c)
	if err := a.Tracker.UpdateProgress(c.Request.Context(), p.ID, req.EpisodeID, req.Progress); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Progress saved."})
}
