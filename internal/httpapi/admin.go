package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"streamhub/internal/catalog"
	"streamhub/internal/logger"
)

func (a *api) analytics(c *gin.Context) {
	stats, err := a.Admin.Analytics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *api) logs(c *gin.Context) {
	count := queryInt(c, "count", 100)
	if count <= 0 {
		count = 100
	}
	c.JSON(http.StatusOK, logger.Recent(count, c.DefaultQuery("level", "info")))
}

func (a *api) notify(c *gin.Context) {
	var req struct {
		Message string `json:"message" form:"message"`
	}
	if err := bindInput(c, &req); err != nil {
		fail(c, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message required")
		return
	}
	if a.Notifier != nil {
		a.Notifier.Broadcast(req.Message)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// categories

func (a *api) createCategory(c *gin.Context) {
	var in catalog.CategoryInput
	if err := bindInput(c, &in); err != nil {
		fail(c, err)
		return
	}
	cat, err := a.Admin.CreateCategory(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (a *api) updateCategory(c *gin.Context) {
	var in catalog.CategoryInput
	if err := bindInput(c, &in); err != nil {
		fail(c, err)
		return
	}
	cat, err := a.Admin.UpdateCategory(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (a *api) deleteCategory(c *gin.Context) {
	if err := a.Admin.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// shows

func (a *api) adminListShows(c *gin.Context) {
	shows, err := a.Admin.ListShows(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, shows)
}

func (a *api) bindShow(c *gin.Context) (catalog.ShowInput, error) {
	var in catalog.ShowInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	var err error
	if in.Poster, err = a.keepOr(c, "poster", in.Poster); err != nil {
		return in, err
	}
	if in.Banner, err = a.keepOr(c, "banner", in.Banner); err != nil {
		return in, err
	}
	return in, nil
}

// keepOr returns the uploaded file's URL for field, or cur when none was sent.
func (a *api) keepOr(c *gin.Context, field string, cur *string) (*string, error) {
	url, err := a.saveUpload(c, field)
	if err != nil || url == nil {
		return cur, err
	}
	return url, nil
}

func (a *api) createShow(c *gin.Context) {
	in, err := a.bindShow(c)
	if err != nil {
		fail(c, err)
		return
	}
	show, err := a.Admin.CreateShow(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, show)
}

func (a *api) updateShow(c *gin.Context) {
	in, err := a.bindShow(c)
	if err != nil {
		fail(c, err)
		return
	}
	show, err := a.Admin.UpdateShow(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, show)
}

func (a *api) deleteShow(c *gin.Context) {
	if err := a.Admin.DeleteShow(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// episodes

func (a *api) adminListEpisodes(c *gin.Context) {
	eps, err := a.Admin.ListEpisodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eps)
}

func (a *api) adminGetEpisode(c *gin.Context) {
	ep, err := a.Admin.GetEpisode(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (a *api) bindEpisode(c *gin.Context) (catalog.EpisodeInput, error) {
	var in catalog.EpisodeInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	var err error
	in.Thumbnail, err = a.keepOr(c, "thumbnail", in.Thumbnail)
	return in, err
}

func (a *api) createEpisode(c *gin.Context) {
	in, err := a.bindEpisode(c)
	if err != nil {
		fail(c, err)
		return
	}
	ep, err := a.Admin.CreateEpisode(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ep)
}

func (a *api) updateEpisode(c *gin.Context) {
	in, err := a.bindEpisode(c)
	if err != nil {
		fail(c, err)
		return
	}
	ep, err := a.Admin.UpdateEpisode(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (a *api) deleteEpisode(c *gin.Context) {
	if err := a.Admin.DeleteEpisode(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// slides

func (a *api) adminListSlides(c *gin.Context) {
	slides, err := a.Admin.ListSlides(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slides)
}

func (a *api) adminGetSlide(c *gin.Context) {
	slide, err := a.Admin.GetSlide(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

func (a *api) bindSlide(c *gin.Context) (catalog.SlideInput, error) {
	var in catalog.SlideInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	var err error
	in.Image, err = a.keepOr(c, "image", in.Image)
	return in, err
}

func (a *api) createSlide(c *gin.Context) {
	in, err := a.bindSlide(c)
	if err != nil {
		fail(c, err)
		return
	}
	slide, err := a.Admin.CreateSlide(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slide)
}

func (a *api) updateSlide(c *gin.Context) {
	in, err := a.bindSlide(c)
	if err != nil {
		fail(c, err)
		return
	}
	slide, err := a.Admin.UpdateSlide(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

func (a *api) deleteSlide(c *gin.Context) {
	if err := a.Admin.DeleteSlide(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
