package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *api) listCategories(c *gin.Context) {
	cats, err := a.Query.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (a *api) listShows(c *gin.Context) {
	shows, err := a.Query.ListShows(c.Request.Context(), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, shows)
}

func (a *api) getShow(c *gin.Context) {
	show, err := a.Query.GetShow(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, show)
}

func (a *api) listEpisodes(c *gin.Context) {
	eps, err := a.Query.ListEpisodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eps)
}

func (a *api) getEpisode(c *gin.Context) {
	ep, err := a.Query.GetEpisode(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (a *api) search(c *gin.Context) {
	shows, err := a.Query.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, shows)
}

func (a *api) listSlides(c *gin.Context) {
	slides, err := a.Query.ListSlides(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slides)
}
