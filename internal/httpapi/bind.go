package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"streamhub/internal/apperr"
	"streamhub/internal/logger"
)

// bindInput fills obj from a multipart form, a urlencoded form or a JSON
// body, depending on the request content type. An empty body leaves obj as is.
func bindInput(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	var err error
	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		err = c.ShouldBindWith(obj, binding.FormMultipart)
	case binding.MIMEPOSTForm:
		err = c.ShouldBindWith(obj, binding.Form)
	default:
		err = c.ShouldBindJSON(obj)
	}
	if err != nil {
		return apperr.Wrap(apperr.Validation, err, "invalid request body")
	}
	return nil
}

// saveUpload stores the file sent as field and returns its public URL, or
// nil when the request carries no such file.
func (a *api) saveUpload(c *gin.Context, field string) (*string, error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "invalid "+field+" upload")
	}
	url, err := a.Uploads.Save(fh, field)
	if err != nil {
		return nil, err
	}
	saved, _ := c.Get(ctxSavedUploads)
	urls, _ := saved.([]string)
	c.Set(ctxSavedUploads, append(urls, url))
	return &url, nil
}

const ctxSavedUploads = "saved_uploads"

// discardFailedUploads removes the files a request stored when it ends with
// an error status.
func (a *api) discardFailedUploads() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < http.StatusBadRequest {
			return
		}
		saved, _ := c.Get(ctxSavedUploads)
		urls, _ := saved.([]string)
		for _, url := range urls {
			if err := a.Uploads.Remove(url); err != nil {
				logger.Warning("discard upload:", err)
			}
		}
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
