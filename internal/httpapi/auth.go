package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (a *api) register(c *gin.Context) {
	a.issue(c, http.StatusCreated, a.Auth.Register)
}

func (a *api) login(c *gin.Context) {
	a.issue(c, http.StatusOK, a.Auth.Login)
}

func (a *api) adminLogin(c *gin.Context) {
	a.issue(c, http.StatusOK, a.Auth.AdminLogin)
}

func (a *api) issue(c *gin.Context, code int, do func(ctx context.Context, username, password string) (string, error)) {
	var req credentials
	if err := bindInput(c, &req); err != nil {
		fail(c, err)
		return
	}
	token, err := do(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(code, gin.H{"token": token})
}
