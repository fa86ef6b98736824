package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/models"
)

// loginRequest is checked against the store only, so a bad role or an empty
// field fails like a wrong password.
type loginRequest struct {
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

type loginResponse struct {
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
	Token string      `json:"token"`
}

// handleLogin checks credentials and hands out a bearer token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	caller, err := s.svc.Login(c.Request.Context(), req.Name, req.Role, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	token, err := s.tokens.Issue(caller)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, loginResponse{Name: caller.Name, Role: caller.Role, Token: token})
}
