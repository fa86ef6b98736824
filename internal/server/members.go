package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/models"
	"taskgrid/internal/tracker"
)

type memberRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email" binding:"omitempty,email"`
	Role     *models.Role `json:"role" binding:"omitempty,memberrole"`
	Password *string      `json:"password"`
}

func (r memberRequest) input() tracker.MemberInput {
	return tracker.MemberInput{Name: r.Name, Email: r.Email, Role: r.Role, Password: r.Password}
}

// handleListMembers returns every team member.
func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.svc.ListMembers(c.Request.Context(), callerFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, members)
}

// handleGetMember returns a single team member.
func (s *Server) handleGetMember(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrMemberNotFound)
	if !ok {
		return
	}
	member, err := s.svc.GetMember(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, member)
}

// handleCreateMember registers a team member.
func (s *Server) handleCreateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}
	member, err := s.svc.CreateMember(c.Request.Context(), callerFrom(c), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, member)
}

// handleUpdateMember changes the supplied fields of a member.
func (s *Server) handleUpdateMember(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrMemberNotFound)
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}
	member, err := s.svc.UpdateMember(c.Request.Context(), callerFrom(c), id, req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, member)
}

// handleDeleteMember removes a member. Their tasks stay behind.
func (s *Server) handleDeleteMember(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrMemberNotFound)
	if !ok {
		return
	}
	if err := s.svc.DeleteMember(c.Request.Context(), callerFrom(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Team member deleted"})
}
