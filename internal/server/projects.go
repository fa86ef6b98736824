package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/models"
	"taskgrid/internal/tracker"
)

type projectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate" binding:"omitempty,caldate"`
	EndDate     *string `json:"endDate" binding:"omitempty,caldate"`
}

func (r projectRequest) input() tracker.ProjectInput {
	return tracker.ProjectInput{
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context(), callerFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, projects)
}

// handleCreateProject creates a new project entity.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	project, err := s.svc.CreateProject(c.Request.Context(), callerFrom(c), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}

// handleUpdateProject changes the supplied fields of a project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrProjectNotFound)
	if !ok {
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	project, err := s.svc.UpdateProject(c.Request.Context(), callerFrom(c), id, req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, project)
}

// handleDeleteProject removes a project. Its tasks stay behind.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrProjectNotFound)
	if !ok {
		return
	}
	if err := s.svc.DeleteProject(c.Request.Context(), callerFrom(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Project deleted"})
}
