package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/models"
	"taskgrid/internal/tracker"
)

type taskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	DueDate     *string            `json:"dueDate" binding:"omitempty,caldate"`
	AssignedTo  *string            `json:"assignedTo"`
	Project     *string            `json:"project"`
	Status      *models.TaskStatus `json:"status" binding:"omitempty,taskstatus"`
	Comment     *string            `json:"comment"`
}

func (r taskRequest) input() tracker.TaskInput {
	return tracker.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
		Project:     r.Project,
		Status:      r.Status,
		Comment:     r.Comment,
	}
}

type taskQuery struct {
	Project    string `form:"project"`
	AssignedTo string `form:"assignedTo"`
}

// handleListTasks returns expanded tasks, optionally filtered by project id
// and assignee name.
func (s *Server) handleListTasks(c *gin.Context) {
	var q taskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondBindError(c, err)
		return
	}

	tasks, err := s.svc.ListTasks(c.Request.Context(), callerFrom(c), q.Project, q.AssignedTo)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleTaskStats summarises the tasks the same filters would list.
func (s *Server) handleTaskStats(c *gin.Context) {
	var q taskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondBindError(c, err)
		return
	}

	stats, err := s.svc.TaskStats(c.Request.Context(), callerFrom(c), q.Project, q.AssignedTo)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// handleGetTask returns one expanded task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrTaskNotFound)
	if !ok {
		return
	}
	task, err := s.svc.GetTask(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleCreateTask stores a new task.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	task, err := s.svc.CreateTask(c.Request.Context(), callerFrom(c), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleUpdateTask updates task fields such as status or comment.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrTaskNotFound)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	task, err := s.svc.UpdateTask(c.Request.Context(), callerFrom(c), id, req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.parseID(c, "id", models.ErrTaskNotFound)
	if !ok {
		return
	}
	if err := s.svc.DeleteTask(c.Request.Context(), callerFrom(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Task deleted"})
}
