package tracker

import (
	"context"
	"sort"

	"taskgrid/internal/models"
)

// TaskStats summarises the tasks ListTasks would return for the same arguments.
func (s *Service) TaskStats(ctx context.Context, caller models.Caller, projectID, assignee string) (models.TaskStats, error) {
	tasks, err := s.ListTasks(ctx, caller, projectID, assignee)
	if err != nil {
		return models.TaskStats{}, err
	}

	stats := models.TaskStats{
		Total:     len(tasks),
		ByStatus:  make(map[models.TaskStatus]int, len(models.TaskStatuses)),
		ByProject: []models.ProjectCount{},
	}
	for _, status := range models.TaskStatuses {
		stats.ByStatus[status] = 0
	}

	index := map[string]int{}
	for _, t := range tasks {
		stats.ByStatus[t.Status]++
		if t.Status == models.StatusDone {
			stats.Completed++
		}
		i, ok := index[t.Project.ID]
		if !ok {
			i = len(stats.ByProject)
			index[t.Project.ID] = i
			stats.ByProject = append(stats.ByProject, models.ProjectCount{ID: t.Project.ID, Title: t.Project.Title})
		}
		stats.ByProject[i].Count++
	}
	stats.Pending = stats.Total - stats.Completed

	sort.SliceStable(stats.ByProject, func(i, j int) bool {
		return stats.ByProject[i].Title < stats.ByProject[j].Title
	})
	return stats, nil
}
