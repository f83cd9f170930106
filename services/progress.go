package services

import (
	"math"

	"task-manager/models"
)

// Recompute derives progress and status from a checklist. An empty checklist
// yields zero progress and leaves current untouched.
func Recompute(checklist []models.ChecklistItem, current models.TaskStatus) (int, models.TaskStatus) {
	total := len(checklist)
	if total == 0 {
		return 0, current
	}

	completed := 0
	for _, item := range checklist {
		if item.Completed {
			completed++
		}
	}

	progress := int(math.Round(100 * float64(completed) / float64(total)))
	switch progress {
	case 100:
		return progress, models.StatusCompleted
	case 0:
		return progress, models.StatusPending
	}
	return progress, models.StatusInProgress
}

// ApplyChecklist replaces the task checklist and recomputes its derived fields.
func ApplyChecklist(task *models.Task, checklist []models.ChecklistItem) {
	if checklist == nil {
		checklist = []models.ChecklistItem{}
	}
	task.TodoChecklist = checklist
	task.Progress, task.Status = Recompute(checklist, task.Status)
}

// ApplyStatus is the direct status-set path. An empty status keeps the current
// one. Moving to Completed marks every checklist item done and pins progress at 100;
// other statuses leave checklist and progress as they are.
func ApplyStatus(task *models.Task, status models.TaskStatus) {
	if status != "" {
		task.Status = status
	}
	if task.Status != models.StatusCompleted {
		return
	}
	for i := range task.TodoChecklist {
		task.TodoChecklist[i].Completed = true
	}
	task.Progress = 100
}
