package services

import "task-manager/models"

// Scope narrows filter to the tasks the caller may see in listings, counts and
// dashboards. Admins see everything; members only tasks they are assigned to.
func Scope(filter models.TaskFilter, caller models.Caller) models.TaskFilter {
	if caller.IsAdmin() {
		return filter
	}
	return filter.WithAssignee(caller.ID)
}

// CanMutate guards checklist and status updates: admins and assignees only.
func CanMutate(task *models.Task, caller models.Caller) error {
	if caller.IsAdmin() || task.IsAssigned(caller.ID) {
		return nil
	}
	return forbidden("Not authorized to update this task")
}
