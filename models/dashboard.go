package models

// Statistics holds the headline counters of a dashboard.
type Statistics struct {
	TotalTasks      int64 `json:"totalTasks"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
	OverdueTasks    int64 `json:"overdueTasks"`
}

// Charts holds zero-filled category counts. TaskDistribution is keyed by
// TaskStatus.Key plus "All"; TaskPriorityLevels by TaskPriority.
type Charts struct {
	TaskDistribution   map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
}

type Dashboard struct {
	Statistics  Statistics    `json:"statistics"`
	Charts      Charts        `json:"charts"`
	RecentTasks []TaskSummary `json:"recentTasks"`
}

// StatusCounts is the per-status breakdown of a filtered task set.
type StatusCounts struct {
	All        int64 `json:"allTasks"`
	Pending    int64 `json:"pendingTasks"`
	InProgress int64 `json:"inProgressTasks"`
	Completed  int64 `json:"completedTasks"`
}

// TaskList is the response of the task listing. The counts are not narrowed
// by the status filter.
type TaskList struct {
	Tasks []TaskDetail `json:"tasks"`
	StatusCounts
}
