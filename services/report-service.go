package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"task-manager/models"
	"task-manager/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	dueDateLayout   = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Column is one report column: header text and spreadsheet width.
type Column struct {
	Header string
	Width  float64
}

// Report is a flat table ready for serialization. Every row has one value per column.
type Report struct {
	Name        string
	Sheet       string
	HeaderColor string
	Columns     []Column
	Rows        [][]any
	GeneratedAt time.Time
}

// Filename is the download name, tasks_report_<unix>.xlsx for the tasks report.
func (r *Report) Filename() string {
	return fmt.Sprintf("%s_report_%d.xlsx", r.Name, r.GeneratedAt.Unix())
}

func (r *Report) Headers() []string {
	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = c.Header
	}
	return headers
}

var taskReportColumns = []Column{
	{"Task ID", 25},
	{"Title", 30},
	{"Description", 40},
	{"Status", 15},
	{"Priority", 12},
	{"Due Date", 15},
	{"Assigned To", 30},
	{"Progress", 10},
	{"Created At", 20},
}

var userReportColumns = []Column{
	{"User ID", 25},
	{"Name", 25},
	{"Email", 30},
	{"Role", 12},
	{"Total Tasks", 15},
	{"Pending Tasks", 15},
	{"In Progress", 15},
	{"Completed Tasks", 18},
	{"Joined At", 20},
}

type ReportService struct {
	tasks      repositories.TaskRepository
	users      repositories.UserRepository
	aggregator *Aggregator
	now        func() time.Time
}

func NewReportService(tasks repositories.TaskRepository, users repositories.UserRepository, aggregator *Aggregator) *ReportService {
	return &ReportService{tasks: tasks, users: users, aggregator: aggregator, now: time.Now}
}

// TasksReport lists every task with its assignee names resolved.
func (s *ReportService) TasksReport(ctx context.Context) (report *Report, err error) {
	ctx, span := tracer().Start(ctx, "reports.Tasks")
	defer func() { endSpan(span, err) }()

	tasks, err := s.tasks.Find(ctx, models.TaskFilter{}, models.FindOptions{})
	if err != nil {
		return nil, internal("Error exporting tasks", err)
	}

	var ids []primitive.ObjectID
	for i := range tasks {
		ids = append(ids, tasks[i].AssignedTo...)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal("Error exporting tasks", err)
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	rows := make([][]any, 0, len(tasks))
	for i := range tasks {
		rows = append(rows, taskRow(&tasks[i], names))
	}

	return &Report{
		Name:        "tasks",
		Sheet:       "Tasks Report",
		HeaderColor: "4472C4",
		Columns:     taskReportColumns,
		Rows:        rows,
		GeneratedAt: s.now(),
	}, nil
}

func taskRow(t *models.Task, names map[primitive.ObjectID]string) []any {
	description := t.Description
	if description == "" {
		description = "N/A"
	}
	due := "N/A"
	if t.DueDate != nil && !t.DueDate.IsZero() {
		due = t.DueDate.Format(dueDateLayout)
	}

	var assignees []string
	for _, id := range t.AssignedTo {
		if name, ok := names[id]; ok {
			assignees = append(assignees, name)
		}
	}
	assigned := strings.Join(assignees, ", ")
	if assigned == "" {
		assigned = "Unassigned"
	}

	return []any{
		t.ID.Hex(),
		t.Title,
		description,
		string(t.Status),
		string(t.Priority),
		due,
		assigned,
		fmt.Sprintf("%d%%", t.Progress),
		t.CreatedAt.Format(timestampLayout),
	}
}

// UsersReport lists every account with its assigned task counts.
func (s *ReportService) UsersReport(ctx context.Context) (report *Report, err error) {
	ctx, span := tracer().Start(ctx, "reports.Users")
	defer func() { endSpan(span, err) }()

	users, err := s.users.Find(ctx, models.UserFilter{})
	if err != nil {
		return nil, internal("Error exporting users report", err)
	}

	rows := make([][]any, 0, len(users))
	for i := range users {
		counts, err := s.aggregator.StatusCounts(ctx, models.TaskFilter{}.WithAssignee(users[i].ID))
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{
			users[i].ID.Hex(),
			users[i].Name,
			users[i].Email,
			string(users[i].Role),
			counts.All,
			counts.Pending,
			counts.InProgress,
			counts.Completed,
			users[i].CreatedAt.Format(timestampLayout),
		})
	}

	return &Report{
		Name:        "users",
		Sheet:       "Users Report",
		HeaderColor: "70AD47",
		Columns:     userReportColumns,
		Rows:        rows,
		GeneratedAt: s.now(),
	}, nil
}
