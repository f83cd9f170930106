package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"task-manager/logging"
	"task-manager/services"
	"task-manager/utils"
)

type ReportHandler struct {
	service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.service.TasksReport)
}

func (h *ReportHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.service.UsersReport)
}

// export renders the whole workbook before writing so a failure can still be
// reported as JSON.
func (h *ReportHandler) export(w http.ResponseWriter, r *http.Request, build func(context.Context) (*services.Report, error)) {
	report, err := build(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteXLSX(&buf, report); err != nil {
		utils.WriteError(w, r, &services.AppError{Kind: services.ErrInternal, Msg: "Error exporting " + report.Name, Err: err})
		return
	}

	w.Header().Set("Content-Type", services.XLSXContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Logger.Warnf("Event ID: REPORT_WRITE_FAILED, Description: Failed to send %s: %v", report.Filename(), err)
		return
	}
	logging.Logger.Infof("Event ID: REPORT_EXPORTED, Description: Exported %s with %d rows", report.Filename(), len(report.Rows))
}
