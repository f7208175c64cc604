package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service/serviceutils"
	"github.com/ZhiruiFeng/zflow-gateway/internal/taskfilter"
	"github.com/ZhiruiFeng/zflow-gateway/pkg/excelreport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	tasks    service.TaskService
	timeline service.TimelineService
}

func NewExportHandler(tasks service.TaskService, tl service.TimelineService) *ExportHandler {
	return &ExportHandler{tasks: tasks, timeline: tl}
}

// taskRow flattens a task for the spreadsheet.
type taskRow struct {
	Title    string
	Status   string
	Priority string
	Category string
	DueDate  string
	Progress int
}

func toTaskRows(tasks []domain.Task) []taskRow {
	rows := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		r := taskRow{
			Title:    t.Title,
			Status:   string(t.Status),
			Priority: string(t.Priority),
			Category: t.CategoryID,
			Progress: t.Progress,
		}
		if t.DueDate != nil {
			r.DueDate = t.DueDate.Format("2006-01-02")
		}
		rows = append(rows, r)
	}
	return rows
}

var taskColumns = []excelreport.ColumnConfig{
	{FieldName: "Title", Header: "Task", Width: 40},
	{FieldName: "Status", Header: "Status", Width: 14},
	{FieldName: "Priority", Header: "Priority", Width: 12},
	{FieldName: "Category", Header: "Category", Width: 18},
	{FieldName: "DueDate", Header: "Due", Width: 14},
	{FieldName: "Progress", Header: "Progress", Width: 10},
}

// TasksHandler handles GET /export/tasks.xlsx, one section per bucket.
func (h *ExportHandler) TasksHandler(c echo.Context) error {
	ctx := c.Request().Context()

	criteria := taskfilter.Criteria{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Priority: c.QueryParam("priority"),
		Sort:     c.QueryParam("sort"),
	}

	res, err := h.tasks.Buckets(ctx, criteria)
	if err != nil {
		logger.ErrorLog(ctx, "export tasks: %v", err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to load tasks", err)
	}

	headerStyle := &excelreport.StyleTemplate{
		Font: &excelreport.FontTemplate{Bold: true},
		Fill: &excelreport.FillTemplate{Color: "#BBDEFB"},
	}

	report := excelreport.NewBuilder().
		AddSheet("Tasks").
		AddSection(&excelreport.SectionConfig{
			Title: fmt.Sprintf("TASK EXPORT %s", time.Now().Format("2006-01-02")),
			Type:  excelreport.SectionTypeTitleOnly,
			TitleStyle: &excelreport.StyleTemplate{
				Font: &excelreport.FontTemplate{Bold: true, Color: "#FFFFFF"},
				Fill: &excelreport.FillTemplate{Color: "#1565C0"},
			},
		}).
		AddSection(&excelreport.SectionConfig{
			Title:       "Current",
			ShowHeader:  true,
			Data:        toTaskRows(res.Current),
			Columns:     taskColumns,
			HeaderStyle: headerStyle,
		}).
		AddSection(&excelreport.SectionConfig{
			Title:       "Future",
			ShowHeader:  true,
			Data:        toTaskRows(res.Future),
			Columns:     taskColumns,
			HeaderStyle: headerStyle,
		}).
		AddSection(&excelreport.SectionConfig{
			Title:       "Archive",
			ShowHeader:  true,
			Data:        toTaskRows(res.Archive),
			Columns:     taskColumns,
			HeaderStyle: headerStyle,
		}).
		Build()

	return writeWorkbook(c, report, "tasks.xlsx")
}

// timelineRow is the exportable shape of a timeline item. Metadata stays a
// map here and is promoted to real columns at render time.
type timelineRow struct {
	Time     string
	Type     string
	Title    string
	Duration string
	Category string
	Metadata map[string]interface{}
}

// TimelineHandler handles GET /export/timeline.xlsx?date=YYYY-MM-DD.
func (h *ExportHandler) TimelineHandler(c echo.Context) error {
	ctx := c.Request().Context()

	date := time.Now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid date parameter, want YYYY-MM-DD", err)
		}
		date = parsed
	}

	res, err := h.timeline.Day(ctx, date, time.UTC)
	if err != nil {
		logger.ErrorLog(ctx, "export timeline: %v", err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to aggregate timeline", err)
	}

	rows := make([]timelineRow, 0, len(res.Items))
	for _, it := range res.Items {
		r := timelineRow{
			Time:     it.StartTime.Format("15:04"),
			Type:     string(it.Type),
			Title:    it.Title,
			Category: it.Category,
			Metadata: it.Metadata,
		}
		if it.Duration != nil {
			r.Duration = strconv.Itoa(*it.Duration) + "m"
		}
		rows = append(rows, r)
	}

	columns := []excelreport.ColumnConfig{
		{FieldName: "Time", Header: "Time", Width: 10},
		{FieldName: "Type", Header: "Type", Width: 12},
		{FieldName: "Title", Header: "Title", Width: 40},
		{FieldName: "Duration", Header: "Duration", Width: 10},
		{FieldName: "Category", Header: "Category", Width: 18},
		{FieldName: "Metadata", Header: "Metadata", Width: 16},
	}

	// Free-form item metadata becomes one column per key.
	data, promoted, err := excelreport.PromoteMapField(rows, "Metadata")
	if err != nil {
		logger.ErrorLog(ctx, "export timeline: promote metadata: %v", err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to build export", err)
	}
	columns = excelreport.ExpandColumns(columns, "Metadata", promoted)

	report := excelreport.NewBuilder().
		AddSheet("Timeline").
		AddSection(&excelreport.SectionConfig{
			Title: fmt.Sprintf("TIMELINE %s (total %dm)", date.Format("2006-01-02"), res.TotalDuration),
			Type:  excelreport.SectionTypeTitleOnly,
			TitleStyle: &excelreport.StyleTemplate{
				Font: &excelreport.FontTemplate{Bold: true},
			},
		}).
		AddSection(&excelreport.SectionConfig{
			Title:      "Items",
			ShowHeader: true,
			Data:       data,
			Columns:    columns,
		}).
		Build()

	return writeWorkbook(c, report, fmt.Sprintf("timeline_%s.xlsx", date.Format("2006-01-02")))
}

func writeWorkbook(c echo.Context, report *excelreport.Report, filename string) error {
	data, err := report.ToBytes()
	if err != nil {
		logger.ErrorLog(c.Request().Context(), "render workbook %s: %v", filename, err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
	}

	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))

	_, err = c.Response().Write(data)
	return err
}
