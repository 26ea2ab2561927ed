package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
	"github.com/houzhh15/weeknote/cmd/server/internal/services"
)

// reportSelectionRequest 汇总/导出请求体
type reportSelectionRequest struct {
	ReportIDs []int64 `json:"reportIds"`
	Mode      string  `json:"mode"`
	DateRange string  `json:"dateRange"`
}

// aggregationErrorResponse 汇总失败时的统一响应；存储故障不暴露细节
func aggregationErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptySelection):
		badRequestResponse(c, "请至少选择一份周报")
	case errors.Is(err, services.ErrNoSubmittedReports):
		errorResponse(c, http.StatusNotFound, "所选周报中没有已提交的周报")
	default:
		internalErrorResponse(c, err)
	}
}

// formatIDs 审计用的 id 列表
func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

// HandleAggregateReports POST /api/admin/weekly-reports/aggregate
// 请求体 {reportIds, mode}；mode 为 structured（默认）或 flattened
func HandleAggregateReports(svc *services.AggregationService, auditLogger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reportSelectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		mode, err := weekly.ParseMode(req.Mode)
		if err != nil {
			badRequestResponse(c, err.Error())
			return
		}

		res, err := svc.AggregateSelected(c.Request.Context(), req.ReportIDs, mode)
		if err != nil {
			aggregationErrorResponse(c, err)
			return
		}
		_ = auditLogger.LogActionSimple(currentUser(c), audit.ActionAggregateReport, formatIDs(req.ReportIDs),
			fmt.Sprintf("mode=%s reports=%d", mode, res.ReportCount))

		data := gin.H{
			"mode":        res.Mode,
			"reportCount": res.ReportCount,
			"unsubmitted": res.Unsubmitted,
		}
		switch d := res.Data.(type) {
		case weekly.StructuredResult:
			data["keyFocus"], data["regularWork"] = d.KeyFocus, d.RegularWork
		case weekly.FlattenedResult:
			data["keyFocus"], data["regularWork"] = d.KeyFocus, d.RegularWork
		}
		successResponse(c, data)
	}
}

// HandleExportReport POST /api/admin/weekly-reports/export
// 请求体 {reportIds, dateRange}；返回 Markdown 附件
func HandleExportReport(svc *services.AggregationService, auditLogger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reportSelectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}

		out, err := svc.BuildReport(c.Request.Context(), req.ReportIDs, strings.TrimSpace(req.DateRange))
		if err != nil {
			aggregationErrorResponse(c, err)
			return
		}
		_ = auditLogger.LogActionSimple(currentUser(c), audit.ActionExportReport, formatIDs(req.ReportIDs),
			fmt.Sprintf("file=%s reports=%d", out.FileName, out.ReportCount))

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.FileName))
		c.Header("X-Report-Count", fmt.Sprint(out.ReportCount))
		c.Data(http.StatusOK, out.ContentType, out.Body)
	}
}
