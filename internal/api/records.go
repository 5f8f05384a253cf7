package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/ai"
	"github.com/david/maintenance-analyzer/internal/analysis"
	"github.com/david/maintenance-analyzer/internal/sheet"
	"github.com/david/maintenance-analyzer/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleUpload(c echo.Context) error {
	req := c.Request()
	if s.cfg.Upload.MaxBytes > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.Upload.MaxBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "請選擇要上傳的檔案")
	}
	f, err := fh.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	rows, err := sheet.Read(f, s.cfg.Upload.SheetIndex)
	if err != nil {
		s.logger.Warn("upload rejected", zap.String("filename", fh.Filename), zap.Error(err))
		return errorJSON(c, mapHTTPStatus(err), fmt.Sprintf("無法讀取檔案: %v", err))
	}

	res := s.Store.Ingest(rows)
	return c.JSON(http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("%d 條有效紀錄已上傳並加入列表！%d 條無效紀錄。", res.Valid, res.Invalid),
		"result":  res,
	})
}

func (s *Server) handleListRecords(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	limit, offset := pagination(c)
	return c.JSON(http.StatusOK, s.Store.List(store.ListParams{Filter: f, Limit: limit, Offset: offset}))
}

func (s *Server) handleGetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid record id")
	}
	rec, err := s.Store.Get(id)
	if err != nil {
		return errorJSON(c, mapHTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid record id")
	}
	if err := s.Store.Delete(id); err != nil {
		return errorJSON(c, mapHTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "紀錄已成功從列表中移除。"})
}

// handleDeleteRecords removes every record matching the filter. An explicit
// confirm=true is required because an empty filter matches everything.
func (s *Server) handleDeleteRecords(c echo.Context) error {
	if confirm, _ := strconv.ParseBool(c.QueryParam("confirm")); !confirm {
		return errorJSON(c, http.StatusBadRequest, "bulk delete requires confirm=true")
	}
	f, err := bindFilter(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	n := s.Store.DeleteWhere(f)
	if n == 0 {
		return c.JSON(http.StatusOK, map[string]any{"message": "目前沒有可刪除的篩選後紀錄。", "deleted": 0})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%d 條紀錄已成功從列表中移除。", n),
		"deleted": n,
	})
}

func (s *Server) handleRecategorize(c echo.Context) error {
	n, err := s.Store.Recategorize()
	if err != nil {
		return errorJSON(c, mapHTTPStatus(err), "沒有記錄可供重新整理和分類。")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("%d 條記錄已成功重新整理與分類！", n),
		"recategorized": n,
	})
}

func (s *Server) handleExport(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	records := s.Store.Filtered(f)
	if len(records) == 0 {
		return errorJSON(c, http.StatusNotFound, "沒有資料可供匯出。")
	}

	summary := analysis.BuildSummary(records, s.Store.Records(), f.Year, f.Month)
	data, err := sheet.WriteExport(sheet.ExportRows(records), sheet.SummaryStats(summary))
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	name := sheet.ExportFilename(s.now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleDashboard(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s.Store.Dashboard(f))
}

func (s *Server) handleSuggestions(c echo.Context) error {
	var f store.Filter
	if err := c.Bind(&f); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	if err := f.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	dash := s.Store.Dashboard(f)

	ctx := c.Request().Context()
	if s.cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Server.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := ai.SuggestPreventiveMaintenance(ctx, s.AI, dash.Summary, promptFilter(dash.Filter))
	status := "ok"
	if err != nil {
		status = "error"
	}
	if dash.Summary.TotalRecords > 0 {
		s.Metrics.ObserveSummary(s.cfg.AI.Provider, status, time.Since(start))
	}
	if err != nil {
		s.logger.Error("maintenance suggestions failed", zap.String("provider", s.cfg.AI.Provider), zap.Error(err))
		return errorJSON(c, ai.MapHTTPStatus(err), fmt.Sprintf("智能分析失敗: %v", err))
	}
	return c.JSON(http.StatusOK, map[string]string{"suggestions": text})
}

func promptFilter(f store.Filter) ai.PromptFilter {
	return ai.PromptFilter{
		Year:     f.Year,
		Month:    f.Month,
		Venue:    f.Venue,
		Area:     f.Area,
		WorkType: f.WorkType,
	}
}
