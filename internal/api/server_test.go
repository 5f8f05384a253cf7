package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/david/maintenance-analyzer/internal/ai"
	"github.com/david/maintenance-analyzer/internal/config"
	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
	"github.com/david/maintenance-analyzer/internal/store"
	"github.com/david/maintenance-analyzer/internal/vocab"
)

type stubGenerator struct {
	reply  string
	prompt string
}

func (g *stubGenerator) GenerateCompletion(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, nil
}

func newTestServer(t *testing.T) (*Server, *stubGenerator) {
	t.Helper()
	gen := &stubGenerator{reply: "一、潛在風險與根本原因推論"}
	return NewServer(config.Default(), store.New(nil), gen, nil, nil), gen
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seed(s *Server) {
	s.Store.Ingest([]ingest.RawRow{
		{ingest.FieldWorkAttribute: "水", ingest.FieldRequestDate: "2024/03/05", ingest.FieldFaultDescription: "北館A區馬桶阻塞", ingest.FieldHandlingStatus: "更換龍頭2個"},
		{ingest.FieldWorkAttribute: "電", ingest.FieldRequestDate: "2024/04/01", ingest.FieldFaultDescription: "南館中庭燈不亮", ingest.FieldHandlingStatus: "清理排水孔"},
		{ingest.FieldWorkAttribute: "", ingest.FieldRequestDate: "", ingest.FieldFaultDescription: "門鎖故障"},
	})
}

func uploadBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range [][]any{
		{ingest.FieldWorkAttribute, ingest.FieldRequestDate, ingest.FieldRequestTime, ingest.FieldFaultDescription, ingest.FieldHandlingStatus},
		{"水", 45356, 0.4375, "北館A區漏水", "更換龍頭"},
		{"", "bad", "", "南館中庭", ""},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "records.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, xlsx)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "maintenance_http_request_duration_seconds")
}

func TestUpload(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := uploadBody(t)
	rec := do(t, s, http.MethodPost, "/api/v1/records/upload", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[struct {
		Result store.IngestResult `json:"result"`
	}](t, rec)
	assert.Equal(t, 2, resp.Result.Total)
	assert.Equal(t, 1, resp.Result.Valid)
	assert.Equal(t, 1, resp.Result.Invalid)

	records := s.Store.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "2024/03/05", records[0].RequestDate)
	assert.Equal(t, "10:30 AM", records[0].RequestTime)

	rec = do(t, s, http.MethodPost, "/api/v1/records/upload", strings.NewReader(""), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_Unreadable(t *testing.T) {
	s, _ := newTestServer(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "notes.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("plain text"))
	require.NoError(t, w.Close())

	rec := do(t, s, http.MethodPost, "/api/v1/records/upload", body, w.FormDataContentType())
	assert.NotEqual(t, http.StatusCreated, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "無法讀取檔案")
	assert.Empty(t, s.Store.Records())
}

func TestRecordsEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	seed(s)

	rec := do(t, s, http.MethodGet, "/api/v1/records?venue="+url.QueryEscape(models.VenueNorth), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[store.ListResult](t, rec)
	assert.Equal(t, 1, list.Total)
	id := list.Records[0].ID.String()

	rec = do(t, s, http.MethodGet, "/api/v1/records?month=13", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/records/"+id, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/records/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/records/"+id, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/records/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkDelete(t *testing.T) {
	s, _ := newTestServer(t)
	seed(s)

	rec := do(t, s, http.MethodDelete, "/api/v1/records?year=2024", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, s.Store.Records(), 3)

	rec = do(t, s, http.MethodDelete, "/api/v1/records?confirm=true&year=2024", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, decode[map[string]any](t, rec)["deleted"])
	assert.Len(t, s.Store.Records(), 1)
}

func TestRecategorizeEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/records/recategorize", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	seed(s)
	rec = do(t, s, http.MethodPost, "/api/v1/vocab/materials", strings.NewReader(`{"name":"排水孔"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/records/recategorize", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, decode[map[string]any](t, rec)["recategorized"])

	found := false
	for _, r := range s.Store.Records() {
		for _, m := range r.MaterialsUsed {
			found = found || m.Name == "排水孔"
		}
	}
	assert.True(t, found)
}

func TestExportEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/records/export", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seed(s)
	rec = do(t, s, http.MethodGet, "/api/v1/records/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("維修紀錄")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDashboardAndSuggestions(t *testing.T) {
	s, gen := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/dashboard/suggestions", strings.NewReader(`{}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["suggestions"], "無資料")
	assert.Empty(t, gen.prompt)

	seed(s)
	rec = do(t, s, http.MethodGet, "/api/v1/dashboard?year=2024", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[store.Dashboard](t, rec)
	assert.Equal(t, 2, dash.Summary.TotalRecords)
	assert.Equal(t, []string{"2024"}, dash.Options.Years)

	rec = do(t, s, http.MethodPost, "/api/v1/dashboard/suggestions", strings.NewReader(`{"venue":"北館"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gen.reply, decode[map[string]string](t, rec)["suggestions"])
	assert.Contains(t, gen.prompt, "- 場域：北館")
}

func TestSuggestions_NotConfigured(t *testing.T) {
	s := NewServer(config.Default(), store.New(nil), nil, nil, nil)
	seed(s)

	rec := do(t, s, http.MethodPost, "/api/v1/dashboard/suggestions", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVocabEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/vocab/faults", strings.NewReader(`{"text":"漏水"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[vocab.Entry](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/vocab/faults", strings.NewReader(`{"text":"漏水"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "此故障原因已存在。", decode[map[string]string](t, rec)["error"])

	rec = do(t, s, http.MethodPost, "/api/v1/vocab/faults", strings.NewReader(`{"text":"  "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/vocab/materials/import",
		strings.NewReader(`[{"name":"燈管"},{"name":"燈管"},{"text":"螺絲"}]`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, vocab.ImportResult{Added: 2, Skipped: 1}, decode[vocab.ImportResult](t, rec))

	rec = do(t, s, http.MethodPost, "/api/v1/vocab/materials/import", strings.NewReader(`{"name":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/vocab/materials/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]vocab.ExportItem](t, rec), 2)

	rec = do(t, s, http.MethodGet, "/api/v1/vocab/faults", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]vocab.Entry](t, rec), 1)

	rec = do(t, s, http.MethodDelete, "/api/v1/vocab/faults/"+entry.ID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/v1/vocab/faults/"+entry.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/vocab/tools", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUncategorizedEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	seed(s)

	rec := do(t, s, http.MethodGet, "/api/v1/uncategorized", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	buckets := decode[ingest.Buckets](t, rec)
	assert.Contains(t, buckets.FaultDescriptions, "南館中庭燈不亮")
	assert.NotContains(t, buckets.FaultDescriptions, "門鎖故障")
	assert.Contains(t, buckets.MaterialStrings, "龍頭2個")

	rec = do(t, s, http.MethodGet, "/api/v1/uncategorized/prefill?kind=material&item="+url.QueryEscape("龍頭2個"), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "龍頭", decode[map[string]string](t, rec)["text"])

	rec = do(t, s, http.MethodGet, "/api/v1/uncategorized/prefill?kind=fault", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromptFilter_DropsSearch(t *testing.T) {
	got := promptFilter(store.Filter{Search: "漏水", Venue: models.VenueSouth, Year: "2024", Month: "3", Area: "中庭", WorkType: "水"})
	assert.Equal(t, ai.PromptFilter{Year: "2024", Month: "3", Venue: models.VenueSouth, Area: "中庭", WorkType: "水"}, got)
}
