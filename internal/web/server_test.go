package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersan/internal/config"
	"github.com/JonMunkholm/ordersan/internal/core"
	"github.com/JonMunkholm/ordersan/internal/metrics"
)

const (
	ordersCSV = "order_id,user_id,eval_set,order_number,order_dow,order_hour_of_day,days_since_prior_order\n" +
		"1,7,prior,1,2,08,\n" +
		"2,7,prior,2,3,10,6.0\n"
	itemsCSV = "order_id,product_id,add_to_cart_order,reordered\n" +
		"1,10,1,0\n" +
		"2,10,1,1\n" +
		"3,11,1,0\n"
	productsCSV = "product_id,product_name,aisle_id,department_id\n" +
		"10,Soda,77,7\n" +
		"11,<b>Bold</b> Chips,107,19\n"
)

func testServer(t *testing.T, maxUpload int64) *Server {
	t.Helper()
	cfg := config.ServerConfig{MaxUploadSize: maxUpload, RecentReports: 4}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, 5, metrics.NewRegistry(), logger)
}

func upload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func allFiles() map[string]string {
	return map[string]string{
		core.TableOrders:   ordersCSV,
		core.TableItems:    itemsCSV,
		core.TableProducts: productsCSV,
	}
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func postValidate(t *testing.T, s *Server, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := upload(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", contentType)
	return serve(s, req)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealthz(t *testing.T) {
	s := testServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestValidate_ReturnsReport(t *testing.T) {
	s := testServer(t, 1<<20)

	rec := postValidate(t, s, allFiles())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.NotEqual(t, uuid.Nil, rep.RunID)
	assert.Equal(t, 1, rep.Count(core.CheckMissingOrders))
	assert.Zero(t, rep.Count(core.CheckMissingProducts))
	assert.Len(t, rep.Checks, 9)
	assert.Equal(t, "/api/report/"+rep.RunID.String(), rec.Header().Get("Location"))

	// the run is retrievable in both formats
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/report/"+rep.RunID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), core.CheckMissingOrders)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/report/"+rep.RunID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Null values in orders")
	assert.Contains(t, rec.Body.String(), core.CheckDuplicateProducts)

	metricsRec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `sanitize_runs_total{outcome="warnings"} 1`)
}

func TestValidate_DuplicateOrderID(t *testing.T) {
	s := testServer(t, 1<<20)
	files := allFiles()
	files[core.TableOrders] = "order_id,user_id,eval_set,order_number,order_dow,order_hour_of_day,days_since_prior_order\n" +
		"1,7,prior,1,2,08,\n" +
		"1,7,prior,2,3,10,6.0\n"

	rec := postValidate(t, s, files)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INV001", resp.Code)
	assert.Contains(t, resp.Detail, "order_id in orders is not unique")
	require.NotEmpty(t, resp.RunID)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/report/"+resp.RunID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.True(t, rep.Fatal())
}

func TestValidate_LoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		files  func() map[string]string
		status int
		code   string
	}{
		{
			name: "missing part",
			files: func() map[string]string {
				f := allFiles()
				delete(f, core.TableProducts)
				return f
			},
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name: "missing column",
			files: func() map[string]string {
				f := allFiles()
				f[core.TableItems] = "order_id,product_id\n1,10\n"
				return f
			},
			status: http.StatusBadRequest,
			code:   "VAL004",
		},
		{
			name: "bad cell",
			files: func() map[string]string {
				f := allFiles()
				f[core.TableItems] = "order_id,product_id,add_to_cart_order,reordered\n1,ten,1,0\n"
				return f
			},
			status: http.StatusBadRequest,
			code:   "VAL002",
		},
		{
			name: "empty file",
			files: func() map[string]string {
				f := allFiles()
				f[core.TableOrders] = ""
				return f
			},
			status: http.StatusBadRequest,
			code:   "FILE005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, 1<<20)

			rec := postValidate(t, s, tt.files())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Zero(t, s.reports.len(), "no report is kept for load failures")
		})
	}
}

func TestValidate_TooLarge(t *testing.T) {
	s := testServer(t, 16)

	rec := postValidate(t, s, allFiles())

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestValidate_NotMultipart(t *testing.T) {
	s := testServer(t, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader("order_id\n1\n"))
	req.Header.Set("Content-Type", "text/csv")

	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE002", decodeError(t, rec).Code)
}

func TestReport_NotFound(t *testing.T) {
	s := testServer(t, 1<<20)

	for _, path := range []string{
		"/api/report/" + uuid.NewString(),
		"/api/report/not-a-uuid",
	} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "RPT404", decodeError(t, rec).Code, path)
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/report/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RPT404")
}

func TestReportPage_EscapesContent(t *testing.T) {
	rep := core.NewReport()
	rep.Nulls = []core.TableNulls{{Table: "<script>", Rows: 1}}
	s := testServer(t, 1<<20)
	s.reports.put(rep)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/report/"+rep.RunID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestErrors_HTMXFragment(t *testing.T) {
	s := testServer(t, 1<<20)
	req := httptest.NewRequest(http.MethodGet, "/report/"+uuid.NewString(), nil)
	req.Header.Set("HX-Request", "true")

	rec := serve(s, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "RPT404")
}

func TestReportCache_EvictsOldest(t *testing.T) {
	c := newReportCache(2)
	a, b, d := core.NewReport(), core.NewReport(), core.NewReport()

	c.put(a)
	c.put(b)
	c.put(a) // refresh does not grow the cache
	assert.Equal(t, 2, c.len())

	c.put(d)
	_, ok := c.get(a.RunID)
	assert.False(t, ok)
	_, ok = c.get(b.RunID)
	assert.True(t, ok)
	_, ok = c.get(d.RunID)
	assert.True(t, ok)
}

func TestValidate_BusyWhenAllSlotsTaken(t *testing.T) {
	s := testServer(t, 1<<20)
	s.limiter = newRunLimiter(1, 10*time.Millisecond)
	require.NoError(t, s.limiter.acquire(context.Background()))
	defer s.limiter.release()

	rec := postValidate(t, s, allFiles())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "SRV503", decodeError(t, rec).Code)
}
