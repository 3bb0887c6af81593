package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvintake/internal/config"
	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/store"
)

type fakeImporter struct {
	calls  int
	schema string
	file   string
	err    error
}

func (f *fakeImporter) Import(_ context.Context, schemaKey, fileName string, report core.Report) (store.Result, error) {
	f.calls++
	f.schema = schemaKey
	f.file = fileName
	if f.err != nil {
		return store.Result{}, f.err
	}
	return store.Result{UploadID: uuid.Nil, Table: "financial_transactions", Rows: int64(len(report.Data))}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Intake: config.IntakeConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWait: 10 * time.Millisecond},
	}
}

func newTestServer(importer Importer) *Server {
	return NewServer(testConfig(), importer)
}

func multipartRequest(t *testing.T, target, field, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

const validTransactions = "description,bank,amount,type,transaction_date\n" +
	"Coffee,Chase,4.50,Debit,2024-01-15\n"

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","uploads":{"active":0,"max_concurrent":2}}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListSchemas(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodGet, "/api/schemas", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []schemaView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	keys := make([]string, len(views))
	for i, v := range views {
		keys[i] = v.Key
	}
	assert.Equal(t, []string{"clients", "customers", "transactions"}, keys)
}

func TestGetSchema(t *testing.T) {
	s := newTestServer(nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/schemas/transactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view schemaView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "strict", view.Match)
	assert.Equal(t, "fail_on_row_errors", view.Policy)
	require.Len(t, view.Fields, 5)
	assert.True(t, view.Fields[0].Required)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/schemas/invoices", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeUnknownSchema)
}

func TestValidate(t *testing.T) {
	s := newTestServer(nil)
	req := multipartRequest(t, "/api/schemas/transactions/validate", "file", "statement.csv", validTransactions)

	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Success)
	assert.Nil(t, report.Error)
	require.Len(t, report.Data, 1)
	assert.Equal(t, "Debit", report.Data[0]["type"])
}

func TestValidate_FatalErrorInReport(t *testing.T) {
	s := newTestServer(nil)
	req := multipartRequest(t, "/api/schemas/transactions/validate", "file", "statement.csv", "description,bank\nx,y\n")

	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Success)
	require.NotNil(t, report.Error)
	assert.Contains(t, *report.Error, "Missing required columns: amount, type, transaction_date")
}

func TestValidate_BadRequests(t *testing.T) {
	s := newTestServer(nil)

	rec := serve(s, multipartRequest(t, "/api/schemas/transactions/validate", "upload", "x.csv", validTransactions))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/schemas/transactions/validate", bytes.NewReader([]byte("plain")))
	req.Header.Set("Content-Type", "text/plain")
	rec = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidate_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Intake.MaxFileSize = 64
	s := NewServer(cfg, nil)

	big := validTransactions + string(bytes.Repeat([]byte("Coffee,Chase,4.50,Debit,2024-01-15\n"), 20))
	rec := serve(s, multipartRequest(t, "/api/schemas/transactions/validate", "file", "statement.csv", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeTooLarge)
}

func TestImport(t *testing.T) {
	imp := &fakeImporter{}
	s := newTestServer(imp)

	rec := serve(s, multipartRequest(t, "/api/schemas/transactions/import", "file", "statement.csv", validTransactions))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool         `json:"success"`
		Import  store.Result `json:"import"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(1), body.Import.Rows)
	assert.Equal(t, "transactions", imp.schema)
	assert.Equal(t, "statement.csv", imp.file)
}

func TestImport_SkipsFailedReport(t *testing.T) {
	imp := &fakeImporter{}
	s := newTestServer(imp)
	content := "description,bank,amount,type,transaction_date\nCoffee,Chase,-1,Debit,2024-01-15\n"

	rec := serve(s, multipartRequest(t, "/api/schemas/transactions/import", "file", "statement.csv", content))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, imp.calls)
}

func TestImport_Failure(t *testing.T) {
	s := newTestServer(&fakeImporter{err: errors.New("connection refused")})

	rec := serve(s, multipartRequest(t, "/api/schemas/transactions/import", "file", "statement.csv", validTransactions))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestImport_NotConfigured(t *testing.T) {
	rec := serve(newTestServer(nil), multipartRequest(t, "/api/schemas/transactions/import", "file", "statement.csv", validTransactions))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.APIKeys = []string{"secret"}
	s := NewServer(cfg, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidate_Busy(t *testing.T) {
	s := newTestServer(nil)
	for i := 0; i < 2; i++ {
		require.NoError(t, s.limiter.acquire(context.Background()))
	}
	defer func() {
		s.limiter.release()
		s.limiter.release()
	}()

	rec := serve(s, multipartRequest(t, "/api/schemas/transactions/validate", "file", "statement.csv", validTransactions))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), CodeBusy)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	s := NewServer(cfg, nil)
	assert.Equal(t, "127.0.0.1:0", s.server.Addr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.ErrorIs(t, s.Start(), http.ErrServerClosed)
}

func TestServer_ShutdownStopsRunningServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	s := NewServer(cfg, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
