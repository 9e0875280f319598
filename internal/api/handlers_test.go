package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notafacil/nfce-collector/internal/domain"
	"github.com/notafacil/nfce-collector/internal/feedback"
	"github.com/notafacil/nfce-collector/internal/ingestion"
	"github.com/notafacil/nfce-collector/internal/repository"
)

type stubRenderer struct {
	html string
	err  error
}

func (s stubRenderer) Render(ctx context.Context, url string) (string, error) {
	return s.html, s.err
}

const validURL = ingestion.DetailPagePrefix + "?p=12345678901234567890123456789012345678901234|2|1|1|ABC"

type testServer struct {
	router   http.Handler
	receipts *repository.ReceiptRepo
	queue    *feedback.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	page, err := os.ReadFile("../nfce/testdata/nfce_page.html")
	require.NoError(t, err)

	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewReceiptRepo(db)
	svc := ingestion.NewService(stubRenderer{html: string(page)}, repo)
	queue := feedback.NewQueue(8)

	return &testServer{
		router:   NewRouter(svc, queue),
		receipts: repo,
		queue:    queue,
	}
}

func (ts *testServer) postNota(t *testing.T, content string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"content": {content}}
	req := httptest.NewRequest(http.MethodPost, "/nota", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) popFeedback(t *testing.T) feedback.Entry {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/feedback", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry feedback.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	return entry
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateNotaRejectsForeignURL(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postNota(t, "https://example.com/not-a-nota")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_url", body["code"])

	// Persistence untouched.
	count, err := ts.receipts.Count()
	require.NoError(t, err)
	require.Zero(t, count)

	entry := ts.popFeedback(t)
	require.Equal(t, 400, entry.Code)
	require.Equal(t, "Conteudo nao bate com link esperado.", entry.Message)
}

func TestCreateNotaStoresReceipt(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postNota(t, validURL)
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt domain.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	require.Equal(t, "12345678901234567890123456789012345678901234", receipt.AccessKey)
	require.Len(t, receipt.Items, 2)
	for _, it := range receipt.Items {
		require.Equal(t, receipt.AccessKey, it.AccessKey)
	}
	require.Equal(t, "12.24", receipt.TotalAmount)
	require.Equal(t, "0.50", receipt.Discount)

	entry := ts.popFeedback(t)
	require.Equal(t, 200, entry.Code)
	require.Equal(t, "Nova nota inserida com sucesso.", entry.Message)
}

func TestCreateNotaDuplicateConflicts(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusOK, ts.postNota(t, validURL).Code)

	rec := ts.postNota(t, validURL)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Nota ja existe.", body["erro"])

	// Nothing was inserted twice.
	count, err := ts.receipts.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	items, err := ts.receipts.CountItems()
	require.NoError(t, err)
	require.Equal(t, 2, items)

	entry := ts.popFeedback(t)
	require.Equal(t, 409, entry.Code)
	require.Equal(t, "Nota ja existe.", entry.Message)
}

func TestPopFeedbackEmpty(t *testing.T) {
	ts := newTestServer(t)
	entry := ts.popFeedback(t)
	require.Equal(t, feedback.Empty, entry)
}
