package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edgekit/internal/modules/imports"
	"github.com/edgekit/edgekit/internal/resultcache"
)

const webullCSV = `Symbol,Side,Status,Filled,Avg Price,Filled Time,Ref #
AAPL,Buy,Filled,10,10.00,03/14/2024 09:31:00 EST,1
AAPL,Sell,Filled,10,15.00,03/14/2024 10:30:00 EST,2
`

func testRouter(t *testing.T) (*chi.Mux, *resultcache.Cache) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	cache := resultcache.New(time.Hour, log)
	h := NewHandler(imports.NewDispatcher(log), cache, 10<<20, log)

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r, cache
}

func multipartUpload(t *testing.T, broker, csv string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("broker", broker))
	fw, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func postImport(t *testing.T, router http.Handler, broker, csv string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, broker, csv)
	req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateImport_Success(t *testing.T) {
	router, _ := testRouter(t)

	rec := postImport(t, router, "webull", webullCSV)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data   imports.ImportResult `json:"data"`
		Cached bool                 `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Len(t, resp.Data.Trades, 2)
	assert.True(t, resp.Data.Trades[1].RealizedPnL.Equal(decimal.NewFromInt(50)))
}

func TestHandleCreateImport_SecondUploadServedFromCache(t *testing.T) {
	router, _ := testRouter(t)

	first := postImport(t, router, "webull", webullCSV)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postImport(t, router, "webull", webullCSV)
	require.Equal(t, http.StatusOK, second.Code)

	var resp struct {
		Data   imports.ImportResult `json:"data"`
		Cached bool                 `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestHandleCreateImport_ErrorStatuses(t *testing.T) {
	router, _ := testRouter(t)

	tests := []struct {
		name   string
		broker string
		csv    string
		status int
		quote  string
	}{
		{"unsupported broker", "Unsupported", webullCSV, http.StatusBadRequest, `"Unsupported"`},
		{"missing columns", "webull", "Symbol,Side\nAAPL,Buy\n", http.StatusBadRequest, "Avg Price"},
		{"empty after filter", "webull",
			"Symbol,Side,Status,Filled,Avg Price,Filled Time,Ref #\nAAPL,Buy,Cancelled,10,10.00,03/14/2024 09:31:00 EST,1\n",
			http.StatusUnprocessableEntity, "none survived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postImport(t, router, tt.broker, tt.csv)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.quote)
		})
	}
}

func TestHandleGetImport_NotFound(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/imports/unknown-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleExportCSV(t *testing.T) {
	router, _ := testRouter(t)

	created := postImport(t, router, "webull", webullCSV)
	require.Equal(t, http.StatusCreated, created.Code)

	var resp struct {
		Data imports.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/imports/"+resp.Data.ID+"/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3) // header + two trades
	assert.True(t, strings.HasPrefix(lines[0], "symbol,side,quantity"))
}

func TestHandleGetSummary(t *testing.T) {
	router, _ := testRouter(t)

	created := postImport(t, router, "webull", webullCSV)
	require.Equal(t, http.StatusCreated, created.Code)

	var createResp struct {
		Data imports.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createResp))

	req := httptest.NewRequest(http.MethodGet, "/api/imports/"+createResp.Data.ID+"/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summaryResp struct {
		Data struct {
			Overview struct {
				TotalTrades int     `json:"total_trades"`
				WinRate     float64 `json:"win_rate"`
			} `json:"overview"`
			BySymbol []struct {
				Symbol string `json:"symbol"`
				Trades int    `json:"trades"`
			} `json:"by_symbol"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaryResp))
	assert.Equal(t, 2, summaryResp.Data.Overview.TotalTrades)
	require.Len(t, summaryResp.Data.BySymbol, 1)
	assert.Equal(t, "AAPL", summaryResp.Data.BySymbol[0].Symbol)
}
