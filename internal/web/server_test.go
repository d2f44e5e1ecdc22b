package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/internal/services/quoter"
	"github.com/vadiminshakov/bsprice/internal/storage/quotes"
)

func newTestServer(t *testing.T, precision int) *Server {
	t.Helper()

	store, err := quotes.NewWALStore(filepath.Join(t.TempDir(), "quotes"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewServer(":0", quoter.New(store, nil), precision, nil)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		body      string
		call, put float64
	}{
		{
			name:      "full precision",
			precision: -1,
			body:      `{"S":100,"K":100,"T":1,"r":0.05,"sigma":0.2}`,
			call:      10.450583572185565,
			put:       5.573526022256971,
		},
		{
			name:      "rounded",
			precision: 2,
			body:      `{"S":100,"K":100,"T":1,"r":0.05,"sigma":0.2}`,
			call:      10.45,
			put:       5.57,
		},
		{
			name:      "zero rate and time allowed",
			precision: -1,
			body:      `{"S":110,"K":100,"T":0,"r":0,"sigma":0}`,
			call:      10,
			put:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.precision).Handler()

			rec := post(t, h, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp CalculateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.ID)
			assert.InDelta(t, tt.call, resp.CallPrice, 1e-9)
			assert.InDelta(t, tt.put, resp.PutPrice, 1e-9)
		})
	}
}

func TestCalculate_BadRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errPart string
	}{
		{name: "missing field", body: `{"S":100,"K":100,"T":1,"r":0.05}`, errPart: "Sigma"},
		{name: "malformed json", body: `{"S":`, errPart: ""},
		{name: "string value", body: `{"S":"abc","K":100,"T":1,"r":0.05,"sigma":0.2}`, errPart: ""},
		{name: "negative spot", body: `{"S":-1,"K":100,"T":1,"r":0.05,"sigma":0.2}`, errPart: "spot"},
		{name: "zero volatility before expiry", body: `{"S":100,"K":100,"T":1,"r":0.05,"sigma":0}`, errPart: "volatility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, -1).Handler()

			rec := post(t, h, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.Contains(t, resp["error"], tt.errPart)
		})
	}
}

func TestQuotes(t *testing.T) {
	h := newTestServer(t, -1).Handler()

	for _, body := range []string{
		`{"S":100,"K":100,"T":1,"r":0.05,"sigma":0.2}`,
		`{"S":42,"K":40,"T":0.5,"r":0.1,"sigma":0.2}`,
		`{"S":-1,"K":40,"T":0.5,"r":0.1,"sigma":0.2}`,
	} {
		post(t, h, body)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Quotes []domain.QuoteRecord `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 2)
	assert.Equal(t, domain.SourceHTTP, resp.Quotes[0].Quote.Source)
	assert.Equal(t, 42.0, resp.Quotes[1].Quote.Inputs.Spot)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotes?after=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotes?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 1)
	assert.Equal(t, 100.0, resp.Quotes[0].Quote.Inputs.Spot)

	for _, query := range []string{"after=-3", "limit=0", "limit=-5", "limit=ten"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotes?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

type recordingQuoter struct {
	limits []int
}

func (r *recordingQuoter) Quote(context.Context, domain.OptionInputs, string) (domain.Quote, error) {
	return domain.Quote{}, nil
}

func (r *recordingQuoter) History(_ uint64, limit int) ([]domain.QuoteRecord, error) {
	r.limits = append(r.limits, limit)
	return nil, nil
}

func TestQuotes_LimitApplied(t *testing.T) {
	tests := []struct {
		query    string
		expected int
	}{
		{query: "", expected: defaultQuotesLimit},
		{query: "?limit=25", expected: 25},
		{query: "?limit=1000", expected: maxQuotesLimit},
		{query: "?limit=10000000", expected: maxQuotesLimit},
		{query: "?after=7&limit=3", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q := &recordingQuoter{}
			h := NewServer(":0", q, -1, nil).Handler()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotes"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"quotes":[]}`, rec.Body.String())
			assert.Equal(t, []int{tt.expected}, q.limits)
		})
	}
}

func TestIndexAndHealth(t *testing.T) {
	h := newTestServer(t, -1).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte("/api/calculate")))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStart_StopsOnCancel(t *testing.T) {
	srv := newTestServer(t, -1)
	srv.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}

func TestStartWithAutoTLS_NoDomains(t *testing.T) {
	srv := newTestServer(t, -1)
	err := srv.StartWithAutoTLS(context.Background(), nil, "")
	assert.Error(t, err)
}
