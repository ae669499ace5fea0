package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/services"
	"github.com/ekoatlas/data-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeServer struct {
	resp *services.Response
	err  error
	got  *models.DataRequest
}

func (f *fakeServer) Serve(_ context.Context, req *models.DataRequest) (*services.Response, error) {
	f.got = req
	return f.resp, f.err
}

func newDataRouter(srv DataServer) *gin.Engine {
	r := gin.New()
	r.GET("/data/*path", NewDataHandler(srv, 600).Data)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestDataHandler_Success(t *testing.T) {
	srv := &fakeServer{resp: &services.Response{Body: []byte(`[{"a":1}]`), Mode: services.ModeAggregated}}
	w := get(newDataRouter(srv), "/data/v1/ecst/trade/4/ALL/pie?city=Ankara")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[{"a":1}]`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=600", w.Header().Get("Cache-Control"))
	assert.Equal(t, "aggregated", w.Header().Get(DataModeHeader))

	require.NotNil(t, srv.got)
	assert.Equal(t, models.KindQuery, srv.got.Kind)
	assert.Equal(t, models.SectionEconomicStructure, srv.got.Query.Section)
	assert.Equal(t, "all", srv.got.Query.Year)
	assert.Equal(t, "Ankara", srv.got.City)
}

func TestDataHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"malformed path", "/data/v1/ecst/trade", nil, http.StatusBadRequest},
		{"no dispatch segment", "/data/foo/bar", nil, http.StatusBadRequest},
		{"unknown section", "/data/v1/bogus/trade/4/2020/pie", nil, http.StatusBadRequest},
		{"key not found", "/data/v1/ecst/trade/4/2020/pie", fmt.Errorf("%w: EcSt:pie:trade:4:2020", models.ErrManifestKeyNotFound), http.StatusNotFound},
		{"city not found", "/data/source/a.json?il=x", fmt.Errorf("%w: x", models.ErrCityNotFound), http.StatusNotFound},
		{"decode failure", "/data/source/a.json?il=x", fmt.Errorf("file: %w", models.ErrDecode), http.StatusInternalServerError},
		{"unclassified", "/data/source/a.json", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newDataRouter(&fakeServer{err: tt.err}), tt.target)

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Cache-Control"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

type pingStore struct {
	storage.Store
	err error
}

func (s pingStore) Ping(context.Context) error { return s.err }

type loaded []models.Section

func (l loaded) Loaded() []models.Section { return l }

func TestHealthHandler(t *testing.T) {
	healthy := pingStore{Store: storage.NewFSStore(fstest.MapFS{})}
	down := pingStore{Store: healthy.Store, err: errors.New("unreachable")}

	tests := []struct {
		name   string
		store  storage.Store
		path   string
		status int
		want   string
	}{
		{"liveness ignores store", down, "/liveness", http.StatusOK, "alive"},
		{"ready", healthy, "/readiness", http.StatusOK, "ready"},
		{"not ready", down, "/readiness", http.StatusServiceUnavailable, "not_ready"},
		{"healthy", healthy, "/health", http.StatusOK, "healthy"},
		{"unhealthy", down, "/health", http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.store, loaded{models.SectionCurrentStatus})
			r := gin.New()
			r.GET("/liveness", h.Liveness)
			r.GET("/readiness", h.Readiness)
			r.GET("/health", h.Health)

			w := get(r, tt.path)
			assert.Equal(t, tt.status, w.Code)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Status)
			if tt.path == "/health" {
				assert.Equal(t, []string{"CrSt"}, body.Manifests)
			}
		})
	}
}
