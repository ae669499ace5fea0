package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/ekoatlas/data-api/internal/aggregate"
	"github.com/ekoatlas/data-api/internal/api/handlers"
	"github.com/ekoatlas/data-api/internal/config"
	"github.com/ekoatlas/data-api/internal/manifest"
	"github.com/ekoatlas/data-api/internal/services"
	"github.com/ekoatlas/data-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := storage.NewFSStore(fstest.MapFS{
		"repo/StSp/manifest.json": {Data: []byte(`{
  "StSp:StSp:exports:2:2022": {"file": "repo/source/StSp/exports/2/2022/data.json"},
  "StSp:StSp:exports:2:2023": {"file": "repo/source/StSp/exports/2/2023/data.json"}
}`)},
		"repo/source/StSp/exports/2/2022/data.json": {Data: []byte(`[{"il":"Muğla","v":1},{"il":"Van","v":2}]`)},
		"repo/source/StSp/exports/2/2023/data.json": {Data: []byte(`[{"il":"Mugla","v":3}]`)},
	})
	resolver := manifest.NewResolver(store, manifest.ResolverOptions{Validate: true})
	svc := services.NewDataService(store, resolver, aggregate.New(store, aggregate.Options{}), services.DataServiceOptions{})

	cfg := &config.Config{CacheMaxAgeSeconds: 120}
	return SetupRouter(cfg, Dependencies{Data: svc, Health: handlers.NewHealthHandler(store, resolver)})
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_DataEndpoints(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		status int
		mode   string
		body   string
	}{
		{
			name:   "passthrough",
			target: "/data/source/StSp/exports/2/2023/data",
			status: http.StatusOK, mode: "passthrough",
			body: `[{"il":"Mugla","v":3}]`,
		},
		{
			name:   "legacy prefix",
			target: "/.netlify/functions/datas/v1/state-space/exports/2/2022/x?cityname=VAN",
			status: http.StatusOK, mode: "manifest",
			body: `[{"il":"Van","v":2}]`,
		},
		{
			name:   "aggregated with city",
			target: "/data/v1/stsp/exports/2/all/x?city=mu%C4%9Fla",
			status: http.StatusOK, mode: "aggregated",
			body: `[{"il":"Muğla","v":1,"year":2022},{"il":"Mugla","v":3,"year":2023}]`,
		},
		{
			name:   "city all means unfiltered",
			target: "/data/v1/stsp/exports/2/2022/x?il=ALL",
			status: http.StatusOK, mode: "manifest",
			body: `[{"il":"Muğla","v":1},{"il":"Van","v":2}]`,
		},
		{name: "city miss", target: "/data/v1/stsp/exports/2/2022/x?il=Rize", status: http.StatusNotFound},
		{name: "key miss", target: "/data/v1/stsp/exports/4/2022/x", status: http.StatusNotFound},
		{name: "missing manifest", target: "/data/v1/crst/exports/2/2022/x", status: http.StatusNotFound},
		{name: "traversal", target: "/data/source/../secret", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.target)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.status != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"error"`)
				return
			}
			assert.Equal(t, tt.mode, w.Header().Get("X-Data-Mode"))
			assert.Equal(t, "public, max-age=120", w.Header().Get("Cache-Control"))
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRouter_Preflight(t *testing.T) {
	w := serve(newTestRouter(t), http.MethodOptions, "/data/v1/stsp/exports/2/2022/x")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/liveness").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readiness").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/swagger/index.html").Code)
}
