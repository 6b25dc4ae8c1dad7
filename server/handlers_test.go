package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sevaops/bskdash/analytics"
	"github.com/sevaops/bskdash/dataset"
	"github.com/sevaops/bskdash/errors"
)

// staticBackend serves a fixed snapshot, or a fixed error, so handler tests
// control exactly what the cache holds.
type staticBackend struct {
	snap *dataset.Snapshot
	err  error
}

func (b *staticBackend) Name() string { return "static" }

func (b *staticBackend) Load(context.Context) (*dataset.Snapshot, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.snap, nil
}

type failingScorer struct{}

func (failingScorer) ScoreCenters(context.Context, *dataset.Snapshot) ([]analytics.CenterScore, error) {
	return nil, errors.New("scorer crashed")
}

func fixtureSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{
		Services: []dataset.Service{
			{ServiceID: 1, ServiceName: "Caste Certificate"},
			{ServiceID: 2, ServiceName: "Ration Card"},
			{ServiceID: 3, ServiceName: "Income Certificate"},
		},
		Centers: []dataset.TrainingCenter{
			{BSKCode: "BSK-01", BSKName: "Krishnanagar Kendra", District: "Nadia"},
			{BSKCode: "BSK-02", BSKName: "Howrah Kendra", District: "Howrah"},
		},
		Agents: []dataset.Agent{
			{AgentID: 10, AgentName: "A. Ghosh", BSKCode: "BSK-01"},
		},
		Provisions: []dataset.Provision{
			{CustomerID: "CUST-001", ServiceID: 1, BSKCode: "BSK-01", Status: "Completed"},
			{CustomerID: "CUST-002", ServiceID: 2, BSKCode: "BSK-01", Status: "Pending"},
			{CustomerID: "CUST-003", ServiceID: 1, BSKCode: "BSK-02", Status: "Completed"},
		},
	}
}

type serverOverrides struct {
	backend dataset.Backend
	scorer  analytics.Scorer
	origins []string
	devMode bool
}

func newTestServer(t *testing.T, o serverOverrides) *Server {
	t.Helper()

	if o.backend == nil {
		o.backend = &staticBackend{snap: fixtureSnapshot()}
	}
	if o.scorer == nil {
		o.scorer = analytics.CompletionScorer{}
	}

	log := zap.NewNop().Sugar()
	cache := dataset.NewCache(o.backend, log)
	return New(Options{
		Reader:         NewSnapshotReader(cache),
		Cache:          cache,
		Orchestrator:   analytics.NewOrchestrator(cache, o.scorer, log),
		AllowedOrigins: o.origins,
		DevMode:        o.devMode,
		Logger:         log,
	})
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleRootBanner(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "online", body["status"])
	assert.Contains(t, body["message"], "BSK")
}

func TestHandleRootUnknownPathIs404(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	// Load the cache first so the payload reports data.
	require.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/services/").Code)

	rec := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "static", body["backend"])
	assert.Equal(t, true, body["data_loaded"])
	assert.Equal(t, float64(3), body["total_services"])
	assert.Equal(t, true, body["analytics_available"])
}

func TestHandleHealthBeforeFirstLoad(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code, "health answers even with nothing loaded")

	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, false, body["data_loaded"])
	assert.Equal(t, float64(0), body["total_services"])
}

func TestHandleServicesList(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/services/")
	require.Equal(t, http.StatusOK, rec.Code)

	services := decodeBody[[]dataset.Service](t, rec)
	require.Len(t, services, 3)
	assert.Equal(t, "Caste Certificate", services[0].ServiceName)
}

func TestHandleServicesPagination(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/services/?skip=1&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	services := decodeBody[[]dataset.Service](t, rec)
	require.Len(t, services, 1)
	assert.Equal(t, int64(2), services[0].ServiceID)
}

func TestHandleServicesBadWindowParams(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	for _, target := range []string{
		"/services/?skip=-1",
		"/services/?skip=abc",
		"/services/?limit=-2",
		"/services/?limit=ten",
	} {
		rec := doRequest(s, http.MethodGet, target)
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestHandleServicesGetByID(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/services/2")
	require.Equal(t, http.StatusOK, rec.Code)

	svc := decodeBody[dataset.Service](t, rec)
	assert.Equal(t, "Ration Card", svc.ServiceName)
}

func TestHandleServicesMissIs404(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/services/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleServicesNonNumericIDIs400(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/services/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBSKsGetByCode(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/bsk/BSK-02")
	require.Equal(t, http.StatusOK, rec.Code)

	center := decodeBody[dataset.TrainingCenter](t, rec)
	assert.Equal(t, "Howrah", center.District)

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/bsk/BSK-99").Code)
}

func TestHandleDEOsAndProvisions(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	agents := decodeBody[[]dataset.Agent](t, doRequest(s, http.MethodGet, "/deo/"))
	require.Len(t, agents, 1)
	assert.Equal(t, "A. Ghosh", agents[0].AgentName)

	prov := decodeBody[dataset.Provision](t, doRequest(s, http.MethodGet, "/provisions/CUST-001"))
	assert.Equal(t, "Completed", prov.Status)

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/provisions/nobody").Code)
}

func TestListEndpointsWithoutTrailingSlash(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	for _, target := range []string{"/services", "/bsk", "/deo", "/provisions", "/underperforming_bsks"} {
		rec := doRequest(s, http.MethodGet, target)
		assert.Equalf(t, http.StatusOK, rec.Code, "target %s", target)
	}
}

func TestEmptyCollectionEncodesAsList(t *testing.T) {
	s := newTestServer(t, serverOverrides{backend: &staticBackend{snap: &dataset.Snapshot{}}})

	rec := doRequest(s, http.MethodGet, "/services/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestEntityReadWithFailedLoadIs503(t *testing.T) {
	s := newTestServer(t, serverOverrides{backend: &staticBackend{err: errors.New("no files")}})

	rec := doRequest(s, http.MethodGet, "/services/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleReload(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodPost, "/reload")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "reloaded", body["status"])
	assert.Equal(t, float64(3), body["services"])
	assert.Equal(t, float64(3), body["provisions"])
}

func TestHandleReloadFailureRetainsSnapshot(t *testing.T) {
	backend := &staticBackend{snap: fixtureSnapshot()}
	s := newTestServer(t, serverOverrides{backend: backend})

	// Load once, then make the backend fail.
	require.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/services/").Code)
	backend.err = errors.New("source vanished")

	rec := doRequest(s, http.MethodPost, "/reload")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, true, body["retained_snapshot"])

	// Reads keep working off the retained snapshot.
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/services/2").Code)
}

func TestHandleReloadRequiresPost(t *testing.T) {
	s := newTestServer(t, serverOverrides{})
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, http.MethodGet, "/reload").Code)
}

func TestEntityEndpointsRejectWrites(t *testing.T) {
	s := newTestServer(t, serverOverrides{})
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, http.MethodPost, "/services/").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, http.MethodDelete, "/bsk/BSK-01").Code)
}

func TestHandleUnderperformingBSKs(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	rec := doRequest(s, http.MethodGet, "/underperforming_bsks/?num_bsks=2&sort_order=asc")
	require.Equal(t, http.StatusOK, rec.Code)

	scores := decodeBody[[]analytics.CenterScore](t, rec)
	require.Len(t, scores, 2)
	// BSK-01 completes 1 of 2, BSK-02 completes 1 of 1 but with lower
	// volume; ascending order puts the lower score first.
	assert.LessOrEqual(t, scores[0].Score, scores[1].Score)
}

func TestHandleUnderperformingBSKsBadParams(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	assert.Equal(t, http.StatusBadRequest,
		doRequest(s, http.MethodGet, "/underperforming_bsks/?sort_order=sideways").Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(s, http.MethodGet, "/underperforming_bsks/?num_bsks=-3").Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(s, http.MethodGet, "/underperforming_bsks/?num_bsks=lots").Code)
}

func TestHandleUnderperformingBSKsNoScorerIs503(t *testing.T) {
	log := zap.NewNop().Sugar()
	cache := dataset.NewCache(&staticBackend{snap: fixtureSnapshot()}, log)
	s := New(Options{
		Reader:       NewSnapshotReader(cache),
		Cache:        cache,
		Orchestrator: analytics.NewOrchestrator(cache, nil, log),
		Logger:       log,
	})

	rec := doRequest(s, http.MethodGet, "/underperforming_bsks/")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Contains(t, body["error"], "analytics unavailable")
}

func TestHandleUnderperformingBSKsScorerFailureIs500(t *testing.T) {
	s := newTestServer(t, serverOverrides{scorer: failingScorer{}})

	rec := doRequest(s, http.MethodGet, "/underperforming_bsks/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "scorer crashed")
}

func TestHandleUnderperformingBSKsLoadFailureIs503(t *testing.T) {
	s := newTestServer(t, serverOverrides{backend: &staticBackend{err: errors.New("no files")}})

	rec := doRequest(s, http.MethodGet, "/underperforming_bsks/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSAllowedOrigin(t *testing.T) {
	s := newTestServer(t, serverOverrides{origins: []string{"https://dash.example.org"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example.org")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, "https://dash.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSDisallowedOriginGetsNoHeader(t *testing.T) {
	s := newTestServer(t, serverOverrides{origins: []string{"https://dash.example.org"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, serverOverrides{origins: []string{"*"}})

	req := httptest.NewRequest(http.MethodOptions, "/services/", nil)
	req.Header.Set("Origin", "https://anywhere.example.org")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestSetAllowedOriginsTakesEffect(t *testing.T) {
	s := newTestServer(t, serverOverrides{origins: []string{"https://old.example.org"}})
	s.SetAllowedOrigins([]string{"https://new.example.org"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://new.example.org")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, "https://new.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}
