package server

import (
	"net/http"
	"os"
	"strconv"

	"github.com/sevaops/bskdash/analytics"
	"github.com/sevaops/bskdash/dataset"
	"github.com/sevaops/bskdash/errors"
	"github.com/sevaops/bskdash/version"
)

// environment reports where the process runs, for the banner and health
// payloads. Render sets RENDER=true in its containers.
func environment() string {
	if os.Getenv("RENDER") == "true" {
		return "render"
	}
	return "local"
}

// HandleRoot serves the API banner on exactly "/".
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Welcome to BSK Training Optimization API",
		"status":      "online",
		"version":     version.Get().Version,
		"environment": environment(),
	})
}

// HandleHealth reports liveness, whether analytics data is loaded, and how
// many service records the current snapshot holds.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	totalServices := 0
	if snap := s.cache.Snapshot(); snap != nil {
		totalServices = len(snap.Services)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "healthy",
		"version":             version.Get().Version,
		"environment":         environment(),
		"backend":             s.cache.Backend(),
		"data_loaded":         s.cache.Loaded(),
		"total_services":      totalServices,
		"analytics_available": s.orchestrator.Available(),
	})
}

// HandleReload forces a dataset reload. On failure a previously loaded
// snapshot is retained and keeps serving reads.
func (s *Server) HandleReload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	snap, err := s.cache.Reload(r.Context())
	if err != nil {
		s.logger.Errorw("Forced reload failed",
			"backend", s.cache.Backend(),
			"retained_snapshot", s.cache.Loaded(),
			"error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "error",
			"error":             err.Error(),
			"retained_snapshot": s.cache.Loaded(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "reloaded",
		"services":   len(snap.Services),
		"bsks":       len(snap.Centers),
		"deos":       len(snap.Agents),
		"provisions": len(snap.Provisions),
	})
}

// HandleServices serves GET /services/ and GET /services/{id}.
func (s *Server) HandleServices(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	key := pathRemainder(r.URL.Path, "/services")
	if key == "" {
		skip, limit, err := parseWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Debugw("Fetching services", "skip", skip, "limit", limit)
		services, err := s.reader.ListServices(r.Context(), skip, limit)
		if err != nil {
			s.respondReadError(w, err, "list services")
			return
		}
		writeJSON(w, http.StatusOK, emptyAsList(services))
		return
	}

	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "service id must be an integer")
		return
	}
	svc, err := s.reader.GetServiceByID(r.Context(), id)
	if err != nil {
		s.respondReadError(w, err, "get service")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// HandleBSKs serves GET /bsk/ and GET /bsk/{code}.
func (s *Server) HandleBSKs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	code := pathRemainder(r.URL.Path, "/bsk")
	if code == "" {
		skip, limit, err := parseWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Debugw("Fetching BSK list", "skip", skip, "limit", limit)
		centers, err := s.reader.ListCenters(r.Context(), skip, limit)
		if err != nil {
			s.respondReadError(w, err, "list bsks")
			return
		}
		writeJSON(w, http.StatusOK, emptyAsList(centers))
		return
	}

	center, err := s.reader.GetCenterByCode(r.Context(), code)
	if err != nil {
		s.respondReadError(w, err, "get bsk")
		return
	}
	writeJSON(w, http.StatusOK, center)
}

// HandleDEOs serves GET /deo/ and GET /deo/{id}.
func (s *Server) HandleDEOs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	key := pathRemainder(r.URL.Path, "/deo")
	if key == "" {
		skip, limit, err := parseWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Debugw("Fetching DEO list", "skip", skip, "limit", limit)
		agents, err := s.reader.ListAgents(r.Context(), skip, limit)
		if err != nil {
			s.respondReadError(w, err, "list deos")
			return
		}
		writeJSON(w, http.StatusOK, emptyAsList(agents))
		return
	}

	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "agent id must be an integer")
		return
	}
	agent, err := s.reader.GetAgentByID(r.Context(), id)
	if err != nil {
		s.respondReadError(w, err, "get deo")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// HandleProvisions serves GET /provisions/ and GET /provisions/{customerId}.
func (s *Server) HandleProvisions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	customerID := pathRemainder(r.URL.Path, "/provisions")
	if customerID == "" {
		skip, limit, err := parseWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Debugw("Fetching provisions", "skip", skip, "limit", limit)
		provisions, err := s.reader.ListProvisions(r.Context(), skip, limit)
		if err != nil {
			s.respondReadError(w, err, "list provisions")
			return
		}
		writeJSON(w, http.StatusOK, emptyAsList(provisions))
		return
	}

	provision, err := s.reader.GetProvisionByCustomer(r.Context(), customerID)
	if err != nil {
		s.respondReadError(w, err, "get provision")
		return
	}
	writeJSON(w, http.StatusOK, provision)
}

// HandleUnderperformingBSKs serves the ranked analytics endpoint.
func (s *Server) HandleUnderperformingBSKs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	count := 50
	if v := r.URL.Query().Get("num_bsks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "num_bsks must be a non-negative integer")
			return
		}
		count = n
	}

	order, err := analytics.ParseSortOrder(r.URL.Query().Get("sort_order"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scores, err := s.orchestrator.RankUnderperforming(r.Context(), count, order)
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, dataset.ErrLoadFailure):
			writeWrappedError(w, s.logger, err, "analytics data unavailable", http.StatusServiceUnavailable)
		default:
			writeWrappedError(w, s.logger, err, "failed to rank underperforming bsks", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, emptyAsList(scores))
}

// respondReadError translates dataset errors: lookup misses are 404s, load
// failures mean there is no data to serve (503), anything else is a 500.
func (s *Server) respondReadError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		s.logger.Warnw("Record not found", "operation", op, "error", err)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dataset.ErrLoadFailure):
		writeWrappedError(w, s.logger, err, op+": dataset unavailable", http.StatusServiceUnavailable)
	default:
		writeWrappedError(w, s.logger, err, op+" failed", http.StatusInternalServerError)
	}
}

// emptyAsList keeps empty collections encoding as [] instead of null.
func emptyAsList[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
