package server

import (
	"net/http"
)

// routes configures all HTTP handlers on a server-owned mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/reload", s.corsMiddleware(s.HandleReload))

	mux.HandleFunc("/services", s.corsMiddleware(s.HandleServices))
	mux.HandleFunc("/services/", s.corsMiddleware(s.HandleServices))
	mux.HandleFunc("/bsk", s.corsMiddleware(s.HandleBSKs))
	mux.HandleFunc("/bsk/", s.corsMiddleware(s.HandleBSKs))
	mux.HandleFunc("/deo", s.corsMiddleware(s.HandleDEOs))
	mux.HandleFunc("/deo/", s.corsMiddleware(s.HandleDEOs))
	mux.HandleFunc("/provisions", s.corsMiddleware(s.HandleProvisions))
	mux.HandleFunc("/provisions/", s.corsMiddleware(s.HandleProvisions))

	mux.HandleFunc("/underperforming_bsks", s.corsMiddleware(s.HandleUnderperformingBSKs))
	mux.HandleFunc("/underperforming_bsks/", s.corsMiddleware(s.HandleUnderperformingBSKs))

	mux.HandleFunc("/", s.corsMiddleware(s.HandleRoot))

	return mux
}

// corsMiddleware adds CORS headers to HTTP responses using the configured
// allow-list and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if s.devMode {
			// Dev mode: allow everything for rapid development
			w.Header().Set("Access-Control-Allow-Methods", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// originAllowed checks an Origin header value against the allow-list.
// A "*" entry allows every origin.
func (s *Server) originAllowed(origin string) bool {
	s.originMu.RLock()
	defer s.originMu.RUnlock()

	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
