// Package fakefeed serves synthetic speed feeds for local runs and tests.
package fakefeed

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chrisdamba/cotraffic/internal/factories"
	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/gorilla/mux"
)

const FeedPath = "/speed/getSegments.do"

type Server struct {
	corridor string
	clock    func() time.Time
	logger   *slog.Logger
}

func NewServer(corridor string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{corridor: corridor, clock: time.Now, logger: logger}
}

// Handler routes the feed endpoint. Query parameters tune each response:
// segments and stale set the per-direction counts, status (400 to 599) forces
// an error response.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("served request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery, "duration", time.Since(start))
		})
	})
	r.HandleFunc(FeedPath, s.handleSegments).Methods("GET")
	return r
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if status := intParam(q.Get("status"), 0); status >= 400 && status <= 599 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	perDirection := intParam(q.Get("segments"), 5)
	stale := intParam(q.Get("stale"), 1)
	doc := factories.NewFeedFactory(s.clock()).CreateCorridorFeed(s.corridor, perDirection, stale)

	body, err := doc.JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func intParam(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
