package web

import (
	"log/slog"
	"net/http"
	"time"

	"binventory/internal/domain"
	"binventory/internal/service"
	"binventory/internal/store"
)

type Server struct {
	locations *store.LocationStore
	bins      *store.BinStore
	activity  *store.ActivityStore
	command   *service.CommandService
	batch     *service.BatchService
	mux       *http.ServeMux
	logger    *slog.Logger
}

func NewServer(
	locations *store.LocationStore,
	bins *store.BinStore,
	activity *store.ActivityStore,
	command *service.CommandService,
	batch *service.BatchService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		locations: locations,
		bins:      bins,
		activity:  activity,
		command:   command,
		batch:     batch,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/locations", s.handleCreateLocation)
	s.mux.HandleFunc("GET /api/locations", s.handleListLocations)
	s.mux.HandleFunc("GET /api/locations/{id}", s.handleGetLocation)
	s.mux.HandleFunc("PATCH /api/locations/{id}/settings", s.handleUpdateSettings)
	s.mux.HandleFunc("GET /api/locations/{id}/activity", s.handleListActivity)

	s.mux.HandleFunc("GET /api/locations/{id}/bins", s.handleListBins)
	s.mux.HandleFunc("POST /api/locations/{id}/bins", s.handleCreateBin)
	s.mux.HandleFunc("GET /api/locations/{id}/trash", s.handleListTrash)
	s.mux.HandleFunc("GET /api/bins/{id}", s.handleGetBin)
	s.mux.HandleFunc("DELETE /api/bins/{id}", s.handleTrashBin)
	s.mux.HandleFunc("POST /api/bins/{id}/restore", s.handleRestoreBin)

	s.mux.HandleFunc("POST /api/locations/{id}/ai/command", s.handleAICommand)
	s.mux.HandleFunc("POST /api/locations/{id}/ai/test", s.handleAITest)
	s.mux.HandleFunc("POST /api/locations/{id}/batch", s.handleBatch)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// actorFrom derives the acting user from request headers. Authentication is
// handled upstream of this service; absent headers fall back to a shared
// anonymous identity.
func actorFrom(r *http.Request, authMethod string) service.Actor {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "anonymous"
	}
	userName := r.Header.Get("X-User-Name")
	if userName == "" {
		userName = userID
	}
	return service.Actor{UserID: userID, UserName: userName, AuthMethod: authMethod}
}

type binResponse struct {
	ID        string     `json:"id"`
	AreaID    *string    `json:"area_id,omitempty"`
	Name      string     `json:"name"`
	Items     []string   `json:"items"`
	Tags      []string   `json:"tags"`
	Notes     string     `json:"notes,omitempty"`
	Icon      string     `json:"icon,omitempty"`
	Color     string     `json:"color,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func toBinResponse(bin *domain.Bin) binResponse {
	return binResponse{
		ID:        bin.ID,
		AreaID:    bin.AreaID,
		Name:      bin.Name,
		Items:     bin.Items,
		Tags:      bin.Tags,
		Notes:     bin.Notes,
		Icon:      bin.Icon,
		Color:     bin.Color,
		CreatedAt: bin.CreatedAt,
		UpdatedAt: bin.UpdatedAt,
		DeletedAt: bin.DeletedAt,
	}
}

func toBinResponses(bins []*domain.Bin) []binResponse {
	out := make([]binResponse, 0, len(bins))
	for _, bin := range bins {
		out = append(out, toBinResponse(bin))
	}
	return out
}
