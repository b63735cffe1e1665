package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zhengjr9/cli-agent/internal/adapter/openai"
	"github.com/zhengjr9/cli-agent/internal/config"
	apierrors "github.com/zhengjr9/cli-agent/internal/errors"
)

// ChatCompletionsPath is the only routed endpoint.
const ChatCompletionsPath = "/v1/chat/completions"

// Server is the OpenAI-compatible HTTP front of the CLI.
type Server struct {
	httpServer *http.Server
}

// New constructs a Server that answers chat completions with runner.
func New(cfg *config.Config, runner openai.Runner) *Server {
	oaHandler := openai.NewHandler(runner, cfg.DefaultModel)

	router := mux.NewRouter()
	router.SkipClean(true)

	// CORS preflight on any path.
	router.Methods(http.MethodOptions).HandlerFunc(preflight)

	router.Handle(ChatCompletionsPath, oaHandler).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	var handler http.Handler = router
	handler = LoggingMiddleware(handler)
	handler = headersMiddleware(handler)
	handler = recoveryMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           handler,
			ReadHeaderTimeout: 30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start begins listening and blocks until the server is stopped.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the underlying http.Handler (for use in tests with httptest.NewServer).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	apierrors.WriteJSONError(w, http.StatusNotFound, apierrors.TypeInvalidRequest, apierrors.ErrNotFound.Error())
}
