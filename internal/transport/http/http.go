package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/corray333/task-bridge/internal/connector"
	"github.com/corray333/task-bridge/internal/dal/interfaces/ijournalrepo"
	listconnectors "github.com/corray333/task-bridge/internal/transport/http/list_connectors"
	listexhausted "github.com/corray333/task-bridge/internal/transport/http/list_exhausted"
	registerconnector "github.com/corray333/task-bridge/internal/transport/http/register_connector"
	removeconnector "github.com/corray333/task-bridge/internal/transport/http/remove_connector"
	"github.com/corray333/task-bridge/pkg/http/middleware/trace"
	"github.com/corray333/task-bridge/pkg/logger"
)

// ConnectorFactory builds a ready-to-poll connector from a descriptor. The
// transport stays unaware of which outbox client implementation backs it.
type ConnectorFactory func(desc connector.Descriptor) *connector.Connector

// HTTPTransport is the administrative API: health, connector hot add and
// remove, and the exhausted-events journal.
type HTTPTransport struct {
	server       *http.Server
	router       *chi.Mux
	registry     *connector.Registry
	newConnector ConnectorFactory
	journal      ijournalrepo.IJournalRepository
}

func NewHTTPTransport(
	registry *connector.Registry,
	newConnector ConnectorFactory,
	journal ijournalrepo.IJournalRepository,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:       server,
		router:       router,
		registry:     registry,
		newConnector: newConnector,
		journal:      journal,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/connectors", h.listConnectors)
		r.Post("/connectors", h.registerConnector)
		r.Delete("/connectors/{system_id}", h.removeConnector)
		r.Get("/journal/exhausted", h.listExhausted)
	})
}

func (h *HTTPTransport) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *HTTPTransport) listConnectors(w http.ResponseWriter, r *http.Request) {
	listconnectors.ListConnectors(w, r, h.registry)
}

func (h *HTTPTransport) registerConnector(w http.ResponseWriter, r *http.Request) {
	registerconnector.RegisterConnector(w, r, h.registry, registerconnector.Factory(h.newConnector))
}

func (h *HTTPTransport) removeConnector(w http.ResponseWriter, r *http.Request) {
	removeconnector.RemoveConnector(w, r, h.registry)
}

func (h *HTTPTransport) listExhausted(w http.ResponseWriter, r *http.Request) {
	listexhausted.ListExhausted(w, r, h.journal)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
