package router

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dtroode/leads-server/internal/api/http/handler"
	"github.com/dtroode/leads-server/internal/api/http/middleware"
	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/metrics"
	"github.com/dtroode/leads-server/internal/model"
	"github.com/dtroode/leads-server/internal/validation"
)

// Config holds routing parameters.
type Config struct {
	PathPrefix    string
	StaticDir     string
	AdminUser     string
	AdminPassword string
}

// Router wires lead handlers and middleware into an http.Handler.
type Router struct {
	config         Config
	leadService    model.LeadStore
	selector       model.BackendSelector
	validator      *validation.Validator
	contextManager model.ContextManager
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// New creates a new Router. A nil metrics disables the /metrics endpoint
// and request instrumentation.
func New(
	config Config,
	leadService model.LeadStore,
	selector model.BackendSelector,
	validator *validation.Validator,
	contextManager model.ContextManager,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Router {
	config.PathPrefix = "/" + strings.Trim(config.PathPrefix, "/")
	if config.PathPrefix == "/" {
		config.PathPrefix = ""
	}

	return &Router{
		config:         config,
		leadService:    leadService,
		selector:       selector,
		validator:      validator,
		contextManager: contextManager,
		metrics:        metrics,
		logger:         logger,
	}
}

// Register builds the handler tree. CORS and request logging wrap the whole
// tree so that preflight and unmatched requests are covered too.
func (r *Router) Register() http.Handler {
	m := mux.NewRouter()
	m.NotFoundHandler = http.HandlerFunc(r.notFound)
	m.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	if r.metrics != nil {
		m.Use(middleware.NewMetrics(r.metrics).Handle)
		m.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)
	}

	health := handler.NewHealth(r.selector)
	m.HandleFunc("/healthz", health.Check).Methods(http.MethodGet)

	r.registerLeadRoutes(m)

	logging := middleware.NewLogging(r.logger)
	return logging.Handle(middleware.CORS(m))
}

func (r *Router) registerLeadRoutes(m *mux.Router) {
	leads := handler.NewLead(r.leadService, r.validator, r.contextManager, r.logger)
	auth := middleware.NewAuthenticate(r.config.AdminUser, r.config.AdminPassword, r.contextManager, r.logger)
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Handle(h)
	}

	collection := r.config.PathPrefix + "/leads"
	item := collection + "/{id}"

	m.HandleFunc(collection, leads.Create).Methods(http.MethodPost)
	m.Handle(collection, admin(leads.List)).Methods(http.MethodGet)
	m.Handle(collection+"/export", admin(leads.Export)).Methods(http.MethodGet)
	m.Handle(item, admin(leads.Get)).Methods(http.MethodGet)
	m.Handle(item, admin(leads.Update)).Methods(http.MethodPut)
	m.Handle(item, admin(leads.Delete)).Methods(http.MethodDelete)
}

// notFound serves the admin UI for paths outside the API when a static
// directory is configured, and a JSON 404 otherwise.
func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	if r.config.StaticDir == "" || r.isAPIPath(req.URL.Path) {
		handler.NotFound(w, req)
		return
	}

	http.FileServer(http.Dir(r.config.StaticDir)).ServeHTTP(w, req)
}

func (r *Router) isAPIPath(path string) bool {
	if r.config.PathPrefix == "" {
		return strings.HasPrefix(path, "/leads")
	}
	return path == r.config.PathPrefix || strings.HasPrefix(path, r.config.PathPrefix+"/")
}
