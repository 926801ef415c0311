// Package api provides the RESTful HTTP API server for pocket-crm.
//
// SYSTEM ARCHITECTURE ROLE:
// This module implements the HTTP interface layer of the system. Every endpoint
// maps onto a named command, so the API and the CLI share validation, business
// logic and error reporting.
//
// INTEGRATION POINTS:
// - internal/commands/types.go: Server.executor executes all operations through CommandExecutor
// - internal/errors/handlers.go: Server.errorHandler (HTTPErrorHandler) writes error envelopes
// - internal/validation/middleware.go: each route with a schema is wrapped by ValidateRequest()
// - internal/config: agencies and the default user resolve the request session
// - internal/api/openapi.go: the route table below is published at /api/openapi.json
//
// MIDDLEWARE STACK:
// - Recovery: panics become INTERNAL_ERROR responses
// - Logging: structured request logging with timing information
// - CORS: cross-origin access for the web dashboard
// - Session: X-User-ID and X-Agency-ID headers select the store for the request
// - Validation: per-route schema validation and parameter conversion
//
// ENDPOINT STRUCTURE:
// - /api/v1/clients: client CRUD and fuzzy search
// - /api/v1/contracts: contract generation, preview and listing
// - /api/v1/templates, /api/v1/placeholders: contract templates and their tokens
// - /api/v1/transactions: income and expenses, monthly totals
// - /api/v1/demands: demands, checklists and status changes
// - /api/v1/dashboard, /api/v1/notifications: summaries
// - /api/v1/agencies: configured agencies
// - /api/v1/health: system health monitoring
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dpshade/pocket-crm/internal/commands"
	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/session"
	"github.com/dpshade/pocket-crm/internal/validation"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderAgencyID = "X-Agency-ID"
)

// Route binds an HTTP endpoint to a command
type Route struct {
	Method  string
	Path    string // gin syntax, relative to /api/v1
	Command string
	Summary string
	Tag     string
	Status  int // success status, 200 when zero
}

// Routes is the endpoint table served under /api/v1
var Routes = []Route{
	{http.MethodGet, "/clients", "client-list", "List clients", "clients", 0},
	{http.MethodGet, "/clients/search", "client-search", "Fuzzy-search clients", "clients", 0},
	{http.MethodPost, "/clients", "client-create", "Register a client", "clients", http.StatusCreated},
	{http.MethodGet, "/clients/:id", "client-get", "Get a client and its contracts", "clients", 0},
	{http.MethodPut, "/clients/:id", "client-update", "Update a client", "clients", 0},
	{http.MethodDelete, "/clients/:id", "client-delete", "Delete a client", "clients", 0},

	{http.MethodGet, "/contracts", "contract-list", "List contracts", "contracts", 0},
	{http.MethodPost, "/contracts", "contract-create", "Generate and save a contract", "contracts", http.StatusCreated},
	{http.MethodPost, "/contracts/preview", "contract-preview", "Fill a template without saving", "contracts", 0},
	{http.MethodGet, "/contracts/:id", "contract-get", "Get a contract", "contracts", 0},
	{http.MethodDelete, "/contracts/:id", "contract-delete", "Delete a contract", "contracts", 0},

	{http.MethodGet, "/templates", "template-list", "List contract templates", "templates", 0},
	{http.MethodPost, "/templates", "template-save", "Create a contract template", "templates", http.StatusCreated},
	{http.MethodGet, "/templates/:id", "template-get", "Get a contract template", "templates", 0},
	{http.MethodPut, "/templates/:id", "template-save", "Replace a contract template", "templates", 0},
	{http.MethodDelete, "/templates/:id", "template-delete", "Delete a contract template", "templates", 0},
	{http.MethodGet, "/placeholders", "placeholders", "List template placeholders", "templates", 0},

	{http.MethodGet, "/transactions", "transaction-list", "List transactions with totals", "finance", 0},
	{http.MethodPost, "/transactions", "transaction-create", "Record income or an expense", "finance", http.StatusCreated},
	{http.MethodGet, "/transactions/monthly", "transaction-monthly", "Monthly balances of a year", "finance", 0},
	{http.MethodGet, "/transactions/:id", "transaction-get", "Get a transaction", "finance", 0},
	{http.MethodPut, "/transactions/:id", "transaction-update", "Update a transaction", "finance", 0},
	{http.MethodDelete, "/transactions/:id", "transaction-delete", "Delete a transaction", "finance", 0},

	{http.MethodGet, "/demands", "demand-list", "List demands by delivery date", "demands", 0},
	{http.MethodPost, "/demands", "demand-create", "Register a demand", "demands", http.StatusCreated},
	{http.MethodGet, "/demands/:id", "demand-get", "Get a demand", "demands", 0},
	{http.MethodPut, "/demands/:id", "demand-update", "Update a demand", "demands", 0},
	{http.MethodDelete, "/demands/:id", "demand-delete", "Delete a demand", "demands", 0},
	{http.MethodPost, "/demands/:id/tasks", "demand-add-task", "Add a checklist item", "demands", http.StatusCreated},
	{http.MethodPost, "/demands/:id/tasks/:taskId/toggle", "demand-toggle-task", "Toggle a checklist item", "demands", 0},
	{http.MethodPut, "/demands/:id/status", "demand-status", "Change demand status", "demands", 0},

	{http.MethodGet, "/dashboard", "dashboard", "Revenue and workload summary", "summary", 0},
	{http.MethodGet, "/notifications", "notifications", "Deadline and payment alerts", "summary", 0},
	{http.MethodGet, "/health", "health", "System health", "system", 0},
}

// Server provides the HTTP API
type Server struct {
	service      *service.Service
	executor     *commands.CommandExecutor
	cfg          *config.Config
	errorHandler *errors.HTTPErrorHandler
	validator    *validation.RequestValidator
	log          *logger.Logger
	engine       *gin.Engine
	server       *http.Server
}

// NewServer creates a new API server instance
func NewServer(svc *service.Service, cfg *config.Config, log *logger.Logger) *Server {
	log = logger.OrNop(log).With("component", "api")
	s := &Server{
		service:      svc,
		executor:     commands.NewCommandExecutor(svc, log),
		cfg:          cfg,
		errorHandler: errors.NewHTTPErrorHandler(true, log),
		validator:    validation.NewRequestValidator(log),
		log:          log,
	}
	s.engine = s.newEngine()
	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving HTTP requests on port
func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("API server starting", "url", fmt.Sprintf("http://localhost:%d", port))
	s.log.Info("API specification", "url", fmt.Sprintf("http://localhost:%d/api/openapi.json", port))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.CustomRecovery(s.recoverPanic))
	engine.Use(s.requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization", HeaderUserID, HeaderAgencyID},
		MaxAge:          24 * time.Hour,
	}))

	engine.GET("/api/docs", s.handleOpenAPI)
	engine.GET("/api/openapi.json", s.handleOpenAPISpec)

	v1 := engine.Group("/api/v1")
	v1.Use(s.sessionMiddleware())
	for _, route := range Routes {
		v1.Handle(route.Method, route.Path, s.routeHandlers(route)...)
	}
	v1.GET("/agencies", s.handleListAgencies)
	v1.PUT("/agencies/current", s.validator.ValidateRequest("switch_agency"), s.handleSwitchAgency)

	engine.NoRoute(func(c *gin.Context) {
		s.errorHandler.WriteGinError(c, errors.NotFoundError("route").WithContext("path", c.Request.URL.Path))
	})
	return engine
}

// routeHandlers validates with the command's schema, when it has one, then runs it
func (s *Server) routeHandlers(route Route) []gin.HandlerFunc {
	run := func(c *gin.Context) {
		s.runCommand(c, route, validation.Validated(c))
	}
	if schema := commands.SchemaFor(route.Command); schema != "" {
		return []gin.HandlerFunc{s.validator.ValidateRequest(schema), run}
	}
	return []gin.HandlerFunc{run}
}

func (s *Server) recoverPanic(c *gin.Context, recovered interface{}) {
	s.log.Error("panic in handler", "path", c.Request.URL.Path, "panic", recovered)
	s.errorHandler.WriteGinError(c, errors.InternalError("Internal server error"))
}

// requestLogger logs one line per request
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote", c.ClientIP(),
		)
	}
}

// sessionMiddleware puts the caller session on the request context. The
// agency header must name a configured agency; the user header overrides the
// configured user.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			userID = s.cfg.User
		}
		agencyID := strings.TrimSpace(c.GetHeader(HeaderAgencyID))
		if agencyID == "" {
			agencyID = s.cfg.CurrentAgencyID()
		} else if !s.cfg.IsValidAgency(agencyID) {
			s.errorHandler.WriteGinError(c, errors.UnknownAgencyError(agencyID))
			return
		}

		sess := s.cfg.SessionFor(userID, agencyID)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (s *Server) writeResponse(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, APIResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (s *Server) runCommand(c *gin.Context, route Route, params validation.Params) {
	result, err := s.executor.Execute(c.Request.Context(), route.Command, params)
	if err != nil {
		s.errorHandler.WriteGinError(c, err)
		return
	}
	if !result.Success {
		if appErr := result.AsError(); appErr != nil {
			s.errorHandler.WriteGinError(c, appErr)
		} else {
			s.errorHandler.WriteGinError(c, errors.InternalError("Command failed"))
		}
		return
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	s.writeResponse(c, status, result.Data, result.Message)
}

// AgencyInfo is an agency with the storage mode it resolves to
type AgencyInfo struct {
	config.Agency
	Current bool `json:"current"`
}

func (s *Server) handleListAgencies(c *gin.Context) {
	current := session.FromContext(c.Request.Context())
	list := s.cfg.AgencyList()
	agencies := make([]AgencyInfo, 0, len(list))
	for _, a := range list {
		agencies = append(agencies, AgencyInfo{Agency: a, Current: current != nil && current.AgencyID == a.ID})
	}
	s.writeResponse(c, http.StatusOK, agencies, fmt.Sprintf("Found %d agencies", len(agencies)))
}

func (s *Server) handleSwitchAgency(c *gin.Context) {
	id := validation.Validated(c).String("id")
	switched, err := s.cfg.SwitchAgency(id)
	if err != nil {
		s.errorHandler.WriteGinError(c, errors.Wrap(err, errors.ErrCodeStorageFailure, "Failed to save configuration"))
		return
	}
	if !switched {
		s.errorHandler.WriteGinError(c, errors.UnknownAgencyError(id))
		return
	}
	s.writeResponse(c, http.StatusOK, s.cfg.Current(), fmt.Sprintf("Switched to agency '%s'", id))
}
