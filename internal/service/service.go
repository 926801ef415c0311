// Package service holds the CRM business logic on top of a storage.Store.
//
// Every method takes the caller's context; the store (normally a
// storage.Router) reads the session from it to pick the backend.
package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/renderer"
	"github.com/dpshade/pocket-crm/internal/storage"
)

// Options tunes a Service. Zero values fall back to the config defaults.
type Options struct {
	RevenueGoal float64
	DefaultCity string
	// Now is the service clock; nil means time.Now
	Now func() time.Time
	Log *logger.Logger
}

// OptionsFromConfig copies the business settings out of cfg
func OptionsFromConfig(cfg *config.Config, log *logger.Logger) Options {
	return Options{
		RevenueGoal: cfg.RevenueGoal,
		DefaultCity: cfg.DefaultCity,
		Log:         log,
	}
}

// Service provides business logic for clients, contracts, finances and demands
type Service struct {
	store    storage.Store
	renderer *renderer.Renderer
	opts     Options
	now      func() time.Time
	log      *logger.Logger
}

// NewService creates a new service instance
func NewService(store storage.Store, opts Options) *Service {
	if opts.RevenueGoal <= 0 {
		opts.RevenueGoal = config.DefaultRevenueGoal
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		store:    store,
		renderer: renderer.NewRenderer(now),
		opts:     opts,
		now:      now,
		log:      logger.OrNop(opts.Log).With("component", "service"),
	}
}

// Store returns the underlying store
func (s *Service) Store() storage.Store {
	return s.store
}

// Renderer returns the template renderer bound to the service clock
func (s *Service) Renderer() *renderer.Renderer {
	return s.renderer
}

// RevenueGoal is the monthly revenue target shown on the dashboard
func (s *Service) RevenueGoal() float64 {
	return s.opts.RevenueGoal
}

func newID() string {
	return uuid.NewString()
}
