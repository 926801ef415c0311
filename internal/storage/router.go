package storage

import (
	"context"
	"sync"

	apperrors "github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/session"
)

// LocalOpener opens the device-local store of an agency
type LocalOpener func(agencyID string) (Store, error)

// Router is a Store that sends each call to the remote store or to the
// session agency's local store. A session with a user on a shared agency goes
// remote; anything else, including a missing session, stays local. When no
// remote store is configured every call stays local.
type Router struct {
	remote        Store
	openLocal     LocalOpener
	defaultAgency string
	log           *logger.Logger

	mu     sync.Mutex
	locals map[string]Store
}

// NewRouter creates a router. remote may be nil.
func NewRouter(remote Store, openLocal LocalOpener, defaultAgency string, log *logger.Logger) *Router {
	return &Router{
		remote:        remote,
		openLocal:     openLocal,
		defaultAgency: defaultAgency,
		log:           logger.OrNop(log).With("component", "storage.router"),
		locals:        make(map[string]Store),
	}
}

// For returns the backend serving ctx
func (r *Router) For(ctx context.Context) (Store, error) {
	s := session.FromContext(ctx)
	if r.remote != nil && s.UsesRemote() {
		return r.remote, nil
	}

	agencyID := r.defaultAgency
	if s != nil && s.AgencyID != "" {
		agencyID = s.AgencyID
	}
	return r.local(agencyID)
}

// Mode reports "remote" or "local" for ctx
func (r *Router) Mode(ctx context.Context) string {
	if r.remote != nil && session.FromContext(ctx).UsesRemote() {
		return "remote"
	}
	return "local"
}

// Local returns the local store of an agency regardless of session
func (r *Router) Local(agencyID string) (Store, error) {
	return r.local(agencyID)
}

// Remote returns the remote store, or nil when none is configured
func (r *Router) Remote() Store {
	return r.remote
}

func (r *Router) local(agencyID string) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.locals[agencyID]; ok {
		return st, nil
	}
	st, err := r.openLocal(agencyID)
	if err != nil {
		return nil, apperrors.StorageError("open local store", err).WithContext("agency", agencyID)
	}
	r.log.Debug("opened local store", "agency", agencyID, "store", st.Name())
	r.locals[agencyID] = st
	return st, nil
}

func (r *Router) Name() string { return "router" }

// Close closes the remote store and every opened local store
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, st := range r.locals {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.locals, id)
	}
	if r.remote != nil {
		if err := r.remote.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Clients

func (r *Router) ListClients(ctx context.Context) ([]*models.Client, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListClients(ctx)
}

func (r *Router) GetClient(ctx context.Context, id string) (*models.Client, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetClient(ctx, id)
}

func (r *Router) CreateClient(ctx context.Context, c *models.Client) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.CreateClient(ctx, c)
}

func (r *Router) UpdateClient(ctx context.Context, c *models.Client) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.UpdateClient(ctx, c)
}

func (r *Router) DeleteClient(ctx context.Context, id string) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.DeleteClient(ctx, id)
}

// Contracts

func (r *Router) ListContracts(ctx context.Context) ([]*models.Contract, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListContracts(ctx)
}

func (r *Router) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetContract(ctx, id)
}

func (r *Router) CreateContract(ctx context.Context, c *models.Contract) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.CreateContract(ctx, c)
}

func (r *Router) UpdateContract(ctx context.Context, c *models.Contract) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.UpdateContract(ctx, c)
}

func (r *Router) DeleteContract(ctx context.Context, id string) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.DeleteContract(ctx, id)
}

// Transactions

func (r *Router) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListTransactions(ctx)
}

func (r *Router) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetTransaction(ctx, id)
}

func (r *Router) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.CreateTransaction(ctx, t)
}

func (r *Router) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.UpdateTransaction(ctx, t)
}

func (r *Router) DeleteTransaction(ctx context.Context, id string) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.DeleteTransaction(ctx, id)
}

// Demands

func (r *Router) ListDemands(ctx context.Context) ([]*models.Demand, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListDemands(ctx)
}

func (r *Router) GetDemand(ctx context.Context, id string) (*models.Demand, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetDemand(ctx, id)
}

func (r *Router) CreateDemand(ctx context.Context, d *models.Demand) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.CreateDemand(ctx, d)
}

func (r *Router) UpdateDemand(ctx context.Context, d *models.Demand) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.UpdateDemand(ctx, d)
}

func (r *Router) DeleteDemand(ctx context.Context, id string) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.DeleteDemand(ctx, id)
}

// Templates

func (r *Router) ListTemplates(ctx context.Context) ([]*models.ContractTemplate, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListTemplates(ctx)
}

func (r *Router) GetTemplate(ctx context.Context, id string) (*models.ContractTemplate, error) {
	st, err := r.For(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetTemplate(ctx, id)
}

func (r *Router) SaveTemplate(ctx context.Context, t *models.ContractTemplate) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.SaveTemplate(ctx, t)
}

func (r *Router) DeleteTemplate(ctx context.Context, id string) error {
	st, err := r.For(ctx)
	if err != nil {
		return err
	}
	return st.DeleteTemplate(ctx, id)
}
