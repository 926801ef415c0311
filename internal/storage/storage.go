// Package storage defines the record repositories used by the service layer.
//
// Two backends implement Store: storage/local keeps each agency's records in
// files on this device, storage/sqlstore keeps them in a shared SQL database.
// Router picks between them per call from the session carried in the context.
//
// Every repository follows the same contract:
//   - Get and Delete on a missing id return an errors.ErrCodeNotFound AppError
//   - Create on an existing id returns errors.ErrCodeAlreadyExists
//   - Update on a missing id returns errors.ErrCodeNotFound
//   - List returns newest first and never nil
package storage

import (
	"context"

	"github.com/dpshade/pocket-crm/internal/models"
)

type ClientRepo interface {
	ListClients(ctx context.Context) ([]*models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error
	DeleteClient(ctx context.Context, id string) error
}

type ContractRepo interface {
	ListContracts(ctx context.Context) ([]*models.Contract, error)
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	CreateContract(ctx context.Context, c *models.Contract) error
	UpdateContract(ctx context.Context, c *models.Contract) error
	DeleteContract(ctx context.Context, id string) error
}

type TransactionRepo interface {
	ListTransactions(ctx context.Context) ([]*models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// DemandRepo stores demands together with their task checklists
type DemandRepo interface {
	ListDemands(ctx context.Context) ([]*models.Demand, error)
	GetDemand(ctx context.Context, id string) (*models.Demand, error)
	CreateDemand(ctx context.Context, d *models.Demand) error
	UpdateDemand(ctx context.Context, d *models.Demand) error
	DeleteDemand(ctx context.Context, id string) error
}

// TemplateRepo stores contract templates. List is ordered by name.
type TemplateRepo interface {
	ListTemplates(ctx context.Context) ([]*models.ContractTemplate, error)
	GetTemplate(ctx context.Context, id string) (*models.ContractTemplate, error)
	SaveTemplate(ctx context.Context, t *models.ContractTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
}

// Store bundles every repository of one backend
type Store interface {
	ClientRepo
	ContractRepo
	TransactionRepo
	DemandRepo
	TemplateRepo
	// Name identifies the backend in logs, e.g. "local:clabs" or "sql:postgres"
	Name() string
	Close() error
}
