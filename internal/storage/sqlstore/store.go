// Package sqlstore implements storage.Store on a SQL database through gorm.
// Both postgres and sqlite are supported; sqlite is mostly used in tests and
// single-machine setups.
package sqlstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/storage"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// Open connects to the database and migrates the schema
func Open(driver, dsn string, baseLog *logger.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return New(db, driver, baseLog)
}

// New wraps an open gorm connection and migrates the schema
func New(db *gorm.DB, driver string, baseLog *logger.Logger) (*Store, error) {
	s := &Store{
		db:     db,
		driver: driver,
		log:    logger.OrNop(baseLog).With("component", "storage.sql", "driver", driver),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&clientRow{},
		&contractRow{},
		&transactionRow{},
		&demandRow{},
		&taskRow{},
		&templateRow{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "sql:" + s.driver }

// DB exposes the connection for maintenance tools
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto AppErrors
func (s *Store) translate(err error, op, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFoundError(resource).WithContext("id", id)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.AlreadyExistsError(resource).WithContext("id", id)
	default:
		s.log.Error("query failed", "op", op, "resource", resource, "id", id, "error", err)
		return errors.DatabaseError(op+" "+resource, err)
	}
}

func (s *Store) get(ctx context.Context, dest interface{}, resource, id string) error {
	return s.translate(s.db.WithContext(ctx).First(dest, "id = ?", id).Error, "get", resource, id)
}

func (s *Store) create(ctx context.Context, row interface{}, resource, id string) error {
	return s.translate(s.db.WithContext(ctx).Create(row).Error, "create", resource, id)
}

func (s *Store) update(ctx context.Context, model, row interface{}, resource, id string) error {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Select("*").Updates(row)
	if res.Error != nil {
		return s.translate(res.Error, "update", resource, id)
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundError(resource).WithContext("id", id)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, model interface{}, resource, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return s.translate(res.Error, "delete", resource, id)
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundError(resource).WithContext("id", id)
	}
	return nil
}

// Clients

func (s *Store) ListClients(ctx context.Context) ([]*models.Client, error) {
	var rows []*clientRow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, s.translate(err, "list", "client", "")
	}
	out := make([]*models.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var row clientRow
	if err := s.get(ctx, &row, "client", id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return s.create(ctx, clientToRow(c), "client", c.ID)
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	return s.update(ctx, &clientRow{}, clientToRow(c), "client", c.ID)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.delete(ctx, &clientRow{}, "client", id)
}

// Contracts

func (s *Store) ListContracts(ctx context.Context) ([]*models.Contract, error) {
	var rows []*contractRow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, s.translate(err, "list", "contract", "")
	}
	out := make([]*models.Contract, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	var row contractRow
	if err := s.get(ctx, &row, "contract", id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

func (s *Store) CreateContract(ctx context.Context, c *models.Contract) error {
	return s.create(ctx, contractToRow(c), "contract", c.ID)
}

func (s *Store) UpdateContract(ctx context.Context, c *models.Contract) error {
	return s.update(ctx, &contractRow{}, contractToRow(c), "contract", c.ID)
}

func (s *Store) DeleteContract(ctx context.Context, id string) error {
	return s.delete(ctx, &contractRow{}, "contract", id)
}

// Transactions

func (s *Store) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	var rows []*transactionRow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, s.translate(err, "list", "transaction", "")
	}
	out := make([]*models.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var row transactionRow
	if err := s.get(ctx, &row, "transaction", id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.create(ctx, transactionToRow(t), "transaction", t.ID)
}

func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.update(ctx, &transactionRow{}, transactionToRow(t), "transaction", t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.delete(ctx, &transactionRow{}, "transaction", id)
}

// Demands

func orderedTasks(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (s *Store) ListDemands(ctx context.Context) ([]*models.Demand, error) {
	var rows []*demandRow
	err := s.db.WithContext(ctx).
		Preload("Tasks", orderedTasks).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, s.translate(err, "list", "demand", "")
	}
	out := make([]*models.Demand, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) GetDemand(ctx context.Context, id string) (*models.Demand, error) {
	var row demandRow
	err := s.db.WithContext(ctx).Preload("Tasks", orderedTasks).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, s.translate(err, "get", "demand", id)
	}
	return row.model(), nil
}

func (s *Store) CreateDemand(ctx context.Context, d *models.Demand) error {
	row := demandToRow(d)
	return s.translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	}), "create", "demand", d.ID)
}

// UpdateDemand replaces the demand and its whole checklist
func (s *Store) UpdateDemand(ctx context.Context, d *models.Demand) error {
	row := demandToRow(d)
	tasks := row.Tasks
	row.Tasks = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&demandRow{}).Where("id = ?", d.ID).Select("*").Omit("Tasks").Updates(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("demand_id = ?", d.ID).Delete(&taskRow{}).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		return tx.Create(&tasks).Error
	})
	return s.translate(err, "update", "demand", d.ID)
}

func (s *Store) DeleteDemand(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("demand_id = ?", id).Delete(&taskRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&demandRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return s.translate(err, "delete", "demand", id)
}

// Templates

func (s *Store) ListTemplates(ctx context.Context) ([]*models.ContractTemplate, error) {
	var rows []*templateRow
	if err := s.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, s.translate(err, "list", "template", "")
	}
	out := make([]*models.ContractTemplate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*models.ContractTemplate, error) {
	var row templateRow
	if err := s.get(ctx, &row, "template", id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// SaveTemplate inserts or replaces a template
func (s *Store) SaveTemplate(ctx context.Context, t *models.ContractTemplate) error {
	return s.translate(s.db.WithContext(ctx).Save(templateToRow(t)).Error, "save", "template", t.ID)
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.delete(ctx, &templateRow{}, "template", id)
}
