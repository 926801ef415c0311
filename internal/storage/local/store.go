// Package local implements storage.Store on the local filesystem.
//
// Each agency gets its own directory:
//
//	<dir>/clients.json
//	<dir>/contracts.json
//	<dir>/transactions.json
//	<dir>/demands.json
//	<dir>/templates/<id>.md        markdown with YAML frontmatter
//	<dir>/.cache/templates.json    template metadata cache
//
// Collections are rewritten atomically (temp file + rename) on every change.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/storage"
)

const (
	clientsFile      = "clients.json"
	contractsFile    = "contracts.json"
	transactionsFile = "transactions.json"
	demandsFile      = "demands.json"
	templatesDir     = "templates"
)

var _ storage.Store = (*Store)(nil)

// Store is a file-backed store for one agency. It is safe for concurrent use
// within a process; separate processes writing the same directory may race.
type Store struct {
	rootPath string
	agency   string
	cache    *MetadataCache
	log      *logger.Logger

	mu sync.RWMutex
}

// New opens (and creates when missing) the store rooted at rootPath
func New(rootPath, agency string, log *logger.Logger) (*Store, error) {
	s := &Store{
		rootPath: rootPath,
		agency:   agency,
		log:      logger.OrNop(log).With("component", "storage.local", "agency", agency),
	}
	if err := s.init(); err != nil {
		return nil, err
	}

	s.cache = NewMetadataCache(rootPath)
	if err := s.cache.Load(); err != nil {
		// cache is optional
		s.log.Warn("failed to load template metadata cache", "error", err)
	}
	return s, nil
}

func (s *Store) init() error {
	dirs := []string{
		s.rootPath,
		filepath.Join(s.rootPath, templatesDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (s *Store) Name() string { return "local:" + s.agency }

// RootPath returns the agency directory
func (s *Store) RootPath() string { return s.rootPath }

func (s *Store) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Save()
}

func readCollection[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []*T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []*T{}, nil
	}

	var items []*T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileCorrupted, "Failed to parse "+filepath.Base(path))
	}
	if items == nil {
		items = []*T{}
	}
	return items, nil
}

func writeCollection[T any](path string, items []*T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func indexOf[T any](items []*T, id string, idOf func(*T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}

// newestFirst sorts by creation time, descending
func newestFirst[T any](items []*T, createdAt func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

// collection describes one JSON file of records
type collection[T any] struct {
	file      string
	resource  string
	idOf      func(*T) string
	createdAt func(*T) time.Time
}

func (c collection[T]) path(s *Store) string {
	return filepath.Join(s.rootPath, c.file)
}

func (c collection[T]) list(s *Store) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := readCollection[T](c.path(s))
	if err != nil {
		return nil, errors.StorageError("list "+c.resource, err)
	}
	newestFirst(items, c.createdAt)
	return items, nil
}

func (c collection[T]) get(s *Store, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := readCollection[T](c.path(s))
	if err != nil {
		return nil, errors.StorageError("get "+c.resource, err)
	}
	i := indexOf(items, id, c.idOf)
	if i < 0 {
		return nil, errors.NotFoundError(c.resource).WithContext("id", id)
	}
	return items[i], nil
}

// mutate loads the collection, applies fn and writes the result back
func (c collection[T]) mutate(s *Store, op string, fn func(items []*T) ([]*T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[T](c.path(s))
	if err != nil {
		return errors.StorageError(op+" "+c.resource, err)
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	if err := writeCollection(c.path(s), items); err != nil {
		return errors.StorageError(op+" "+c.resource, err)
	}
	s.log.Debug("collection written", "op", op, "resource", c.resource, "count", len(items))
	return nil
}

func (c collection[T]) create(s *Store, item *T) error {
	return c.mutate(s, "create", func(items []*T) ([]*T, error) {
		id := c.idOf(item)
		if indexOf(items, id, c.idOf) >= 0 {
			return nil, errors.AlreadyExistsError(c.resource).WithContext("id", id)
		}
		return append(items, item), nil
	})
}

func (c collection[T]) update(s *Store, item *T) error {
	return c.mutate(s, "update", func(items []*T) ([]*T, error) {
		id := c.idOf(item)
		i := indexOf(items, id, c.idOf)
		if i < 0 {
			return nil, errors.NotFoundError(c.resource).WithContext("id", id)
		}
		items[i] = item
		return items, nil
	})
}

func (c collection[T]) delete(s *Store, id string) error {
	return c.mutate(s, "delete", func(items []*T) ([]*T, error) {
		i := indexOf(items, id, c.idOf)
		if i < 0 {
			return nil, errors.NotFoundError(c.resource).WithContext("id", id)
		}
		return append(items[:i], items[i+1:]...), nil
	})
}

var (
	clients = collection[models.Client]{
		file:      clientsFile,
		resource:  "client",
		idOf:      func(c *models.Client) string { return c.ID },
		createdAt: func(c *models.Client) time.Time { return c.CreatedAt },
	}
	contracts = collection[models.Contract]{
		file:      contractsFile,
		resource:  "contract",
		idOf:      func(c *models.Contract) string { return c.ID },
		createdAt: func(c *models.Contract) time.Time { return c.CreatedAt },
	}
	transactions = collection[models.Transaction]{
		file:      transactionsFile,
		resource:  "transaction",
		idOf:      func(t *models.Transaction) string { return t.ID },
		createdAt: func(t *models.Transaction) time.Time { return t.CreatedAt },
	}
	demands = collection[models.Demand]{
		file:      demandsFile,
		resource:  "demand",
		idOf:      func(d *models.Demand) string { return d.ID },
		createdAt: func(d *models.Demand) time.Time { return d.CreatedAt },
	}
)

func (s *Store) ListClients(_ context.Context) ([]*models.Client, error) {
	return clients.list(s)
}

func (s *Store) GetClient(_ context.Context, id string) (*models.Client, error) {
	return clients.get(s, id)
}

func (s *Store) CreateClient(_ context.Context, c *models.Client) error {
	return clients.create(s, c)
}

func (s *Store) UpdateClient(_ context.Context, c *models.Client) error {
	return clients.update(s, c)
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	return clients.delete(s, id)
}

func (s *Store) ListContracts(_ context.Context) ([]*models.Contract, error) {
	return contracts.list(s)
}

func (s *Store) GetContract(_ context.Context, id string) (*models.Contract, error) {
	return contracts.get(s, id)
}

func (s *Store) CreateContract(_ context.Context, c *models.Contract) error {
	return contracts.create(s, c)
}

func (s *Store) UpdateContract(_ context.Context, c *models.Contract) error {
	return contracts.update(s, c)
}

func (s *Store) DeleteContract(_ context.Context, id string) error {
	return contracts.delete(s, id)
}

func (s *Store) ListTransactions(_ context.Context) ([]*models.Transaction, error) {
	return transactions.list(s)
}

func (s *Store) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	return transactions.get(s, id)
}

func (s *Store) CreateTransaction(_ context.Context, t *models.Transaction) error {
	return transactions.create(s, t)
}

func (s *Store) UpdateTransaction(_ context.Context, t *models.Transaction) error {
	return transactions.update(s, t)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	return transactions.delete(s, id)
}

// ListDemands returns demands with legacy status and priority values normalised
func (s *Store) ListDemands(_ context.Context) ([]*models.Demand, error) {
	items, err := demands.list(s)
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		d.Normalize()
	}
	return items, nil
}

func (s *Store) GetDemand(_ context.Context, id string) (*models.Demand, error) {
	d, err := demands.get(s, id)
	if err != nil {
		return nil, err
	}
	d.Normalize()
	return d, nil
}

func (s *Store) CreateDemand(_ context.Context, d *models.Demand) error {
	return demands.create(s, d)
}

func (s *Store) UpdateDemand(_ context.Context, d *models.Demand) error {
	return demands.update(s, d)
}

func (s *Store) DeleteDemand(_ context.Context, id string) error {
	return demands.delete(s, id)
}
