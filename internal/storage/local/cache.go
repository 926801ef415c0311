package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dpshade/pocket-crm/internal/models"
)

// TemplateMetadata is the cached frontmatter of a template file
type TemplateMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FilePath    string    `json:"file_path"`
	ModTime     time.Time `json:"mod_time"`
	Size        int64     `json:"size"`
}

// MetadataCache keeps template frontmatter keyed by relative path.
// An entry is valid while the file's modtime and size are unchanged.
type MetadataCache struct {
	cacheDir  string
	cacheFile string
	metadata  map[string]*TemplateMetadata
	mu        sync.RWMutex
}

// NewMetadataCache creates a cache stored under baseDir/.cache
func NewMetadataCache(baseDir string) *MetadataCache {
	cacheDir := filepath.Join(baseDir, ".cache")
	return &MetadataCache{
		cacheDir:  cacheDir,
		cacheFile: filepath.Join(cacheDir, "templates.json"),
		metadata:  make(map[string]*TemplateMetadata),
	}
}

// Load reads the cache from disk. A corrupted file starts an empty cache.
func (c *MetadataCache) Load() error {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := os.ReadFile(c.cacheFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := json.Unmarshal(data, &c.metadata); err != nil || c.metadata == nil {
		c.metadata = make(map[string]*TemplateMetadata)
	}
	return nil
}

// Save writes the cache to disk
func (c *MetadataCache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.metadata, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := writeFileAtomic(c.cacheFile, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Get returns the cached metadata if the file is unchanged
func (c *MetadataCache) Get(relPath string, info os.FileInfo) (*TemplateMetadata, bool) {
	c.mu.RLock()
	cached, exists := c.metadata[relPath]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}
	if !info.ModTime().Equal(cached.ModTime) || info.Size() != cached.Size {
		return nil, false
	}
	return cached, true
}

// Set stores the template's metadata
func (c *MetadataCache) Set(relPath string, info os.FileInfo, t *models.ContractTemplate) {
	c.mu.Lock()
	c.metadata[relPath] = &TemplateMetadata{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		FilePath:    relPath,
		ModTime:     info.ModTime(),
		Size:        info.Size(),
	}
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metadata)
}

// Cleanup drops entries for files that no longer exist and reports whether any were dropped
func (c *MetadataCache) Cleanup(existingFiles map[string]bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := false
	for relPath := range c.metadata {
		if !existingFiles[relPath] {
			delete(c.metadata, relPath)
			removed = true
		}
	}
	return removed
}

// ToTemplate converts cached metadata back to a template without content
func (m *TemplateMetadata) ToTemplate() *models.ContractTemplate {
	return &models.ContractTemplate{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		FilePath:    m.FilePath,
	}
}
