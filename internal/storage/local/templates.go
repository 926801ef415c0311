package local

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
)

var templateIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func templateRelPath(id string) string {
	return filepath.Join(templatesDir, id+".md")
}

// loadTemplate loads a template from a markdown file with YAML frontmatter
func (s *Store) loadTemplate(relPath string) (*models.ContractTemplate, error) {
	fullPath := filepath.Join(s.rootPath, relPath)

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	tmpl, err := parseTemplateFile(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	tmpl.FilePath = relPath
	return tmpl, nil
}

// ListTemplates returns every template in the agency, without content for
// entries served from the metadata cache
func (s *Store) ListTemplates(_ context.Context) ([]*models.ContractTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.rootPath, templatesDir)
	templates := []*models.ContractTemplate{}
	existingFiles := make(map[string]bool)
	cacheModified := false

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		relPath, _ := filepath.Rel(s.rootPath, path)
		existingFiles[relPath] = true

		if cached, valid := s.cache.Get(relPath, info); valid {
			templates = append(templates, cached.ToTemplate())
			return nil
		}

		tmpl, err := s.loadTemplate(relPath)
		if err != nil {
			s.log.Warn("skipping unreadable template", "path", relPath, "error", err)
			return nil
		}
		s.cache.Set(relPath, info, tmpl)
		cacheModified = true
		templates = append(templates, tmpl)
		return nil
	})

	if s.cache.Cleanup(existingFiles) {
		cacheModified = true
	}
	if cacheModified {
		if err := s.cache.Save(); err != nil {
			s.log.Warn("failed to save template metadata cache", "error", err)
		}
	}
	if err != nil {
		return nil, errors.StorageError("list templates", err)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}

// GetTemplate loads a template with its content
func (s *Store) GetTemplate(_ context.Context, id string) (*models.ContractTemplate, error) {
	if !templateIDPattern.MatchString(id) {
		return nil, errors.NotFoundError("template").WithContext("id", id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	relPath := templateRelPath(id)
	if _, err := os.Stat(filepath.Join(s.rootPath, relPath)); os.IsNotExist(err) {
		return nil, errors.NotFoundError("template").WithContext("id", id)
	}
	tmpl, err := s.loadTemplate(relPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileCorrupted, "Failed to load template").WithContext("id", id)
	}
	return tmpl, nil
}

// SaveTemplate creates or replaces the template file
func (s *Store) SaveTemplate(_ context.Context, t *models.ContractTemplate) error {
	if !templateIDPattern.MatchString(t.ID) {
		return errors.TemplateError("Invalid template id").WithContext("id", t.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.FilePath = templateRelPath(t.ID)
	fullPath := filepath.Join(s.rootPath, t.FilePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.StorageError("save template", err)
	}

	content, err := serializeTemplate(t)
	if err != nil {
		return errors.StorageError("save template", err)
	}
	if err := writeFileAtomic(fullPath, content); err != nil {
		return errors.StorageError("save template", err)
	}
	return nil
}

// DeleteTemplate removes the template file
func (s *Store) DeleteTemplate(_ context.Context, id string) error {
	if !templateIDPattern.MatchString(id) {
		return errors.NotFoundError("template").WithContext("id", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fullPath := filepath.Join(s.rootPath, templateRelPath(id))
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFoundError("template").WithContext("id", id)
		}
		return errors.StorageError("delete template", err)
	}
	return nil
}

func parseTemplateFile(content []byte) (*models.ContractTemplate, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() || scanner.Text() != "---" {
		return nil, fmt.Errorf("missing frontmatter delimiter")
	}

	var frontmatterLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			closed = true
			break
		}
		frontmatterLines = append(frontmatterLines, line)
	}
	if !closed {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	var tmpl models.ContractTemplate
	if err := yaml.Unmarshal([]byte(strings.Join(frontmatterLines, "\n")), &tmpl); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	var contentLines []string
	for scanner.Scan() {
		contentLines = append(contentLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// serializeTemplate adds one blank line after the frontmatter and a final newline
	body := strings.Join(contentLines, "\n")
	tmpl.Content = strings.TrimPrefix(body, "\n")
	return &tmpl, nil
}

// serializeTemplate converts a template to YAML frontmatter + content
func serializeTemplate(t *models.ContractTemplate) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")

	if t.Content != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Content)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
