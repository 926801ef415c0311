package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/renderer"
)

// ListTemplates returns the contract templates ordered by name, seeding the
// default template first when the store has none
func (s *Service) ListTemplates(ctx context.Context) ([]*models.ContractTemplate, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if len(templates) > 0 {
		return templates, nil
	}

	tmpl, err := s.EnsureDefaultTemplate(ctx)
	if err != nil {
		return nil, err
	}
	return []*models.ContractTemplate{tmpl}, nil
}

// GetTemplate returns a template by id. The default template is recreated on
// demand if it was deleted.
func (s *Service) GetTemplate(ctx context.Context, id string) (*models.ContractTemplate, error) {
	tmpl, err := s.store.GetTemplate(ctx, id)
	if err == nil {
		return tmpl, nil
	}
	if id == models.DefaultTemplateID && errors.HasCode(err, errors.ErrCodeNotFound) {
		return s.EnsureDefaultTemplate(ctx)
	}
	return nil, err
}

// EnsureDefaultTemplate stores the built-in template unless it already exists
func (s *Service) EnsureDefaultTemplate(ctx context.Context) (*models.ContractTemplate, error) {
	tmpl, err := s.store.GetTemplate(ctx, models.DefaultTemplateID)
	if err == nil {
		return tmpl, nil
	}
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	tmpl = models.NewDefaultTemplate(s.now())
	if err := s.store.SaveTemplate(ctx, tmpl); err != nil {
		return nil, err
	}
	s.log.Info("default template seeded", "store", s.store.Name())
	return tmpl, nil
}

// SaveTemplate creates or replaces a template. A missing id is derived from
// the name.
func (s *Service) SaveTemplate(ctx context.Context, t *models.ContractTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.ValidationError("template name is required").WithContext("field", "name")
	}
	if strings.TrimSpace(t.Content) == "" {
		return errors.TemplateError("Template content is empty").WithContext("id", t.ID)
	}
	if t.ID == "" {
		t.ID = slugify(t.Name)
	}

	now := s.now()
	t.UpdatedAt = now
	if existing, err := s.store.GetTemplate(ctx, t.ID); err == nil {
		t.CreatedAt = existing.CreatedAt
	} else if errors.HasCode(err, errors.ErrCodeNotFound) {
		t.CreatedAt = now
	} else {
		return err
	}

	if unknown := renderer.UnknownTokens(t.Content); len(unknown) > 0 {
		s.log.Warn("template has unknown placeholders", "id", t.ID, "tokens", unknown)
	}
	return s.store.SaveTemplate(ctx, t)
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

// Placeholders returns the catalog of supported template tokens
func (s *Service) Placeholders() []renderer.PlaceholderInfo {
	return renderer.Placeholders()
}

var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e", "í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u", "ç", "c",
)

// slugify turns a template name into a file-safe id: "Contrato Anual" -> "contrato-anual"
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range accents.Replace(strings.ToLower(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return newID()
	}
	return slug
}
