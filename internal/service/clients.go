package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
)

// ListClients returns every client, newest first
func (s *Service) ListClients(ctx context.Context) ([]*models.Client, error) {
	return s.store.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return s.store.GetClient(ctx, id)
}

// SearchClients fuzzy-matches query against name, CNPJ, responsible and contact.
// An empty query returns every client.
func (s *Service) SearchClients(ctx context.Context, query string) ([]*models.Client, error) {
	clients, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return clients, nil
	}

	searchStrings := make([]string, 0, len(clients))
	for _, c := range clients {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s %s",
			c.RazaoSocial,
			c.CNPJ,
			c.Responsavel,
			c.ContatoInterno))
	}

	matches := fuzzy.Find(query, searchStrings)

	results := make([]*models.Client, 0, len(matches))
	for _, match := range matches {
		results = append(results, clients[match.Index])
	}
	return results, nil
}

func validateClient(c *models.Client) error {
	if strings.TrimSpace(c.RazaoSocial) == "" {
		return errors.ValidationError("razão social is required").WithContext("field", "razaoSocial")
	}
	if c.ValorPago < 0 {
		return errors.ValidationError("valor pago cannot be negative").WithContext("field", "valorPago")
	}
	for _, r := range models.ClientRecurrences {
		if c.Recorrencia == r {
			return nil
		}
	}
	return errors.ValidationError(fmt.Sprintf("invalid recorrência %q", c.Recorrencia)).
		WithContext("field", "recorrencia")
}

// CreateClient assigns an id and creation time, then stores the client
func (s *Service) CreateClient(ctx context.Context, c *models.Client) error {
	if c.Recorrencia == "" {
		c.Recorrencia = models.ClientMensal
	}
	if err := validateClient(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt = s.now()

	if err := s.store.CreateClient(ctx, c); err != nil {
		return err
	}
	s.log.Info("client created", "id", c.ID)
	return nil
}

// UpdateClient replaces a client, keeping its original creation time
func (s *Service) UpdateClient(ctx context.Context, c *models.Client) error {
	if err := validateClient(c); err != nil {
		return err
	}
	existing, err := s.store.GetClient(ctx, c.ID)
	if err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	return s.store.UpdateClient(ctx, c)
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.log.Info("client deleted", "id", id)
	return nil
}

// MonthlyRevenue sums every client's fee normalised to one month
func (s *Service) MonthlyRevenue(ctx context.Context) (float64, error) {
	clients, err := s.ListClients(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, c := range clients {
		total += c.MonthlyValue()
	}
	return total, nil
}

// clientName resolves a client id for display, or "" when the id is empty
func (s *Service) clientName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	c, err := s.store.GetClient(ctx, id)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeNotFound) {
			s.log.Warn("client lookup failed", "id", id, "error", err)
		}
		return models.UnknownClientName
	}
	return c.RazaoSocial
}
