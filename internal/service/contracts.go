package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/renderer"
)

// ContractDraft is the input for previewing or generating a contract.
// Template wins over TemplateID; with neither the default template is used.
type ContractDraft struct {
	ClientID   string                `json:"clientId"`
	Titulo     string                `json:"titulo"`
	TemplateID string                `json:"templateId,omitempty"`
	Template   string                `json:"template,omitempty"`
	Params     models.ContractParams `json:"params"`
	Status     models.ContractStatus `json:"status,omitempty"`
}

// ListContracts returns every contract with client names refreshed from the
// current client records
func (s *Service) ListContracts(ctx context.Context) ([]*models.Contract, error) {
	contracts, err := s.store.ListContracts(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.RazaoSocial
	}
	for _, k := range contracts {
		if name, ok := names[k.ClientID]; ok {
			k.ClientName = name
		}
	}
	return contracts, nil
}

// ListContractsByClient returns the contracts of one client
func (s *Service) ListContractsByClient(ctx context.Context, clientID string) ([]*models.Contract, error) {
	contracts, err := s.ListContracts(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Contract
	for _, k := range contracts {
		if k.ClientID == clientID {
			out = append(out, k)
		}
	}
	if out == nil {
		out = []*models.Contract{}
	}
	return out, nil
}

func (s *Service) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	return s.store.GetContract(ctx, id)
}

func validateContract(k *models.Contract) error {
	if strings.TrimSpace(k.Titulo) == "" {
		return errors.ValidationError("título is required").WithContext("field", "titulo")
	}
	if k.ValorContrato < 0 {
		return errors.ValidationError("valor cannot be negative").WithContext("field", "valorContrato")
	}
	if k.DataFim != nil && k.DataFim.Before(k.DataInicio) {
		return errors.ValidationError("data fim is before data início").WithContext("field", "dataFim")
	}
	return nil
}

// CreateContract stores a contract as given. Conteudo is kept verbatim;
// use CreateContractFromTemplate to generate it.
func (s *Service) CreateContract(ctx context.Context, k *models.Contract) error {
	if k.Status == "" {
		k.Status = models.ContractPendente
	}
	if k.Recorrencia == "" {
		k.Recorrencia = models.RecurrenceMensal
	}
	if err := validateContract(k); err != nil {
		return err
	}
	if k.ID == "" {
		k.ID = newID()
	}
	k.ClientName = s.clientName(ctx, k.ClientID)
	k.CreatedAt = s.now()

	if err := s.store.CreateContract(ctx, k); err != nil {
		return err
	}
	s.log.Info("contract created", "id", k.ID, "client", k.ClientID)
	return nil
}

// UpdateContract replaces a contract. The stored client name is kept when the
// client no longer exists.
func (s *Service) UpdateContract(ctx context.Context, k *models.Contract) error {
	if err := validateContract(k); err != nil {
		return err
	}
	existing, err := s.store.GetContract(ctx, k.ID)
	if err != nil {
		return err
	}

	k.CreatedAt = existing.CreatedAt
	k.ClientName = existing.ClientName
	if name := s.clientName(ctx, k.ClientID); name != models.UnknownClientName {
		k.ClientName = name
	}
	return s.store.UpdateContract(ctx, k)
}

func (s *Service) DeleteContract(ctx context.Context, id string) error {
	return s.store.DeleteContract(ctx, id)
}

// templateText picks the template body for a draft
func (s *Service) templateText(ctx context.Context, d *ContractDraft) (string, error) {
	if d.Template != "" {
		return d.Template, nil
	}
	id := d.TemplateID
	if id == "" {
		id = models.DefaultTemplateID
	}
	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return "", err
	}
	return tmpl.Content, nil
}

// withDefaults fills the params the configuration can supply
func (s *Service) withDefaults(p models.ContractParams) models.ContractParams {
	if p.Cidade == "" {
		p.Cidade = s.opts.DefaultCity
	}
	if p.DataInicio.IsZero() {
		p.DataInicio = s.now()
	}
	if p.Recorrencia == "" {
		p.Recorrencia = models.RecurrenceMensal
	}
	return p
}

// PreviewContract fills a template for the draft without storing anything.
// A missing client is not an error: its placeholders fall back to labels.
func (s *Service) PreviewContract(ctx context.Context, d *ContractDraft) (*renderer.FilledContract, error) {
	text, err := s.templateText(ctx, d)
	if err != nil {
		return nil, err
	}

	var client *models.Client
	if d.ClientID != "" {
		client, err = s.store.GetClient(ctx, d.ClientID)
		if err != nil {
			if !errors.HasCode(err, errors.ErrCodeNotFound) {
				return nil, err
			}
			client = nil
		}
	}
	return s.renderer.Render(text, client, s.withDefaults(d.Params)), nil
}

// CreateContractFromTemplate fills the template once and stores the result.
// Later template edits do not touch the stored text.
func (s *Service) CreateContractFromTemplate(ctx context.Context, d *ContractDraft) (*models.Contract, error) {
	draft := *d
	draft.Params = s.withDefaults(d.Params)
	params := draft.Params

	filled, err := s.PreviewContract(ctx, &draft)
	if err != nil {
		return nil, err
	}

	titulo := d.Titulo
	if titulo == "" {
		titulo = fmt.Sprintf("Contrato %s", renderer.LongDate(params.DataInicio))
	}

	k := &models.Contract{
		ClientID:      d.ClientID,
		Titulo:        titulo,
		ValorContrato: params.ValorContrato,
		Recorrencia:   params.Recorrencia,
		DataInicio:    params.DataInicio,
		DataFim:       params.DataFim,
		Status:        d.Status,
		Conteudo:      filled.Content,
	}
	if err := s.CreateContract(ctx, k); err != nil {
		return nil, err
	}
	if len(filled.Unresolved) > 0 {
		s.log.Warn("contract generated with unknown placeholders", "id", k.ID, "tokens", filled.Unresolved)
	}
	return k, nil
}

// ActiveContracts returns the contracts in force at the service clock
func (s *Service) ActiveContracts(ctx context.Context) ([]*models.Contract, error) {
	contracts, err := s.ListContracts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []*models.Contract{}
	for _, k := range contracts {
		if k.IsActive(now) {
			out = append(out, k)
		}
	}
	return out, nil
}
