package commands

import (
	"context"

	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/validation"
)

// DraftFromParams builds a contract draft from fill_template/create_contract parameters
func DraftFromParams(params validation.Params) *service.ContractDraft {
	return &service.ContractDraft{
		ClientID:   params.String("client_id"),
		Titulo:     params.String("titulo"),
		TemplateID: params.String("template_id"),
		Template:   params.String("template"),
		Status:     models.ContractStatus(params.String("status")),
		Params: models.ContractParams{
			ValorContrato: params.Float("valor"),
			Recorrencia:   models.Recurrence(params.String("recorrencia")),
			DataInicio:    params.Time("data_inicio"),
			DataFim:       params.TimePtr("data_fim"),
			Servico:       params.String("servico"),
			DiaVencimento: params.Int("dia_vencimento"),
			Cidade:        params.String("cidade"),
		},
	}
}

// ListContractsCommand lists contracts, optionally for one client or status
type ListContractsCommand struct {
	serviceCommand
	ClientID string
	Status   models.ContractStatus
}

func (c *ListContractsCommand) GetName() string        { return "contract-list" }
func (c *ListContractsCommand) GetDescription() string { return "List contracts" }

func (c *ListContractsCommand) SetParameters(params validation.Params) error {
	c.ClientID = params.String("client_id")
	c.Status = models.ContractStatus(params.String("status"))
	return nil
}

func (c *ListContractsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	var (
		contracts []*models.Contract
		err       error
	)
	if c.ClientID != "" {
		contracts, err = c.service.ListContractsByClient(ctx, c.ClientID)
	} else {
		contracts, err = c.service.ListContracts(ctx)
	}
	if err != nil {
		return nil, err
	}

	if c.Status != "" {
		filtered := []*models.Contract{}
		for _, k := range contracts {
			if k.Status == c.Status {
				filtered = append(filtered, k)
			}
		}
		contracts = filtered
	}
	return ok(contracts, "Found %d contracts", len(contracts)), nil
}

// GetContractCommand retrieves a stored contract with its frozen text
type GetContractCommand struct {
	serviceCommand
	ID string
}

func (c *GetContractCommand) GetName() string        { return "contract-get" }
func (c *GetContractCommand) GetDescription() string { return "Get a contract" }

func (c *GetContractCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *GetContractCommand) Execute(ctx context.Context) (*CommandResult, error) {
	k, err := c.service.GetContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return ok(k, "Retrieved contract '%s'", k.Titulo), nil
}

// PreviewContractCommand fills a template without storing anything
type PreviewContractCommand struct {
	serviceCommand
	Draft *service.ContractDraft
}

func (c *PreviewContractCommand) GetName() string { return "contract-preview" }
func (c *PreviewContractCommand) GetDescription() string {
	return "Fill a contract template with client and contract data"
}

func (c *PreviewContractCommand) SetParameters(params validation.Params) error {
	c.Draft = DraftFromParams(params)
	return nil
}

func (c *PreviewContractCommand) Execute(ctx context.Context) (*CommandResult, error) {
	filled, err := c.service.PreviewContract(ctx, c.Draft)
	if err != nil {
		return nil, err
	}
	if len(filled.Unresolved) > 0 {
		return ok(filled, "Filled template with %d unknown placeholders", len(filled.Unresolved)), nil
	}
	return ok(filled, "Filled template"), nil
}

// CreateContractCommand generates a contract from a template and stores it
type CreateContractCommand struct {
	serviceCommand
	Draft *service.ContractDraft
}

func (c *CreateContractCommand) GetName() string { return "contract-create" }
func (c *CreateContractCommand) GetDescription() string {
	return "Generate a contract from a template and save it"
}

func (c *CreateContractCommand) SetParameters(params validation.Params) error {
	c.Draft = DraftFromParams(params)
	return nil
}

func (c *CreateContractCommand) Execute(ctx context.Context) (*CommandResult, error) {
	k, err := c.service.CreateContractFromTemplate(ctx, c.Draft)
	if err != nil {
		return nil, err
	}
	return ok(k, "Created contract '%s' for %s", k.Titulo, k.ClientName), nil
}

// DeleteContractCommand removes a contract
type DeleteContractCommand struct {
	serviceCommand
	ID string
}

func (c *DeleteContractCommand) GetName() string        { return "contract-delete" }
func (c *DeleteContractCommand) GetDescription() string { return "Delete a contract" }

func (c *DeleteContractCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *DeleteContractCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.DeleteContract(ctx, c.ID); err != nil {
		return nil, err
	}
	return ok(map[string]string{"id": c.ID}, "Deleted contract %s", c.ID), nil
}

// ListTemplatesCommand lists contract templates
type ListTemplatesCommand struct {
	serviceCommand
}

func (c *ListTemplatesCommand) GetName() string        { return "template-list" }
func (c *ListTemplatesCommand) GetDescription() string { return "List contract templates" }

func (c *ListTemplatesCommand) Execute(ctx context.Context) (*CommandResult, error) {
	templates, err := c.service.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return ok(templates, "Found %d templates", len(templates)), nil
}

// GetTemplateCommand retrieves a template with its content
type GetTemplateCommand struct {
	serviceCommand
	ID string
}

func (c *GetTemplateCommand) GetName() string        { return "template-get" }
func (c *GetTemplateCommand) GetDescription() string { return "Get a contract template" }

func (c *GetTemplateCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *GetTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	t, err := c.service.GetTemplate(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return ok(t, "Retrieved template '%s'", t.Name), nil
}

// SaveTemplateCommand creates or replaces a template
type SaveTemplateCommand struct {
	serviceCommand
	Template *models.ContractTemplate
}

func (c *SaveTemplateCommand) GetName() string        { return "template-save" }
func (c *SaveTemplateCommand) GetDescription() string { return "Create or update a contract template" }

func (c *SaveTemplateCommand) SetParameters(params validation.Params) error {
	c.Template = &models.ContractTemplate{
		ID:          params.String("id"),
		Name:        params.String("name"),
		Description: params.String("description"),
		Content:     params.String("content"),
	}
	return nil
}

func (c *SaveTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.SaveTemplate(ctx, c.Template); err != nil {
		return nil, err
	}
	return ok(c.Template, "Saved template '%s'", c.Template.ID), nil
}

// DeleteTemplateCommand removes a template
type DeleteTemplateCommand struct {
	serviceCommand
	ID string
}

func (c *DeleteTemplateCommand) GetName() string        { return "template-delete" }
func (c *DeleteTemplateCommand) GetDescription() string { return "Delete a contract template" }

func (c *DeleteTemplateCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *DeleteTemplateCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.DeleteTemplate(ctx, c.ID); err != nil {
		return nil, err
	}
	return ok(map[string]string{"id": c.ID}, "Deleted template %s", c.ID), nil
}

// PlaceholdersCommand returns the placeholder catalog
type PlaceholdersCommand struct {
	serviceCommand
}

func (c *PlaceholdersCommand) GetName() string { return "placeholders" }
func (c *PlaceholdersCommand) GetDescription() string {
	return "List the placeholders supported in contract templates"
}

func (c *PlaceholdersCommand) Execute(ctx context.Context) (*CommandResult, error) {
	list := c.service.Placeholders()
	return ok(list, "%d placeholders available", len(list)), nil
}
