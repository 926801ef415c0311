package commands

import (
	"context"

	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/validation"
)

// ListClientsCommand lists all clients
type ListClientsCommand struct {
	serviceCommand
}

func (c *ListClientsCommand) GetName() string        { return "client-list" }
func (c *ListClientsCommand) GetDescription() string { return "List all clients" }

func (c *ListClientsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	clients, err := c.service.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return ok(clients, "Found %d clients", len(clients)), nil
}

// SearchClientsCommand fuzzy-searches clients by name, CNPJ and contacts
type SearchClientsCommand struct {
	serviceCommand
	Query string
}

func (c *SearchClientsCommand) GetName() string { return "client-search" }
func (c *SearchClientsCommand) GetDescription() string {
	return "Search clients by name, CNPJ, responsible or internal contact"
}

func (c *SearchClientsCommand) SetParameters(params validation.Params) error {
	c.Query = params.String("query")
	return nil
}

func (c *SearchClientsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	clients, err := c.service.SearchClients(ctx, c.Query)
	if err != nil {
		return nil, err
	}
	return ok(clients, "Found %d clients matching '%s'", len(clients), c.Query), nil
}

// GetClientCommand retrieves a client with its contracts
type GetClientCommand struct {
	serviceCommand
	ID string
}

// ClientDetail is a client plus the contracts linked to it
type ClientDetail struct {
	*models.Client
	MonthlyValue float64            `json:"monthlyValue"`
	Contracts    []*models.Contract `json:"contracts"`
}

func (c *GetClientCommand) GetName() string        { return "client-get" }
func (c *GetClientCommand) GetDescription() string { return "Get a client and its contracts" }

func (c *GetClientCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *GetClientCommand) Execute(ctx context.Context) (*CommandResult, error) {
	client, err := c.service.GetClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	contracts, err := c.service.ListContractsByClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	detail := &ClientDetail{Client: client, MonthlyValue: client.MonthlyValue(), Contracts: contracts}
	return ok(detail, "Retrieved client '%s'", client.RazaoSocial), nil
}

// SaveClientCommand creates a client, or replaces one when Update is set
type SaveClientCommand struct {
	serviceCommand
	Update bool
	Client *models.Client
}

func (c *SaveClientCommand) GetName() string {
	if c.Update {
		return "client-update"
	}
	return "client-create"
}

func (c *SaveClientCommand) GetDescription() string {
	if c.Update {
		return "Update an existing client"
	}
	return "Register a new client"
}

func (c *SaveClientCommand) SetParameters(params validation.Params) error {
	c.Client = &models.Client{
		ID:             params.String("id"),
		RazaoSocial:    params.String("razao_social"),
		CNPJ:           params.String("cnpj"),
		Endereco:       params.String("endereco"),
		ValorPago:      params.Float("valor_pago"),
		Recorrencia:    models.ClientRecurrence(params.String("recorrencia")),
		Responsavel:    params.String("responsavel"),
		ContatoInterno: params.String("contato_interno"),
	}
	return nil
}

func (c *SaveClientCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if c.Update {
		if err := c.service.UpdateClient(ctx, c.Client); err != nil {
			return nil, err
		}
		return ok(c.Client, "Updated client '%s'", c.Client.RazaoSocial), nil
	}
	if err := c.service.CreateClient(ctx, c.Client); err != nil {
		return nil, err
	}
	return ok(c.Client, "Created client '%s'", c.Client.RazaoSocial), nil
}

// DeleteClientCommand removes a client
type DeleteClientCommand struct {
	serviceCommand
	ID string
}

func (c *DeleteClientCommand) GetName() string        { return "client-delete" }
func (c *DeleteClientCommand) GetDescription() string { return "Delete a client" }

func (c *DeleteClientCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *DeleteClientCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.DeleteClient(ctx, c.ID); err != nil {
		return nil, err
	}
	return ok(map[string]string{"id": c.ID}, "Deleted client %s", c.ID), nil
}
