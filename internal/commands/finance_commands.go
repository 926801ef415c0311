package commands

import (
	"context"

	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/validation"
)

// TransactionList is a set of transactions with its totals
type TransactionList struct {
	Transactions []*models.Transaction `json:"transactions"`
	Totals       service.Totals        `json:"totals"`
}

// ListTransactionsCommand lists transactions, optionally for one month
type ListTransactionsCommand struct {
	serviceCommand
	Mes  int
	Ano  int
	Tipo models.TransactionType
}

func (c *ListTransactionsCommand) GetName() string { return "transaction-list" }
func (c *ListTransactionsCommand) GetDescription() string {
	return "List income and expenses with totals"
}

func (c *ListTransactionsCommand) SetParameters(params validation.Params) error {
	c.Mes = params.Int("mes")
	c.Ano = params.Int("ano")
	c.Tipo = models.TransactionType(params.String("tipo"))
	return nil
}

func (c *ListTransactionsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	var (
		txs []*models.Transaction
		err error
	)
	if c.Mes > 0 {
		txs, err = c.service.TransactionsByMonth(ctx, c.Mes, c.Ano)
	} else {
		txs, err = c.service.ListTransactions(ctx)
	}
	if err != nil {
		return nil, err
	}

	if c.Tipo != "" {
		filtered := []*models.Transaction{}
		for _, t := range txs {
			if t.Tipo == c.Tipo {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}

	list := &TransactionList{Transactions: txs, Totals: service.SumTransactions(txs)}
	if c.Mes > 0 {
		return ok(list, "Found %d transactions in %s/%d", len(txs), models.MonthLabel(c.Mes), c.Ano), nil
	}
	return ok(list, "Found %d transactions", len(txs)), nil
}

// GetTransactionCommand retrieves one transaction
type GetTransactionCommand struct {
	serviceCommand
	ID string
}

func (c *GetTransactionCommand) GetName() string        { return "transaction-get" }
func (c *GetTransactionCommand) GetDescription() string { return "Get a transaction" }

func (c *GetTransactionCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *GetTransactionCommand) Execute(ctx context.Context) (*CommandResult, error) {
	t, err := c.service.GetTransaction(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return ok(t, "Retrieved transaction '%s'", t.Descricao), nil
}

// SaveTransactionCommand records income or an expense
type SaveTransactionCommand struct {
	serviceCommand
	Update      bool
	Transaction *models.Transaction
}

func (c *SaveTransactionCommand) GetName() string {
	if c.Update {
		return "transaction-update"
	}
	return "transaction-create"
}

func (c *SaveTransactionCommand) GetDescription() string {
	if c.Update {
		return "Update a transaction"
	}
	return "Record income or an expense"
}

func (c *SaveTransactionCommand) SetParameters(params validation.Params) error {
	c.Transaction = &models.Transaction{
		ID:             params.String("id"),
		Tipo:           models.TransactionType(params.String("tipo")),
		Descricao:      params.String("descricao"),
		Valor:          params.Float("valor"),
		Categoria:      params.String("categoria"),
		Mes:            params.Int("mes"),
		Ano:            params.Int("ano"),
		Vencimento:     params.Int("vencimento"),
		PayerType:      models.PayerType(params.String("payer_type")),
		ReferenciaNome: params.String("referencia_nome"),
		ClientID:       params.String("client_id"),
	}
	return nil
}

func (c *SaveTransactionCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if c.Update {
		if err := c.service.UpdateTransaction(ctx, c.Transaction); err != nil {
			return nil, err
		}
		return ok(c.Transaction, "Updated transaction '%s'", c.Transaction.Descricao), nil
	}
	if err := c.service.CreateTransaction(ctx, c.Transaction); err != nil {
		return nil, err
	}
	return ok(c.Transaction, "Recorded %s '%s'", c.Transaction.Tipo, c.Transaction.Descricao), nil
}

// DeleteTransactionCommand removes a transaction
type DeleteTransactionCommand struct {
	serviceCommand
	ID string
}

func (c *DeleteTransactionCommand) GetName() string        { return "transaction-delete" }
func (c *DeleteTransactionCommand) GetDescription() string { return "Delete a transaction" }

func (c *DeleteTransactionCommand) SetParameters(params validation.Params) error {
	c.ID = params.String("id")
	return nil
}

func (c *DeleteTransactionCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.DeleteTransaction(ctx, c.ID); err != nil {
		return nil, err
	}
	return ok(map[string]string{"id": c.ID}, "Deleted transaction %s", c.ID), nil
}

// MonthlyTotalsCommand returns the twelve monthly balances of a year
type MonthlyTotalsCommand struct {
	serviceCommand
	Ano int
}

func (c *MonthlyTotalsCommand) GetName() string { return "transaction-monthly" }
func (c *MonthlyTotalsCommand) GetDescription() string {
	return "Income, expenses and balance per month of a year"
}

func (c *MonthlyTotalsCommand) SetParameters(params validation.Params) error {
	c.Ano = params.Int("ano")
	return nil
}

func (c *MonthlyTotalsCommand) Execute(ctx context.Context) (*CommandResult, error) {
	totals, err := c.service.MonthlyTotals(ctx, c.Ano)
	if err != nil {
		return nil, err
	}
	return ok(totals, "Monthly totals for %d", c.Ano), nil
}
