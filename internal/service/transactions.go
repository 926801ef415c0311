package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
)

// Totals is the income/expense balance of a set of transactions
type Totals struct {
	Entradas float64 `json:"entradas"`
	Despesas float64 `json:"despesas"`
	Saldo    float64 `json:"saldo"`
}

func (s *Service) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func validateTransaction(t *models.Transaction) error {
	if t.Tipo != models.Entrada && t.Tipo != models.Despesa {
		return errors.ValidationError(fmt.Sprintf("invalid tipo %q", t.Tipo)).WithContext("field", "tipo")
	}
	if strings.TrimSpace(t.Descricao) == "" {
		return errors.ValidationError("descrição is required").WithContext("field", "descricao")
	}
	if t.Valor < 0 {
		return errors.ValidationError("valor cannot be negative").WithContext("field", "valor")
	}
	if t.Mes < 1 || t.Mes > 12 {
		return errors.ValidationError("mês must be between 1 and 12").WithContext("field", "mes")
	}
	if t.Ano < 1900 {
		return errors.ValidationError("invalid ano").WithContext("field", "ano")
	}
	if t.Vencimento < 0 || t.Vencimento > 31 {
		return errors.ValidationError("vencimento must be between 1 and 31").WithContext("field", "vencimento")
	}
	return nil
}

// CreateTransaction books a transaction. The due day defaults to 5 and the
// reference name falls back to the linked client's name.
func (s *Service) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.Vencimento == 0 {
		t.Vencimento = models.DefaultVencimento
	}
	if err := validateTransaction(t); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = newID()
	}

	t.ClientName = s.clientName(ctx, t.ClientID)
	if t.ReferenciaNome == "" && t.ClientName != models.UnknownClientName {
		t.ReferenciaNome = t.ClientName
	}
	t.CreatedAt = s.now()

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return err
	}
	s.log.Info("transaction created", "id", t.ID, "tipo", t.Tipo, "mes", t.Mes, "ano", t.Ano)
	return nil
}

func (s *Service) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := validateTransaction(t); err != nil {
		return err
	}
	existing, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return err
	}
	t.CreatedAt = existing.CreatedAt
	if t.ClientID != existing.ClientID {
		t.ClientName = s.clientName(ctx, t.ClientID)
	} else {
		t.ClientName = existing.ClientName
	}
	return s.store.UpdateTransaction(ctx, t)
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

// TransactionsByMonth returns the transactions booked to mes/ano
func (s *Service) TransactionsByMonth(ctx context.Context, mes, ano int) ([]*models.Transaction, error) {
	all, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := []*models.Transaction{}
	for _, t := range all {
		if t.Mes == mes && t.Ano == ano {
			out = append(out, t)
		}
	}
	return out, nil
}

// MonthlyTotals returns twelve entries, January first, for the given year
func (s *Service) MonthlyTotals(ctx context.Context, ano int) ([]models.MonthTotals, error) {
	all, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	totals := make([]models.MonthTotals, 12)
	for i, m := range models.Months {
		totals[i] = models.MonthTotals{Mes: m.Value, Label: m.Short}
	}
	for _, t := range all {
		if t.Ano != ano || t.Mes < 1 || t.Mes > 12 {
			continue
		}
		m := &totals[t.Mes-1]
		switch t.Tipo {
		case models.Entrada:
			m.Entradas += t.Valor
		case models.Despesa:
			m.Despesas += t.Valor
		}
	}
	for i := range totals {
		totals[i].Saldo = totals[i].Entradas - totals[i].Despesas
	}
	return totals, nil
}

// SumTransactions totals income and expenses of the given transactions
func SumTransactions(txs []*models.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Tipo {
		case models.Entrada:
			t.Entradas += tx.Valor
		case models.Despesa:
			t.Despesas += tx.Valor
		}
	}
	t.Saldo = t.Entradas - t.Despesas
	return t
}
