package models

import "time"

// Recurrence is the billing frequency code attached to a contract
type Recurrence string

const (
	RecurrenceUnico      Recurrence = "unico"
	RecurrenceMensal     Recurrence = "mensal"
	RecurrenceTrimestral Recurrence = "trimestral"
	RecurrenceSemestral  Recurrence = "semestral"
	RecurrenceAnual      Recurrence = "anual"
)

// Recurrences lists the contract recurrence codes in display order
var Recurrences = []Recurrence{
	RecurrenceUnico,
	RecurrenceMensal,
	RecurrenceTrimestral,
	RecurrenceSemestral,
	RecurrenceAnual,
}

// ContractStatus is the lifecycle state of a contract
type ContractStatus string

const (
	ContractAtivo     ContractStatus = "ativo"
	ContractPendente  ContractStatus = "pendente"
	ContractEncerrado ContractStatus = "encerrado"
	ContractCancelado ContractStatus = "cancelado"
)

// ContractStatuses lists the contract statuses in display order
var ContractStatuses = []ContractStatus{ContractAtivo, ContractPendente, ContractEncerrado, ContractCancelado}

// UnknownClientName is shown when a contract or demand points at a missing client
const UnknownClientName = "Cliente não encontrado"

// Contract is a signed or draft agreement with a client.
// Conteudo holds the filled template text as it was at submit time.
type Contract struct {
	ID            string         `json:"id"`
	ClientID      string         `json:"clientId"`
	ClientName    string         `json:"clientName"`
	Titulo        string         `json:"titulo"`
	ValorContrato float64        `json:"valorContrato"`
	Recorrencia   Recurrence     `json:"recorrencia"`
	DataInicio    time.Time      `json:"dataInicio"`
	DataFim       *time.Time     `json:"dataFim"`
	Status        ContractStatus `json:"status"`
	Conteudo      string         `json:"conteudo"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// ContractParams is the parameter bundle used to fill a contract template
type ContractParams struct {
	ValorContrato float64    `json:"valorContrato"`
	Recorrencia   Recurrence `json:"recorrencia"`
	DataInicio    time.Time  `json:"dataInicio"`
	DataFim       *time.Time `json:"dataFim,omitempty"`
	Servico       string     `json:"servico,omitempty"`
	DiaVencimento int        `json:"diaVencimento,omitempty"` // 0 means unset
	Cidade        string     `json:"cidade,omitempty"`
}

// Params extracts the template parameters stored on the contract
func (c *Contract) Params() ContractParams {
	return ContractParams{
		ValorContrato: c.ValorContrato,
		Recorrencia:   c.Recorrencia,
		DataInicio:    c.DataInicio,
		DataFim:       c.DataFim,
	}
}

// IsActive reports whether the contract is currently in force at t
func (c *Contract) IsActive(t time.Time) bool {
	if c.Status != ContractAtivo {
		return false
	}
	if t.Before(c.DataInicio) {
		return false
	}
	return c.DataFim == nil || !t.After(*c.DataFim)
}
