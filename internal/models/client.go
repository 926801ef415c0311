package models

import "time"

// ClientRecurrence is the billing cycle of a client's recurring fee
type ClientRecurrence string

const (
	ClientMensal     ClientRecurrence = "mensal"
	ClientTrimestral ClientRecurrence = "trimestral"
	ClientSemestral  ClientRecurrence = "semestral"
	ClientAnual      ClientRecurrence = "anual"
)

// ClientRecurrences lists the valid client billing cycles in display order
var ClientRecurrences = []ClientRecurrence{ClientMensal, ClientTrimestral, ClientSemestral, ClientAnual}

// Client represents a customer company
type Client struct {
	ID             string           `json:"id" yaml:"id"`
	RazaoSocial    string           `json:"razaoSocial" yaml:"razao_social"`
	CNPJ           string           `json:"cnpj" yaml:"cnpj"`
	Endereco       string           `json:"endereco" yaml:"endereco"`
	ValorPago      float64          `json:"valorPago" yaml:"valor_pago"`
	Recorrencia    ClientRecurrence `json:"recorrencia" yaml:"recorrencia"`
	Responsavel    string           `json:"responsavel" yaml:"responsavel"`
	ContatoInterno string           `json:"contatoInterno" yaml:"contato_interno"`
	CreatedAt      time.Time        `json:"createdAt" yaml:"created_at"`
}

// MonthlyValue normalises the client's fee to a monthly amount.
// Unknown cycles count as monthly.
func (c *Client) MonthlyValue() float64 {
	switch c.Recorrencia {
	case ClientTrimestral:
		return c.ValorPago / 3
	case ClientSemestral:
		return c.ValorPago / 6
	case ClientAnual:
		return c.ValorPago / 12
	default:
		return c.ValorPago
	}
}

// DisplayName returns the legal name truncated for charts and tables
func (c *Client) DisplayName(max int) string {
	runes := []rune(c.RazaoSocial)
	if max <= 0 || len(runes) <= max {
		return c.RazaoSocial
	}
	return string(runes[:max]) + "..."
}
