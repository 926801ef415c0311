package models

import "time"

// TransactionType separates income from expenses
type TransactionType string

const (
	Entrada TransactionType = "entrada"
	Despesa TransactionType = "despesa"
)

// PayerType identifies who a transaction refers to
type PayerType string

const (
	PayerCliente     PayerType = "cliente"
	PayerColaborador PayerType = "colaborador"
	PayerOutro       PayerType = "outro"
)

// DefaultVencimento is the due day used when a transaction has none
const DefaultVencimento = 5

// Transaction is a single income or expense entry booked to a month
type Transaction struct {
	ID             string          `json:"id"`
	Tipo           TransactionType `json:"tipo"`
	Descricao      string          `json:"descricao"`
	Valor          float64         `json:"valor"`
	Categoria      string          `json:"categoria"`
	Mes            int             `json:"mes"` // 1-12
	Ano            int             `json:"ano"`
	Vencimento     int             `json:"vencimento,omitempty"`
	PayerType      PayerType       `json:"payerType,omitempty"`
	ReferenciaNome string          `json:"referenciaNome,omitempty"`
	ClientID       string          `json:"clientId,omitempty"`
	ClientName     string          `json:"clientName,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// DueDay returns the day of month the transaction falls due
func (t *Transaction) DueDay() int {
	if t.Vencimento <= 0 {
		return DefaultVencimento
	}
	return t.Vencimento
}

// DueDate resolves mes/ano/vencimento into a date in loc.
// Days past the end of the month roll into the next one, as time.Date does.
func (t *Transaction) DueDate(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Ano, time.Month(t.Mes), t.DueDay(), 0, 0, 0, 0, loc)
}

// MonthTotals aggregates a month's income and expenses
type MonthTotals struct {
	Mes      int     `json:"mes"`
	Label    string  `json:"label"`
	Entradas float64 `json:"entradas"`
	Despesas float64 `json:"despesas"`
	Saldo    float64 `json:"saldo"`
}

// Month is a calendar month with its Portuguese names
type Month struct {
	Value int    `json:"value"`
	Label string `json:"label"`
	Short string `json:"short"`
}

// Months lists the calendar months in order
var Months = []Month{
	{1, "Janeiro", "Jan"},
	{2, "Fevereiro", "Fev"},
	{3, "Março", "Mar"},
	{4, "Abril", "Abr"},
	{5, "Maio", "Mai"},
	{6, "Junho", "Jun"},
	{7, "Julho", "Jul"},
	{8, "Agosto", "Ago"},
	{9, "Setembro", "Set"},
	{10, "Outubro", "Out"},
	{11, "Novembro", "Nov"},
	{12, "Dezembro", "Dez"},
}

// MonthLabel returns the full month name, or "" outside 1-12
func MonthLabel(mes int) string {
	if mes < 1 || mes > 12 {
		return ""
	}
	return Months[mes-1].Label
}

// Categories holds the suggested categories per transaction type
var Categories = map[TransactionType][]string{
	Entrada: {"Serviços", "Produtos", "Consultoria", "Mensalidade", "Projeto", "Outros"},
	Despesa: {"Salários", "Aluguel", "Marketing", "Ferramentas", "Impostos", "Fornecedores", "Outros"},
}
