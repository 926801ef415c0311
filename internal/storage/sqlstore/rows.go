package sqlstore

import (
	"time"

	"github.com/dpshade/pocket-crm/internal/models"
)

type clientRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	RazaoSocial    string `gorm:"not null"`
	CNPJ           string `gorm:"column:cnpj;index"`
	Endereco       string
	ValorPago      float64 `gorm:"not null;default:0"`
	Recorrencia    string  `gorm:"size:16"`
	Responsavel    string
	ContatoInterno string
	CreatedAt      time.Time `gorm:"index"`
}

func (clientRow) TableName() string { return "clients" }

func clientToRow(c *models.Client) *clientRow {
	return &clientRow{
		ID:             c.ID,
		RazaoSocial:    c.RazaoSocial,
		CNPJ:           c.CNPJ,
		Endereco:       c.Endereco,
		ValorPago:      c.ValorPago,
		Recorrencia:    string(c.Recorrencia),
		Responsavel:    c.Responsavel,
		ContatoInterno: c.ContatoInterno,
		CreatedAt:      c.CreatedAt,
	}
}

func (r *clientRow) model() *models.Client {
	return &models.Client{
		ID:             r.ID,
		RazaoSocial:    r.RazaoSocial,
		CNPJ:           r.CNPJ,
		Endereco:       r.Endereco,
		ValorPago:      r.ValorPago,
		Recorrencia:    models.ClientRecurrence(r.Recorrencia),
		Responsavel:    r.Responsavel,
		ContatoInterno: r.ContatoInterno,
		CreatedAt:      r.CreatedAt,
	}
}

type contractRow struct {
	ID            string `gorm:"primaryKey;size:64"`
	ClientID      string `gorm:"size:64;index"`
	ClientName    string
	Titulo        string
	ValorContrato float64
	Recorrencia   string `gorm:"size:16"`
	DataInicio    time.Time
	DataFim       *time.Time
	Status        string    `gorm:"size:16;index"`
	Conteudo      string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"index"`
}

func (contractRow) TableName() string { return "contracts" }

func contractToRow(c *models.Contract) *contractRow {
	return &contractRow{
		ID:            c.ID,
		ClientID:      c.ClientID,
		ClientName:    c.ClientName,
		Titulo:        c.Titulo,
		ValorContrato: c.ValorContrato,
		Recorrencia:   string(c.Recorrencia),
		DataInicio:    c.DataInicio,
		DataFim:       c.DataFim,
		Status:        string(c.Status),
		Conteudo:      c.Conteudo,
		CreatedAt:     c.CreatedAt,
	}
}

func (r *contractRow) model() *models.Contract {
	return &models.Contract{
		ID:            r.ID,
		ClientID:      r.ClientID,
		ClientName:    r.ClientName,
		Titulo:        r.Titulo,
		ValorContrato: r.ValorContrato,
		Recorrencia:   models.Recurrence(r.Recorrencia),
		DataInicio:    r.DataInicio,
		DataFim:       r.DataFim,
		Status:        models.ContractStatus(r.Status),
		Conteudo:      r.Conteudo,
		CreatedAt:     r.CreatedAt,
	}
}

type transactionRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	Tipo           string `gorm:"size:16;index"`
	Descricao      string
	Valor          float64
	Categoria      string
	Mes            int `gorm:"index:idx_transactions_period"`
	Ano            int `gorm:"index:idx_transactions_period"`
	Vencimento     int
	PayerType      string `gorm:"size:16"`
	ReferenciaNome string
	ClientID       string `gorm:"size:64;index"`
	ClientName     string
	CreatedAt      time.Time `gorm:"index"`
}

func (transactionRow) TableName() string { return "transactions" }

func transactionToRow(t *models.Transaction) *transactionRow {
	return &transactionRow{
		ID:             t.ID,
		Tipo:           string(t.Tipo),
		Descricao:      t.Descricao,
		Valor:          t.Valor,
		Categoria:      t.Categoria,
		Mes:            t.Mes,
		Ano:            t.Ano,
		Vencimento:     t.Vencimento,
		PayerType:      string(t.PayerType),
		ReferenciaNome: t.ReferenciaNome,
		ClientID:       t.ClientID,
		ClientName:     t.ClientName,
		CreatedAt:      t.CreatedAt,
	}
}

func (r *transactionRow) model() *models.Transaction {
	return &models.Transaction{
		ID:             r.ID,
		Tipo:           models.TransactionType(r.Tipo),
		Descricao:      r.Descricao,
		Valor:          r.Valor,
		Categoria:      r.Categoria,
		Mes:            r.Mes,
		Ano:            r.Ano,
		Vencimento:     r.Vencimento,
		PayerType:      models.PayerType(r.PayerType),
		ReferenciaNome: r.ReferenciaNome,
		ClientID:       r.ClientID,
		ClientName:     r.ClientName,
		CreatedAt:      r.CreatedAt,
	}
}

type demandRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	ClientID    string `gorm:"size:64;index"`
	ClientName  string
	Demanda     string
	Descricao   string `gorm:"type:text"`
	DataPedido  time.Time
	DataEntrega time.Time
	Responsavel string
	Status      string    `gorm:"size:16;index"`
	Prioridade  string    `gorm:"size:16"`
	Tasks       []taskRow `gorm:"foreignKey:DemandID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"index"`
}

func (demandRow) TableName() string { return "demands" }

// taskRow keeps checklist order in Position
type taskRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	DemandID  string `gorm:"size:64;index"`
	Position  int
	Titulo    string
	Concluida bool
}

func (taskRow) TableName() string { return "demand_tasks" }

func demandToRow(d *models.Demand) *demandRow {
	row := &demandRow{
		ID:          d.ID,
		ClientID:    d.ClientID,
		ClientName:  d.ClientName,
		Demanda:     d.Demanda,
		Descricao:   d.Descricao,
		DataPedido:  d.DataPedido,
		DataEntrega: d.DataEntrega,
		Responsavel: d.Responsavel,
		Status:      string(d.Status),
		Prioridade:  string(d.Prioridade),
		CreatedAt:   d.CreatedAt,
	}
	for i, t := range d.Tarefas {
		row.Tasks = append(row.Tasks, taskRow{
			ID:        t.ID,
			DemandID:  d.ID,
			Position:  i,
			Titulo:    t.Titulo,
			Concluida: t.Concluida,
		})
	}
	return row
}

func (r *demandRow) model() *models.Demand {
	d := &models.Demand{
		ID:          r.ID,
		ClientID:    r.ClientID,
		ClientName:  r.ClientName,
		Demanda:     r.Demanda,
		Descricao:   r.Descricao,
		DataPedido:  r.DataPedido,
		DataEntrega: r.DataEntrega,
		Responsavel: r.Responsavel,
		Status:      models.DemandStatus(r.Status),
		Prioridade:  models.Priority(r.Prioridade),
		Tarefas:     make([]models.TaskItem, 0, len(r.Tasks)),
		CreatedAt:   r.CreatedAt,
	}
	for _, t := range r.Tasks {
		d.Tarefas = append(d.Tarefas, models.TaskItem{ID: t.ID, Titulo: t.Titulo, Concluida: t.Concluida})
	}
	d.Normalize()
	return d
}

type templateRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"index"`
	Description string
	Content     string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (templateRow) TableName() string { return "contract_templates" }

func templateToRow(t *models.ContractTemplate) *templateRow {
	return &templateRow{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Content:     t.Content,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *templateRow) model() *models.ContractTemplate {
	return &models.ContractTemplate{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Content:     r.Content,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
