package models

import "time"

// DefaultTemplateID is the id of the seeded contract template
const DefaultTemplateID = "padrao"

// ContractTemplate is a user-editable contract text with {{KEY}} placeholders
type ContractTemplate struct {
	// Frontmatter fields
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`

	// Content fields
	Content  string `yaml:"-" json:"content"`
	FilePath string `yaml:"-" json:"-"`
}

// DefaultContractTemplate is the service agreement every agency starts with
const DefaultContractTemplate = `CONTRATO DE PRESTAÇÃO DE SERVIÇOS

CONTRATANTE: {{RAZAO_SOCIAL}}
CNPJ: {{CNPJ}}
Endereço: {{ENDERECO}}
Responsável: {{RESPONSAVEL}}

CONTRATADA: [NOME DA SUA EMPRESA]
CNPJ: [SEU CNPJ]

CLÁUSULA 1ª - DO OBJETO
O presente contrato tem por objeto a prestação de serviços de {{SERVICO}} pela CONTRATADA à CONTRATANTE.

CLÁUSULA 2ª - DO VALOR E FORMA DE PAGAMENTO
Pelos serviços prestados, a CONTRATANTE pagará à CONTRATADA o valor de {{VALOR}} ({{VALOR_EXTENSO}}), com recorrência {{RECORRENCIA}}.

O pagamento deverá ser efetuado até o dia {{DIA_VENCIMENTO}} de cada período.

CLÁUSULA 3ª - DO PRAZO
O presente contrato terá vigência a partir de {{DATA_INICIO}}, com término previsto para {{DATA_FIM}}.

CLÁUSULA 4ª - DAS OBRIGAÇÕES DA CONTRATADA
a) Executar os serviços conforme especificado;
b) Manter sigilo sobre informações da CONTRATANTE;
c) Emitir notas fiscais correspondentes.

CLÁUSULA 5ª - DAS OBRIGAÇÕES DA CONTRATANTE
a) Efetuar os pagamentos nas datas acordadas;
b) Fornecer informações necessárias à execução dos serviços;
c) Comunicar alterações que afetem o contrato.

CLÁUSULA 6ª - DA RESCISÃO
O contrato poderá ser rescindido por qualquer das partes, mediante aviso prévio de 30 dias.

{{CIDADE}}, {{DATA_ATUAL}}

_________________________
CONTRATANTE: {{RESPONSAVEL}}

_________________________
CONTRATADA: [NOME DO RESPONSÁVEL]`

// NewDefaultTemplate returns the seed template stamped with t
func NewDefaultTemplate(t time.Time) *ContractTemplate {
	return &ContractTemplate{
		ID:          DefaultTemplateID,
		Name:        "Contrato de Prestação de Serviços",
		Description: "Modelo padrão com lacunas para dados do cliente e do contrato",
		CreatedAt:   t,
		UpdatedAt:   t,
		Content:     DefaultContractTemplate,
	}
}
