package renderer

import (
	"strconv"
	"time"

	"github.com/dpshade/pocket-crm/internal/models"
)

// PlaceholderKey is one of the fixed {{KEY}} tokens a contract template may contain
type PlaceholderKey string

const (
	KeyRazaoSocial   PlaceholderKey = "RAZAO_SOCIAL"
	KeyCNPJ          PlaceholderKey = "CNPJ"
	KeyEndereco      PlaceholderKey = "ENDERECO"
	KeyResponsavel   PlaceholderKey = "RESPONSAVEL"
	KeyContato       PlaceholderKey = "CONTATO"
	KeyValor         PlaceholderKey = "VALOR"
	KeyValorExtenso  PlaceholderKey = "VALOR_EXTENSO"
	KeyRecorrencia   PlaceholderKey = "RECORRENCIA"
	KeyDataInicio    PlaceholderKey = "DATA_INICIO"
	KeyDataFim       PlaceholderKey = "DATA_FIM"
	KeyServico       PlaceholderKey = "SERVICO"
	KeyDiaVencimento PlaceholderKey = "DIA_VENCIMENTO"
	KeyCidade        PlaceholderKey = "CIDADE"
	KeyDataAtual     PlaceholderKey = "DATA_ATUAL"
)

// Token returns the literal text matched in templates, e.g. "{{CNPJ}}"
func (k PlaceholderKey) Token() string {
	return "{{" + string(k) + "}}"
}

// DefaultDueDay is rendered for {{DIA_VENCIMENTO}} when no day is given
const DefaultDueDay = 10

// Bracket labels shown when a value is missing
const (
	fallbackRazaoSocial = "[RAZÃO SOCIAL]"
	fallbackCNPJ        = "[CNPJ]"
	fallbackEndereco    = "[ENDEREÇO]"
	fallbackResponsavel = "[RESPONSÁVEL]"
	fallbackContato     = "[CONTATO]"
	fallbackDataFim     = "[DATA DE TÉRMINO]"
	fallbackServico     = "[DESCRIÇÃO DO SERVIÇO]"
	fallbackCidade      = "[CIDADE]"
)

// PlaceholderInfo describes a key for insertion palettes
type PlaceholderInfo struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

var catalog = []struct {
	key         PlaceholderKey
	description string
}{
	{KeyRazaoSocial, "Razão social do cliente"},
	{KeyCNPJ, "CNPJ do cliente"},
	{KeyEndereco, "Endereço do cliente"},
	{KeyResponsavel, "Nome do responsável"},
	{KeyContato, "Contato do cliente"},
	{KeyValor, "Valor do contrato formatado"},
	{KeyValorExtenso, "Valor por extenso"},
	{KeyRecorrencia, "Tipo de recorrência"},
	{KeyDataInicio, "Data de início"},
	{KeyDataFim, "Data de término"},
	{KeyServico, "Descrição do serviço"},
	{KeyDiaVencimento, "Dia do vencimento"},
	{KeyCidade, "Cidade"},
	{KeyDataAtual, "Data atual"},
}

// Keys returns every supported key in catalog order
func Keys() []PlaceholderKey {
	keys := make([]PlaceholderKey, len(catalog))
	for i, c := range catalog {
		keys[i] = c.key
	}
	return keys
}

// Placeholders returns the static placeholder catalog. The slice is a fresh copy.
func Placeholders() []PlaceholderInfo {
	out := make([]PlaceholderInfo, len(catalog))
	for i, c := range catalog {
		out[i] = PlaceholderInfo{Key: c.key.Token(), Description: c.description}
	}
	return out
}

var recurrenceLabels = map[models.Recurrence]string{
	models.RecurrenceUnico:      "pagamento único",
	models.RecurrenceMensal:     "mensal",
	models.RecurrenceTrimestral: "trimestral",
	models.RecurrenceSemestral:  "semestral",
	models.RecurrenceAnual:      "anual",
}

// RecurrenceLabel returns the contract wording for a recurrence code.
// Unknown codes are returned unchanged.
func RecurrenceLabel(r models.Recurrence) string {
	if label, ok := recurrenceLabels[r]; ok {
		return label
	}
	return string(r)
}

// fillInput is everything a resolver may read
type fillInput struct {
	client *models.Client
	params models.ContractParams
	now    func() time.Time
}

type resolver func(in *fillInput) string

// clientField falls back to label when there is no client or the field is empty
func clientField(get func(*models.Client) string, label string) resolver {
	return func(in *fillInput) string {
		if in.client == nil {
			return label
		}
		if v := get(in.client); v != "" {
			return v
		}
		return label
	}
}

func textOr(v, label string) string {
	if v == "" {
		return label
	}
	return v
}

var resolvers = map[PlaceholderKey]resolver{
	KeyRazaoSocial: clientField(func(c *models.Client) string { return c.RazaoSocial }, fallbackRazaoSocial),
	KeyCNPJ:        clientField(func(c *models.Client) string { return c.CNPJ }, fallbackCNPJ),
	KeyEndereco:    clientField(func(c *models.Client) string { return c.Endereco }, fallbackEndereco),
	KeyResponsavel: clientField(func(c *models.Client) string { return c.Responsavel }, fallbackResponsavel),
	KeyContato:     clientField(func(c *models.Client) string { return c.ContatoInterno }, fallbackContato),
	KeyValor: func(in *fillInput) string {
		return FormatBRL(in.params.ValorContrato)
	},
	KeyValorExtenso: func(in *fillInput) string {
		return CurrencyWords(in.params.ValorContrato)
	},
	KeyRecorrencia: func(in *fillInput) string {
		return RecurrenceLabel(in.params.Recorrencia)
	},
	KeyDataInicio: func(in *fillInput) string {
		return LongDate(in.params.DataInicio)
	},
	KeyDataFim: func(in *fillInput) string {
		if in.params.DataFim == nil {
			return fallbackDataFim
		}
		return LongDate(*in.params.DataFim)
	},
	KeyServico: func(in *fillInput) string {
		return textOr(in.params.Servico, fallbackServico)
	},
	KeyDiaVencimento: func(in *fillInput) string {
		if in.params.DiaVencimento <= 0 {
			return strconv.Itoa(DefaultDueDay)
		}
		return strconv.Itoa(in.params.DiaVencimento)
	},
	KeyCidade: func(in *fillInput) string {
		return textOr(in.params.Cidade, fallbackCidade)
	},
	KeyDataAtual: func(in *fillInput) string {
		return LongDate(in.now())
	},
}
