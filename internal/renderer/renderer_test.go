package renderer

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-crm/internal/models"
)

var fixedNow = time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)

func testRenderer() *Renderer {
	return NewRenderer(func() time.Time { return fixedNow })
}

func testClient() *models.Client {
	return &models.Client{
		ID:             "c1",
		RazaoSocial:    "ACME Serviços Ltda",
		CNPJ:           "12.345.678/0001-90",
		Endereco:       "Rua das Flores, 100",
		Responsavel:    "Maria Souza",
		ContatoInterno: "maria@acme.com.br",
	}
}

func testParams() models.ContractParams {
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	return models.ContractParams{
		ValorContrato: 1500.75,
		Recorrencia:   models.RecurrenceMensal,
		DataInicio:    time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		DataFim:       &end,
		Servico:       "gestão de redes sociais",
		DiaVencimento: 15,
		Cidade:        "São Paulo",
	}
}

func TestFillResolvesEveryKey(t *testing.T) {
	r := testRenderer()

	want := map[PlaceholderKey]string{
		KeyRazaoSocial:   "ACME Serviços Ltda",
		KeyCNPJ:          "12.345.678/0001-90",
		KeyEndereco:      "Rua das Flores, 100",
		KeyResponsavel:   "Maria Souza",
		KeyContato:       "maria@acme.com.br",
		KeyValor:         "R$ 1.500,75",
		KeyValorExtenso:  "mil e quinhentos reais e setenta e cinco centavos",
		KeyRecorrencia:   "mensal",
		KeyDataInicio:    "05 de março de 2025",
		KeyDataFim:       "04 de março de 2026",
		KeyServico:       "gestão de redes sociais",
		KeyDiaVencimento: "15",
		KeyCidade:        "São Paulo",
		KeyDataAtual:     "05 de março de 2025",
	}

	for _, key := range Keys() {
		t.Run(string(key), func(t *testing.T) {
			got := r.Fill(key.Token(), testClient(), testParams())
			assert.Equal(t, want[key], got)
			assert.NotContains(t, got, "{{")
		})
	}
}

func TestEveryKeyHasOneResolver(t *testing.T) {
	keys := Keys()
	require.Len(t, keys, 14)
	assert.Len(t, resolvers, len(keys))
	for _, key := range keys {
		_, ok := resolvers[key]
		assert.True(t, ok, "missing resolver for %s", key)
	}
}

func TestFillWithoutClient(t *testing.T) {
	r := testRenderer()
	tmpl := "{{RAZAO_SOCIAL}}{{CNPJ}}{{ENDERECO}}{{RESPONSAVEL}}{{CONTATO}}"

	got := r.Fill(tmpl, nil, testParams())
	assert.Equal(t, "[RAZÃO SOCIAL][CNPJ][ENDEREÇO][RESPONSÁVEL][CONTATO]", got)
}

func TestFillEmptyClientFieldsFallBack(t *testing.T) {
	r := testRenderer()
	client := &models.Client{RazaoSocial: "ACME"}

	got := r.Fill("{{RAZAO_SOCIAL}} / {{CNPJ}}", client, testParams())
	assert.Equal(t, "ACME / [CNPJ]", got)
}

func TestFillUnknownTokensPassThrough(t *testing.T) {
	r := testRenderer()
	tmpl := "Olá {{UNKNOWN}}, {{razao_social}} {{ CNPJ }} {CNPJ}"

	assert.Equal(t, tmpl, r.Fill(tmpl, testClient(), testParams()))
}

func TestFillRepeatedKey(t *testing.T) {
	r := testRenderer()

	got := r.Fill("{{CIDADE}} - {{CIDADE}} - {{CIDADE}}", nil, testParams())
	assert.Equal(t, "São Paulo - São Paulo - São Paulo", got)
}

func TestFillEmptyAndPlainTemplates(t *testing.T) {
	r := testRenderer()

	assert.Equal(t, "", r.Fill("", testClient(), testParams()))

	plain := "Contrato sem lacunas.\nLinha 2 { } }} {{"
	assert.Equal(t, plain, r.Fill(plain, testClient(), testParams()))
}

func TestFillDefaults(t *testing.T) {
	r := testRenderer()
	params := models.ContractParams{
		ValorContrato: 0.5,
		Recorrencia:   models.RecurrenceUnico,
		DataInicio:    time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}

	got := r.Fill("{{DATA_FIM}}|{{SERVICO}}|{{DIA_VENCIMENTO}}|{{CIDADE}}|{{RECORRENCIA}}|{{VALOR_EXTENSO}}", nil, params)
	assert.Equal(t, "[DATA DE TÉRMINO]|[DESCRIÇÃO DO SERVIÇO]|10|[CIDADE]|pagamento único|cinquenta centavos", got)
}

func TestFillUnknownRecurrencePassesThrough(t *testing.T) {
	r := testRenderer()
	params := testParams()
	params.Recorrencia = "quinzenal"

	assert.Equal(t, "quinzenal", r.Fill("{{RECORRENCIA}}", nil, params))
}

func TestFillDoesNotReexpandValues(t *testing.T) {
	r := testRenderer()
	client := testClient()
	client.RazaoSocial = "{{CNPJ}}"

	got := r.Fill("{{RAZAO_SOCIAL}} {{CNPJ}}", client, testParams())
	assert.Equal(t, "{{CNPJ}} 12.345.678/0001-90", got)
}

func TestFillDefaultTemplate(t *testing.T) {
	r := testRenderer()

	got := r.Fill(models.DefaultContractTemplate, testClient(), testParams())

	assert.NotContains(t, got, "{{")
	assert.Contains(t, got, "CONTRATANTE: ACME Serviços Ltda")
	assert.Contains(t, got, "o valor de R$ 1.500,75 (mil e quinhentos reais e setenta e cinco centavos), com recorrência mensal.")
	assert.Contains(t, got, "São Paulo, 05 de março de 2025")
	assert.Contains(t, got, "CONTRATANTE: Maria Souza")
	assert.Equal(t, strings.Count(models.DefaultContractTemplate, "\n"), strings.Count(got, "\n"))
}

func TestFillIsConcurrencySafe(t *testing.T) {
	r := testRenderer()
	want := r.Fill(models.DefaultContractTemplate, testClient(), testParams())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, r.Fill(models.DefaultContractTemplate, testClient(), testParams()))
		}()
	}
	wg.Wait()
}

func TestPlaceholdersCatalog(t *testing.T) {
	got := Placeholders()
	require.Len(t, got, 14)

	keys := make([]string, len(got))
	for i, p := range got {
		keys[i] = p.Key
		assert.NotEmpty(t, p.Description)
	}
	want := []string{
		"{{RAZAO_SOCIAL}}", "{{CNPJ}}", "{{ENDERECO}}", "{{RESPONSAVEL}}", "{{CONTATO}}",
		"{{VALOR}}", "{{VALOR_EXTENSO}}", "{{RECORRENCIA}}", "{{DATA_INICIO}}", "{{DATA_FIM}}",
		"{{SERVICO}}", "{{DIA_VENCIMENTO}}", "{{CIDADE}}", "{{DATA_ATUAL}}",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("catalog order mismatch (-want +got):\n%s", diff)
	}

	got[0].Key = "mutated"
	assert.Equal(t, "{{RAZAO_SOCIAL}}", Placeholders()[0].Key)
}

func TestRenderReportsUnknownTokens(t *testing.T) {
	r := testRenderer()

	res := r.Render("{{CIDADE}} {{FOO}} {{BAR}} {{FOO}}", nil, testParams())
	assert.Equal(t, "São Paulo {{FOO}} {{BAR}} {{FOO}}", res.Content)
	assert.Equal(t, []string{"{{FOO}}", "{{BAR}}"}, res.Unresolved)
	assert.Equal(t, fixedNow, res.FilledAt)

	out, err := r.RenderJSON("{{CIDADE}}", nil, testParams())
	require.NoError(t, err)
	var decoded FilledContract
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "São Paulo", decoded.Content)
	assert.Empty(t, decoded.Unresolved)
}

func TestFillContractTemplateUsesWallClock(t *testing.T) {
	got := FillContractTemplate("{{DATA_ATUAL}}", nil, models.ContractParams{})
	assert.Equal(t, LongDate(time.Now()), got)
}

func TestRenderTerminal(t *testing.T) {
	out, err := RenderTerminal("CLÁUSULA 1ª - DO OBJETO\nprestação de serviços", 60)
	require.NoError(t, err)
	assert.Contains(t, out, "CLÁUSULA")
	assert.Contains(t, out, "prestação")
}
