package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/storage/local"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := local.New(t.TempDir(), "clabs", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewService(store, Options{
		DefaultCity: "São Paulo",
		Now:         func() time.Time { return fixedNow },
		Log:         logger.Nop(),
	})
}

func mustClient(t *testing.T, s *Service, name string, valor float64, rec models.ClientRecurrence) *models.Client {
	t.Helper()
	c := &models.Client{RazaoSocial: name, CNPJ: "12.345.678/0001-90", ValorPago: valor, Recorrencia: rec}
	require.NoError(t, s.CreateClient(context.Background(), c))
	return c
}

func TestNewServiceDefaults(t *testing.T) {
	s := NewService(nil, Options{})
	assert.Equal(t, 15000.0, s.RevenueGoal())
	assert.NotNil(t, s.Renderer())
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	c := &models.Client{RazaoSocial: "ACME Ltda", ValorPago: 1000}
	require.NoError(t, s.CreateClient(ctx, c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.ClientMensal, c.Recorrencia)
	assert.True(t, fixedNow.Equal(c.CreatedAt))

	err := s.CreateClient(ctx, &models.Client{RazaoSocial: "  "})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	err = s.CreateClient(ctx, &models.Client{RazaoSocial: "X", Recorrencia: "semanal"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestUpdateClientKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "ACME", 100, models.ClientMensal)

	upd := *c
	upd.RazaoSocial = "ACME SA"
	upd.CreatedAt = time.Time{}
	require.NoError(t, s.UpdateClient(ctx, &upd))

	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME SA", got.RazaoSocial)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	missing := &models.Client{ID: "nope", RazaoSocial: "X", Recorrencia: models.ClientMensal}
	assert.True(t, errors.HasCode(s.UpdateClient(ctx, missing), errors.ErrCodeNotFound))
}

func TestSearchClients(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	mustClient(t, s, "Padaria Pão Quente", 100, models.ClientMensal)
	mustClient(t, s, "Oficina do Zé", 100, models.ClientMensal)

	all, err := s.SearchClients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := s.SearchClients(ctx, "ofcna")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Oficina do Zé", found[0].RazaoSocial)

	none, err := s.SearchClients(ctx, "xyzxyz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMonthlyRevenue(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	mustClient(t, s, "Mensal", 1000, models.ClientMensal)
	mustClient(t, s, "Trimestral", 3000, models.ClientTrimestral)
	mustClient(t, s, "Anual", 12000, models.ClientAnual)

	total, err := s.MonthlyRevenue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 3000, total, 0.001)
}

func TestCreateContractResolvesClientName(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "ACME", 100, models.ClientMensal)

	k := &models.Contract{ClientID: c.ID, Titulo: "Gestão de redes", DataInicio: fixedNow}
	require.NoError(t, s.CreateContract(ctx, k))
	assert.Equal(t, "ACME", k.ClientName)
	assert.Equal(t, models.ContractPendente, k.Status)
	assert.Equal(t, models.RecurrenceMensal, k.Recorrencia)

	orphan := &models.Contract{ClientID: "ghost", Titulo: "Órfão", DataInicio: fixedNow}
	require.NoError(t, s.CreateContract(ctx, orphan))
	assert.Equal(t, models.UnknownClientName, orphan.ClientName)

	byClient, err := s.ListContractsByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, k.ID, byClient[0].ID)

	end := fixedNow.AddDate(0, 0, -1)
	bad := &models.Contract{Titulo: "x", DataInicio: fixedNow, DataFim: &end}
	assert.True(t, errors.HasCode(s.CreateContract(ctx, bad), errors.ErrCodeValidation))
}

func TestListContractsRefreshesClientName(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "Nome Antigo", 100, models.ClientMensal)
	require.NoError(t, s.CreateContract(ctx, &models.Contract{ClientID: c.ID, Titulo: "T", DataInicio: fixedNow}))

	c.RazaoSocial = "Nome Novo"
	require.NoError(t, s.UpdateClient(ctx, c))

	list, err := s.ListContracts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Nome Novo", list[0].ClientName)
}

func TestPreviewContract(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "ACME Ltda", 100, models.ClientMensal)

	filled, err := s.PreviewContract(ctx, &ContractDraft{
		ClientID: c.ID,
		Template: "{{RAZAO_SOCIAL}} | {{VALOR}} | {{CIDADE}} | {{DIA_VENCIMENTO}} | {{DATA_ATUAL}} | {{X}}",
		Params: models.ContractParams{
			ValorContrato: 1500,
			DataInicio:    fixedNow,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ACME Ltda | R$ 1.500,00 | São Paulo | 10 | 10 de março de 2025 | {{X}}", filled.Content)
	assert.Equal(t, []string{"{{X}}"}, filled.Unresolved)

	// missing client falls back to labels
	filled, err = s.PreviewContract(ctx, &ContractDraft{ClientID: "ghost", Template: "{{RAZAO_SOCIAL}}"})
	require.NoError(t, err)
	assert.Equal(t, "[RAZÃO SOCIAL]", filled.Content)

	_, err = s.PreviewContract(ctx, &ContractDraft{TemplateID: "missing"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestContractDueDayDefault(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "ACME Ltda", 100, models.ClientMensal)

	k, err := s.CreateContractFromTemplate(ctx, &ContractDraft{
		ClientID: c.ID,
		Template: "Vencimento dia {{DIA_VENCIMENTO}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Vencimento dia 10", k.Conteudo)

	k, err = s.CreateContractFromTemplate(ctx, &ContractDraft{
		ClientID: c.ID,
		Template: "Vencimento dia {{DIA_VENCIMENTO}}",
		Params:   models.ContractParams{DiaVencimento: 15},
	})
	require.NoError(t, err)
	assert.Equal(t, "Vencimento dia 15", k.Conteudo)
}

func TestCreateContractFromTemplateFreezesText(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "ACME Ltda", 100, models.ClientMensal)

	tmpl := &models.ContractTemplate{Name: "Simples", Content: "Contratante: {{RAZAO_SOCIAL}} ({{VALOR_EXTENSO}})"}
	require.NoError(t, s.SaveTemplate(ctx, tmpl))
	assert.Equal(t, "simples", tmpl.ID)

	k, err := s.CreateContractFromTemplate(ctx, &ContractDraft{
		ClientID:   c.ID,
		TemplateID: tmpl.ID,
		Params:     models.ContractParams{ValorContrato: 100, Recorrencia: models.RecurrenceAnual},
	})
	require.NoError(t, err)
	assert.Equal(t, "Contratante: ACME Ltda (cem reais)", k.Conteudo)
	assert.Equal(t, "Contrato 10 de março de 2025", k.Titulo)
	assert.Equal(t, models.RecurrenceAnual, k.Recorrencia)
	assert.True(t, fixedNow.Equal(k.DataInicio))

	tmpl.Content = "changed {{CNPJ}}"
	require.NoError(t, s.SaveTemplate(ctx, tmpl))

	stored, err := s.GetContract(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contratante: ACME Ltda (cem reais)", stored.Conteudo)
}

func TestTemplatesSeedDefault(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	list, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.DefaultTemplateID, list[0].ID)
	assert.Equal(t, models.DefaultContractTemplate, list[0].Content)

	require.NoError(t, s.DeleteTemplate(ctx, models.DefaultTemplateID))
	got, err := s.GetTemplate(ctx, models.DefaultTemplateID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultContractTemplate, got.Content)
}

func TestSaveTemplate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	err := s.SaveTemplate(ctx, &models.ContractTemplate{Name: "Vazio", Content: "  "})
	assert.True(t, errors.HasCode(err, errors.ErrCodeTemplateInvalid))

	err = s.SaveTemplate(ctx, &models.ContractTemplate{Content: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	tmpl := &models.ContractTemplate{Name: "Contrato Anual de Manutenção", Content: "{{CNPJ}}"}
	require.NoError(t, s.SaveTemplate(ctx, tmpl))
	assert.Equal(t, "contrato-anual-de-manutencao", tmpl.ID)
	assert.True(t, fixedNow.Equal(tmpl.CreatedAt))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Contrato Anual":  "contrato-anual",
		"  Padrão  ":      "padrao",
		"Serviço #2 (SP)": "servico-2-sp",
		"--Já--":          "ja",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
	assert.NotEmpty(t, slugify("***"))
}

func TestPlaceholdersCatalog(t *testing.T) {
	s := newTestService(t)
	ph := s.Placeholders()
	require.Len(t, ph, 14)
	assert.Equal(t, "{{RAZAO_SOCIAL}}", ph[0].Key)
}

func TestCreateTransactionDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	c := mustClient(t, s, "ACME", 100, models.ClientMensal)

	tx := &models.Transaction{Tipo: models.Entrada, Descricao: "Mensalidade", Valor: 500, Mes: 3, Ano: 2025, ClientID: c.ID}
	require.NoError(t, s.CreateTransaction(ctx, tx))
	assert.Equal(t, models.DefaultVencimento, tx.Vencimento)
	assert.Equal(t, "ACME", tx.ClientName)
	assert.Equal(t, "ACME", tx.ReferenciaNome)

	tx2 := &models.Transaction{Tipo: models.Despesa, Descricao: "Aluguel", Valor: 100, Mes: 3, Ano: 2025, ReferenciaNome: "Imobiliária"}
	require.NoError(t, s.CreateTransaction(ctx, tx2))
	assert.Equal(t, "Imobiliária", tx2.ReferenciaNome)

	bad := []*models.Transaction{
		{Tipo: "outro", Descricao: "x", Mes: 1, Ano: 2025},
		{Tipo: models.Entrada, Descricao: "x", Mes: 13, Ano: 2025},
		{Tipo: models.Entrada, Descricao: "", Mes: 1, Ano: 2025},
		{Tipo: models.Entrada, Descricao: "x", Mes: 1, Ano: 2025, Vencimento: 40},
	}
	for _, b := range bad {
		assert.True(t, errors.HasCode(s.CreateTransaction(ctx, b), errors.ErrCodeValidation), "%+v", b)
	}
}

func TestMonthlyTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	for _, tx := range []*models.Transaction{
		{Tipo: models.Entrada, Descricao: "a", Valor: 1000, Mes: 1, Ano: 2025},
		{Tipo: models.Entrada, Descricao: "b", Valor: 500, Mes: 1, Ano: 2025},
		{Tipo: models.Despesa, Descricao: "c", Valor: 300, Mes: 1, Ano: 2025},
		{Tipo: models.Despesa, Descricao: "d", Valor: 200, Mes: 12, Ano: 2025},
		{Tipo: models.Entrada, Descricao: "e", Valor: 999, Mes: 1, Ano: 2024},
	} {
		require.NoError(t, s.CreateTransaction(ctx, tx))
	}

	totals, err := s.MonthlyTotals(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, totals, 12)
	assert.Equal(t, models.MonthTotals{Mes: 1, Label: "Jan", Entradas: 1500, Despesas: 300, Saldo: 1200}, totals[0])
	assert.Equal(t, models.MonthTotals{Mes: 6, Label: "Jun"}, totals[5])
	assert.Equal(t, -200.0, totals[11].Saldo)

	jan, err := s.TransactionsByMonth(ctx, 1, 2025)
	require.NoError(t, err)
	assert.Len(t, jan, 3)
	assert.Equal(t, Totals{Entradas: 1500, Despesas: 300, Saldo: 1200}, SumTransactions(jan))
}

func TestDemandTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	d := &models.Demand{
		Demanda:     "Landing page",
		DataEntrega: fixedNow.AddDate(0, 0, 7),
		Status:      "em-andamento",
		Tarefas:     []models.TaskItem{{Titulo: "Briefing"}},
	}
	require.NoError(t, s.CreateDemand(ctx, d))
	assert.Equal(t, models.DemandEmAndamento, d.Status)
	assert.Equal(t, models.PriorityMedia, d.Prioridade)
	assert.Equal(t, models.UnknownClientName, d.ClientName)
	assert.True(t, fixedNow.Equal(d.DataPedido))
	require.NotEmpty(t, d.Tarefas[0].ID)

	got, err := s.AddTask(ctx, d.ID, "Layout")
	require.NoError(t, err)
	require.Len(t, got.Tarefas, 2)

	got, err = s.ToggleTask(ctx, d.ID, got.Tarefas[1].ID)
	require.NoError(t, err)
	done, total := got.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)

	_, err = s.ToggleTask(ctx, d.ID, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	_, err = s.AddTask(ctx, d.ID, " ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	got, err = s.SetDemandStatus(ctx, d.ID, models.DemandConcluida)
	require.NoError(t, err)
	assert.False(t, got.IsOpen())
	_, err = s.SetDemandStatus(ctx, d.ID, "parada")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	byStatus, err := s.DemandsByStatus(ctx, models.DemandConcluida)
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)
}

func TestListDemandsByDeliveryDate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	for _, days := range []int{9, 1, 5} {
		d := &models.Demand{Demanda: "d", DataEntrega: fixedNow.AddDate(0, 0, days)}
		require.NoError(t, s.CreateDemand(ctx, d))
	}

	list, err := s.ListDemands(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].DataEntrega.Before(list[1].DataEntrega))
	assert.True(t, list[1].DataEntrega.Before(list[2].DataEntrega))
}

func TestDashboard(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	s := newTestService(t)

	for i := 0; i < 12; i++ {
		mustClient(t, s, strings.Repeat("C", i+1)+" Comunicação e Marketing", float64(1000*(i+1)), models.ClientMensal)
	}
	require.NoError(t, s.CreateDemand(ctx, &models.Demand{Demanda: "x", DataEntrega: fixedNow}))
	require.NoError(t, s.CreateTransaction(ctx, &models.Transaction{Tipo: models.Entrada, Descricao: "m", Valor: 700, Mes: 3, Ano: 2025}))

	d, err := s.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 78000.0, d.Faturamento)
	assert.Equal(t, 78000.0*12, d.ReceitaAnual)
	assert.Equal(t, 100.0, d.MetaPercent)
	assert.Equal(t, 12, d.Clientes)
	assert.Equal(t, 1, d.Demandas)
	assert.Equal(t, 700.0, d.Mes.Entradas)

	require.Len(t, d.TopClients, 10)
	assert.Equal(t, 12000.0, d.TopClients[0].Value)
	assert.Equal(t, "CCCCCCCCCCCC Co...", d.TopClients[0].Name)
	assert.Equal(t, 3000.0, d.TopClients[9].Value)
}

func TestGoalPercent(t *testing.T) {
	assert.Equal(t, 50.0, GoalPercent(7500, 15000))
	assert.Equal(t, 100.0, GoalPercent(30000, 15000))
	assert.Equal(t, 0.0, GoalPercent(100, 0))
}
