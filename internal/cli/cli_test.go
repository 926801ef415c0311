package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/storage"
	"github.com/dpshade/pocket-crm/internal/storage/local"
	"github.com/dpshade/pocket-crm/internal/storage/sqlstore"
)

type testCLI struct {
	*CLI
	dir    string
	copied []string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	remote, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(dir, "remote.db"), logger.Nop())
	require.NoError(t, err)
	router := storage.NewRouter(remote, func(agencyID string) (storage.Store, error) {
		return local.New(cfg.AgencyDir(agencyID), agencyID, logger.Nop())
	}, cfg.CurrentAgency, logger.Nop())
	t.Cleanup(func() { _ = router.Close() })

	svc := service.NewService(router, service.Options{
		DefaultCity: "Curitiba",
		Now:         func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})

	tc := &testCLI{CLI: NewCLI(svc, cfg, logger.Nop()), dir: dir}
	tc.copyText = func(text string) (string, error) {
		tc.copied = append(tc.copied, text)
		return "Copied to clipboard!", nil
	}
	return tc
}

func (tc *testCLI) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	tc.SetOutput(&buf)
	err := tc.ExecuteCommand(args)
	return buf.String(), err
}

func (tc *testCLI) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := tc.run(t, args...)
	require.NoError(t, err, "%v", args)
	return out
}

// record runs a json command and decodes its data
func (tc *testCLI) record(t *testing.T, args ...string) map[string]interface{} {
	t.Helper()
	out := tc.mustRun(t, append(args, "--format", "json")...)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &data), out)
	return data
}

func TestClientCommands(t *testing.T) {
	tc := newTestCLI(t)

	created := tc.record(t, "client", "create",
		"--razao-social", "ACME Ltda", "--valor-pago", "3.000,00", "--recorrencia", "trimestral")
	id := created["id"].(string)
	assert.InDelta(t, 3000, created["valorPago"], 0.001)

	out := tc.mustRun(t, "client", "list")
	assert.Contains(t, out, "ACME Ltda")
	assert.Contains(t, out, "R$ 1.000,00")

	out = tc.mustRun(t, "client", "list", "--format", "table")
	assert.Contains(t, out, "Razão social")
	assert.Contains(t, out, id)

	updated := tc.record(t, "client", "update", id, "--cnpj", "12.345.678/0001-90")
	assert.Equal(t, "ACME Ltda", updated["razaoSocial"])
	assert.Equal(t, "12.345.678/0001-90", updated["cnpj"])
	assert.InDelta(t, 3000, updated["valorPago"], 0.001)
	assert.Equal(t, "trimestral", updated["recorrencia"])

	out = tc.mustRun(t, "client", "search", "acme")
	assert.Contains(t, out, id)

	out = tc.mustRun(t, "client", "get", id)
	assert.Contains(t, out, "12.345.678/0001-90")

	out = tc.mustRun(t, "client", "delete", id)
	assert.Contains(t, out, "Deleted client "+id)

	_, err := tc.run(t, "client", "get", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = tc.run(t, "client", "create", "--cnpj", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "razao_social")
}

func TestContractCommands(t *testing.T) {
	tc := newTestCLI(t)

	file := filepath.Join(tc.dir, "modelo.md")
	require.NoError(t, os.WriteFile(file, []byte("{{VALOR_EXTENSO}} em {{CIDADE}} {{NOPE}}"), 0644))

	out := tc.mustRun(t, "contract", "preview", "--template-file", file, "--valor", "2,50", "--cidade", "Recife", "--raw")
	assert.Contains(t, out, "dois reais e cinquenta centavos em Recife {{NOPE}}")
	assert.Contains(t, out, "Unknown placeholders left as-is: {{NOPE}}")

	_, err := tc.run(t, "contract", "preview", "--data-inicio", "2025-03-10", "--data-fim", "2025-01-01")
	assert.Error(t, err)

	client := tc.record(t, "client", "create", "--razao-social", "ACME Ltda")
	clientID := client["id"].(string)

	k := tc.record(t, "contract", "create", "--client", clientID, "--titulo", "Gestão de redes", "--valor", "100")
	kID := k["id"].(string)
	assert.Contains(t, k["conteudo"], "cem reais")
	assert.Contains(t, k["conteudo"], "ACME Ltda")
	assert.Equal(t, "ACME Ltda", k["clientName"])

	out = tc.mustRun(t, "contract", "list", "--client", clientID, "--format", "table")
	assert.Contains(t, out, "Gestão de redes")

	out = tc.mustRun(t, "contract", "get", kID, "--raw")
	assert.Contains(t, out, "CONTRATO DE PRESTAÇÃO DE SERVIÇOS")

	out = tc.mustRun(t, "contract", "copy", kID)
	assert.Contains(t, out, "Copied to clipboard!")
	require.Len(t, tc.copied, 1)
	assert.Equal(t, k["conteudo"], tc.copied[0])

	tc.copyText = func(string) (string, error) { return "", fmt.Errorf("no clipboard utility found") }
	out = tc.mustRun(t, "contract", "copy", kID)
	assert.Contains(t, out, "Warning: no clipboard utility found")

	tc.mustRun(t, "contract", "delete", kID)
	out = tc.mustRun(t, "contract", "list")
	assert.NotContains(t, out, kID)
}

func TestTemplateCommands(t *testing.T) {
	tc := newTestCLI(t)

	out := tc.mustRun(t, "template", "list")
	assert.Contains(t, out, "padrao")

	file := filepath.Join(tc.dir, "anual.md")
	require.NoError(t, os.WriteFile(file, []byte("Contrato anual de {{RAZAO_SOCIAL}}"), 0644))
	out = tc.mustRun(t, "template", "save", "--name", "Contrato Anual", "--file", file)
	assert.Contains(t, out, "Saved template 'contrato-anual'")

	out = tc.mustRun(t, "template", "list")
	assert.Contains(t, out, "padrao")
	assert.Contains(t, out, "contrato-anual")

	out = tc.mustRun(t, "template", "get", "contrato-anual")
	assert.Contains(t, out, "Contrato anual de {{RAZAO_SOCIAL}}")

	out = tc.mustRun(t, "contract", "preview", "--template-id", "contrato-anual", "--raw")
	assert.Contains(t, out, "Contrato anual de [RAZÃO SOCIAL]")

	_, err := tc.run(t, "template", "save", "--name", "Vazio")
	assert.Error(t, err)

	out = tc.mustRun(t, "placeholders")
	assert.Contains(t, out, "{{VALOR_EXTENSO}}")
}

func TestTransactionCommands(t *testing.T) {
	tc := newTestCLI(t)

	income := tc.record(t, "transaction", "create", "--tipo", "entrada", "--descricao", "Mensalidade",
		"--valor", "1.000,00", "--mes", "3", "--ano", "2025")
	tc.mustRun(t, "transaction", "create", "--tipo", "despesa", "--descricao", "Aluguel",
		"--valor", "400", "--mes", "3", "--ano", "2025")

	out := tc.mustRun(t, "transaction", "list", "--mes", "3", "--ano", "2025")
	assert.Contains(t, out, "Mensalidade")
	assert.Contains(t, out, "Saldo R$ 600,00")

	_, err := tc.run(t, "transaction", "list", "--mes", "3")
	assert.Error(t, err)

	updated := tc.record(t, "transaction", "update", income["id"].(string), "--valor", "1200")
	assert.Equal(t, "Mensalidade", updated["descricao"])
	assert.InDelta(t, 1200, updated["valor"], 0.001)
	assert.EqualValues(t, 3, updated["mes"])

	out = tc.mustRun(t, "transaction", "monthly", "--ano", "2025", "--format", "json")
	var months []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &months))
	require.Len(t, months, 12)
	assert.InDelta(t, 800, months[2]["saldo"], 0.001)
}

func TestDemandCommands(t *testing.T) {
	tc := newTestCLI(t)

	d := tc.record(t, "demand", "create", "--demanda", "Novo site", "--data-entrega", "2025-03-11",
		"--tarefa", "Layout", "--tarefa", "Deploy")
	id := d["id"].(string)
	tasks := d["tarefas"].([]interface{})
	require.Len(t, tasks, 2)
	layoutID := tasks[0].(map[string]interface{})["id"].(string)

	out := tc.mustRun(t, "demand", "toggle-task", id, layoutID)
	assert.Contains(t, out, "[x] Layout")

	tc.mustRun(t, "demand", "add-task", id, "Testes")
	tc.mustRun(t, "demand", "status", id, "em_andamento")

	updated := tc.record(t, "demand", "update", id, "--responsavel", "Ana")
	assert.Equal(t, "Ana", updated["responsavel"])
	assert.Equal(t, "em_andamento", updated["status"])
	require.Len(t, updated["tarefas"], 3)
	assert.Equal(t, true, updated["tarefas"].([]interface{})[0].(map[string]interface{})["concluida"])

	out = tc.mustRun(t, "demand", "list", "--status", "em_andamento", "--format", "table")
	assert.Contains(t, out, "Novo site")
	assert.Contains(t, out, "1/3")

	out = tc.mustRun(t, "notifications")
	assert.Contains(t, out, "[prazo]")

	_, err := tc.run(t, "demand", "status", id, "parada")
	assert.Error(t, err)
}

func TestDashboardCommand(t *testing.T) {
	tc := newTestCLI(t)
	tc.mustRun(t, "client", "create", "--razao-social", "ACME Ltda", "--valor-pago", "7500")

	dash := tc.record(t, "dashboard")
	assert.InDelta(t, 50, dash["metaPercent"], 0.001)

	out := tc.mustRun(t, "dashboard")
	assert.Contains(t, out, "R$ 7.500,00")
	assert.Contains(t, out, "ACME Ltda")
}

func TestSessionFlags(t *testing.T) {
	tc := newTestCLI(t)

	tc.mustRun(t, "--agency", "sky", "client", "create", "--razao-social", "Céu Azul")
	tc.mustRun(t, "-u", "ana", "client", "create", "--razao-social", "Compartilhada")

	out := tc.mustRun(t, "client", "list")
	assert.NotContains(t, out, "Céu Azul")
	assert.NotContains(t, out, "Compartilhada")

	out = tc.mustRun(t, "-a", "sky", "client", "list")
	assert.Contains(t, out, "Céu Azul")

	out = tc.mustRun(t, "-u", "ana", "client", "list")
	assert.Contains(t, out, "Compartilhada")

	out = tc.mustRun(t, "-u", "ana", "-a", "sky", "client", "list")
	assert.Contains(t, out, "Céu Azul")
	assert.NotContains(t, out, "Compartilhada")

	_, err := tc.run(t, "-a", "ghost", "client", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Agency 'ghost' is not configured")

	_, err = tc.run(t, "--format", "xml", "client", "list")
	assert.Error(t, err)
}

func TestAgencyCommands(t *testing.T) {
	tc := newTestCLI(t)

	out := tc.mustRun(t, "agency", "list")
	assert.Contains(t, out, "*  clabs")
	assert.Contains(t, out, "sky")

	out = tc.mustRun(t, "agency", "switch", "sky")
	assert.Contains(t, out, "Switched to Agência Céu")
	assert.Equal(t, "sky", tc.cfg.CurrentAgency)

	reloaded, err := config.Load(tc.dir)
	require.NoError(t, err)
	assert.Equal(t, "sky", reloaded.CurrentAgency)

	_, err = tc.run(t, "agency", "switch", "ghost")
	assert.Error(t, err)

	tc.mustRun(t, "agency", "add", "acme", "--name", "ACME", "--mode", "isolated", "--color", "#FF0000")
	agency, err := tc.cfg.GetAgency("acme")
	require.NoError(t, err)
	assert.True(t, agency.IsIsolated())
	assert.DirExists(t, tc.cfg.AgencyDir("acme"))

	tc.mustRun(t, "agency", "remove", "acme")
	assert.False(t, tc.cfg.IsValidAgency("acme"))

	_, err = tc.run(t, "agency", "remove", "sky")
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	tc := newTestCLI(t)

	out := tc.mustRun(t, "init")
	assert.Contains(t, out, "Initialized pocket-crm in "+tc.dir)
	assert.FileExists(t, tc.cfg.Path())
	for _, a := range tc.cfg.Agencies {
		assert.DirExists(t, tc.cfg.AgencyDir(a.ID))
	}

	out = tc.mustRun(t, "-a", "sky", "template", "list")
	assert.Contains(t, out, "padrao")
}
