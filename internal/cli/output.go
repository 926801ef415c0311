package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dpshade/pocket-crm/internal/commands"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/renderer"
	"github.com/dpshade/pocket-crm/internal/service"
)

const dateLayout = "02/01/2006"

// accent is the colour of the agency in use
func (c *CLI) accent() lipgloss.Color {
	agency, err := c.cfg.GetAgency(c.session().AgencyID)
	if err != nil || agency.Color == "" {
		return lipgloss.Color("205")
	}
	return lipgloss.Color(agency.Color)
}

// print writes a command result in the selected format
func (c *CLI) print(result *commands.CommandResult) error {
	if c.format == FormatJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Data)
	}

	switch data := result.Data.(type) {
	case []*models.Client:
		c.clients(data)
	case *commands.ClientDetail:
		c.clientDetail(data)
	case *models.Client:
		c.fields(clientFieldsOf(data))
		c.message(result)
	case []*models.Contract:
		c.contracts(data)
	case *models.Contract:
		return c.contract(data)
	case *renderer.FilledContract:
		return c.filled(data)
	case []*models.ContractTemplate:
		c.templates(data)
	case *models.ContractTemplate:
		c.template(data)
		c.message(result)
	case []renderer.PlaceholderInfo:
		c.placeholders(data)
	case *commands.TransactionList:
		c.transactions(data)
	case *models.Transaction:
		c.fields(transactionFieldsOf(data))
		c.message(result)
	case []models.MonthTotals:
		c.monthly(data)
	case []*models.Demand:
		c.demands(data)
	case *models.Demand:
		c.demand(data)
		c.message(result)
	case *service.Dashboard:
		c.dashboard(data)
	case []models.Notification:
		c.notifications(data)
	default:
		c.message(result)
	}
	return nil
}

func (c *CLI) message(result *commands.CommandResult) {
	if result.Message != "" {
		fmt.Fprintln(c.out, result.Message)
	}
}

// table prints rows as a bordered table in table format, or as
// space-separated lines otherwise
func (c *CLI) table(headers []string, rows [][]string) {
	if c.format != FormatTable {
		for _, row := range rows {
			fmt.Fprintln(c.out, strings.Join(row, "  "))
		}
		return
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(c.accent()).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(c.accent())).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(c.out, t.Render())
}

type field struct {
	label string
	value string
}

// fields prints label: value lines, skipping empty values
func (c *CLI) fields(list []field) {
	width := 0
	for _, f := range list {
		if len(f.label) > width {
			width = len(f.label)
		}
	}
	label := lipgloss.NewStyle().Bold(true).Foreground(c.accent())
	for _, f := range list {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(c.out, "%s %s\n", label.Render(fmt.Sprintf("%-*s", width+1, f.label+":")), f.value)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func clientFieldsOf(cl *models.Client) []field {
	return []field{
		{"ID", cl.ID},
		{"Razão social", cl.RazaoSocial},
		{"CNPJ", cl.CNPJ},
		{"Endereço", cl.Endereco},
		{"Valor", renderer.FormatBRL(cl.ValorPago) + " " + string(cl.Recorrencia)},
		{"Mensal", renderer.FormatBRL(cl.MonthlyValue())},
		{"Responsável", cl.Responsavel},
		{"Contato", cl.ContatoInterno},
		{"Cliente desde", date(cl.CreatedAt)},
	}
}

func (c *CLI) clients(list []*models.Client) {
	rows := make([][]string, 0, len(list))
	for _, cl := range list {
		rows = append(rows, []string{cl.ID, truncate(cl.RazaoSocial, 30), cl.CNPJ, renderer.FormatBRL(cl.MonthlyValue())})
	}
	c.table([]string{"ID", "Razão social", "CNPJ", "Mensal"}, rows)
}

func (c *CLI) clientDetail(d *commands.ClientDetail) {
	c.fields(clientFieldsOf(d.Client))
	if len(d.Contracts) == 0 {
		return
	}
	fmt.Fprintln(c.out)
	c.contracts(d.Contracts)
}

func (c *CLI) contracts(list []*models.Contract) {
	rows := make([][]string, 0, len(list))
	for _, k := range list {
		rows = append(rows, []string{
			k.ID,
			truncate(k.Titulo, 30),
			truncate(k.ClientName, 20),
			renderer.FormatBRL(k.ValorContrato),
			string(k.Status),
		})
	}
	c.table([]string{"ID", "Título", "Cliente", "Valor", "Status"}, rows)
}

// styled renders contract text through glamour unless --raw is set
func (c *CLI) styled(text string) error {
	if c.raw || c.format == FormatTable {
		fmt.Fprintln(c.out, text)
		return nil
	}
	out, err := renderer.RenderTerminal(text, 100)
	if err != nil {
		return c.handleError(err)
	}
	fmt.Fprint(c.out, out)
	return nil
}

func (c *CLI) contract(k *models.Contract) error {
	fim := "indeterminado"
	if k.DataFim != nil {
		fim = date(*k.DataFim)
	}
	c.fields([]field{
		{"ID", k.ID},
		{"Título", k.Titulo},
		{"Cliente", k.ClientName},
		{"Valor", renderer.FormatBRL(k.ValorContrato) + " " + renderer.RecurrenceLabel(k.Recorrencia)},
		{"Vigência", date(k.DataInicio) + " a " + fim},
		{"Status", string(k.Status)},
	})
	if k.Conteudo == "" {
		return nil
	}
	fmt.Fprintln(c.out)
	return c.styled(k.Conteudo)
}

func (c *CLI) filled(f *renderer.FilledContract) error {
	if err := c.styled(f.Content); err != nil {
		return err
	}
	if len(f.Unresolved) > 0 {
		fmt.Fprintf(c.out, "\nUnknown placeholders left as-is: %s\n", strings.Join(f.Unresolved, ", "))
	}
	return nil
}

func (c *CLI) templates(list []*models.ContractTemplate) {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, []string{t.ID, truncate(t.Name, 40), date(t.UpdatedAt)})
	}
	c.table([]string{"ID", "Nome", "Atualizado"}, rows)
}

func (c *CLI) template(t *models.ContractTemplate) {
	c.fields([]field{
		{"ID", t.ID},
		{"Nome", t.Name},
		{"Descrição", t.Description},
		{"Atualizado", date(t.UpdatedAt)},
	})
	fmt.Fprintf(c.out, "\n%s\n\n", t.Content)
}

func (c *CLI) placeholders(list []renderer.PlaceholderInfo) {
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{p.Key, p.Description})
	}
	c.table([]string{"Placeholder", "Descrição"}, rows)
}

func transactionFieldsOf(t *models.Transaction) []field {
	return []field{
		{"ID", t.ID},
		{"Tipo", string(t.Tipo)},
		{"Descrição", t.Descricao},
		{"Valor", renderer.FormatBRL(t.Valor)},
		{"Categoria", t.Categoria},
		{"Competência", fmt.Sprintf("%s/%d", models.MonthLabel(t.Mes), t.Ano)},
		{"Vencimento", date(t.DueDate(nil))},
		{"Referente a", t.ReferenciaNome},
		{"Cliente", t.ClientName},
	}
}

func (c *CLI) transactions(list *commands.TransactionList) {
	rows := make([][]string, 0, len(list.Transactions))
	for _, t := range list.Transactions {
		valor := renderer.FormatBRL(t.Valor)
		if t.Tipo == models.Despesa {
			valor = "-" + valor
		}
		rows = append(rows, []string{
			t.ID,
			fmt.Sprintf("%02d/%d", t.Mes, t.Ano),
			truncate(t.Descricao, 30),
			t.Categoria,
			valor,
		})
	}
	c.table([]string{"ID", "Mês", "Descrição", "Categoria", "Valor"}, rows)
	fmt.Fprintf(c.out, "Entradas %s  Despesas %s  Saldo %s\n",
		renderer.FormatBRL(list.Totals.Entradas),
		renderer.FormatBRL(list.Totals.Despesas),
		renderer.FormatBRL(list.Totals.Saldo))
}

func (c *CLI) monthly(months []models.MonthTotals) {
	rows := make([][]string, 0, len(months))
	for _, m := range months {
		rows = append(rows, []string{
			m.Label,
			renderer.FormatBRL(m.Entradas),
			renderer.FormatBRL(m.Despesas),
			renderer.FormatBRL(m.Saldo),
		})
	}
	c.table([]string{"Mês", "Entradas", "Despesas", "Saldo"}, rows)
}

func (c *CLI) demands(list []*models.Demand) {
	rows := make([][]string, 0, len(list))
	for _, d := range list {
		done, total := d.Progress()
		rows = append(rows, []string{
			d.ID,
			truncate(d.Demanda, 30),
			truncate(d.ClientName, 20),
			date(d.DataEntrega),
			string(d.Status),
			string(d.Prioridade),
			strconv.Itoa(done) + "/" + strconv.Itoa(total),
		})
	}
	c.table([]string{"ID", "Demanda", "Cliente", "Entrega", "Status", "Prioridade", "Tarefas"}, rows)
}

func (c *CLI) demand(d *models.Demand) {
	done, total := d.Progress()
	c.fields([]field{
		{"ID", d.ID},
		{"Demanda", d.Demanda},
		{"Cliente", d.ClientName},
		{"Descrição", d.Descricao},
		{"Pedido", date(d.DataPedido)},
		{"Entrega", date(d.DataEntrega)},
		{"Responsável", d.Responsavel},
		{"Status", string(d.Status)},
		{"Prioridade", string(d.Prioridade)},
		{"Tarefas", fmt.Sprintf("%d/%d", done, total)},
	})
	for _, t := range d.Tarefas {
		mark := "[ ]"
		if t.Concluida {
			mark = "[x]"
		}
		fmt.Fprintf(c.out, "  %s %s  (%s)\n", mark, t.Titulo, t.ID)
	}
}

func (c *CLI) dashboard(d *service.Dashboard) {
	bar := progress.New(
		progress.WithSolidFill(string(c.accent())),
		progress.WithWidth(40),
	)
	c.fields([]field{
		{"Faturamento mensal", renderer.FormatBRL(d.Faturamento)},
		{"Receita anual", renderer.FormatBRL(d.ReceitaAnual)},
		{"Meta", renderer.FormatBRL(d.Meta)},
		{"Clientes", strconv.Itoa(d.Clientes)},
		{"Contratos ativos", strconv.Itoa(d.Contratos)},
		{"Demandas abertas", strconv.Itoa(d.Demandas)},
		{"Saldo do mês", renderer.FormatBRL(d.Mes.Saldo)},
	})
	fmt.Fprintf(c.out, "\n%s\n", bar.ViewAs(d.MetaPercent/100))

	if len(d.TopClients) == 0 {
		return
	}
	fmt.Fprintln(c.out)
	rows := make([][]string, 0, len(d.TopClients))
	for _, cv := range d.TopClients {
		rows = append(rows, []string{cv.Name, renderer.FormatBRL(cv.Value)})
	}
	c.table([]string{"Cliente", "Mensal"}, rows)
}

func (c *CLI) notifications(list []models.Notification) {
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No notifications")
		return
	}
	styles := map[models.Severity]lipgloss.Style{
		models.SeverityDanger: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		models.SeverityWarn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		models.SeverityInfo:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
	for _, n := range list {
		fmt.Fprintf(c.out, "%s %s\n  %s\n", styles[n.Severity].Render("["+string(n.Type)+"]"), n.Title, n.Description)
	}
}
