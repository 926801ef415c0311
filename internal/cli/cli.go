// Package cli provides the headless command-line interface for pocket-crm.
//
// Every subcommand turns its flags and arguments into a parameter map and
// runs it through the shared CommandExecutor, so the terminal validates and
// reports errors exactly like the HTTP API. The session (user and agency) is
// taken from the configuration and may be overridden with --user/--agency.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-crm/internal/clipboard"
	"github.com/dpshade/pocket-crm/internal/commands"
	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/session"
	"github.com/dpshade/pocket-crm/internal/validation"
)

const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// CLI provides headless command-line interface functionality
type CLI struct {
	cfg      *config.Config
	service  *service.Service
	executor *commands.CommandExecutor
	log      *logger.Logger
	out      io.Writer

	// copyText is the clipboard used by "contract copy"
	copyText func(text string) (string, error)

	version string
	format  string
	agency  string
	user    string
	verbose bool
	raw     bool
}

// NewCLI creates a new CLI instance
func NewCLI(svc *service.Service, cfg *config.Config, log *logger.Logger) *CLI {
	log = logger.OrNop(log)
	return &CLI{
		cfg:      cfg,
		service:  svc,
		executor: commands.NewCommandExecutor(svc, log),
		log:      log,
		out:      os.Stdout,
		copyText: clipboard.CopyWithFallback,
		format:   FormatText,
	}
}

// SetOutput redirects command output, stdout by default
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// SetVersion sets the version printed by --version
func (c *CLI) SetVersion(v string) {
	c.version = v
}

// ExecuteCommand runs the command line given in args
func (c *CLI) ExecuteCommand(args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(c.out)
	return root.Execute()
}

// RootCommand builds the pocket-crm command tree
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pocket-crm",
		Short: "Clients, contracts, finances and demands for small agencies",
		Long: `pocket-crm keeps an agency's clients, contracts, cash flow and client demands.

Records live in a local directory per agency, or in the shared SQL database
when a user is signed in and the agency is not isolated.

Contracts are filled from templates with {{PLACEHOLDER}} tokens; run
"pocket-crm placeholders" for the list.`,
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.format {
			case FormatText, FormatTable, FormatJSON:
			default:
				return fmt.Errorf("unknown format %q (text, table or json)", c.format)
			}
			if c.agency != "" && !c.cfg.IsValidAgency(c.agency) {
				return c.handleError(errors.UnknownAgencyError(c.agency))
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.format, "format", "f", FormatText, "Output format: text, table or json")
	flags.StringVarP(&c.agency, "agency", "a", "", "Agency to work in (default: current agency)")
	flags.StringVarP(&c.user, "user", "u", "", "Signed-in user; shared agencies then use the remote database")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Show error details")

	root.AddCommand(
		c.clientCommand(),
		c.contractCommand(),
		c.templateCommand(),
		c.placeholdersCommand(),
		c.transactionCommand(),
		c.demandCommand(),
		c.dashboardCommand(),
		c.notificationsCommand(),
		c.serveCommand(),
		c.editCommand(),
		c.agencyCommand(),
		c.initCommand(),
	)
	return root
}

// session resolves the caller for this invocation
func (c *CLI) session() *session.Session {
	user := c.user
	if user == "" {
		user = c.cfg.User
	}
	agency := c.agency
	if agency == "" {
		agency = c.cfg.CurrentAgencyID()
	}
	return c.cfg.SessionFor(user, agency)
}

func (c *CLI) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return session.WithSession(ctx, c.session())
}

func (c *CLI) handleError(err error) error {
	return errors.NewCLIErrorHandler(c.verbose, c.log).HandleError(err)
}

// execute runs a command and returns its result, or the failure as an error
func (c *CLI) execute(cmd *cobra.Command, name string, params map[string]interface{}) (*commands.CommandResult, error) {
	result, err := c.executor.Execute(c.context(cmd), name, params)
	if err != nil {
		return nil, c.handleError(err)
	}
	if !result.Success {
		return nil, c.handleError(result.AsError())
	}
	return result, nil
}

// run executes a command and prints its result
func (c *CLI) run(cmd *cobra.Command, name string, params map[string]interface{}) error {
	result, err := c.execute(cmd, name, params)
	if err != nil {
		return err
	}
	return c.print(result)
}

// flagKeys maps flag names onto parameter keys where they differ
var flagKeys = map[string]string{
	"client":      "client_id",
	"template-id": "template_id",
	"tarefa":      "tarefas",
}

// collect copies the flags the user actually set into params
func collect(cmd *cobra.Command, params map[string]interface{}, names ...string) map[string]interface{} {
	if params == nil {
		params = map[string]interface{}{}
	}
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			continue
		}
		key, ok := flagKeys[name]
		if !ok {
			key = strings.ReplaceAll(name, "-", "_")
		}
		if values, err := cmd.Flags().GetStringArray(name); err == nil {
			items := make([]interface{}, len(values))
			for i, v := range values {
				items[i] = v
			}
			params[key] = items
			continue
		}
		value, _ := cmd.Flags().GetString(name)
		params[key] = value
	}
	return params
}

// recordParams flattens a stored record into snake_case parameters so an
// update only replaces the fields given on the command line
func recordParams(record interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	params := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		params[validation.SnakeCase(k)] = v
	}
	return params, nil
}

// update loads a record with getName, overlays the changed flags and runs updateName
func (c *CLI) update(cmd *cobra.Command, getName, updateName, id string, record func(data interface{}) interface{}, names ...string) error {
	result, err := c.execute(cmd, getName, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	params, err := recordParams(record(result.Data))
	if err != nil {
		return c.handleError(errors.Wrap(err, errors.ErrCodeInternalError, "failed to read record"))
	}
	params["id"] = id
	return c.run(cmd, updateName, collect(cmd, params, names...))
}

func stringFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		usage, ok := flagUsage[name]
		if !ok {
			usage = strings.ReplaceAll(name, "-", " ")
		}
		cmd.Flags().String(name, "", usage)
	}
}

var flagUsage = map[string]string{
	"client":          "Client ID",
	"razao-social":    "Legal company name",
	"cnpj":            "CNPJ",
	"endereco":        "Address",
	"valor-pago":      "Fee paid per billing cycle (1.500,00 or 1500.00)",
	"recorrencia":     "Billing cycle",
	"responsavel":     "Person in charge",
	"contato-interno": "Internal contact",
	"titulo":          "Title",
	"template-id":     "Template ID (default: padrao)",
	"valor":           "Amount (1.500,00 or 1500.00)",
	"data-inicio":     "Start date (YYYY-MM-DD)",
	"data-fim":        "End date (YYYY-MM-DD)",
	"servico":         "Service description",
	"dia-vencimento":  "Day of the month payment is due",
	"cidade":          "City printed on the contract",
	"status":          "Status",
	"tipo":            "entrada or despesa",
	"descricao":       "Description",
	"categoria":       "Category",
	"mes":             "Month (1-12)",
	"ano":             "Year",
	"vencimento":      "Due day",
	"payer-type":      "cliente, colaborador or outro",
	"referencia-nome": "Who the entry refers to",
	"demanda":         "Demand title",
	"data-pedido":     "Request date (YYYY-MM-DD)",
	"data-entrega":    "Delivery date (YYYY-MM-DD)",
	"prioridade":      "baixa, media, alta or urgente",
}
