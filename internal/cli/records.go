package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-crm/internal/commands"
	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
)

var (
	clientFields      = []string{"razao-social", "cnpj", "endereco", "valor-pago", "recorrencia", "responsavel", "contato-interno"}
	fillFields        = []string{"client", "template-id", "valor", "recorrencia", "data-inicio", "data-fim", "servico", "dia-vencimento", "cidade"}
	transactionFields = []string{"tipo", "descricao", "valor", "categoria", "mes", "ano", "vencimento", "payer-type", "referencia-nome", "client"}
	demandFields      = []string{"client", "demanda", "descricao", "data-pedido", "data-entrega", "responsavel", "status", "prioridade"}
)

func idParams(id string) map[string]interface{} {
	return map[string]interface{}{"id": id}
}

// byID builds a subcommand that runs name with its argument as the id
func (c *CLI) byID(use, short, name string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, name, idParams(args[0]))
		},
	}
}

func (c *CLI) clientCommand() *cobra.Command {
	clientCmd := &cobra.Command{
		Use:     "client",
		Aliases: []string{"clients"},
		Short:   "Manage clients",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "client-list", nil)
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search clients by name, CNPJ or contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "client-search", map[string]interface{}{"query": args[0]})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a client",
		Example: `  pocket-crm client create --razao-social "ACME Ltda" --cnpj 12.345.678/0001-90 \
    --valor-pago 1.500,00 --recorrencia mensal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "client-create", collect(cmd, nil, clientFields...))
		},
	}
	stringFlags(createCmd, clientFields...)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a client; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.update(cmd, "client-get", "client-update", args[0], func(data interface{}) interface{} {
				return data.(*commands.ClientDetail).Client
			}, clientFields...)
		},
	}
	stringFlags(updateCmd, clientFields...)

	clientCmd.AddCommand(
		listCmd,
		searchCmd,
		c.byID("get", "Show a client with its contracts", "client-get"),
		createCmd,
		updateCmd,
		c.byID("delete", "Delete a client", "client-delete"),
	)
	return clientCmd
}

func (c *CLI) contractCommand() *cobra.Command {
	contractCmd := &cobra.Command{
		Use:     "contract",
		Aliases: []string{"contracts"},
		Short:   "Fill templates and manage contracts",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "contract-list", collect(cmd, nil, "client", "status"))
		},
	}
	stringFlags(listCmd, "client", "status")

	var templateFile string
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Fill a template without saving it",
		Long: `Fills a contract template with client and contract data and prints the result.

The template is the stored one named by --template-id (default: padrao), or the
text of --template-file. Placeholders with no value print a bracketed label.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := collect(cmd, nil, fillFields...)
			if templateFile != "" {
				content, err := os.ReadFile(templateFile)
				if err != nil {
					return c.handleError(errors.StorageError("read template file", err))
				}
				params["template"] = string(content)
			}
			return c.run(cmd, "contract-preview", params)
		},
	}
	stringFlags(previewCmd, fillFields...)
	previewCmd.Flags().StringVar(&templateFile, "template-file", "", "Fill this file instead of a stored template")
	previewCmd.Flags().BoolVar(&c.raw, "raw", false, "Print plain text instead of styled output")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Fill a template and save the result as a contract",
		Example: `  pocket-crm contract create --client <id> --titulo "Gestão de redes" \
    --valor 2.500,00 --recorrencia mensal --data-inicio 2025-03-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "contract-create", collect(cmd, nil, append(fillFields, "titulo", "status")...))
		},
	}
	stringFlags(createCmd, append(fillFields, "titulo", "status")...)

	getCmd := c.byID("get", "Show a contract and its text", "contract-get")
	getCmd.Flags().BoolVar(&c.raw, "raw", false, "Print plain text instead of styled output")

	copyCmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a contract's text to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.execute(cmd, "contract-get", idParams(args[0]))
			if err != nil {
				return err
			}
			k := result.Data.(*models.Contract)
			if status, err := c.copyText(k.Conteudo); err != nil {
				fmt.Fprintf(c.out, "Warning: %v\n", err)
				fmt.Fprintln(c.out, "Contract text was not copied to the clipboard.")
			} else {
				fmt.Fprintln(c.out, status)
			}
			return nil
		},
	}

	contractCmd.AddCommand(
		listCmd,
		getCmd,
		previewCmd,
		createCmd,
		c.byID("delete", "Delete a contract", "contract-delete"),
		copyCmd,
	)
	return contractCmd
}

func (c *CLI) templateCommand() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Manage contract templates",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "template-list", nil)
		},
	}

	var file string
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace a template",
		Long: `Saves a contract template. Without --id the id is derived from the name,
so "Contrato Anual" becomes contrato-anual. The text comes from --file or --content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := collect(cmd, nil, "id", "name", "description", "content")
			if file != "" {
				content, err := os.ReadFile(file)
				if err != nil {
					return c.handleError(errors.StorageError("read template file", err))
				}
				params["content"] = string(content)
			}
			return c.run(cmd, "template-save", params)
		},
	}
	saveCmd.Flags().String("id", "", "Template ID")
	saveCmd.Flags().String("name", "", "Template name")
	saveCmd.Flags().String("description", "", "Short description")
	saveCmd.Flags().String("content", "", "Template text")
	saveCmd.Flags().StringVar(&file, "file", "", "Read the template text from this file")

	templateCmd.AddCommand(
		listCmd,
		c.byID("get", "Show a template", "template-get"),
		saveCmd,
		c.byID("delete", "Delete a template", "template-delete"),
	)
	return templateCmd
}

func (c *CLI) placeholdersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "placeholders",
		Short: "List the {{KEY}} placeholders templates can use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "placeholders", nil)
		},
	}
}

func (c *CLI) transactionCommand() *cobra.Command {
	transactionCmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"tx", "transactions"},
		Short:   "Record income and expenses",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transactions, optionally for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "transaction-list", collect(cmd, nil, "mes", "ano", "tipo"))
		},
	}
	stringFlags(listCmd, "mes", "ano", "tipo")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Record a transaction",
		Example: `  pocket-crm transaction create --tipo entrada --descricao "Mensalidade ACME" \
    --valor 1.500,00 --mes 3 --ano 2025 --client <id>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "transaction-create", collect(cmd, nil, transactionFields...))
		},
	}
	stringFlags(createCmd, transactionFields...)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a transaction; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.update(cmd, "transaction-get", "transaction-update", args[0], identity, transactionFields...)
		},
	}
	stringFlags(updateCmd, transactionFields...)

	monthlyCmd := &cobra.Command{
		Use:   "monthly",
		Short: "Income, expenses and balance per month of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := collect(cmd, nil, "ano")
			if _, ok := params["ano"]; !ok {
				params["ano"] = time.Now().Year()
			}
			return c.run(cmd, "transaction-monthly", params)
		},
	}
	stringFlags(monthlyCmd, "ano")

	transactionCmd.AddCommand(
		listCmd,
		c.byID("get", "Show a transaction", "transaction-get"),
		createCmd,
		updateCmd,
		c.byID("delete", "Delete a transaction", "transaction-delete"),
		monthlyCmd,
	)
	return transactionCmd
}

func identity(data interface{}) interface{} { return data }

func (c *CLI) demandCommand() *cobra.Command {
	demandCmd := &cobra.Command{
		Use:     "demand",
		Aliases: []string{"demands"},
		Short:   "Track client demands and their checklists",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List demands by delivery date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "demand-list", collect(cmd, nil, "status", "client"))
		},
	}
	stringFlags(listCmd, "status", "client")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a demand",
		Example: `  pocket-crm demand create --demanda "Novo site" --data-entrega 2025-04-01 \
    --tarefa Layout --tarefa Deploy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "demand-create", collect(cmd, nil, append(demandFields, "tarefa")...))
		},
	}
	stringFlags(createCmd, demandFields...)
	createCmd.Flags().StringArray("tarefa", nil, "Checklist item (repeatable)")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a demand; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.update(cmd, "demand-get", "demand-update", args[0], identity, demandFields...)
		},
	}
	stringFlags(updateCmd, demandFields...)

	addTaskCmd := &cobra.Command{
		Use:   "add-task <id> <titulo>",
		Short: "Add a checklist item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "demand-add-task", map[string]interface{}{"id": args[0], "titulo": args[1]})
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle-task <id> <task-id>",
		Short: "Mark a checklist item done or not done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "demand-toggle-task", map[string]interface{}{"id": args[0], "task_id": args[1]})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a demand to pendente, em_andamento, concluida or atrasada",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "demand-status", map[string]interface{}{"id": args[0], "status": args[1]})
		},
	}

	demandCmd.AddCommand(
		listCmd,
		c.byID("get", "Show a demand and its checklist", "demand-get"),
		createCmd,
		updateCmd,
		c.byID("delete", "Delete a demand", "demand-delete"),
		addTaskCmd,
		toggleCmd,
		statusCmd,
	)
	return demandCmd
}

func (c *CLI) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Revenue, goal progress, top clients and open work",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "dashboard", nil)
		},
	}
}

func (c *CLI) notificationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"alerts"},
		Short:   "Upcoming deadlines and overdue payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "notifications", nil)
		},
	}
}
