package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-crm/internal/api"
	"github.com/dpshade/pocket-crm/internal/commands"
	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/session"
	"github.com/dpshade/pocket-crm/internal/ui"
	"github.com/dpshade/pocket-crm/internal/validation"
)

func (c *CLI) serveCommand() *cobra.Command {
	var port int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the JSON API under /api/v1 with documentation at /api/docs.

Requests choose their store with the X-User-ID and X-Agency-ID headers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = c.cfg.Port
			}
			srv := api.NewServer(c.service, c.cfg, c.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(port) }()

			select {
			case err := <-errCh:
				return c.handleError(err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			c.log.Info("shutting down API server")
			return srv.Stop(shutdownCtx)
		},
	}
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	return serveCmd
}

func (c *CLI) editCommand() *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a template with a live contract preview",
		Long: `Opens the terminal contract editor: the template on the left, the contract
filled with the given client and values on the right.

  ctrl+s  save the filled contract (needs --client)
  ctrl+t  save the edited template
  tab     switch between editor and preview`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := collect(cmd, nil, fillFields...)
			result := validation.NewValidator().Validate("fill_template", params)
			if !result.Valid {
				return c.handleError(result.ToAppError())
			}
			draft := commands.DraftFromParams(validation.Params(result.GetValidatedData()))
			draft.Titulo, _ = cmd.Flags().GetString("titulo")
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				draft.Status = models.ContractStatus(status)
			}

			ctx := c.context(cmd)
			agency := c.cfg.Current()
			if a, err := c.cfg.GetAgency(session.FromContext(ctx).AgencyID); err == nil {
				agency = a
			}

			saved, err := ui.RunEditor(ctx, c.service, draft, ui.EditorOptions{
				Agency: agency.Name,
				Accent: agency.Color,
				Log:    c.log,
			})
			if err != nil {
				return c.handleError(err)
			}
			if saved != nil {
				fmt.Fprintf(c.out, "Saved contract %s (%s)\n", saved.ID, saved.Titulo)
			}
			return nil
		},
	}
	stringFlags(editCmd, append(fillFields, "titulo", "status")...)
	return editCmd
}

func (c *CLI) agencyCommand() *cobra.Command {
	agencyCmd := &cobra.Command{
		Use:     "agency",
		Aliases: []string{"agencies"},
		Short:   "List, switch and register agencies",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			agencies := c.cfg.AgencyList()
			if c.format == FormatJSON {
				return c.print(&commands.CommandResult{Success: true, Data: agencies})
			}
			current := c.session().AgencyID
			rows := make([][]string, 0, len(agencies))
			for _, a := range agencies {
				marker := ""
				if a.ID == current {
					marker = "*"
				}
				rows = append(rows, []string{marker, a.ID, a.Name, string(a.Mode)})
			}
			c.table([]string{"", "ID", "Nome", "Modo"}, rows)
			return nil
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch <id>",
		Short: "Make an agency the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switched, err := c.cfg.SwitchAgency(args[0])
			if err != nil {
				return c.handleError(errors.Wrap(err, errors.ErrCodeStorageFailure, "failed to save configuration"))
			}
			if !switched {
				return c.handleError(errors.UnknownAgencyError(args[0]))
			}
			fmt.Fprintf(c.out, "Switched to %s\n", c.cfg.Current().Name)
			return nil
		},
	}

	var agency config.Agency
	var mode string
	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register an agency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agency.ID = args[0]
			agency.Mode = config.AgencyMode(mode)
			if err := c.cfg.AddAgency(agency); err != nil {
				return c.handleError(errors.Wrap(err, errors.ErrCodeInvalidInput, err.Error()))
			}
			if err := c.cfg.EnsureAgencyDirs(); err != nil {
				return c.handleError(errors.StorageError("create agency directory", err))
			}
			fmt.Fprintf(c.out, "Added agency %s\n", agency.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&agency.Name, "name", "", "Display name")
	addCmd.Flags().StringVar(&agency.Description, "description", "", "Description")
	addCmd.Flags().StringVar(&agency.Color, "color", "", "Accent colour, e.g. #C6F432")
	addCmd.Flags().StringVar(&mode, "mode", string(config.ModeShared), "shared or isolated")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an agency; its local files are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.RemoveAgency(args[0]); err != nil {
				return c.handleError(errors.Wrap(err, errors.ErrCodeInvalidInput, err.Error()))
			}
			fmt.Fprintf(c.out, "Removed agency %s\n", args[0])
			return nil
		},
	}

	agencyCmd.AddCommand(listCmd, switchCmd, addCmd, removeCmd)
	return agencyCmd
}

func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the configuration and prepare every agency's data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.Save(); err != nil {
				return c.handleError(errors.StorageError("write configuration", err))
			}
			if err := c.cfg.EnsureAgencyDirs(); err != nil {
				return c.handleError(errors.StorageError("create agency directories", err))
			}
			for _, a := range c.cfg.AgencyList() {
				ctx := session.WithSession(cmd.Context(), c.cfg.SessionFor("", a.ID))
				if _, err := c.service.EnsureDefaultTemplate(ctx); err != nil {
					return c.handleError(err)
				}
			}
			fmt.Fprintf(c.out, "Initialized pocket-crm in %s\n", c.cfg.DataDir)
			return nil
		},
	}
}
