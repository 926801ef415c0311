// Command migrate-local copies one agency's local records into the shared SQL
// database. Records already present remotely are skipped, so the command can
// be run again after a partial migration.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/storage"
	"github.com/dpshade/pocket-crm/internal/storage/local"
	"github.com/dpshade/pocket-crm/internal/storage/sqlstore"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		agencyID string
		driver   string
		url      string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:           "migrate-local",
		Short:         "Copy an agency's local records into the shared database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return err
			}
			defer log.Sync()

			if agencyID == "" {
				agencyID = cfg.CurrentAgencyID()
			}
			agency, err := cfg.GetAgency(agencyID)
			if err != nil {
				return errors.UnknownAgencyError(agencyID)
			}
			if agency.IsIsolated() {
				return errors.RemoteDisabledError(fmt.Sprintf("agency '%s' is isolated", agency.ID))
			}

			db := cfg.Database
			if driver != "" {
				db.Driver = driver
			}
			if url != "" {
				db.URL = url
			}
			if !db.Enabled() {
				return errors.RemoteDisabledError("set database.driver and database.url or pass --driver and --url")
			}

			from, err := local.New(cfg.AgencyDir(agency.ID), agency.ID, log)
			if err != nil {
				return err
			}
			defer from.Close()

			to, err := sqlstore.Open(db.Driver, db.URL, log)
			if err != nil {
				return err
			}
			defer to.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Copying %s records from %s to %s\n", agency.Name, cfg.AgencyDir(agency.ID), to.Name())
			if !yes && !confirm(cmd.InOrStdin(), out) {
				fmt.Fprintln(out, "Migration cancelled")
				return nil
			}

			report, err := migrate(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			report.print(out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&agencyID, "agency", "a", "", "Agency to migrate (default: current agency)")
	cmd.Flags().StringVar(&driver, "driver", "", "Database driver, sqlite or postgres (default from config)")
	cmd.Flags().StringVar(&url, "url", "", "Database URL or SQLite path (default from config)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Proceed with migration? (y/N): ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}

// tally counts what happened to one kind of record
type tally struct {
	kind    string
	copied  int
	skipped int
}

type report []tally

func (r report) print(w io.Writer) {
	for _, t := range r {
		fmt.Fprintf(w, "  %-12s %d copied, %d already present\n", t.kind, t.copied, t.skipped)
	}
}

// copyAll creates every listed record in the target. Records the target
// already has are counted as skipped.
func copyAll[T any](ctx context.Context, kind string, list func(context.Context) ([]T, error), create func(context.Context, T) error) (tally, error) {
	t := tally{kind: kind}
	items, err := list(ctx)
	if err != nil {
		return t, err
	}
	for _, item := range items {
		err := create(ctx, item)
		switch {
		case err == nil:
			t.copied++
		case errors.HasCode(err, errors.ErrCodeAlreadyExists):
			t.skipped++
		default:
			return t, err
		}
	}
	return t, nil
}

// migrate copies clients first so contracts, transactions and demands keep
// resolving their client names in the target
func migrate(ctx context.Context, from, to storage.Store) (report, error) {
	saveTemplate := func(ctx context.Context, tmpl *models.ContractTemplate) error {
		if _, err := to.GetTemplate(ctx, tmpl.ID); err == nil {
			return errors.AlreadyExistsError("template")
		} else if !errors.HasCode(err, errors.ErrCodeNotFound) {
			return err
		}
		return to.SaveTemplate(ctx, tmpl)
	}

	steps := []func() (tally, error){
		func() (tally, error) { return copyAll(ctx, "clients", from.ListClients, to.CreateClient) },
		func() (tally, error) { return copyAll(ctx, "templates", from.ListTemplates, saveTemplate) },
		func() (tally, error) { return copyAll(ctx, "contracts", from.ListContracts, to.CreateContract) },
		func() (tally, error) {
			return copyAll(ctx, "transactions", from.ListTransactions, to.CreateTransaction)
		},
		func() (tally, error) { return copyAll(ctx, "demands", from.ListDemands, to.CreateDemand) },
	}

	var r report
	for _, step := range steps {
		t, err := step()
		if err != nil {
			return r, errors.Wrap(err, errors.ErrCodeStorageFailure, fmt.Sprintf("failed to copy %s", t.kind))
		}
		r = append(r, t)
	}
	return r, nil
}
