package main

import (
	"fmt"
	"os"

	"github.com/dpshade/pocket-crm/internal/cli"
	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/storage"
	"github.com/dpshade/pocket-crm/internal/storage/local"
	"github.com/dpshade/pocket-crm/internal/storage/sqlstore"
)

var version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Remote stays an untyped nil without a database so the router keeps
	// every session local.
	var remote storage.Store
	if cfg.Database.Enabled() {
		db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL, log)
		if err != nil {
			return fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
		}
		remote = db
	}

	router := storage.NewRouter(remote, func(agencyID string) (storage.Store, error) {
		return local.New(cfg.AgencyDir(agencyID), agencyID, log)
	}, cfg.CurrentAgencyID(), log)
	defer router.Close()

	svc := service.NewService(router, service.OptionsFromConfig(cfg, log))

	c := cli.NewCLI(svc, cfg, log)
	c.SetVersion(version)
	return c.ExecuteCommand(args)
}
