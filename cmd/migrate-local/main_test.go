package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/storage/local"
	"github.com/dpshade/pocket-crm/internal/storage/sqlstore"
)

func TestMigrateCopiesAndSkipsExisting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	from, err := local.New(filepath.Join(dir, "clabs"), "clabs", logger.Nop())
	require.NoError(t, err)
	defer from.Close()
	to, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(dir, "remote.db"), logger.Nop())
	require.NoError(t, err)
	defer to.Close()

	client := &models.Client{ID: "c1", RazaoSocial: "ACME Ltda", CreatedAt: now}
	require.NoError(t, from.CreateClient(ctx, client))
	require.NoError(t, from.CreateContract(ctx, &models.Contract{ID: "k1", ClientID: "c1", Titulo: "Redes", DataInicio: now, CreatedAt: now}))
	require.NoError(t, from.CreateTransaction(ctx, &models.Transaction{ID: "t1", Tipo: models.Entrada, Descricao: "Mensalidade", Valor: 100, Mes: 3, Ano: 2025, CreatedAt: now}))
	require.NoError(t, from.CreateDemand(ctx, &models.Demand{ID: "d1", Demanda: "Site", DataEntrega: now, Status: models.DemandPendente, CreatedAt: now}))
	require.NoError(t, from.SaveTemplate(ctx, models.NewDefaultTemplate(now)))

	require.NoError(t, to.CreateClient(ctx, client))

	r, err := migrate(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, report{
		{kind: "clients", copied: 0, skipped: 1},
		{kind: "templates", copied: 1},
		{kind: "contracts", copied: 1},
		{kind: "transactions", copied: 1},
		{kind: "demands", copied: 1},
	}, r)

	k, err := to.GetContract(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Redes", k.Titulo)

	again, err := migrate(ctx, from, to)
	require.NoError(t, err)
	for _, tl := range again {
		assert.Zero(t, tl.copied, tl.kind)
	}

	var buf bytes.Buffer
	again.print(&buf)
	assert.Contains(t, buf.String(), "clients      0 copied, 1 already present")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out))
	assert.False(t, confirm(strings.NewReader("\n"), &out))
	assert.False(t, confirm(strings.NewReader("sim\n"), &out))
	assert.Contains(t, out.String(), "Proceed with migration?")
}

func TestSharedDatabaseUnavailable(t *testing.T) {
	for _, k := range []string{
		"POCKET_CRM_DATABASE_DRIVER", "POCKET_CRM_DATABASE_URL", "POCKET_CRM_PORT",
		"POCKET_CRM_LOG_MODE", "POCKET_CRM_AGENCY", "POCKET_CRM_USER",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("POCKET_CRM_DIR", t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"no database configured", []string{"--yes"}},
		{"isolated agency", []string{"--agency", "sky", "--driver", "sqlite", "--url", "remote.db", "--yes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := rootCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			err := cmd.Execute()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeRemoteDisabled))
		})
	}
}
