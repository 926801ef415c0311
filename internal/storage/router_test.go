package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/session"
	"github.com/dpshade/pocket-crm/internal/storage"
	"github.com/dpshade/pocket-crm/internal/storage/local"
	"github.com/dpshade/pocket-crm/internal/storage/sqlstore"
)

func newRouter(t *testing.T, withRemote bool) *storage.Router {
	t.Helper()
	dir := t.TempDir()

	var remote storage.Store
	if withRemote {
		sql, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(dir, "remote.db"), logger.Nop())
		require.NoError(t, err)
		remote = sql
	}

	r := storage.NewRouter(remote, func(agencyID string) (storage.Store, error) {
		return local.New(filepath.Join(dir, "agencies", agencyID), agencyID, logger.Nop())
	}, "clabs", logger.Nop())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func withSession(userID, agencyID string, isolated bool) context.Context {
	return session.WithSession(context.Background(), &session.Session{
		UserID:   userID,
		AgencyID: agencyID,
		Isolated: isolated,
	})
}

func client(id string) *models.Client {
	return &models.Client{ID: id, RazaoSocial: id, CreatedAt: time.Now().UTC()}
}

func TestRouterSelectsBackend(t *testing.T) {
	r := newRouter(t, true)

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"no session", context.Background(), "local:clabs"},
		{"anonymous shared", withSession("", "clabs", false), "local:clabs"},
		{"authenticated shared", withSession("u1", "clabs", false), "sql:sqlite"},
		{"authenticated isolated", withSession("u1", "sky", true), "local:sky"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := r.For(tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Name())
		})
	}
}

func TestRouterKeepsPartitionsApart(t *testing.T) {
	r := newRouter(t, true)

	remoteCtx := withSession("u1", "clabs", false)
	skyCtx := withSession("u1", "sky", true)
	anonCtx := withSession("", "clabs", false)

	require.NoError(t, r.CreateClient(remoteCtx, client("remote")))
	require.NoError(t, r.CreateClient(skyCtx, client("sky")))
	require.NoError(t, r.CreateClient(anonCtx, client("anon")))

	for ctx, want := range map[context.Context]string{remoteCtx: "remote", skyCtx: "sky", anonCtx: "anon"} {
		list, err := r.ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, want, list[0].ID)
	}
}

func TestRouterWithoutRemoteStaysLocal(t *testing.T) {
	r := newRouter(t, false)
	ctx := withSession("u1", "clabs", false)

	assert.Equal(t, "local", r.Mode(ctx))
	assert.Nil(t, r.Remote())
	require.NoError(t, r.CreateClient(ctx, client("x")))

	st, err := r.Local("clabs")
	require.NoError(t, err)
	got, err := st.GetClient(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got.ID)
}
