package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/session"
	"github.com/dpshade/pocket-crm/internal/storage/local"
)

func newTestService(t *testing.T) (*service.Service, context.Context) {
	t.Helper()
	store, err := local.New(t.TempDir(), "clabs", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := service.NewService(store, service.Options{
		DefaultCity: "Curitiba",
		Now:         func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	ctx := session.WithSession(context.Background(), &session.Session{AgencyID: "clabs"})
	return svc, ctx
}

// settle applies the preview result of the latest refresh
func settle(t *testing.T, e *Editor) {
	t.Helper()
	msg := e.refresh()()
	_, cmd := e.Update(msg)
	assert.Nil(t, cmd)
}

func TestEditorPreviewFollowsText(t *testing.T) {
	svc, ctx := newTestService(t)
	client := &models.Client{RazaoSocial: "ACME Ltda"}
	require.NoError(t, svc.CreateClient(ctx, client))

	e, err := NewEditor(ctx, svc, &service.ContractDraft{
		ClientID: client.ID,
		Template: "{{RAZAO_SOCIAL}} em {{CIDADE}}",
	}, EditorOptions{Agency: "C.LABS", Accent: "#C6F432"})
	require.NoError(t, err)
	e.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	settle(t, e)
	require.NotNil(t, e.filled)
	assert.Equal(t, "ACME Ltda em Curitiba", e.filled.Content)

	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" {{NOPE}}")})
	assert.NotNil(t, cmd)
	assert.Equal(t, "{{RAZAO_SOCIAL}} em {{CIDADE}} {{NOPE}}", e.editor.Value())

	settle(t, e)
	assert.Equal(t, []string{"{{NOPE}}"}, e.filled.Unresolved)
	assert.Contains(t, e.View(), "1 desconhecidos")
}

func TestEditorDropsStalePreviews(t *testing.T) {
	svc, ctx := newTestService(t)
	e, err := NewEditor(ctx, svc, &service.ContractDraft{Template: "A"}, EditorOptions{})
	require.NoError(t, err)

	stale := e.refresh()
	settle(t, e)
	content := e.filled.Content

	e.Update(stale())
	assert.Equal(t, content, e.filled.Content)
}

func TestEditorSavesContract(t *testing.T) {
	svc, ctx := newTestService(t)
	client := &models.Client{RazaoSocial: "ACME Ltda"}
	require.NoError(t, svc.CreateClient(ctx, client))

	e, err := NewEditor(ctx, svc, &service.ContractDraft{
		ClientID: client.ID,
		Titulo:   "Gestão de redes",
		Params:   models.ContractParams{ValorContrato: 100},
	}, EditorOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTemplateID, e.template.ID)

	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	e.Update(cmd())

	saved := e.Saved()
	require.NotNil(t, saved)
	assert.Equal(t, "Gestão de redes", saved.Titulo)
	assert.Contains(t, saved.Conteudo, "ACME Ltda")
	assert.Contains(t, saved.Conteudo, "cem reais")
	assert.Equal(t, "success", e.statusKind)

	stored, err := svc.GetContract(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Conteudo, stored.Conteudo)
}

func TestEditorSaveNeedsClient(t *testing.T) {
	svc, ctx := newTestService(t)
	e, err := NewEditor(ctx, svc, &service.ContractDraft{Template: "x"}, EditorOptions{})
	require.NoError(t, err)

	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, "warning", e.statusKind)
	assert.Nil(t, e.Saved())
}

func TestEditorSavesTemplate(t *testing.T) {
	svc, ctx := newTestService(t)
	e, err := NewEditor(ctx, svc, &service.ContractDraft{}, EditorOptions{})
	require.NoError(t, err)

	e.editor.SetValue("Novo texto {{CNPJ}}")
	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.NotNil(t, cmd)
	e.Update(cmd())
	assert.Equal(t, "success", e.statusKind)

	tmpl, err := svc.GetTemplate(ctx, models.DefaultTemplateID)
	require.NoError(t, err)
	assert.Equal(t, "Novo texto {{CNPJ}}", tmpl.Content)
}

func TestEditorUnknownTemplate(t *testing.T) {
	svc, ctx := newTestService(t)
	_, err := NewEditor(ctx, svc, &service.ContractDraft{TemplateID: "ghost"}, EditorOptions{})
	assert.Error(t, err)
}

func TestEditorSwitchPaneAndQuit(t *testing.T) {
	svc, ctx := newTestService(t)
	e, err := NewEditor(ctx, svc, &service.ContractDraft{Template: "x"}, EditorOptions{})
	require.NoError(t, err)

	e.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, e.previewFocused)
	assert.False(t, e.editor.Focused())

	e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.Equal(t, "x", e.editor.Value())

	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdefgh", 5))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
