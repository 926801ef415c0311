// Package ui implements the terminal contract editor.
//
// The editor shows the template text on the left and the filled contract on
// the right. Every edit re-fills the preview through the service, so what is
// shown is exactly what ctrl+s stores.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-crm/internal/errors"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/models"
	"github.com/dpshade/pocket-crm/internal/renderer"
	"github.com/dpshade/pocket-crm/internal/service"
)

type keyMap struct {
	Save         key.Binding
	SaveTemplate key.Binding
	SwitchPane   key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.SwitchPane, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Save, k.SaveTemplate},
		{k.SwitchPane, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "salvar contrato")),
	SaveTemplate: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "salvar modelo")),
	SwitchPane:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "editor/prévia")),
	Help:         key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "mais atalhos")),
	Quit:         key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "sair")),
}

// EditorOptions configures the editor chrome
type EditorOptions struct {
	// Agency is the name shown in the header badge
	Agency string
	// Accent is the agency colour
	Accent string
	Log    *logger.Logger
}

type previewMsg struct {
	seq    int
	filled *renderer.FilledContract
	err    error
}

type contractSavedMsg struct {
	contract *models.Contract
	err      error
}

type templateSavedMsg struct {
	template *models.ContractTemplate
	err      error
}

// Editor is the bubbletea model of the contract editor
type Editor struct {
	ctx   context.Context
	svc   *service.Service
	draft service.ContractDraft
	// template is the stored template being edited
	template *models.ContractTemplate

	opts  EditorOptions
	theme Theme
	errs  *errors.TUIErrorHandler
	help  help.Model

	editor  textarea.Model
	preview viewport.Model

	filled *renderer.FilledContract
	seq    int
	saved  *models.Contract

	status     string
	statusKind string

	width, height  int
	previewFocused bool
}

// NewEditor loads the draft's template and prepares the editor.
// A draft with inline Template text edits that text instead of a stored template.
func NewEditor(ctx context.Context, svc *service.Service, draft *service.ContractDraft, opts EditorOptions) (*Editor, error) {
	tmpl, err := loadTemplate(ctx, svc, draft)
	if err != nil {
		return nil, err
	}

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Placeholder = "Texto do contrato com {{RAZAO_SOCIAL}}, {{VALOR}}..."
	ta.SetValue(tmpl.Content)
	ta.Focus()

	e := &Editor{
		ctx:      ctx,
		svc:      svc,
		draft:    *draft,
		template: tmpl,
		opts:     opts,
		theme:    NewTheme(opts.Accent, detectPalette()),
		errs:     errors.NewTUIErrorHandler(false, opts.Log),
		help:     help.New(),
		editor:   ta,
		preview:  viewport.New(40, 10),
	}
	e.draft.Template = ""
	e.layout(100, 30)
	return e, nil
}

func loadTemplate(ctx context.Context, svc *service.Service, draft *service.ContractDraft) (*models.ContractTemplate, error) {
	if draft.Template != "" {
		return &models.ContractTemplate{Name: "Texto avulso", Content: draft.Template}, nil
	}
	if draft.TemplateID == "" || draft.TemplateID == models.DefaultTemplateID {
		return svc.EnsureDefaultTemplate(ctx)
	}
	return svc.GetTemplate(ctx, draft.TemplateID)
}

// Saved returns the contract stored with ctrl+s, if any
func (e *Editor) Saved() *models.Contract {
	return e.saved
}

// Init starts the cursor blink and the first preview
func (e *Editor) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, e.refresh())
}

// refresh fills the current text in the background. Results of older
// refreshes are dropped by sequence number.
func (e *Editor) refresh() tea.Cmd {
	e.seq++
	seq := e.seq
	draft := e.draft
	draft.Template = e.editor.Value()
	ctx, svc := e.ctx, e.svc

	return func() tea.Msg {
		if draft.Template == "" {
			return previewMsg{seq: seq, filled: &renderer.FilledContract{}}
		}
		filled, err := svc.PreviewContract(ctx, &draft)
		return previewMsg{seq: seq, filled: filled, err: err}
	}
}

func (e *Editor) saveContract() tea.Cmd {
	if e.draft.ClientID == "" {
		e.setStatus("Informe um cliente (--client) para salvar o contrato", "warning")
		return nil
	}
	draft := e.draft
	draft.Template = e.editor.Value()
	ctx, svc := e.ctx, e.svc

	e.setStatus("Salvando contrato...", "info")
	return func() tea.Msg {
		k, err := svc.CreateContractFromTemplate(ctx, &draft)
		return contractSavedMsg{contract: k, err: err}
	}
}

func (e *Editor) saveTemplate() tea.Cmd {
	if e.template.ID == "" {
		e.setStatus("Texto avulso: salve o modelo com 'pocket-crm template save'", "warning")
		return nil
	}
	tmpl := *e.template
	tmpl.Content = e.editor.Value()
	ctx, svc := e.ctx, e.svc

	return func() tea.Msg {
		err := svc.SaveTemplate(ctx, &tmpl)
		return templateSavedMsg{template: &tmpl, err: err}
	}
}

func (e *Editor) setStatus(text, kind string) {
	e.status = text
	e.statusKind = kind
}

func (e *Editor) setError(err error) {
	appErr := e.errs.HandleError(err)
	icon, _ := e.errs.GetErrorStyle(appErr)
	e.setStatus(icon+" "+e.errs.FormatError(appErr), "error")
}

// Update handles input and background results
func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.layout(msg.Width, msg.Height)
		return e, nil

	case previewMsg:
		if msg.seq != e.seq {
			return e, nil
		}
		if msg.err != nil {
			e.setError(msg.err)
			return e, nil
		}
		e.filled = msg.filled
		e.preview.SetContent(e.previewText())
		return e, nil

	case contractSavedMsg:
		if msg.err != nil {
			e.setError(msg.err)
			return e, nil
		}
		e.saved = msg.contract
		e.setStatus(fmt.Sprintf("Contrato salvo: %s (%s)", msg.contract.Titulo, msg.contract.ID), "success")
		return e, nil

	case templateSavedMsg:
		if msg.err != nil {
			e.setError(msg.err)
			return e, nil
		}
		e.template = msg.template
		e.setStatus(fmt.Sprintf("Modelo '%s' salvo", msg.template.Name), "success")
		return e, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return e, tea.Quit
		case key.Matches(msg, keys.Save):
			return e, e.saveContract()
		case key.Matches(msg, keys.SaveTemplate):
			return e, e.saveTemplate()
		case key.Matches(msg, keys.Help):
			e.help.ShowAll = !e.help.ShowAll
			e.layout(e.width, e.height)
			return e, nil
		case key.Matches(msg, keys.SwitchPane):
			e.previewFocused = !e.previewFocused
			if e.previewFocused {
				e.editor.Blur()
				return e, nil
			}
			return e, e.editor.Focus()
		}
	}

	if e.previewFocused {
		var cmd tea.Cmd
		e.preview, cmd = e.preview.Update(msg)
		return e, cmd
	}

	before := e.editor.Value()
	var cmd tea.Cmd
	e.editor, cmd = e.editor.Update(msg)
	if e.editor.Value() != before {
		e.status = ""
		return e, tea.Batch(cmd, e.refresh())
	}
	return e, cmd
}

// previewText wraps the filled contract and marks unknown tokens
func (e *Editor) previewText() string {
	if e.filled == nil {
		return ""
	}
	text := lipgloss.NewStyle().Width(e.preview.Width).Render(e.filled.Content)
	warn := lipgloss.NewStyle().Foreground(e.theme.Palette.Warning).Bold(true)
	for _, token := range e.filled.Unresolved {
		text = strings.ReplaceAll(text, token, warn.Render(token))
	}
	return text
}

func (e *Editor) layout(width, height int) {
	e.width, e.height = width, height
	e.help.Width = width

	helpLines := lipgloss.Height(e.help.View(keys))
	paneH := max(height-2-helpLines, 5)
	paneW := max(width/2, 20)

	frameW, frameH := e.theme.Pane.GetFrameSize()
	innerW := max(paneW-frameW, 10)
	innerH := max(paneH-frameH-1, 3)

	e.editor.SetWidth(innerW)
	e.editor.SetHeight(innerH)
	e.preview.Width = innerW
	e.preview.Height = innerH
	e.preview.SetContent(e.previewText())
}

// View renders the header, both panes, the status line and the key help
func (e *Editor) View() string {
	agency := e.opts.Agency
	if agency == "" {
		agency = "pocket-crm"
	}
	title := "Editor de contrato"
	if e.template != nil && e.template.Name != "" {
		title += ": " + e.template.Name
	}
	header := Truncate(e.theme.Header(agency, title), e.width)

	paneW := max(e.width/2, 20)
	paneH := max(e.height-2-lipgloss.Height(e.help.View(keys)), 5)

	previewTitle := "Prévia"
	if e.filled != nil && len(e.filled.Unresolved) > 0 {
		previewTitle += fmt.Sprintf(" (%d desconhecidos)", len(e.filled.Unresolved))
	}
	if hint := e.theme.ScrollHint(e.preview.AtTop(), e.preview.AtBottom()); hint != "" {
		previewTitle += " " + hint
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		e.theme.Panel("Modelo", e.editor.View(), paneW, paneH, !e.previewFocused),
		e.theme.Panel(previewTitle, e.preview.View(), paneW, paneH, e.previewFocused),
	)

	status := ""
	if e.status != "" {
		status = e.theme.Status(e.status, e.statusKind)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, status, e.help.View(keys))
}

// RunEditor runs the editor full screen and returns the contract saved, if any
func RunEditor(ctx context.Context, svc *service.Service, draft *service.ContractDraft, opts EditorOptions) (*models.Contract, error) {
	e, err := NewEditor(ctx, svc, draft, opts)
	if err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(e, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	return final.(*Editor).Saved(), nil
}
