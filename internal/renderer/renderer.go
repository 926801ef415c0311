// Package renderer fills contract templates.
//
// A template is plain text carrying {{KEY}} tokens from a closed set (see
// Placeholders). Filling resolves every key from an optional client record and
// a ContractParams bundle, then substitutes all tokens in a single literal pass.
// Replacement values are never scanned again and unknown tokens are kept as-is.
package renderer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dpshade/pocket-crm/internal/models"
)

// Renderer fills templates. The zero value uses the wall clock.
// It holds no mutable state and is safe for concurrent use.
type Renderer struct {
	// Now supplies {{DATA_ATUAL}}; nil means time.Now
	Now func() time.Time
}

// NewRenderer creates a renderer reading the current date from now
func NewRenderer(now func() time.Time) *Renderer {
	return &Renderer{Now: now}
}

func (r *Renderer) clock() func() time.Time {
	if r == nil || r.Now == nil {
		return time.Now
	}
	return r.Now
}

// Resolve computes the replacement text of every key
func (r *Renderer) Resolve(client *models.Client, params models.ContractParams) map[PlaceholderKey]string {
	in := &fillInput{client: client, params: params, now: r.clock()}
	values := make(map[PlaceholderKey]string, len(resolvers))
	for key, resolve := range resolvers {
		values[key] = resolve(in)
	}
	return values
}

// Fill returns template with every known placeholder replaced
func (r *Renderer) Fill(template string, client *models.Client, params models.ContractParams) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}

	values := r.Resolve(client, params)
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, key.Token(), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// FillContractTemplate fills template using the wall clock for {{DATA_ATUAL}}
func FillContractTemplate(template string, client *models.Client, params models.ContractParams) string {
	return (&Renderer{}).Fill(template, client, params)
}

// FilledContract is a fill result with bookkeeping for callers
type FilledContract struct {
	Content    string    `json:"content"`
	FilledAt   time.Time `json:"filledAt"`
	Unresolved []string  `json:"unresolved"`
}

var tokenPattern = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)

// Render fills template and reports the {{...}} tokens left untouched
func (r *Renderer) Render(template string, client *models.Client, params models.ContractParams) *FilledContract {
	filledAt := r.clock()()
	fixed := &Renderer{Now: func() time.Time { return filledAt }}
	content := fixed.Fill(template, client, params)
	return &FilledContract{
		Content:    content,
		FilledAt:   filledAt,
		Unresolved: UnknownTokens(template),
	}
}

// RenderJSON renders the fill result as indented JSON
func (r *Renderer) RenderJSON(template string, client *models.Client, params models.ContractParams) (string, error) {
	jsonBytes, err := json.MarshalIndent(r.Render(template, client, params), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// UnknownTokens lists distinct placeholder-looking tokens in template that are
// not supported keys, in order of first appearance
func UnknownTokens(template string) []string {
	seen := make(map[string]bool)
	unknown := []string{}
	for _, tok := range tokenPattern.FindAllString(template, -1) {
		key := PlaceholderKey(strings.TrimSuffix(strings.TrimPrefix(tok, "{{"), "}}"))
		if _, ok := resolvers[key]; ok || seen[tok] {
			continue
		}
		seen[tok] = true
		unknown = append(unknown, tok)
	}
	return unknown
}
