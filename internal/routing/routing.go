// Package routing resolves the per-stage provider candidate lists.
// Precedence, lowest to highest: built-in defaults from config,
// settings.yaml routing, MODELS.md fenced-YAML blocks, persisted
// runtime overrides. The table is an immutable snapshot per stage;
// runtime overrides replace a stage's list atomically.
package routing

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Stage names the router knows about. The table accepts arbitrary
// stage keys; these are the ones the pipeline uses.
const (
	StageSummarize     = "summarize"
	StageDraftX        = "draft_x"
	StageDraftThreads  = "draft_threads"
	StageDraftLinkedIn = "draft_linkedin"
	StageCheck         = "check"
)

// Route is one (provider, model) candidate.
type Route struct {
	Provider string
	Model    string
}

// String renders the route in "provider:model" form.
func (r Route) String() string {
	return r.Provider + ":" + r.Model
}

// ParseRoute parses a "provider:model" string.
func ParseRoute(s string) (Route, error) {
	provider, model, ok := strings.Cut(s, ":")
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	if !ok || provider == "" || model == "" {
		return Route{}, fmt.Errorf("invalid route format: %q (want provider:model)", s)
	}
	return Route{Provider: provider, Model: model}, nil
}

// ParseRoutes parses a list of route strings, skipping malformed
// entries with a warning instead of failing the whole list.
func ParseRoutes(raw []string, logger *slog.Logger) []Route {
	routes := make([]Route, 0, len(raw))
	for _, s := range raw {
		route, err := ParseRoute(s)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping malformed route", "route", s, "error", err)
			}
			continue
		}
		routes = append(routes, route)
	}
	return routes
}

// Table maps stage names to ordered candidate lists. Safe for
// concurrent readers with occasional atomic per-stage swaps.
type Table struct {
	mu     sync.RWMutex
	stages map[string][]Route
}

// NewTable builds a table from raw "provider:model" lists.
func NewTable(raw map[string][]string, logger *slog.Logger) *Table {
	stages := make(map[string][]Route, len(raw))
	for stage, list := range raw {
		routes := ParseRoutes(list, logger)
		if len(routes) > 0 {
			stages[stage] = routes
		}
	}
	return &Table{stages: stages}
}

// Candidates returns a copy of the ordered candidate list for a stage.
func (t *Table) Candidates(stage string) []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	routes := t.stages[stage]
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Set replaces one stage's candidate list atomically.
func (t *Table) Set(stage string, routes []Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := make([]Route, len(routes))
	copy(copied, routes)
	t.stages[stage] = copied
}

// Stages lists the configured stage names, sorted.
func (t *Table) Stages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.stages))
	for name := range t.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// modelsDoc is the shape of a MODELS.md fenced YAML block.
type modelsDoc struct {
	Routing map[string][]string `yaml:"routing"`
}

// LoadModelsReference extracts routing overrides from fenced yaml/yml
// code blocks in the optional MODELS.md document. Missing files and
// malformed blocks are skipped; the returned map holds only stages the
// document actually overrides.
func LoadModelsReference(path string, logger *slog.Logger) map[string][]string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && logger != nil {
			logger.Debug("models document unreadable, using configured routing", "path", path, "error", err)
		}
		return nil
	}

	overrides := make(map[string][]string)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(data))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := strings.ToLower(string(fenced.Language(data)))
		if lang != "yaml" && lang != "yml" {
			return ast.WalkContinue, nil
		}

		var block strings.Builder
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			block.Write(seg.Value(data))
		}

		var parsed modelsDoc
		if err := yaml.Unmarshal([]byte(block.String()), &parsed); err != nil {
			if logger != nil {
				logger.Warn("skipping malformed yaml block in models document", "path", path, "error", err)
			}
			return ast.WalkContinue, nil
		}
		for stage, list := range parsed.Routing {
			overrides[stage] = list
		}
		return ast.WalkContinue, nil
	})

	if len(overrides) == 0 {
		return nil
	}
	return overrides
}

// Build assembles the routing table: config routing, overlaid with
// MODELS.md overrides, overlaid with persisted runtime overrides.
func Build(cfgRouting map[string][]string, modelsPath string, persisted map[string][]string, logger *slog.Logger) *Table {
	merged := make(map[string][]string, len(cfgRouting))
	for stage, list := range cfgRouting {
		merged[stage] = list
	}
	for stage, list := range LoadModelsReference(modelsPath, logger) {
		merged[stage] = list
	}
	for stage, list := range persisted {
		merged[stage] = list
	}
	return NewTable(merged, logger)
}
