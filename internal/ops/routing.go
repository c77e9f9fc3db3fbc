package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/routing"
)

// SetRoutingInput contains parameters for the SetRouting operation.
type SetRoutingInput struct {
	Stage  string
	Routes []string // "provider:model" in failover order
}

// SetRoutingOutput echoes the applied routes.
type SetRoutingOutput struct {
	Stage  string   `json:"stage"`
	Routes []string `json:"routes"`
}

// SetRouting replaces a stage's candidate list at runtime. The change
// is applied atomically to the live table and persisted so it survives
// restarts.
func SetRouting(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input SetRoutingInput) (*SetRoutingOutput, error) {
	if input.Stage == "" {
		return nil, errors.NewInvalidRequest("stage is required")
	}
	if len(input.Routes) == 0 {
		return nil, errors.NewInvalidRequest("at least one provider:model route is required")
	}

	parsed := make([]routing.Route, 0, len(input.Routes))
	applied := make([]string, 0, len(input.Routes))
	for _, raw := range input.Routes {
		route, err := routing.ParseRoute(raw)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("bad route %q: use provider:model", raw))
		}
		parsed = append(parsed, route)
		applied = append(applied, route.String())
	}

	if err := db.UpsertRoutingOverride(database, input.Stage, applied); err != nil {
		return nil, err
	}
	if deps.Table != nil {
		deps.Table.Set(input.Stage, parsed)
	}

	deps.logger().Info("routing updated", "stage", input.Stage, "routes", applied)
	return &SetRoutingOutput{Stage: input.Stage, Routes: applied}, nil
}

// ShowRoutingOutput is the live routing table snapshot.
type ShowRoutingOutput struct {
	Stages map[string][]string `json:"stages"`
}

// ShowRouting returns the current candidate lists for every stage.
func ShowRouting(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps) (*ShowRoutingOutput, error) {
	output := &ShowRoutingOutput{Stages: make(map[string][]string)}
	if deps.Table == nil {
		return output, nil
	}
	for _, stage := range deps.Table.Stages() {
		var routes []string
		for _, route := range deps.Table.Candidates(stage) {
			routes = append(routes, route.String())
		}
		output.Stages[stage] = routes
	}
	return output, nil
}
