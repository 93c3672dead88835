package preflight

import (
	"context"

	"ticketsmith/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

// RunAll executes every preflight check applicable to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckJira(ctx, cfg),
	}

	if cfg.Agent.Backend == config.AgentBackendAPI {
		results = append(results, CheckLLM(ctx, "Drafting LLM", cfg.GetLLM()))
	} else {
		results = append(results, CheckAgent(cfg))
	}
	return results
}
