package sensitivity

import (
	"context"
	"fmt"

	"github.com/iwvelando/cre-underwriter/internal/model"
	"go.uber.org/zap"
)

// Scenario is a named set of input overrides.
type Scenario struct {
	Name      string             `json:"name" yaml:"name" mapstructure:"name"`
	Active    bool               `json:"active" yaml:"active" mapstructure:"active"`
	Overrides map[string]float64 `json:"overrides,omitempty" yaml:"overrides,omitempty" mapstructure:"overrides"`
}

// ScenarioResult is one scenario's evaluation.
type ScenarioResult struct {
	Name      string             `json:"name"`
	Overrides map[string]float64 `json:"overrides,omitempty"`
	Evaluation
}

// RunScenarios evaluates each active scenario in order.
func (r *Runner) RunScenarios(ctx context.Context, base model.Inputs, scenarios []Scenario, engine Engine) ([]ScenarioResult, error) {
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if s.Name == "" {
			return nil, invalidRequest("scenario name is required")
		}
		if seen[s.Name] {
			return nil, invalidRequest("duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
		for field := range s.Overrides {
			if err := checkParam(field); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
			}
		}
	}

	var results []ScenarioResult
	for _, s := range scenarios {
		if !s.Active {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in, err := base.WithOverrides(s.Overrides)
		if err != nil {
			return nil, invalidRequest("scenario %s: %v", s.Name, err)
		}
		ev, err := r.Evaluate(in, engine)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		results = append(results, ScenarioResult{Name: s.Name, Overrides: s.Overrides, Evaluation: ev})

		r.logger.Debug("scenario evaluated",
			zap.String("op", "sensitivity.RunScenarios"),
			zap.String("scenario", s.Name),
			zap.Int("overrides", len(s.Overrides)),
		)
	}
	return results, nil
}
