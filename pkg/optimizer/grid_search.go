package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/raykavin/bosfvg/pkg/logger"
)

// GridSearch evaluates every combination of the parameter grids
type GridSearch struct {
	parameters    []Parameter
	maxIterations int
	parallelism   int
	logger        logger.Logger
}

// NewGridSearch creates a new grid search optimizer
func NewGridSearch(config *Config) (*GridSearch, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &GridSearch{
		parameters:    config.Parameters,
		maxIterations: config.MaxIterations,
		parallelism:   config.Parallelism,
		logger:        config.Logger,
	}, nil
}

// SetParameters sets the parameters to be optimized
func (g *GridSearch) SetParameters(params []Parameter) error {
	if len(params) == 0 {
		return fmt.Errorf("at least one parameter must be provided")
	}
	g.parameters = params
	return nil
}

// SetMaxIterations caps the number of combinations evaluated, zero means no cap
func (g *GridSearch) SetMaxIterations(iterations int) {
	g.maxIterations = iterations
}

// SetParallelism sets the number of parallel evaluations
func (g *GridSearch) SetParallelism(n int) {
	g.parallelism = n
}

// Optimize runs the grid search and returns every result, best first
func (g *GridSearch) Optimize(
	ctx context.Context,
	evaluator Evaluator,
	targetMetric MetricName,
	maximize bool,
) ([]*Result, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}

	parameterSets, err := g.generateGrid()
	if err != nil {
		return nil, err
	}

	if g.maxIterations > 0 && len(parameterSets) > g.maxIterations {
		g.logger.Warnf("Grid has %d combinations, evaluating the first %d", len(parameterSets), g.maxIterations)
		parameterSets = parameterSets[:g.maxIterations]
	}

	g.logger.Infof("Starting grid search with %d combinations", len(parameterSets))

	results, err := runEvaluations(ctx, evaluator, parameterSets, g.parallelism, g.logger)
	if err != nil {
		return nil, err
	}

	SortResults(results, targetMetric, maximize)

	g.logger.Infof("Grid search completed with %d results", len(results))
	return results, nil
}

// generateGrid builds the cartesian product of every parameter's values.
// The last parameter varies fastest.
func (g *GridSearch) generateGrid() ([]ParameterSet, error) {
	grid := []ParameterSet{{}}

	for _, param := range g.parameters {
		values, err := gridValues(param)
		if err != nil {
			return nil, err
		}

		next := make([]ParameterSet, 0, len(grid)*len(values))
		for _, partial := range grid {
			for _, value := range values {
				set := make(ParameterSet, len(partial)+1)
				for k, v := range partial {
					set[k] = v
				}
				set[param.Name] = value
				next = append(next, set)
			}
		}
		grid = next
	}

	return grid, nil
}

// gridValues enumerates the values of a single parameter
func gridValues(param Parameter) ([]interface{}, error) {
	switch param.Type {
	case TypeInt:
		min, okMin := param.Min.(int)
		max, okMax := param.Max.(int)
		step, okStep := param.Step.(int)
		if !okMin || !okMax || !okStep || step <= 0 || min > max {
			return nil, fmt.Errorf("parameter %s: invalid int range", param.Name)
		}

		values := make([]interface{}, 0, (max-min)/step+1)
		for v := min; v <= max; v += step {
			values = append(values, v)
		}
		return values, nil

	case TypeFloat:
		min, okMin := param.Min.(float64)
		max, okMax := param.Max.(float64)
		step, okStep := param.Step.(float64)
		if !okMin || !okMax || !okStep || step <= 0 || min > max {
			return nil, fmt.Errorf("parameter %s: invalid float range", param.Name)
		}

		// index based so rounding never drops the upper bound
		count := int(math.Floor((max-min)/step+1e-9)) + 1
		values := make([]interface{}, 0, count)
		for i := 0; i < count; i++ {
			values = append(values, roundStep(min+float64(i)*step))
		}
		return values, nil

	case TypeBool:
		return []interface{}{false, true}, nil

	case TypeString, TypeCategorical:
		if len(param.Options) == 0 {
			if param.Default == nil {
				return nil, fmt.Errorf("parameter %s: no options", param.Name)
			}
			return []interface{}{param.Default}, nil
		}
		return param.Options, nil
	}

	return nil, fmt.Errorf("parameter %s: unsupported type %q", param.Name, param.Type)
}

func roundStep(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
