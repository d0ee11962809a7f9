// Package condition evaluates condition strings carried by CONDITIONAL actions
// and component descriptors.
//
// The evaluation context is a single CEL variable, state, holding whatever map
// the host chooses to expose (cart size, favorites, navigation params, ...).
// An empty condition is true.
package condition

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// EvalContext is the state visible to a condition.
type EvalContext struct {
	State map[string]any
}

// Evaluator compiles CEL expressions once and caches the programs.
type Evaluator struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewEvaluator creates an evaluator with the state variable declared.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("state", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Eval evaluates expr against ctx. A nil ctx is an empty state.
func (e *Evaluator) Eval(expr string, ctx *EvalContext) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	state := map[string]any{}
	if ctx != nil && ctx.State != nil {
		state = ctx.State
	}

	out, _, err := prg.Eval(map[string]any{"state": state})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result is %T, not bool", expr, out.Value())
	}
	return val, nil
}

// Check compiles expr without evaluating it.
func (e *Evaluator) Check(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := e.program(strings.TrimSpace(expr))
	return err
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.cache[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.cache[expr]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	e.cache[expr] = prg
	return prg, nil
}
