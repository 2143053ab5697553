// Package policy is the shared CEL predicate engine behind the Mode
// Governor's forbidden-operation checks (pkg/governor).
//
// Grounded on the teacher's use of github.com/google/cel-go for
// policy predicates elsewhere in the Mindburn-Labs/helm tree
// (guardian/executor policy gates compile small boolean expressions
// rather than hand-rolling an interpreter); the rules themselves come
// from _examples/original_source/xi_cli.py's GOVERNOR_RULES table,
// expressed here as CEL instead of a Python set-membership check so
// new rules can be added without a code change.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// Predicate is a compiled CEL boolean expression.
type Predicate struct {
	expr    string
	program cel.Program
}

var sharedEnv = mustEnv()

func mustEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("cmd", cel.StringType),
	)
	if err != nil {
		panic(fmt.Sprintf("policy: cel environment failed to build: %v", err))
	}
	return env
}

// Compile parses and type-checks a CEL boolean expression against the
// shared governor variable set (a single string variable, cmd).
func Compile(expr string) (*Predicate, error) {
	ast, issues := sharedEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy: compile %q: %w", expr, issues.Err())
	}
	program, err := sharedEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("policy: build program for %q: %w", expr, err)
	}
	return &Predicate{expr: expr, program: program}, nil
}

// MustCompile panics if expr doesn't compile. Reserved for predicates
// baked into this binary's own rule tables, never for operator input.
func MustCompile(expr string) *Predicate {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Eval runs the predicate against the given variable bindings.
func (p *Predicate) Eval(vars map[string]interface{}) (bool, error) {
	out, _, err := p.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("policy: eval %q: %w", p.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy: %q did not evaluate to a bool (got %T)", p.expr, asGoValue(out))
	}
	return b, nil
}

func (p *Predicate) String() string { return p.expr }

func asGoValue(v ref.Val) interface{} {
	return v.Value()
}
