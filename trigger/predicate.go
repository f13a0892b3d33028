package trigger

import "strings"

// Variable names available to trigger expressions.
const (
	VarBass      = "bass"
	VarMid       = "mid"
	VarHigh      = "high"
	VarEnergy    = "energy"
	VarOnset     = "onset"
	VarFlux      = "flux"
	VarCentroid  = "centroid"
	VarBPM       = "bpm"
	VarBuilding  = "building"
	VarReleasing = "releasing"
	VarPredicted = "predicted"
)

// Variables is the fixed variable set expressions are checked against.
var Variables = []string{
	VarBass, VarMid, VarHigh, VarEnergy, VarOnset,
	VarFlux, VarCentroid, VarBPM, VarBuilding, VarReleasing, VarPredicted,
}

// Predicate decides whether a sequence should start this tick.
type Predicate interface {
	Evaluate(vars Vars) bool
	String() string
}

// Expression is a compiled textual predicate.
type Expression struct {
	src  string
	root Node
}

// Compile parses src against Variables. An empty source compiles to Never.
func Compile(src string) (Predicate, error) {
	if strings.TrimSpace(src) == "" {
		return Never, nil
	}
	root, err := Parse(src, Variables)
	if err != nil {
		return nil, err
	}
	return &Expression{src: src, root: root}, nil
}

// CompileOrNever is Compile that fails closed: invalid sources yield Never alongside the error.
func CompileOrNever(src string) (Predicate, error) {
	p, err := Compile(src)
	if err != nil {
		return Never, err
	}
	return p, nil
}

func (e *Expression) Evaluate(vars Vars) bool {
	return truthy(e.root.Eval(vars))
}

func (e *Expression) String() string {
	return e.src
}

// Func adapts a Go function to a Predicate.
type Func func(vars Vars) bool

func (f Func) Evaluate(vars Vars) bool { return f(vars) }
func (f Func) String() string          { return "<func>" }

type constant bool

func (c constant) Evaluate(Vars) bool { return bool(c) }

func (c constant) String() string {
	if c {
		return "true"
	}
	return "false"
}

var (
	// Never is a predicate that is always false; sequences using it only start manually.
	Never Predicate = constant(false)
	// Always is a predicate that is always true.
	Always Predicate = constant(true)
)
