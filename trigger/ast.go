package trigger

import (
	"fmt"
	"math"
)

// Node is an expression tree node. Every node evaluates to a number; booleans are 1 and 0.
type Node interface {
	Eval(vars Vars) float64
	String() string
}

// Vars are the variable values an expression is evaluated against.
type Vars map[string]float64

type numberNode struct {
	value float64
}

func (n numberNode) Eval(Vars) float64 { return n.value }
func (n numberNode) String() string    { return fmt.Sprintf("%g", n.value) }

type identNode struct {
	name string
}

func (n identNode) Eval(vars Vars) float64 { return vars[n.name] }
func (n identNode) String() string         { return n.name }

type unaryNode struct {
	op      TokenType
	operand Node
}

func (n unaryNode) Eval(vars Vars) float64 {
	v := n.operand.Eval(vars)
	if math.IsNaN(v) {
		return v
	}
	switch n.op {
	case TokenMinus:
		return -v
	case TokenNot:
		return boolValue(!truthy(v))
	}
	return math.NaN()
}

func (n unaryNode) String() string {
	if n.op == TokenNot {
		return fmt.Sprintf("!%s", n.operand)
	}
	return fmt.Sprintf("-%s", n.operand)
}

type binaryNode struct {
	op          TokenType
	text        string
	left, right Node
}

func (n binaryNode) Eval(vars Vars) float64 {
	// short-circuit logic; an invalid (NaN) side poisons the result
	switch n.op {
	case TokenAnd, TokenOr:
		l := n.left.Eval(vars)
		if math.IsNaN(l) {
			return l
		}
		if n.op == TokenAnd && !truthy(l) {
			return 0
		}
		if n.op == TokenOr && truthy(l) {
			return 1
		}
		r := n.right.Eval(vars)
		if math.IsNaN(r) {
			return r
		}
		return boolValue(truthy(r))
	}

	l, r := n.left.Eval(vars), n.right.Eval(vars)
	if math.IsNaN(l) || math.IsNaN(r) {
		return math.NaN()
	}
	switch n.op {
	case TokenLt:
		return boolValue(l < r)
	case TokenLe:
		return boolValue(l <= r)
	case TokenGt:
		return boolValue(l > r)
	case TokenGe:
		return boolValue(l >= r)
	case TokenEq:
		return boolValue(l == r)
	case TokenNe:
		return boolValue(l != r)
	case TokenPlus:
		return l + r
	case TokenMinus:
		return l - r
	case TokenMul:
		return l * r
	case TokenDiv:
		if r == 0 {
			return math.NaN()
		}
		return l / r
	}
	return math.NaN()
}

func (n binaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.left, n.text, n.right)
}

// truthy treats any non-zero, non-NaN number as true. NaN marks a runtime-invalid value.
func truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
