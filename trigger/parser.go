package trigger

import (
	"fmt"
)

// Precedence levels for operators
type Precedence int

const (
	_ Precedence = iota
	LOWEST
	LOGICAL_OR  // || or
	LOGICAL_AND // && and
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * /
	PREFIX      // -X !X
)

// precedences maps infix token types to their precedence levels
var precedences = map[TokenType]Precedence{
	TokenOr:    LOGICAL_OR,
	TokenAnd:   LOGICAL_AND,
	TokenEq:    EQUALS,
	TokenNe:    EQUALS,
	TokenLt:    LESSGREATER,
	TokenLe:    LESSGREATER,
	TokenGt:    LESSGREATER,
	TokenGe:    LESSGREATER,
	TokenPlus:  SUM,
	TokenMinus: SUM,
	TokenMul:   PRODUCT,
	TokenDiv:   PRODUCT,
}

// Parser is a Pratt parser over the lexed tokens. All binary operators are left associative.
type Parser struct {
	tokens  []Token
	pos     int
	allowed map[string]bool
}

// ParseError describes why an expression was rejected.
type ParseError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trigger %q: %s at %d", e.Expr, e.Msg, e.Pos)
}

// Parse compiles src into an expression tree. Identifiers must be in allowed.
func Parse(src string, allowed []string) (Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, &ParseError{Expr: src, Msg: err.Error()}
	}
	if len(tokens) == 1 {
		return nil, &ParseError{Expr: src, Msg: "empty expression"}
	}

	p := &Parser{tokens: tokens, allowed: make(map[string]bool, len(allowed))}
	for _, name := range allowed {
		p.allowed[name] = true
	}

	node, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, &ParseError{Expr: src, Pos: p.current().Pos, Msg: err.Error()}
	}
	if p.current().Type != TokenEOF {
		return nil, &ParseError{Expr: src, Pos: p.current().Pos, Msg: fmt.Sprintf("unexpected %q", p.current().Text)}
	}
	return node, nil
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) currentPrecedence() Precedence {
	if prec, ok := precedences[p.current().Type]; ok {
		return prec
	}
	return LOWEST
}

// parseExpression parses a prefix expression followed by any infix operators binding tighter than precedence.
func (p *Parser) parseExpression(precedence Precedence) (Node, error) {
	left, err := p.parsePrefixExpression()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if _, infix := precedences[tok.Type]; !infix || p.currentPrecedence() <= precedence {
			return left, nil
		}
		prec := p.currentPrecedence()
		p.next()
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.Type, text: tok.Text, left: left, right: right}
	}
}

func (p *Parser) parsePrefixExpression() (Node, error) {
	tok := p.current()
	switch tok.Type {
	case TokenNumber:
		p.next()
		return numberNode{value: tok.Number}, nil
	case TokenTrue:
		p.next()
		return numberNode{value: 1}, nil
	case TokenFalse:
		p.next()
		return numberNode{value: 0}, nil
	case TokenIdent:
		if !p.allowed[tok.Text] {
			return nil, fmt.Errorf("unknown variable %q", tok.Text)
		}
		p.next()
		return identNode{name: tok.Text}, nil
	case TokenMinus, TokenNot:
		p.next()
		operand, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return unaryNode{op: tok.Type, operand: operand}, nil
	case TokenLParen:
		p.next()
		inner, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if p.current().Type != TokenRParen {
			return nil, fmt.Errorf("expected )")
		}
		p.next()
		return inner, nil
	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q", tok.Text)
}
