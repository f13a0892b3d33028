package trigger

import (
	"fmt"
	"strconv"
	"unicode"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenIdent
	TokenTrue
	TokenFalse
	TokenAnd
	TokenOr
	TokenNot
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenEq
	TokenNe
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenLParen
	TokenRParen
)

// Token is one lexeme with its byte offset.
type Token struct {
	Type   TokenType
	Text   string
	Number float64
	Pos    int
}

var keywords = map[string]TokenType{
	"true":  TokenTrue,
	"false": TokenFalse,
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
}

// lex splits src into tokens. The returned slice always ends with TokenEOF.
func lex(src string) ([]Token, error) {
	var tokens []Token
	runes := []rune(src)
	i := 0

	emit := func(t TokenType, text string, pos int) {
		tokens = append(tokens, Token{Type: t, Text: text, Pos: pos})
	}
	peekIs := func(r rune) bool {
		return i+1 < len(runes) && runes[i+1] == r
	}

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at %d", text, start)
			}
			tokens = append(tokens, Token{Type: TokenNumber, Text: text, Number: n, Pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			text := string(runes[start:i])
			if kw, ok := keywords[text]; ok {
				emit(kw, text, start)
			} else {
				emit(TokenIdent, text, start)
			}
		default:
			start := i
			switch {
			case r == '&' && peekIs('&'):
				emit(TokenAnd, "&&", start)
				i += 2
			case r == '|' && peekIs('|'):
				emit(TokenOr, "||", start)
				i += 2
			case r == '<' && peekIs('='):
				emit(TokenLe, "<=", start)
				i += 2
			case r == '>' && peekIs('='):
				emit(TokenGe, ">=", start)
				i += 2
			case r == '=' && peekIs('='):
				emit(TokenEq, "==", start)
				i += 2
			case r == '!' && peekIs('='):
				emit(TokenNe, "!=", start)
				i += 2
			case r == '<':
				emit(TokenLt, "<", start)
				i++
			case r == '>':
				emit(TokenGt, ">", start)
				i++
			case r == '!':
				emit(TokenNot, "!", start)
				i++
			case r == '+':
				emit(TokenPlus, "+", start)
				i++
			case r == '-':
				emit(TokenMinus, "-", start)
				i++
			case r == '*':
				emit(TokenMul, "*", start)
				i++
			case r == '/':
				emit(TokenDiv, "/", start)
				i++
			case r == '(':
				emit(TokenLParen, "(", start)
				i++
			case r == ')':
				emit(TokenRParen, ")", start)
				i++
			default:
				return nil, fmt.Errorf("unexpected character %q at %d", r, start)
			}
		}
	}

	emit(TokenEOF, "", len(runes))
	return tokens, nil
}
