package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// calcNode is one node of a parsed calc expression.
type calcNode interface {
	eval(env map[string]float64) (float64, error)
}

type numberNode struct {
	value float64
}

func (n *numberNode) eval(map[string]float64) (float64, error) {
	return n.value, nil
}

// refNode is a {token} reference resolved against the environment at
// evaluation time.
type refNode struct {
	name string
}

func (n *refNode) eval(env map[string]float64) (float64, error) {
	v, ok := env[n.name]
	if !ok {
		return 0, fmt.Errorf("reference {%s} did not resolve to a numeric value", n.name)
	}
	return v, nil
}

type unaryNode struct {
	operand calcNode
}

func (n *unaryNode) eval(env map[string]float64) (float64, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op    string // "+", "-", "*", "/", "%"
	left  calcNode
	right calcNode
}

func (n *binaryNode) eval(env map[string]float64) (float64, error) {
	left, err := n.left.eval(env)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case "%":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return float64(int64(left) % int64(right)), nil
	default:
		return 0, fmt.Errorf("unknown operator %q", n.op)
	}
}

// calc token scanner

type calcTokenKind int

const (
	calcTokenNumber calcTokenKind = iota
	calcTokenRef
	calcTokenPlus
	calcTokenMinus
	calcTokenStar
	calcTokenSlash
	calcTokenPercent
	calcTokenLParen
	calcTokenRParen
	calcTokenEOF
	calcTokenInvalid
)

type calcToken struct {
	kind  calcTokenKind
	text  string
	value float64
}

func isRefChar(ch byte) bool {
	return ch == '-' || ch == '_' || ch == '.' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// scanCalc tokenizes an expression body. Invalid characters produce
// calcTokenInvalid entries rather than stopping the scan, so reference
// collection keeps working on broken input.
func scanCalc(input string) []calcToken {
	var tokens []calcToken
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '+':
			tokens = append(tokens, calcToken{kind: calcTokenPlus, text: "+"})
			i++
		case ch == '-':
			tokens = append(tokens, calcToken{kind: calcTokenMinus, text: "-"})
			i++
		case ch == '*':
			tokens = append(tokens, calcToken{kind: calcTokenStar, text: "*"})
			i++
		case ch == '/':
			tokens = append(tokens, calcToken{kind: calcTokenSlash, text: "/"})
			i++
		case ch == '%':
			tokens = append(tokens, calcToken{kind: calcTokenPercent, text: "%"})
			i++
		case ch == '(':
			tokens = append(tokens, calcToken{kind: calcTokenLParen, text: "("})
			i++
		case ch == ')':
			tokens = append(tokens, calcToken{kind: calcTokenRParen, text: ")"})
			i++
		case ch == '{':
			end := strings.IndexByte(input[i:], '}')
			if end < 0 {
				tokens = append(tokens, calcToken{kind: calcTokenInvalid, text: input[i:]})
				i = len(input)
				break
			}
			name := input[i+1 : i+end]
			kind := calcTokenRef
			for j := 0; j < len(name); j++ {
				if !isRefChar(name[j]) {
					kind = calcTokenInvalid
					break
				}
			}
			tokens = append(tokens, calcToken{kind: kind, text: name})
			i += end + 1
		case ch >= '0' && ch <= '9' || ch == '.':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			text := input[start:i]
			// A trailing unit suffix ("px", "rem") is tolerated and ignored;
			// units are reattached from the referenced tokens after
			// evaluation.
			for i < len(input) && (input[i] >= 'a' && input[i] <= 'z' || input[i] >= 'A' && input[i] <= 'Z') {
				i++
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				tokens = append(tokens, calcToken{kind: calcTokenInvalid, text: text})
				break
			}
			tokens = append(tokens, calcToken{kind: calcTokenNumber, text: text, value: v})
		default:
			tokens = append(tokens, calcToken{kind: calcTokenInvalid, text: string(ch)})
			i++
		}
	}
	tokens = append(tokens, calcToken{kind: calcTokenEOF})
	return tokens
}

// calcParser is a small precedence-climbing parser over the scanned tokens.
type calcParser struct {
	tokens []calcToken
	pos    int
	issues []string
}

func (p *calcParser) peek() calcToken {
	return p.tokens[p.pos]
}

func (p *calcParser) advance() calcToken {
	tok := p.tokens[p.pos]
	if tok.kind != calcTokenEOF {
		p.pos++
	}
	return tok
}

func (p *calcParser) fail(format string, args ...any) calcNode {
	p.issues = append(p.issues, fmt.Sprintf(format, args...))
	return nil
}

// parseCalcExpression parses an expression body and returns the AST root,
// the referenced token names in first-appearance order, and any issues
// found. A nil root means the expression cannot be evaluated; references
// are still collected from the token stream so validation can report them.
func parseCalcExpression(body string) (calcNode, []string, []string) {
	tokens := scanCalc(body)

	var refs []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok.kind == calcTokenRef && tok.text != "" && !seen[tok.text] {
			seen[tok.text] = true
			refs = append(refs, tok.text)
		}
	}

	p := &calcParser{tokens: tokens}
	for _, tok := range tokens {
		if tok.kind == calcTokenInvalid {
			p.issues = append(p.issues, fmt.Sprintf("unexpected %q in calc expression", tok.text))
		}
	}
	if len(p.issues) > 0 {
		return nil, refs, p.issues
	}

	root := p.parseAddSub()
	if root != nil && p.peek().kind != calcTokenEOF {
		root = p.fail("unexpected %q after end of calc expression", p.peek().text)
	}
	return root, refs, p.issues
}

// parseAddSub parses + and - (left-associative, lowest precedence).
func (p *calcParser) parseAddSub() calcNode {
	left := p.parseMulDiv()
	if left == nil {
		return nil
	}
	for p.peek().kind == calcTokenPlus || p.peek().kind == calcTokenMinus {
		op := p.advance()
		right := p.parseMulDiv()
		if right == nil {
			return nil
		}
		left = &binaryNode{op: op.text, left: left, right: right}
	}
	return left
}

// parseMulDiv parses *, / and % (left-associative, binds tighter than + -).
func (p *calcParser) parseMulDiv() calcNode {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.peek().kind == calcTokenStar || p.peek().kind == calcTokenSlash || p.peek().kind == calcTokenPercent {
		op := p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &binaryNode{op: op.text, left: left, right: right}
	}
	return left
}

// parseUnary parses unary minus, right-recursive so --x negates twice.
func (p *calcParser) parseUnary() calcNode {
	if p.peek().kind == calcTokenMinus {
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &unaryNode{operand: operand}
	}
	return p.parsePrimary()
}

func (p *calcParser) parsePrimary() calcNode {
	tok := p.peek()
	switch tok.kind {
	case calcTokenNumber:
		p.advance()
		return &numberNode{value: tok.value}
	case calcTokenRef:
		p.advance()
		if tok.text == "" {
			return p.fail("empty token reference {}")
		}
		return &refNode{name: tok.text}
	case calcTokenLParen:
		p.advance()
		inner := p.parseAddSub()
		if inner == nil {
			return nil
		}
		if p.peek().kind != calcTokenRParen {
			return p.fail("missing ')' in calc expression")
		}
		p.advance()
		return inner
	case calcTokenEOF:
		return p.fail("calc expression ended unexpectedly")
	default:
		return p.fail("unexpected %q in calc expression", tok.text)
	}
}
