package esf

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ssargent/lwes/pkg/codec"
)

// ParseError describes a syntax or semantic error in an ESF document
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "esf: " + e.Msg
	}
	return fmt.Sprintf("esf:%d:%d: %s", e.Line, e.Col, e.Msg)
}

// checkName enforces the short string limits names are encoded with
func checkName(kind, name string) error {
	if name == "" {
		return &ParseError{Msg: kind + " name is empty"}
	}
	if len(name) > codec.MaxShortString {
		return &ParseError{Msg: fmt.Sprintf("%s name %q exceeds %d bytes", kind, name[:16]+"...", codec.MaxShortString)}
	}
	return nil
}

// Parser builds a Dictionary from ESF tokens
type Parser struct {
	lexer  *Lexer
	cur    Token
	events map[string]map[string]codec.Type
}

// NewParser creates a parser over input
func NewParser(input string) *Parser {
	p := &Parser{
		lexer:  NewLexer(input),
		events: make(map[string]map[string]codec.Type),
	}
	p.next()
	return p
}

// ParseString parses an ESF document held in a string
func ParseString(input string) (*Dictionary, error) {
	return NewParser(input).Parse()
}

// Parse reads and parses an ESF document
func Parse(r io.Reader) (*Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read esf: %w", err)
	}
	return ParseString(string(data))
}

// LoadFile parses the ESF file at path
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open esf file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (p *Parser) next() {
	p.cur = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.cur.Line, Col: p.cur.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if p.cur.Type != t {
		if p.cur.Type == TokenEOF {
			return p.cur, p.errorf("expected %s, got end of input", t)
		}
		return p.cur, p.errorf("expected %s, got %q", t, p.cur.Literal)
	}
	tok := p.cur
	p.next()
	return tok, nil
}

// Parse consumes the whole input
func (p *Parser) Parse() (*Dictionary, error) {
	for p.cur.Type != TokenEOF {
		if err := p.parseEvent(); err != nil {
			return nil, err
		}
	}
	return &Dictionary{events: p.events}, nil
}

func (p *Parser) parseEvent() error {
	nameTok, err := p.expect(TokenIdent)
	if err != nil {
		return err
	}
	if err := checkName("event", nameTok.Literal); err != nil {
		return err
	}
	if _, dup := p.events[nameTok.Literal]; dup {
		return &ParseError{Line: nameTok.Line, Col: nameTok.Col, Msg: fmt.Sprintf("event %q declared twice", nameTok.Literal)}
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}

	attrs := make(map[string]codec.Type)
	for p.cur.Type != TokenRBrace {
		name, typ, err := p.parseAttribute()
		if err != nil {
			return err
		}
		if _, dup := attrs[name]; dup {
			return p.errorf("attribute %q declared twice in %s", name, nameTok.Literal)
		}
		attrs[name] = typ
	}
	p.next()
	p.events[nameTok.Literal] = attrs
	return nil
}

// parseAttribute parses `[nullable] type name [ '[' size ']' ] ;`
func (p *Parser) parseAttribute() (string, codec.Type, error) {
	nullable := false
	if p.cur.Type == TokenIdent && p.cur.Literal == "nullable" {
		nullable = true
		p.next()
	}

	typeTok, err := p.expect(TokenIdent)
	if err != nil {
		return "", codec.TypeUndefined, err
	}
	base, ok := codec.LookupScalar(typeTok.Literal)
	if !ok {
		return "", codec.TypeUndefined, &ParseError{Line: typeTok.Line, Col: typeTok.Col,
			Msg: fmt.Sprintf("unknown type %q", typeTok.Literal)}
	}

	nameTok, err := p.expect(TokenIdent)
	if err != nil {
		return "", codec.TypeUndefined, err
	}
	if err := checkName("attribute", nameTok.Literal); err != nil {
		return "", codec.TypeUndefined, err
	}

	typ := base
	if p.cur.Type == TokenLBracket {
		p.next()
		sizeTok, err := p.expect(TokenNumber)
		if err != nil {
			return "", codec.TypeUndefined, err
		}
		size, err := strconv.Atoi(sizeTok.Literal)
		if err != nil || size <= 0 || size > codec.MaxArrayLength {
			return "", codec.TypeUndefined, &ParseError{Line: sizeTok.Line, Col: sizeTok.Col,
				Msg: fmt.Sprintf("invalid array size %s", sizeTok.Literal)}
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return "", codec.TypeUndefined, err
		}
		typ = base.ArrayOf()
		if nullable {
			typ = base.NullableOf()
		}
	} else if nullable {
		return "", codec.TypeUndefined, &ParseError{Line: nameTok.Line, Col: nameTok.Col,
			Msg: fmt.Sprintf("nullable attribute %q must be an array", nameTok.Literal)}
	}

	if _, err := p.expect(TokenSemicolon); err != nil {
		return "", codec.TypeUndefined, err
	}
	return nameTok.Literal, typ, nil
}
