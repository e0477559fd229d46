package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
)

// Parser parses PDF objects from an io.Reader using a Lexer for tokenization.
// It supports parsing all PDF object types including indirect objects and streams.
type Parser struct {
	lexer        *Lexer
	currentToken *Token // Current token being processed
	peekToken    *Token // Next token (lookahead)
	err          error  // first lexer error, reported by the next parse call
	resolver     ReferenceResolver
}

// NewParser creates a new PDF parser for the given reader.
// It initializes the lexer and loads the first two tokens for lookahead.
func NewParser(r io.Reader) *Parser {
	p := &Parser{lexer: NewLexer(r)}
	p.nextToken()
	p.nextToken()
	return p
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// nextToken advances the parser to the next token by shifting the lookahead.
func (p *Parser) nextToken() {
	p.currentToken = p.peekToken

	// Binary data follows "stream"; parseStream reads it directly.
	if p.currentToken != nil &&
		p.currentToken.Type == TokenKeyword &&
		string(p.currentToken.Value) == "stream" {
		p.peekToken = nil
		return
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		token = nil
	}
	p.peekToken = token
}

func (p *Parser) current() (*Token, error) {
	if p.currentToken == nil {
		if p.err != nil {
			return nil, p.err
		}
		return nil, fmt.Errorf("unexpected end of input")
	}
	return p.currentToken, nil
}

// skipComments skips over any consecutive comment tokens.
func (p *Parser) skipComments() {
	for p.currentToken != nil && p.currentToken.Type == TokenComment {
		p.nextToken()
	}
}

// ParseObject parses and returns the next PDF object from the input.
// It returns io.EOF when the input is exhausted.
func (p *Parser) ParseObject() (Object, error) {
	p.skipComments()
	tok, err := p.current()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		var obj Object
		switch string(tok.Value) {
		case "null":
			obj = Null{}
		case "true":
			obj = Bool(true)
		case "false":
			obj = Bool(false)
		default:
			return nil, fmt.Errorf("unexpected keyword: %s", tok.Value)
		}
		p.nextToken()
		return obj, nil

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number: %w", err)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString:
		p.nextToken()
		return String(tok.Value), nil

	case TokenHexString:
		digits := tok.Value
		if len(digits)%2 != 0 {
			digits = append(digits, '0')
		}
		decoded := make([]byte, hex.DecodedLen(len(digits)))
		if _, err := hex.Decode(decoded, digits); err != nil {
			return nil, fmt.Errorf("invalid hex string: %w", err)
		}
		p.nextToken()
		return String(decoded), nil

	case TokenName:
		p.nextToken()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token %v at position %d", tok.Type, tok.Pos)
	}
}

// parseNumber parses an integer or an indirect reference ("num gen R").
func (p *Parser) parseNumber() (Object, error) {
	first, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %s", p.currentToken.Value)
	}

	if p.peekToken != nil && p.peekToken.Type == TokenInteger {
		second, err := strconv.ParseInt(string(p.peekToken.Value), 10, 64)
		if err == nil {
			p.nextToken() // second integer is now current
			if p.peekToken != nil && p.peekToken.Type == TokenIndirectRef {
				p.nextToken()
				p.nextToken()
				return IndirectRef{Number: int(first), Generation: int(second)}, nil
			}
			// Not a reference; the second integer stays current.
			return Int(first), nil
		}
	}

	p.nextToken()
	return Int(first), nil
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray() (Object, error) {
	p.nextToken() // [

	arr := Array{}
	for {
		p.skipComments()
		tok, err := p.current()
		if err != nil {
			return nil, fmt.Errorf("unterminated array: %w", err)
		}
		switch tok.Type {
		case TokenArrayEnd:
			p.nextToken()
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in array")
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

// parseDict parses a PDF dictionary "<< /Key value ... >>".
func (p *Parser) parseDict() (Object, error) {
	p.nextToken() // <<

	dict := make(Dict)
	for {
		p.skipComments()
		tok, err := p.current()
		if err != nil {
			return nil, fmt.Errorf("unterminated dictionary: %w", err)
		}
		switch tok.Type {
		case TokenDictEnd:
			p.nextToken()
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name for dictionary key, got %v", tok.Type)
		}

		key := string(tok.Value)
		p.nextToken()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition.
// Format: "num gen obj <object> endobj" or "num gen obj <dict> stream ... endstream endobj"
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.skipComments()

	num, err := p.expectInteger("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInteger("generation number")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("obj"); err != nil {
		return nil, err
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("error parsing indirect object value: %w", err)
	}

	if tok := p.currentToken; tok != nil && tok.Type == TokenKeyword && string(tok.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream must follow a dictionary")
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("error parsing stream: %w", err)
		}
		obj = stream
	}

	if err := p.expectKeyword("endobj"); err != nil {
		return nil, err
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

func (p *Parser) expectInteger(what string) (int, error) {
	tok, err := p.current()
	if err != nil {
		return 0, fmt.Errorf("expected %s: %w", what, err)
	}
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s, got %v", what, tok.Type)
	}
	v, err := strconv.Atoi(string(tok.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	p.nextToken()
	return v, nil
}

func (p *Parser) expectKeyword(keyword string) error {
	tok, err := p.current()
	if err != nil {
		return fmt.Errorf("expected '%s' keyword: %w", keyword, err)
	}
	if tok.Type != TokenKeyword || string(tok.Value) != keyword {
		return fmt.Errorf("expected '%s' keyword, got %v %q", keyword, tok.Type, tok.Value)
	}
	p.nextToken()
	return nil
}

// parseStream reads the stream body after the "stream" keyword. Exactly
// /Length bytes are read; an indirect /Length is resolved through the
// parser's resolver.
func (p *Parser) parseStream(dict Dict) (*RawStream, error) {
	lengthObj := dict.Get("Length")
	if lengthObj == nil {
		return nil, &MissingKeyError{Key: "Length"}
	}
	length, err := ToInt(lengthObj, p.resolver)
	if err != nil {
		return nil, fmt.Errorf("stream length: %w", err)
	}
	if length < 0 {
		return nil, fmt.Errorf("invalid stream length: %d", length)
	}

	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("failed to skip EOL after stream keyword: %w", err)
	}
	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream data: %w", err)
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read token after stream data: %w", err)
	}
	if token.Type != TokenKeyword || string(token.Value) != "endstream" {
		return nil, fmt.Errorf("expected 'endstream' keyword, got %v (%s)", token.Type, token.Value)
	}

	// Refill the lookahead past "endstream".
	p.currentToken = nil
	p.peekToken = nil
	p.nextToken()
	p.nextToken()

	return &RawStream{Dict: dict, Data: data}, nil
}
