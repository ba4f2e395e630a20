package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/leengari/atomdb/internal/domain/errors"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	WORD   // table_name, column_name, bare value
	STRING // 'quoted value'

	// Keywords
	CREATE
	TABLE
	INSERT
	INTO
	SELECT
	FROM
	WHERE
	DESCRIBE
	SHOW
	TABLES
	DROP

	// Operators & Punctuation
	ASTERISK    // *
	COMMA       // ,
	PAREN_OPEN  // (
	PAREN_CLOSE // )
	EQUALS      // =
	SEMICOLON   // ;
)

var keywords = map[string]TokenType{
	"CREATE":   CREATE,
	"TABLE":    TABLE,
	"INSERT":   INSERT,
	"INTO":     INTO,
	"SELECT":   SELECT,
	"FROM":     FROM,
	"WHERE":    WHERE,
	"DESCRIBE": DESCRIBE,
	"SHOW":     SHOW,
	"TABLES":   TABLES,
	"DROP":     DROP,
}

var names = map[TokenType]string{
	ILLEGAL:     "ILLEGAL",
	EOF:         "EOF",
	WORD:        "WORD",
	STRING:      "STRING",
	ASTERISK:    "*",
	COMMA:       ",",
	PAREN_OPEN:  "(",
	PAREN_CLOSE: ")",
	EQUALS:      "=",
	SEMICOLON:   ";",
}

func (t TokenType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	for kw, tt := range keywords {
		if tt == t {
			return kw
		}
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether the token type is a reserved word
func (t TokenType) IsKeyword() bool {
	return t >= CREATE && t <= DROP
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset of the token in the input
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.position
	if l.atEnd() {
		return Token{Type: EOF, Pos: pos}
	}

	var tok Token
	switch l.ch {
	case '*':
		tok = newToken(ASTERISK, l.ch, pos)
	case ',':
		tok = newToken(COMMA, l.ch, pos)
	case '(':
		tok = newToken(PAREN_OPEN, l.ch, pos)
	case ')':
		tok = newToken(PAREN_CLOSE, l.ch, pos)
	case '=':
		tok = newToken(EQUALS, l.ch, pos)
	case ';':
		tok = newToken(SEMICOLON, l.ch, pos)
	case '\'':
		lit, ok := l.readString()
		if !ok {
			return Token{Type: ILLEGAL, Literal: l.input[pos:], Pos: pos}
		}
		return Token{Type: STRING, Literal: lit, Pos: pos}
	default:
		lit := l.readWord()
		return Token{Type: LookupIdent(lit), Literal: lit, Pos: pos}
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && isSpace(l.ch) {
		l.readChar()
	}
}

// readWord consumes a run of characters up to whitespace or punctuation.
// A '*' inside a word is part of the word.
func (l *Lexer) readWord() string {
	position := l.position
	for !l.atEnd() && !isSpace(l.ch) && !isPunct(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString consumes a single-quoted literal. A doubled quote inside it is a literal quote.
func (l *Lexer) readString() (string, bool) {
	var b strings.Builder
	for {
		l.readChar()
		if l.atEnd() {
			return "", false
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				b.WriteByte('\'')
				l.readChar()
				continue
			}
			// Consume the closing quote
			l.readChar()
			return b.String(), true
		}
		b.WriteByte(l.ch)
	}
}

func newToken(tokenType TokenType, ch byte, pos int) Token {
	return Token{Type: tokenType, Literal: string(ch), Pos: pos}
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return WORD
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isPunct(ch byte) bool {
	switch ch {
	case ',', '(', ')', '=', ';', '\'':
		return true
	}
	return false
}

// Helper to tokenize entire string at once. Input must be valid UTF-8 so
// that every stored value survives both snapshot formats.
func Tokenize(input string) ([]Token, error) {
	if !utf8.ValidString(input) {
		return nil, &errors.SyntaxError{Reason: "command is not valid UTF-8"}
	}
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			return nil, &errors.SyntaxError{Reason: "unterminated quoted value", Near: tok.Literal}
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
