package lexer

import (
	"errors"
	"testing"

	dberrors "github.com/leengari/atomdb/internal/domain/errors"
)

func TestNextToken(t *testing.T) {
	input := `create TABLE users (id, name);
INSERT INTO users (id=1, name='Zoe Smith', note='it''s') select * From users WHERE name=Zoe
describe users SHOW tables DROP table users`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{CREATE, "create"},
		{TABLE, "TABLE"},
		{WORD, "users"},
		{PAREN_OPEN, "("},
		{WORD, "id"},
		{COMMA, ","},
		{WORD, "name"},
		{PAREN_CLOSE, ")"},
		{SEMICOLON, ";"},
		{INSERT, "INSERT"},
		{INTO, "INTO"},
		{WORD, "users"},
		{PAREN_OPEN, "("},
		{WORD, "id"},
		{EQUALS, "="},
		{WORD, "1"},
		{COMMA, ","},
		{WORD, "name"},
		{EQUALS, "="},
		{STRING, "Zoe Smith"},
		{COMMA, ","},
		{WORD, "note"},
		{EQUALS, "="},
		{STRING, "it's"},
		{PAREN_CLOSE, ")"},
		{SELECT, "select"},
		{ASTERISK, "*"},
		{FROM, "From"},
		{WORD, "users"},
		{WHERE, "WHERE"},
		{WORD, "name"},
		{EQUALS, "="},
		{WORD, "Zoe"},
		{DESCRIBE, "describe"},
		{WORD, "users"},
		{SHOW, "SHOW"},
		{TABLES, "tables"},
		{DROP, "DROP"},
		{TABLE, "table"},
		{WORD, "users"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestWordsKeepNonReservedCharacters(t *testing.T) {
	tokens, err := Tokenize("INSERT INTO t (email=alice@example.com, path=/a/b*c, n=-1.5)")
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}

	want := map[int]string{6: "alice@example.com", 10: "/a/b*c", 14: "-1.5"}
	for idx, lit := range want {
		if tokens[idx].Type != WORD || tokens[idx].Literal != lit {
			t.Errorf("token %d: expected WORD %q, got %s", idx, lit, tokens[idx])
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("  SHOW   TABLES")
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if tokens[0].Pos != 2 || tokens[1].Pos != 9 {
		t.Errorf("Unexpected positions: %d, %d", tokens[0].Pos, tokens[1].Pos)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize("INSERT INTO t (a='oops)")

	var se *dberrors.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("Expected SyntaxError, got %v", err)
	}
}

func TestEmptyInput(t *testing.T) {
	tokens, err := Tokenize("   \t ")
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("Expected no tokens, got %v", tokens)
	}
}

func TestInvalidUTF8Rejected(t *testing.T) {
	for _, input := range []string{
		"INSERT INTO t (a=caf\xe9)",
		"INSERT INTO t (a='\xff\xfe')",
		"SELECT * FROM t WHERE a=\xc3",
	} {
		_, err := Tokenize(input)
		var se *dberrors.SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("%q: expected SyntaxError, got %v", input, err)
		}
		if se.Reason != "command is not valid UTF-8" {
			t.Errorf("%q: unexpected reason %q", input, se.Reason)
		}
	}

	tokens, err := Tokenize("INSERT INTO t (a='café ☕')")
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if tokens[6].Literal != "café ☕" {
		t.Errorf("Expected multi-byte value to survive, got %q", tokens[6].Literal)
	}
}
