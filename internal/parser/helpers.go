package parser

import (
	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/parser/lexer"
)

// isCommandKeyword checks if a token type can start a command
func isCommandKeyword(t lexer.TokenType) bool {
	switch t {
	case lexer.CREATE, lexer.INSERT, lexer.SELECT, lexer.DESCRIBE, lexer.SHOW, lexer.DROP:
		return true
	}
	return false
}

// isIdentifierOrKeyword checks if a token can be used as a table or column name.
// Reserved words are accepted here since names never start a command.
func isIdentifierOrKeyword(t lexer.TokenType) bool {
	return t == lexer.WORD || t.IsKeyword()
}

// isValue checks if a token can be the right-hand side of column=value
func isValue(t lexer.TokenType) bool {
	return t == lexer.STRING || isIdentifierOrKeyword(t)
}

// syntaxErr builds an InvalidSyntax error pointing at tok
func syntaxErr(reason string, tok lexer.Token) error {
	near := tok.Literal
	if tok.Type == lexer.EOF {
		near = ""
		reason += " at end of input"
	}
	return &errors.SyntaxError{Reason: reason, Near: near}
}
