package parser

import (
	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/parser/ast"
	"github.com/leengari/atomdb/internal/parser/lexer"
)

type Parser struct {
	tokens  []lexer.Token
	curPos  int
	curTok  lexer.Token
	peekTok lexer.Token
}

func New(tokens []lexer.Token) *Parser {
	p := &Parser{tokens: tokens, curPos: 0}
	// Read two tokens to set curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

// ParseCommand tokenizes and parses a single command line
func ParseCommand(input string) (ast.Statement, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = lexer.Token{Type: lexer.EOF}
	}
}

// Parse reads exactly one statement. An optional trailing semicolon is
// accepted; anything after it is an error.
func (p *Parser) Parse() (ast.Statement, error) {
	var (
		stmt ast.Statement
		err  error
	)

	if p.curTok.Type == lexer.EOF {
		return nil, &errors.SyntaxError{Reason: "empty command"}
	}
	if !isCommandKeyword(p.curTok.Type) {
		return nil, &errors.UnknownCommandError{Keyword: p.curTok.Literal}
	}

	switch p.curTok.Type {
	case lexer.CREATE:
		stmt, err = p.parseCreate()
	case lexer.INSERT:
		stmt, err = p.parseInsert()
	case lexer.SELECT:
		stmt, err = p.parseSelect()
	case lexer.DESCRIBE:
		stmt, err = p.parseDescribe()
	case lexer.SHOW:
		stmt, err = p.parseShowTables()
	case lexer.DROP:
		stmt, err = p.parseDrop()
	}
	if err != nil {
		return nil, err
	}

	// Semicolon (Optional)
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
	if p.curTok.Type != lexer.EOF {
		return nil, syntaxErr("unexpected trailing input", p.curTok)
	}
	return stmt, nil
}

// CREATE TABLE name (col, col, ...)
func (p *Parser) parseCreate() (*ast.CreateTableStatement, error) {
	stmt := &ast.CreateTableStatement{}

	// CREATE
	p.nextToken()

	if err := p.expect(lexer.TABLE, "expected TABLE after CREATE"); err != nil {
		return nil, err
	}

	name, err := p.parseName("expected table name")
	if err != nil {
		return nil, err
	}
	stmt.TableName = name

	if err := p.expect(lexer.PAREN_OPEN, "expected ( before column list"); err != nil {
		return nil, err
	}

	for {
		col, err := p.parseName("expected column name")
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)

		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}

	if err := p.expect(lexer.PAREN_CLOSE, "expected , or ) in column list"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// INSERT INTO name (col=value, col=value, ...)
func (p *Parser) parseInsert() (*ast.InsertStatement, error) {
	stmt := &ast.InsertStatement{}

	// INSERT
	p.nextToken()

	if err := p.expect(lexer.INTO, "expected INTO after INSERT"); err != nil {
		return nil, err
	}

	name, err := p.parseName("expected table name")
	if err != nil {
		return nil, err
	}
	stmt.TableName = name

	if err := p.expect(lexer.PAREN_OPEN, "expected ( before assignments"); err != nil {
		return nil, err
	}

	for {
		col, value, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, &ast.Assignment{Column: col, Value: value})

		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}

	if err := p.expect(lexer.PAREN_CLOSE, "expected , or ) in assignment list"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// SELECT * FROM name [WHERE col=value]
func (p *Parser) parseSelect() (*ast.SelectStatement, error) {
	stmt := &ast.SelectStatement{}

	// SELECT
	p.nextToken()

	if err := p.expect(lexer.ASTERISK, "only SELECT * is supported"); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.FROM, "expected FROM"); err != nil {
		return nil, err
	}

	name, err := p.parseName("expected table name")
	if err != nil {
		return nil, err
	}
	stmt.TableName = name

	// WHERE (Optional)
	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		col, value, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		stmt.Where = &ast.Condition{Column: col, Value: value}
	}

	return stmt, nil
}

// DESCRIBE name
func (p *Parser) parseDescribe() (*ast.DescribeStatement, error) {
	p.nextToken()
	name, err := p.parseName("expected table name")
	if err != nil {
		return nil, err
	}
	return &ast.DescribeStatement{TableName: name}, nil
}

// SHOW TABLES
func (p *Parser) parseShowTables() (*ast.ShowTablesStatement, error) {
	p.nextToken()
	if err := p.expect(lexer.TABLES, "expected TABLES after SHOW"); err != nil {
		return nil, err
	}
	return &ast.ShowTablesStatement{}, nil
}

// DROP TABLE name
func (p *Parser) parseDrop() (*ast.DropTableStatement, error) {
	p.nextToken()
	if err := p.expect(lexer.TABLE, "expected TABLE after DROP"); err != nil {
		return nil, err
	}
	name, err := p.parseName("expected table name")
	if err != nil {
		return nil, err
	}
	return &ast.DropTableStatement{TableName: name}, nil
}

// parsePair reads col=value
func (p *Parser) parsePair() (*ast.Identifier, string, error) {
	col, err := p.parseName("expected column name")
	if err != nil {
		return nil, "", err
	}
	if err := p.expect(lexer.EQUALS, "expected = after column name"); err != nil {
		return nil, "", err
	}
	if !isValue(p.curTok.Type) {
		return nil, "", syntaxErr("expected value", p.curTok)
	}
	value := p.curTok.Literal
	p.nextToken()
	return col, value, nil
}

func (p *Parser) parseName(reason string) (*ast.Identifier, error) {
	if !isIdentifierOrKeyword(p.curTok.Type) {
		return nil, syntaxErr(reason, p.curTok)
	}
	id := &ast.Identifier{TokenLiteralValue: p.curTok.Literal, Value: p.curTok.Literal}
	p.nextToken()
	return id, nil
}

func (p *Parser) expect(t lexer.TokenType, reason string) error {
	if p.curTok.Type != t {
		return syntaxErr(reason, p.curTok)
	}
	p.nextToken()
	return nil
}
