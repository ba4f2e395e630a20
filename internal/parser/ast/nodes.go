package ast

import (
	"bytes"
	"fmt"
)

// Node is the base interface for all AST nodes
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents one complete command. There is exactly one
// implementation per command kind.
type Statement interface {
	Node
	statementNode()
}

// Identifier represents a table or column name
type Identifier struct {
	TokenLiteralValue string // The token literal (e.g. "users")
	Value             string // The value (e.g. "users")
}

func (i *Identifier) TokenLiteral() string { return i.TokenLiteralValue }
func (i *Identifier) String() string       { return i.Value }

// Assignment is a single column=value pair inside INSERT
type Assignment struct {
	Column *Identifier
	Value  string
}

func (a *Assignment) String() string { return fmt.Sprintf("%s=%s", a.Column.Value, quote(a.Value)) }

// Condition is the single equality allowed after WHERE
type Condition struct {
	Column *Identifier
	Value  string
}

func (c *Condition) String() string { return fmt.Sprintf("%s=%s", c.Column.Value, quote(c.Value)) }

// CreateTableStatement: CREATE TABLE name (col1, col2)
type CreateTableStatement struct {
	TableName *Identifier
	Columns   []*Identifier
}

func (s *CreateTableStatement) statementNode()       {}
func (s *CreateTableStatement) TokenLiteral() string { return "CREATE" }
func (s *CreateTableStatement) String() string {
	var out bytes.Buffer
	out.WriteString("CREATE TABLE ")
	out.WriteString(s.TableName.String())
	out.WriteString(" (")
	for i, c := range s.Columns {
		out.WriteString(c.String())
		if i < len(s.Columns)-1 {
			out.WriteString(", ")
		}
	}
	out.WriteString(")")
	return out.String()
}

// ColumnNames returns the declared columns in order
func (s *CreateTableStatement) ColumnNames() []string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = c.Value
	}
	return cols
}

// InsertStatement: INSERT INTO table (col1=val1, col2=val2)
type InsertStatement struct {
	TableName   *Identifier
	Assignments []*Assignment
}

func (s *InsertStatement) statementNode()       {}
func (s *InsertStatement) TokenLiteral() string { return "INSERT" }
func (s *InsertStatement) String() string {
	var out bytes.Buffer
	out.WriteString("INSERT INTO ")
	out.WriteString(s.TableName.String())
	out.WriteString(" (")
	for i, a := range s.Assignments {
		out.WriteString(a.String())
		if i < len(s.Assignments)-1 {
			out.WriteString(", ")
		}
	}
	out.WriteString(")")
	return out.String()
}

// SelectStatement: SELECT * FROM table [WHERE col=val]
type SelectStatement struct {
	TableName *Identifier
	Where     *Condition // nil selects every row
}

func (s *SelectStatement) statementNode()       {}
func (s *SelectStatement) TokenLiteral() string { return "SELECT" }
func (s *SelectStatement) String() string {
	var out bytes.Buffer
	out.WriteString("SELECT * FROM ")
	out.WriteString(s.TableName.String())
	if s.Where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(s.Where.String())
	}
	return out.String()
}

// DescribeStatement: DESCRIBE table
type DescribeStatement struct {
	TableName *Identifier
}

func (s *DescribeStatement) statementNode()       {}
func (s *DescribeStatement) TokenLiteral() string { return "DESCRIBE" }
func (s *DescribeStatement) String() string       { return "DESCRIBE " + s.TableName.String() }

// ShowTablesStatement: SHOW TABLES
type ShowTablesStatement struct{}

func (s *ShowTablesStatement) statementNode()       {}
func (s *ShowTablesStatement) TokenLiteral() string { return "SHOW" }
func (s *ShowTablesStatement) String() string       { return "SHOW TABLES" }

// DropTableStatement: DROP TABLE table
type DropTableStatement struct {
	TableName *Identifier
}

func (s *DropTableStatement) statementNode()       {}
func (s *DropTableStatement) TokenLiteral() string { return "DROP" }
func (s *DropTableStatement) String() string       { return "DROP TABLE " + s.TableName.String() }

// Mutates reports whether executing the statement changes stored state
func Mutates(stmt Statement) bool {
	switch stmt.(type) {
	case *CreateTableStatement, *InsertStatement, *DropTableStatement:
		return true
	}
	return false
}

// quote renders a value so that String() output parses back to the same statement
func quote(v string) string {
	if v == "" {
		return "''"
	}
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case ' ', '\t', '\n', '\r', ',', '(', ')', '=', ';', '\'':
			return "'" + escape(v) + "'"
		}
	}
	if v[0] == '*' {
		return "'" + v + "'"
	}
	return v
}

func escape(v string) string {
	var out bytes.Buffer
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' {
			out.WriteByte('\'')
		}
		out.WriteByte(v[i])
	}
	return out.String()
}
