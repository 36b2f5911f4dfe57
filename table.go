package meterdb

import (
	"bytes"
	"context"
	"fmt"
)

// Table is a handle to a table in the store.
type Table struct {
	c *Client

	// Table is the name of the table.
	Table string
}

func (c *Client) Table(tableName string) *Table {
	return &Table{
		c:     c,
		Table: tableName,
	}
}

// Create creates the table with its known DDL. It is a no-op if the table exists.
func (t *Table) Create(ctx context.Context) error {
	stmt, ok := CreateTableStatement(t.Table)
	if !ok {
		return fmt.Errorf("no table definition for %s", t.Identifier())
	}
	_, err := t.c.Statement(stmt).Execute(ctx)
	return err
}

func (t *Table) Drop(ctx context.Context) error {
	s := t.c.Statement(fmt.Sprintf(`DROP TABLE %s`, t.Identifier()))
	_, err := s.Execute(ctx)
	return err
}

// Truncate removes every row of the table and keeps its definition.
func (t *Table) Truncate(ctx context.Context) error {
	_, err := t.c.Statement(fmt.Sprintf(`TRUNCATE TABLE %s`, t.Identifier())).Execute(ctx)
	return err
}

// Columns returns the table's columns as the store reports them.
func (t *Table) Columns(ctx context.Context) (Schema, error) {
	r, err := t.c.Statement(fmt.Sprintf(`SHOW COLUMNS FROM %s`, t.Identifier())).Execute(ctx)
	if err != nil {
		return nil, err
	}

	nameIdx, typeIdx := -1, -1
	for i, f := range r.Schema {
		switch f.Name {
		case "column":
			nameIdx = i
		case "type":
			typeIdx = i
		}
	}
	if nameIdx < 0 || typeIdx < 0 {
		return nil, fmt.Errorf("unexpected columns result for %s", t.Identifier())
	}

	var records [][]Value
	if records, err = r.ToValues(); err != nil {
		return nil, err
	}
	var schema Schema
	for _, record := range records {
		name, ok := record[nameIdx].(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", record[nameIdx])
		}
		dataType, ok := record[typeIdx].(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", record[typeIdx])
		}
		schema = append(schema, &FieldSchema{
			Name: name,
			Type: DataType(dataType),
		})
	}
	return schema, nil
}

// Copy runs a bulk load of the job's source file into this table and returns
// the import id the store assigns, if any.
func (t *Table) Copy(ctx context.Context, job CopyJob) (string, error) {
	r, err := t.c.Statement(BuildCopyStatement(job.WithTable(t.Table))).Execute(ctx)
	if err != nil {
		return "", err
	}
	records, err := r.ToValues()
	if err != nil {
		return "", err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return "", nil
	}
	id, ok := records[0][0].(string)
	if !ok {
		return "", fmt.Errorf("expected string import id, got %T", records[0][0])
	}
	return id, nil
}

func (t *Table) Identifier() string {
	return quoteIdent(t.Table, '"')
}

func quoteIdent(s string, r rune) string {
	var b bytes.Buffer
	b.WriteRune(r)
	for _, c := range s {
		switch c {
		case '\t':
			b.WriteString("\\t")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		default:
			if c == r {
				b.WriteRune(c)
				b.WriteRune(c)
				break
			}

			if c < 0x20 {
				b.WriteString(fmt.Sprintf("\\x%02x", c))
				break
			}

			b.WriteRune(c)
		}
	}
	b.WriteRune(r)
	return b.String()
}
