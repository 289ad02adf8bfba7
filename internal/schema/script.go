package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Script is a structural schema description:
//
//	tables:
//	  - name: users
//	    timestamps: true
//	    columns:
//	      - {name: email, type: string, limit: 255, null: false}
//	    indexes:
//	      - {columns: [email], unique: true}
//	statements:
//	  - INSERT INTO users (email) VALUES ('seed@example.com')
//
// Tables are created in order, then indexes, then statements run verbatim.
type Script struct {
	Tables     []Table  `yaml:"tables"     validate:"dive"`
	Statements []string `yaml:"statements" validate:"dive,required"`
}

// Table describes one table. Tables get an auto-increment "id" primary key
// unless PrimaryKey names another column or is "none".
type Table struct {
	Name       string   `yaml:"name"        validate:"required"`
	PrimaryKey string   `yaml:"primary_key"`
	Timestamps bool     `yaml:"timestamps"`
	Columns    []Column `yaml:"columns"     validate:"dive"`
	Indexes    []Index  `yaml:"indexes"     validate:"dive"`
}

// Column describes one column. Type is an abstract type (see Render); SQLType
// bypasses the mapping.
type Column struct {
	Name       string `yaml:"name"       validate:"required"`
	Type       string `yaml:"type"       validate:"required_without=SQLType"`
	SQLType    string `yaml:"sql_type"`
	Limit      int    `yaml:"limit"      validate:"gte=0"`
	Precision  int    `yaml:"precision"  validate:"gte=0"`
	Scale      int    `yaml:"scale"      validate:"gte=0"`
	Null       *bool  `yaml:"null"`
	Default    any    `yaml:"default"`
	References string `yaml:"references"`
}

// Nullable reports whether the column accepts NULL; columns are nullable
// unless declared otherwise.
func (c Column) Nullable() bool {
	return c.Null == nil || *c.Null
}

// Index describes a secondary index.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns" validate:"required,min=1,dive,required"`
	Unique  bool     `yaml:"unique"`
}

// quoteNullKeys retags plain `null` mapping keys as strings. YAML resolves a
// bare null key to the null value, which would never match the "null" field.
func quoteNullKeys(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return data, nil
	}
	if !retagNullKeys(&doc) {
		return data, nil
	}
	return yaml.Marshal(&doc)
}

func retagNullKeys(n *yaml.Node) bool {
	changed := false
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind == yaml.ScalarNode && key.Tag == "!!null" && key.Value == "null" {
				key.Tag = "!!str"
				key.Style = yaml.DoubleQuotedStyle
				changed = true
			}
		}
	}
	for _, child := range n.Content {
		if retagNullKeys(child) {
			changed = true
		}
	}
	return changed
}

// PrimaryKeyNone disables the implicit primary key.
const PrimaryKeyNone = "none"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseScript decodes and validates a structural script. Unknown keys are
// rejected.
func ParseScript(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	data, err = quoteNullKeys(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: table %q defined twice", ErrInvalidScript, t.Name)
		}
		seen[t.Name] = true
	}

	return &s, nil
}
