// Package arff decodes the dense ARFF files written by openSMILE.
package arff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RyanBlaney/featmerge/pkg/features"
)

// AttributeType is the declared type of an ARFF attribute
type AttributeType int

const (
	TypeNumeric AttributeType = iota
	TypeString
	TypeNominal
	TypeDate
)

// Attribute is one @ATTRIBUTE declaration
type Attribute struct {
	Name    string
	Type    AttributeType
	Nominal []string
}

// Dataset is a decoded ARFF file
type Dataset struct {
	Relation   string
	Attributes []Attribute
	Rows       []features.Row
}

// DecodeFile opens and decodes an ARFF file
func DecodeFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open arff file: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a dense ARFF document
func Decode(r io.Reader) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	ds := &Dataset{}
	inData := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if !inData {
			keyword, rest := splitKeyword(line)
			switch strings.ToLower(keyword) {
			case "@relation":
				ds.Relation = unquote(rest)
			case "@attribute":
				attr, err := parseAttribute(rest)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				ds.Attributes = append(ds.Attributes, attr)
			case "@data":
				if len(ds.Attributes) == 0 {
					return nil, fmt.Errorf("line %d: @data before any @attribute", lineNo)
				}
				inData = true
			default:
				return nil, fmt.Errorf("line %d: unexpected header line %q", lineNo, line)
			}
			continue
		}

		if strings.HasPrefix(line, "{") {
			return nil, fmt.Errorf("line %d: sparse instances are not supported", lineNo)
		}

		values, err := splitValues(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(values) != len(ds.Attributes) {
			return nil, fmt.Errorf("line %d: %d values for %d attributes", lineNo, len(values), len(ds.Attributes))
		}

		row := make(features.Row, len(values))
		for i, v := range values {
			row[i] = ds.Attributes[i].cell(v)
		}
		ds.Rows = append(ds.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read arff: %w", err)
	}
	if !inData {
		return nil, fmt.Errorf("missing @data section")
	}

	return ds, nil
}

// Table converts the dataset to a feature table with one column per attribute
func (d *Dataset) Table() *features.Table {
	cols := make([]features.Column, len(d.Attributes))
	for i, a := range d.Attributes {
		kind := features.KindText
		if a.Type == TypeNumeric {
			kind = features.KindNumeric
		}
		cols[i] = features.Column{Name: a.Name, Kind: kind}
	}
	t := features.NewTable(cols)
	t.Rows = append(t.Rows, d.Rows...)
	return t
}

func (a Attribute) cell(raw string) features.Cell {
	if a.Type == TypeNumeric {
		return features.NumCell(features.ParseValue(raw))
	}
	if raw == "?" {
		return features.TextCell("")
	}
	return features.TextCell(raw)
}

func splitKeyword(line string) (string, string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}

func parseAttribute(rest string) (Attribute, error) {
	name, typ, err := splitAttributeName(rest)
	if err != nil {
		return Attribute{}, err
	}

	attr := Attribute{Name: name}
	switch lower := strings.ToLower(typ); {
	case lower == "numeric" || lower == "real" || lower == "integer":
		attr.Type = TypeNumeric
	case lower == "string":
		attr.Type = TypeString
	case strings.HasPrefix(lower, "date"):
		attr.Type = TypeDate
	case strings.HasPrefix(typ, "{") && strings.HasSuffix(typ, "}"):
		attr.Type = TypeNominal
		values, err := splitValues(typ[1 : len(typ)-1])
		if err != nil {
			return Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
		}
		attr.Nominal = values
	default:
		return Attribute{}, fmt.Errorf("attribute %q: unsupported type %q", name, typ)
	}
	return attr, nil
}

// splitAttributeName separates a possibly quoted attribute name from its type
func splitAttributeName(rest string) (string, string, error) {
	if rest == "" {
		return "", "", fmt.Errorf("empty attribute declaration")
	}
	if q := rest[0]; q == '\'' || q == '"' {
		end := strings.IndexByte(rest[1:], q)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated attribute name in %q", rest)
		}
		return rest[1 : end+1], strings.TrimSpace(rest[end+2:]), nil
	}
	name, typ := splitKeyword(rest)
	if typ == "" {
		return "", "", fmt.Errorf("attribute %q has no type", name)
	}
	return name, typ, nil
}

// splitValues splits a comma separated instance line, honouring single and
// double quotes and backslash escapes inside quotes
func splitValues(line string) ([]string, error) {
	var (
		values []string
		cur    strings.Builder
		quote  byte
		quoted bool
	)

	flush := func() {
		v := cur.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		values = append(values, v)
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			switch {
			case c == '\\' && i+1 < len(line):
				i++
				cur.WriteByte(line[i])
			case c == quote:
				quote = 0
			default:
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			if strings.TrimSpace(cur.String()) != "" {
				return nil, fmt.Errorf("quote inside unquoted value at column %d", i+1)
			}
			cur.Reset()
			quote = c
			quoted = true
		case c == ',':
			flush()
		default:
			if quoted && c != ' ' && c != '\t' {
				return nil, fmt.Errorf("text after closing quote at column %d", i+1)
			}
			if !quoted {
				cur.WriteByte(c)
			}
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()

	return values, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
