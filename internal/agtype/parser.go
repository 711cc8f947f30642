// Package agtype decodes AGE's agtype text representation into Go values.
//
// Decoded values are one of: nil, bool, int64, float64, string, Numeric,
// []interface{}, map[string]interface{}, *Vertex, *Edge or *Path.
package agtype

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Annotations appended to composite values by AGE.
const (
	annotationVertex  = "vertex"
	annotationEdge    = "edge"
	annotationPath    = "path"
	annotationNumeric = "numeric"
)

// SyntaxError reports malformed agtype text.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("agtype: %s at offset %d", e.Msg, e.Offset)
}

// Parse decodes a single agtype value.
func Parse(s string) (interface{}, error) {
	p := &parser{s: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing data")
	}
	return v, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value() (interface{}, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, p.errorf("unexpected end of input")
	}

	start := p.pos
	var (
		v   interface{}
		err error
	)
	switch c := p.s[p.pos]; {
	case c == '{':
		v, err = p.object()
	case c == '[':
		v, err = p.array()
	case c == '"':
		v, err = p.str()
	case c == '-' || (c >= '0' && c <= '9') || c == 'N' || c == 'I':
		v, err = p.number()
	default:
		v, err = p.literal()
	}
	if err != nil {
		return nil, err
	}
	end := p.pos

	annotation, ok := p.annotation()
	if !ok {
		return v, nil
	}
	return p.annotate(v, annotation, strings.TrimSpace(p.s[start:end]))
}

func (p *parser) annotation() (string, bool) {
	save := p.pos
	p.skipSpace()
	if !strings.HasPrefix(p.s[p.pos:], "::") {
		p.pos = save
		return "", false
	}
	p.pos += 2
	begin := p.pos
	for p.pos < len(p.s) && isIdentChar(p.s[p.pos]) {
		p.pos++
	}
	return p.s[begin:p.pos], true
}

func (p *parser) annotate(v interface{}, annotation, raw string) (interface{}, error) {
	switch annotation {
	case annotationVertex:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, p.errorf("vertex annotation on %T", v)
		}
		return toVertex(m), nil
	case annotationEdge:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, p.errorf("edge annotation on %T", v)
		}
		return toEdge(m), nil
	case annotationPath:
		arr, ok := v.([]interface{})
		if !ok {
			return nil, p.errorf("path annotation on %T", v)
		}
		return toPath(arr)
	case annotationNumeric:
		switch v.(type) {
		case int64, float64:
			return Numeric(raw), nil
		}
		return nil, p.errorf("numeric annotation on %T", v)
	default:
		return nil, p.errorf("unknown annotation %q", annotation)
	}
}

func (p *parser) object() (map[string]interface{}, error) {
	p.pos++ // {
	result := make(map[string]interface{})

	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return result, nil
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != '"' {
			return nil, p.errorf("expected object key")
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return nil, p.errorf("expected ':' after object key")
		}
		p.pos++

		val, err := p.value()
		if err != nil {
			return nil, err
		}
		result[key] = val

		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, p.errorf("unterminated object")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return result, nil
		default:
			return nil, p.errorf("expected ',' or '}' in object")
		}
	}
}

func (p *parser) array() ([]interface{}, error) {
	p.pos++ // [
	result := []interface{}{}

	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return result, nil
	}

	for {
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		result = append(result, val)

		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, p.errorf("unterminated array")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return result, nil
		default:
			return nil, p.errorf("expected ',' or ']' in array")
		}
	}
}

func (p *parser) str() (string, error) {
	begin := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			var s string
			if err := json.Unmarshal([]byte(p.s[begin:p.pos]), &s); err != nil {
				return "", &SyntaxError{Offset: begin, Msg: "invalid string: " + err.Error()}
			}
			return s, nil
		default:
			p.pos++
		}
	}
	return "", &SyntaxError{Offset: begin, Msg: "unterminated string"}
}

func (p *parser) number() (interface{}, error) {
	rest := p.s[p.pos:]
	for _, special := range []struct {
		text string
		val  float64
	}{
		{"NaN", math.NaN()},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
	} {
		if strings.HasPrefix(rest, special.text) {
			p.pos += len(special.text)
			return special.val, nil
		}
	}

	begin := p.pos
	isFloat := false
scan:
	for p.pos < len(p.s) {
		switch c := p.s[p.pos]; {
		case c >= '0' && c <= '9', c == '-', c == '+':
		case c == '.', c == 'e', c == 'E':
			isFloat = true
		default:
			break scan
		}
		p.pos++
	}
	tok := p.s[begin:p.pos]
	if tok == "" || tok == "-" {
		return nil, &SyntaxError{Offset: begin, Msg: "invalid number"}
	}

	if !isFloat {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, &SyntaxError{Offset: begin, Msg: fmt.Sprintf("invalid number %q", tok)}
	}
	return f, nil
}

func (p *parser) literal() (interface{}, error) {
	rest := p.s[p.pos:]
	switch {
	case strings.HasPrefix(rest, "null"):
		p.pos += 4
		return nil, nil
	case strings.HasPrefix(rest, "true"):
		p.pos += 4
		return true, nil
	case strings.HasPrefix(rest, "false"):
		p.pos += 5
		return false, nil
	}
	return nil, p.errorf("unexpected character %q", p.s[p.pos])
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func toVertex(m map[string]interface{}) *Vertex {
	return &Vertex{
		ID:         ToInt64(m["id"]),
		Label:      ToString(m["label"]),
		Properties: toProperties(m["properties"]),
	}
}

func toEdge(m map[string]interface{}) *Edge {
	return &Edge{
		ID:         ToInt64(m["id"]),
		Label:      ToString(m["label"]),
		StartID:    ToInt64(m["start_id"]),
		EndID:      ToInt64(m["end_id"]),
		Properties: toProperties(m["properties"]),
	}
}

func toProperties(v interface{}) map[string]interface{} {
	if props, ok := v.(map[string]interface{}); ok {
		return props
	}
	return map[string]interface{}{}
}

// toPath expects vertex, edge, vertex, ... as AGE emits them.
func toPath(arr []interface{}) (*Path, error) {
	if len(arr)%2 != 1 {
		return nil, fmt.Errorf("agtype: path has %d elements, want an odd count", len(arr))
	}
	path := &Path{}
	for i, item := range arr {
		switch el := item.(type) {
		case *Vertex:
			if i%2 != 0 {
				return nil, fmt.Errorf("agtype: path element %d: expected edge, got vertex", i)
			}
			path.Vertices = append(path.Vertices, el)
		case *Edge:
			if i%2 != 1 {
				return nil, fmt.Errorf("agtype: path element %d: expected vertex, got edge", i)
			}
			path.Edges = append(path.Edges, el)
		default:
			return nil, fmt.Errorf("agtype: path element %d: unexpected %T", i, item)
		}
	}
	return path, nil
}
