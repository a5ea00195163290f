package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
//
// Differences from json.Marshal:
// 1. Object keys sorted by UTF-16 code units
// 2. No HTML escaping
// 3. Strings are NFC normalized
// 4. U+2028 and U+2029 are written literally
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Text:
		return marshalCanonicalString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the encoder's escapes of U+2028 and U+2029
// back into literal characters, leaving an escaped backslash followed by
// "u2028" alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) {
			if i+5 < len(data) && bytes.Equal(data[i+1:i+5], []byte("u202")) && (data[i+5] == '8' || data[i+5] == '9') {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
			// Copy the escape pair so an escaped backslash is never
			// mistaken for the start of an escape.
			out = append(out, data[i], data[i+1])
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// Encode converts a tree to its canonical value form. Every node records
// its variant under "node"; calls record the operator name, syntax and
// operands; literals record their kind, type and canonical text.
func Encode(n Node) Value {
	switch n := n.(type) {
	case *LiteralNode:
		return Object{
			"node":  Text("literal"),
			"kind":  Text(n.Value.Kind().String()),
			"type":  Text(n.Value.Type().String()),
			"value": Text(n.Value.String()),
		}
	case *Identifier:
		names := make(Array, len(n.Names))
		for i, s := range n.Names {
			names[i] = Text(s)
		}
		obj := Object{"node": Text("identifier"), "names": names}
		if n.Star {
			obj["star"] = Bool(true)
		}
		return obj
	case *Call:
		operands := make(Array, len(n.Operands))
		for i, o := range n.Operands {
			operands[i] = Encode(o)
		}
		obj := Object{
			"node":     Text("call"),
			"op":       Text(n.Operator().Name),
			"syntax":   Text(n.Operator().Syntax.String()),
			"operands": operands,
		}
		if n.Quantifier != QuantifierNone {
			obj["quantifier"] = Text(n.Quantifier.String())
		}
		return obj
	case *NodeList:
		items := make(Array, len(n.Items))
		for i, it := range n.Items {
			items[i] = Encode(it)
		}
		return Object{"node": Text("list"), "items": items}
	case *DynamicParam:
		return Object{"node": Text("param"), "index": Int(n.Index)}
	}
	return Object{"node": Text("unknown")}
}

// MarshalNode renders a tree as canonical JSON.
func MarshalNode(n Node) ([]byte, error) {
	return MarshalCanonical(Encode(n))
}
