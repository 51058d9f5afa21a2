package mcpconfig

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/pretty"
)

// prettyOptions lays documents out with four-space indentation and keeps
// keys in document order.
var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "    ",
	SortKeys: false,
}

// Marshal returns the indented JSON form of the document. Slashes are not
// escaped and lines end with a single LF.
func (d *Document) Marshal() []byte {
	out := pretty.PrettyOptions(appendNode(nil, d.root), prettyOptions)
	out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

// appendNode appends the compact JSON encoding of node to buf.
func appendNode(buf []byte, node any) []byte {
	switch n := node.(type) {
	case *object:
		buf = append(buf, '{')
		first := true
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf = append(buf, ',')
			}
			first = false
			buf = appendString(buf, pair.Key)
			buf = append(buf, ':')
			buf = appendNode(buf, pair.Value)
		}
		return append(buf, '}')
	case []any:
		buf = append(buf, '[')
		for i, elem := range n {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendNode(buf, elem)
		}
		return append(buf, ']')
	case string:
		return appendString(buf, n)
	case literal:
		return append(buf, n...)
	default:
		return append(buf, "null"...)
	}
}

func appendString(buf []byte, s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return append(buf, bytes.TrimSuffix(b.Bytes(), []byte("\n"))...)
}
