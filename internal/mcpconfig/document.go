// Package mcpconfig reads, merges and rewrites MCP client configuration files
// such as .github/mcp-config.json.
//
// Documents keep the key order found on disk. Values are held as a small
// tree: *object for JSON objects, []any for arrays, string for strings and
// literal for numbers, booleans and null (kept as their original text).
package mcpconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type object = orderedmap.OrderedMap[string, any]

// literal is the raw JSON text of a number, true, false or null.
type literal string

func newObject() *object {
	return orderedmap.New[string, any]()
}

// Document is an insertion-ordered JSON object.
type Document struct {
	root *object
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: newObject()}
}

// ParseDocument parses data into a Document. Empty or whitespace-only input
// yields an empty document. Anything that is not a JSON object at the top
// level returns ErrMalformedDocument.
func ParseDocument(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedDocument)
	}

	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return nil, fmt.Errorf("%w: top level is %s, not an object", ErrMalformedDocument, kindOf(r))
	}

	return &Document{root: fromResult(r).(*object)}, nil
}

// Len returns the number of top-level keys.
func (d *Document) Len() int {
	return d.root.Len()
}

// keys returns the top-level keys in document order.
func (d *Document) keys() []string {
	keys := make([]string, 0, d.root.Len())
	for pair := d.root.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Set places value at the dotted key path, creating intermediate objects as
// needed. An intermediate that exists but is not an object is replaced.
// value is converted through its JSON encoding.
func (d *Document) Set(keyPath string, value any) error {
	segs, err := splitKeyPath(keyPath)
	if err != nil {
		return err
	}
	node, err := toNode(value)
	if err != nil {
		return err
	}
	d.set(segs, node)
	return nil
}

func (d *Document) set(segs []string, node any) {
	parent := d.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := parent.Get(seg)
		child, isObject := next.(*object)
		if !ok || !isObject {
			child = newObject()
			parent.Set(seg, child)
		}
		parent = child
	}
	parent.Set(segs[len(segs)-1], node)
}

// Has reports whether a value exists at the dotted key path.
func (d *Document) Has(keyPath string) bool {
	_, ok := d.lookup(keyPath)
	return ok
}

// Decode unmarshals the value at the dotted key path into out.
// It reports false when nothing is stored there.
func (d *Document) Decode(keyPath string, out any) (bool, error) {
	node, ok := d.lookup(keyPath)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(appendNode(nil, node), out); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", keyPath, err)
	}
	return true, nil
}

func (d *Document) lookup(keyPath string) (any, bool) {
	segs, err := splitKeyPath(keyPath)
	if err != nil {
		return nil, false
	}

	var node any = d.root
	for _, seg := range segs {
		obj, ok := node.(*object)
		if !ok {
			return nil, false
		}
		node, ok = obj.Get(seg)
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// Delete removes the value at the dotted key path and reports whether
// anything was removed. Parents left empty are kept.
func (d *Document) Delete(keyPath string) bool {
	segs, err := splitKeyPath(keyPath)
	if err != nil {
		return false
	}

	parent := d.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := parent.Get(seg)
		if !ok {
			return false
		}
		child, isObject := next.(*object)
		if !isObject {
			return false
		}
		parent = child
	}
	_, present := parent.Delete(segs[len(segs)-1])
	return present
}

// PruneEmptyArrays removes every empty array in the document, as an object
// member or as an array element. Arrays that only held empty arrays are
// removed too. Empty objects are kept.
func (d *Document) PruneEmptyArrays() {
	pruneObject(d.root)
}

func pruneObject(obj *object) {
	var drop []string
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		pruned := prune(pair.Value)
		if isEmptyArray(pruned) {
			drop = append(drop, pair.Key)
			continue
		}
		obj.Set(pair.Key, pruned)
	}
	for _, key := range drop {
		obj.Delete(key)
	}
}

func prune(v any) any {
	switch n := v.(type) {
	case *object:
		pruneObject(n)
		return n
	case []any:
		kept := n[:0]
		for _, elem := range n {
			elem = prune(elem)
			if isEmptyArray(elem) {
				continue
			}
			kept = append(kept, elem)
		}
		return kept
	default:
		return v
	}
}

func isEmptyArray(v any) bool {
	arr, ok := v.([]any)
	return ok && len(arr) == 0
}

func splitKeyPath(keyPath string) ([]string, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKeyPath)
	}
	segs := strings.Split(keyPath, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidKeyPath, keyPath)
		}
	}
	return segs, nil
}

// toNode converts an arbitrary Go value to the document tree through its
// JSON encoding.
func toNode(value any) (any, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return fromResult(gjson.ParseBytes(buf.Bytes())), nil
}

func fromResult(r gjson.Result) any {
	switch {
	case r.IsObject():
		obj := newObject()
		r.ForEach(func(key, value gjson.Result) bool {
			obj.Set(validString(key.String()), fromResult(value))
			return true
		})
		return obj
	case r.IsArray():
		arr := []any{}
		r.ForEach(func(_, value gjson.Result) bool {
			arr = append(arr, fromResult(value))
			return true
		})
		return arr
	case r.Type == gjson.String:
		return validString(r.String())
	default:
		return literal(r.Raw)
	}
}

// validString replaces invalid UTF-8 with U+FFFD so a string reads back the
// same after it is written.
func validString(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func kindOf(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "an array"
	case r.Type == gjson.String:
		return "a string"
	case r.Type == gjson.Number:
		return "a number"
	case r.Type == gjson.Null:
		return "null"
	default:
		return "a boolean"
	}
}
