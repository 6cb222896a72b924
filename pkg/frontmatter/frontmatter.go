// Package frontmatter parses and builds the minimal flat key-value metadata
// block used at the top of per-rule consumer files. It handles a restricted
// YAML subset: one "key: value" pair per line between two "---" delimiter
// lines, with booleans and quoted strings coerced. Anything that does not
// look like frontmatter degrades silently to "no metadata, whole text is
// body" rather than failing, because consumer files are user-authored and
// frequently malformed.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

var keyValueRe = regexp.MustCompile(`^(\w+)\s*:\s*(.+)$`)

// Meta is an insertion-ordered set of frontmatter key-value pairs. Values
// are either bool or string. Order is preserved so that Build emits keys
// in the order they were set (or parsed), keeping round-trips stable.
type Meta struct {
	keys   []string
	values map[string]any
}

// NewMeta returns an empty metadata set.
func NewMeta() *Meta {
	return &Meta{values: make(map[string]any)}
}

// Set stores a value under key, appending the key to the order on first use.
func (m *Meta) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Meta) Get(key string) (any, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// String returns the string value stored under key, or "" if absent or
// not a string.
func (m *Meta) String(key string) string {
	if v, ok := m.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Bool returns the bool value stored under key. The second result reports
// whether a bool was present.
func (m *Meta) Bool(key string) (bool, bool) {
	if v, ok := m.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// Has reports whether key is present.
func (m *Meta) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Meta) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of stored keys.
func (m *Meta) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Parse splits text into a metadata block and a body. The text must start
// with the delimiter and contain a closing delimiter; otherwise the whole
// input is returned unchanged as the body with empty metadata. This is a
// recoverable fallback, never an error.
func Parse(text string) (*Meta, string) {
	meta := NewMeta()
	if !strings.HasPrefix(text, Delimiter) {
		return meta, text
	}
	end := strings.Index(text[len(Delimiter):], Delimiter)
	if end == -1 {
		return meta, text
	}
	end += len(Delimiter)

	block := strings.TrimSpace(text[len(Delimiter):end])
	body := strings.TrimLeft(text[end+len(Delimiter):], "\n")

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		match := keyValueRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		key, val := match[1], strings.TrimSpace(match[2])
		meta.Set(key, coerce(val))
	}
	return meta, body
}

// coerce applies frontmatter value typing: boolean literals become bools
// and matching quote pairs are stripped.
func coerce(val string) any {
	switch strings.ToLower(val) {
	case "true":
		return true
	case "false":
		return false
	}
	if len(val) >= 2 {
		if (val[0] == '"' && val[len(val)-1] == '"') ||
			(val[0] == '\'' && val[len(val)-1] == '\'') {
			return val[1 : len(val)-1]
		}
	}
	return val
}

// Build renders metadata as a frontmatter block between two delimiter
// lines, keys in insertion order. It is the inverse of Parse: booleans
// render as true/false and strings containing a space, colon, or double
// quote are wrapped in double quotes.
func Build(m *Meta) string {
	lines := []string{Delimiter}
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		switch val := v.(type) {
		case bool:
			if val {
				lines = append(lines, key+": true")
			} else {
				lines = append(lines, key+": false")
			}
		case string:
			if strings.ContainsAny(val, ` :"`) {
				lines = append(lines, key+`: "`+val+`"`)
			} else {
				lines = append(lines, key+": "+val)
			}
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", key, val))
		}
	}
	lines = append(lines, Delimiter)
	return strings.Join(lines, "\n")
}
