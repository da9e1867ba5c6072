package offset_catalog

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"ausettings/fingerprint"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// OffsetField names the per-entry field holding the base offset
const OffsetField = "GameOptionsOffset"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parse decodes a catalog document. Well-formed JSON is decoded strictly; anything
// else is stripped of JSON5 comments and retried as YAML, which accepts the other
// hand-edited forms the published file has carried (trailing commas, hex literals,
// unquoted keys, single quotes). Entries without a usable offset are skipped.
func Parse(data []byte) (*Catalog, error) {
	entries, err := parseStrict(data)
	if err != nil {
		entries, err = parseRelaxed(data)
		if err != nil {
			return nil, err
		}
	}
	return &Catalog{entries: entries}, nil
}

func parseStrict(data []byte) (map[fingerprint.Fingerprint]Entry, error) {
	var top map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrParseFailed)
	}

	entries := make(map[fingerprint.Fingerprint]Entry, len(top))
	for key, raw := range top {
		var e struct {
			GameOptionsOffset *uint64 `json:"GameOptionsOffset"`
		}
		if err := json.Unmarshal(raw, &e); err != nil || e.GameOptionsOffset == nil {
			continue
		}
		if *e.GameOptionsOffset > math.MaxUint32 {
			continue
		}
		entries[normalize(key)] = Entry{BaseOffset: uint32(*e.GameOptionsOffset)}
	}
	return entries, nil
}

func parseRelaxed(data []byte) (map[fingerprint.Fingerprint]Entry, error) {
	data, err := stripComments(data)
	if err != nil {
		return nil, err
	}

	var top map[string]interface{}
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrParseFailed)
	}

	entries := make(map[fingerprint.Fingerprint]Entry, len(top))
	for key, v := range top {
		obj, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		off, ok := toUint32(obj[OffsetField])
		if !ok {
			continue
		}
		entries[normalize(key)] = Entry{BaseOffset: off}
	}
	return entries, nil
}

// stripComments blanks out // and /* */ comments outside string literals. Line
// breaks are kept so decoder errors still point at the right line.
func stripComments(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	var quote byte

	for i := 0; i < len(data); i++ {
		c := data[i]

		if quote != 0 {
			out = append(out, c)
			switch {
			case c == '\\' && i+1 < len(data):
				i++
				out = append(out, data[i])
			case c == quote:
				quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			end := bytes.Index(data[i+2:], []byte("*/"))
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated block comment", ErrParseFailed)
			}
			out = append(out, ' ')
			out = append(out, bytes.Repeat([]byte{'\n'}, bytes.Count(data[i+2:i+2+end], []byte{'\n'}))...)
			i += end + 3
		default:
			out = append(out, c)
		}
	}
	return out, nil
}

func toUint32(v interface{}) (uint32, bool) {
	switch n := v.(type) {
	case int:
		if n >= 0 && uint64(n) <= math.MaxUint32 {
			return uint32(n), true
		}
	case int64:
		if n >= 0 && n <= math.MaxUint32 {
			return uint32(n), true
		}
	case uint64:
		if n <= math.MaxUint32 {
			return uint32(n), true
		}
	case float64:
		if n >= 0 && n <= math.MaxUint32 && n == math.Trunc(n) {
			return uint32(n), true
		}
	}
	return 0, false
}

func normalize(key string) fingerprint.Fingerprint {
	return fingerprint.Fingerprint(strings.ToUpper(strings.TrimSpace(key)))
}
