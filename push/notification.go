package push

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedNotification is returned for empty or undecodable push bodies
var ErrMalformedNotification = errors.New("malformed push notification")

const jsonDataKey = "JSON_DATA_KEY"

// Field is one notification field with its key as sent by the gateway
type Field struct {
	Key   string
	Value string
}

// Notification is the immutable field view of one push. Lookups are case-insensitive;
// the original keys and their order are kept for signing.
type Notification struct {
	fields []Field
	index  map[string]string
}

// NewNotification builds a notification from fields in delivery order. The first
// occurrence of a key wins.
func NewNotification(fields []Field) *Notification {
	n := &Notification{index: make(map[string]string, len(fields))}
	for _, f := range fields {
		upper := normalizeKey(f.Key)
		if _, seen := n.index[upper]; seen {
			continue
		}
		n.index[upper] = f.Value
		n.fields = append(n.fields, f)
	}
	return n
}

// FromMap builds a notification from a map, ordering keys alphabetically
func FromMap(values map[string]string) *Notification {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: values[k]})
	}
	return NewNotification(fields)
}

// ParseNotification decodes a form or JSON push body. A json_data_key field, in either
// format, carries the real notification as a JSON object string.
func ParseNotification(contentType string, body []byte) (*Notification, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedNotification)
	}

	var (
		fields []Field
		err    error
	)
	if strings.Contains(contentType, "json") || (contentType == "" && body[0] == '{') {
		fields, err = parseJSONFields(body)
	} else {
		fields, err = parseFormFields(string(body))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}

	for _, f := range fields {
		if normalizeKey(f.Key) == jsonDataKey {
			fields, err = parseJSONFields([]byte(f.Value))
			if err != nil {
				return nil, fmt.Errorf("%w: json_data_key: %v", ErrMalformedNotification, err)
			}
			break
		}
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrMalformedNotification)
	}
	return NewNotification(fields), nil
}

func parseFormFields(body string) ([]Field, error) {
	var fields []Field
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	return fields, nil
}

// parseJSONFields reads a flat JSON object keeping key order. Scalars become strings,
// nested values are skipped.
func parseJSONFields(body []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("body is not a JSON object")
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		if value, ok := scalarString(raw); ok {
			fields = append(fields, Field{Key: key, Value: value})
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func scalarString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	switch trimmed[0] {
	case '{', '[':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case 'n':
		return "", true
	default:
		return string(trimmed), true
	}
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// Fields returns the fields in delivery order
func (n *Notification) Fields() []Field {
	return append([]Field(nil), n.fields...)
}

// Has reports whether key is present
func (n *Notification) Has(key string) bool {
	_, ok := n.index[normalizeKey(key)]
	return ok
}

// String returns the trimmed value of key, or "" when absent
func (n *Notification) String(key string) string {
	return strings.TrimSpace(n.index[normalizeKey(key)])
}

// Decimal returns the value of key as a decimal; absent or invalid values are zero
func (n *Notification) Decimal(key string) decimal.Decimal {
	v := n.String(key)
	if v == "" {
		return decimal.Zero
	}
	if !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Bool reports whether key holds a truthy value (true, 1, yes, on)
func (n *Notification) Bool(key string) bool {
	switch strings.ToLower(n.String(key)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
