package entrysource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// pair is an ordered key/value entry used by the tracking codecs.
// Both the attribution string and the identifier JSON are
// order-sensitive on the wire, so plain maps cannot carry them.
type pair struct {
	key   string
	value string
}

// encodePairs builds a percent-encoded key=value&... string preserving
// the order of the input.
func encodePairs(pairs []pair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}
	return strings.Join(parts, "&")
}

// decodePairs parses a key=value&... string in document order,
// percent-decoding each key and value. Segments that fail to decode
// are kept verbatim.
func decodePairs(encoded string) []pair {
	out := []pair{}
	for _, segment := range strings.Split(encoded, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		out = append(out, pair{key: key, value: value})
	}
	return out
}

// encodeJSONObject serializes pairs as a flat JSON object preserving
// key order.
func encodeJSONObject(pairs []pair) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.key)
		if err != nil {
			return "", err
		}
		value, err := json.Marshal(p.value)
		if err != nil {
			return "", err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// decodeJSONObject parses a flat JSON object of string values,
// preserving document key order.
func decodeJSONObject(raw string) ([]pair, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	out := []pair{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, pair{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
