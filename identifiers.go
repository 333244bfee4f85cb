package entrysource

import (
	"log/slog"
	"strings"
)

// Identifier is a single customer identifier assignment. Unset marks
// an explicit removal that overrides any persisted value for the key.
type Identifier struct {
	Key   string
	Value string
	Unset bool
}

// Identifiers is an ordered list of identifier assignments.
type Identifiers []Identifier

type identifierEntry struct {
	value string
	unset bool
}

// IdentifierManager holds caller-supplied identity keys. Every read
// merges persisted state with in-memory state; in-memory values win
// per key. Unset entries are kept in memory as tombstones and are
// never serialized.
type IdentifierManager struct {
	storage *Storage
	order   []string
	entries map[string]identifierEntry
	logger  *slog.Logger
}

// NewIdentifierManager creates an uninitialized manager.
func NewIdentifierManager(logger *slog.Logger) *IdentifierManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentifierManager{
		entries: map[string]identifierEntry{},
		logger:  logger,
	}
}

// Initialize wires storage and resets in-memory state. SSR and browser
// initialization are identical; this component reads no page context.
func (m *IdentifierManager) Initialize(cfg *Config, storage *Storage) {
	m.storage = storage
	m.order = nil
	m.entries = map[string]identifierEntry{}
}

// InitializeSSR wires storage and resets in-memory state.
func (m *IdentifierManager) InitializeSSR(cfg *Config, storage *Storage) {
	m.Initialize(cfg, storage)
}

// SetIdentifiers merges assignments into in-memory state and, when
// storage is present, persists the merged view as JSON.
func (m *IdentifierManager) SetIdentifiers(ids Identifiers) {
	if m.entries == nil {
		m.entries = map[string]identifierEntry{}
	}
	for _, id := range ids {
		if id.Key == "" {
			continue
		}
		if _, ok := m.entries[id.Key]; !ok {
			m.order = append(m.order, id.Key)
		}
		m.entries[id.Key] = identifierEntry{value: id.Value, unset: id.Unset}
	}
	if m.storage == nil {
		return
	}
	encoded, err := encodeIdentifiers(m.merged())
	if err != nil {
		m.logger.Warn("encode customer identifiers failed", "error", err)
		return
	}
	m.storage.Set(KeyCustomerIdentifiers, encoded)
}

// GetIdentifiers returns persisted identifiers merged with in-memory
// state. Unset keys are excluded; empty values are included.
func (m *IdentifierManager) GetIdentifiers() map[string]string {
	out := map[string]string{}
	for _, id := range m.merged() {
		if id.Unset {
			continue
		}
		out[id.Key] = id.Value
	}
	return out
}

// Headers always includes X-CUSTOMER-IDENTIFIERS. Entries with unset
// or empty values are filtered; the none:none sentinel is sent when
// nothing survives.
func (m *IdentifierManager) Headers() map[string]string {
	parts := []string{}
	for _, id := range m.merged() {
		if id.Unset || id.Value == "" {
			continue
		}
		parts = append(parts, id.Key+"="+id.Value)
	}
	if len(parts) == 0 {
		return map[string]string{HeaderCustomerIdentifiers: IdentifierSentinel}
	}
	return map[string]string{HeaderCustomerIdentifiers: strings.Join(parts, "&")}
}

// Reset persists an empty identifier object before dropping the
// storage reference and clearing in-memory state.
func (m *IdentifierManager) Reset() {
	if m.storage != nil {
		m.storage.Set(KeyCustomerIdentifiers, "{}")
	}
	m.storage = nil
	m.order = nil
	m.entries = map[string]identifierEntry{}
}

// merged returns persisted entries merged with in-memory entries,
// keeping persisted key order first and appending new in-memory keys.
// In-memory values win per key.
func (m *IdentifierManager) merged() []Identifier {
	persisted := m.persisted()
	out := make([]Identifier, 0, len(persisted)+len(m.order))
	index := map[string]int{}
	for _, p := range persisted {
		index[p.key] = len(out)
		out = append(out, Identifier{Key: p.key, Value: p.value})
	}
	for _, key := range m.order {
		entry := m.entries[key]
		id := Identifier{Key: key, Value: entry.value, Unset: entry.unset}
		if at, ok := index[key]; ok {
			out[at] = id
			continue
		}
		index[key] = len(out)
		out = append(out, id)
	}
	return out
}

// persisted reads the stored identifier JSON in document key order.
// Malformed data is logged and treated as empty.
func (m *IdentifierManager) persisted() []pair {
	if m.storage == nil {
		return nil
	}
	raw, ok := m.storage.Get(KeyCustomerIdentifiers)
	if !ok || raw == "" {
		return nil
	}
	pairs, err := decodeJSONObject(raw)
	if err != nil {
		m.logger.Warn("stored customer identifiers are not valid JSON, ignoring", "error", err)
		return nil
	}
	return pairs
}

// encodeIdentifiers serializes identifiers as a flat JSON object,
// dropping unset tombstones.
func encodeIdentifiers(ids []Identifier) (string, error) {
	pairs := make([]pair, 0, len(ids))
	for _, id := range ids {
		if id.Unset {
			continue
		}
		pairs = append(pairs, pair{key: id.Key, value: id.Value})
	}
	return encodeJSONObject(pairs)
}
