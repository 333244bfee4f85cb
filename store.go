package entrysource

// Store is the persistent backend interface.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Description() string
}

// MemoryStore implements the Store interface with an in-process map.
// It serves embedders without a durable backend and doubles as the
// reference implementation in tests.
type MemoryStore struct {
	values map[string]string
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Description() string {
	return "MemoryStore"
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	delete(s.values, key)
	return nil
}
