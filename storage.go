package entrysource

import "log/slog"

// BackendKind identifies the active storage backend.
type BackendKind int

const (
	BackendTransient BackendKind = iota
	BackendPersistent
)

func (k BackendKind) String() string {
	if k == BackendPersistent {
		return "persistent"
	}
	return "transient"
}

// StorageMode selects how the backend is resolved at construction.
type StorageMode int

const (
	StorageAuto StorageMode = iota
	StoragePersistent
	StorageTransient
)

// ParseStorageMode normalizes a string into a StorageMode. "memory" is
// accepted as an alias for transient.
func ParseStorageMode(value string) StorageMode {
	switch value {
	case "persistent", "PERSISTENT":
		return StoragePersistent
	case "transient", "TRANSIENT", "memory", "MEMORY":
		return StorageTransient
	case "", "auto", "AUTO":
		return StorageAuto
	default:
		return StorageAuto
	}
}

// probeKey is written and deleted to test persistent store availability.
const probeKey = "esrc_probe"

// Storage resolves between a persistent backend and a transient
// in-process map, and migrates logical content between them. It never
// surfaces backend failures to the caller; any write failure demotes
// to the transient backend.
type Storage struct {
	store   Store
	backend BackendKind
	memory  map[string]string
	logger  *slog.Logger
}

// NewStorage resolves the backend for the given mode. SSR mode always
// resolves to transient regardless of mode; auto and persistent probe
// the store and fall back to transient silently when unavailable.
func NewStorage(mode StorageMode, ssrMode bool, store Store, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{
		store:   store,
		backend: BackendTransient,
		memory:  map[string]string{},
		logger:  logger,
	}
	if ssrMode || mode == StorageTransient {
		return s
	}
	if storeAvailable(store) {
		s.backend = BackendPersistent
	} else if mode == StoragePersistent {
		s.logger.Warn("persistent store unavailable, falling back to transient storage")
	} else {
		s.logger.Debug("persistent store unavailable, using transient storage")
	}
	return s
}

// storeAvailable probes a store with a sentinel write and delete. Any
// error means unavailable.
func storeAvailable(store Store) bool {
	if store == nil {
		return false
	}
	if err := store.Set(probeKey, "1"); err != nil {
		return false
	}
	if err := store.Delete(probeKey); err != nil {
		return false
	}
	return true
}

// Backend returns the currently active backend kind.
func (s *Storage) Backend() BackendKind {
	return s.backend
}

// Get reads a key from the active backend.
func (s *Storage) Get(key string) (string, bool) {
	if s.backend == BackendPersistent {
		value, ok, err := s.store.Get(key)
		if err != nil {
			s.logger.Warn("persistent read failed", "key", key, "error", err)
			return "", false
		}
		return value, ok
	}
	value, ok := s.memory[key]
	return value, ok
}

// Set writes a key to the active backend. A persistent write failure
// demotes to transient, carrying the tracking keys along best-effort.
func (s *Storage) Set(key, value string) {
	if s.backend == BackendPersistent {
		if err := s.store.Set(key, value); err != nil {
			s.logger.Warn("persistent write failed, demoting to transient storage", "key", key, "error", err)
			s.demote()
			s.memory[key] = value
		}
		return
	}
	s.memory[key] = value
}

// Clear removes exactly the tracking keys from a persistent backend,
// or empties the whole map on a transient one.
func (s *Storage) Clear() {
	if s.backend == BackendPersistent {
		for _, key := range TrackingKeys() {
			if err := s.store.Delete(key); err != nil {
				s.logger.Warn("persistent delete failed", "key", key, "error", err)
			}
		}
		return
	}
	s.memory = map[string]string{}
}

// Migrate switches to the target backend, preserving logical content.
// Already being on the target is a no-op. Transient to persistent
// copies every held entry and aborts wholesale on the first write
// failure, leaving all data readable from transient. Persistent to
// transient copies only the tracking keys and leaves the persistent
// store untouched.
func (s *Storage) Migrate(target BackendKind) bool {
	if target == s.backend {
		return true
	}
	if target == BackendPersistent {
		if s.store == nil {
			return false
		}
		for key, value := range s.memory {
			if err := s.store.Set(key, value); err != nil {
				s.logger.Warn("storage migration aborted", "key", key, "error", err)
				return false
			}
		}
		s.memory = map[string]string{}
		s.backend = BackendPersistent
		return true
	}
	for _, key := range TrackingKeys() {
		if value, ok, err := s.store.Get(key); err == nil && ok {
			s.memory[key] = value
		}
	}
	s.backend = BackendTransient
	return true
}

// Hydrate upgrades a transient backend to persistent when the store
// has become available. Returns false with no side effects otherwise.
func (s *Storage) Hydrate() bool {
	if !s.CanHydrate() {
		return false
	}
	return s.Migrate(BackendPersistent)
}

// CanHydrate reports whether Hydrate would currently succeed.
func (s *Storage) CanHydrate() bool {
	return s.backend == BackendTransient && storeAvailable(s.store)
}

// demote copies the tracking keys out of the persistent store and
// switches to the transient backend.
func (s *Storage) demote() {
	for _, key := range TrackingKeys() {
		if value, ok, err := s.store.Get(key); err == nil && ok {
			s.memory[key] = value
		}
	}
	s.backend = BackendTransient
}
