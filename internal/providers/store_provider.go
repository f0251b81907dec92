package providers

import (
	"context"
	"fmt"

	"qrd/internal/persistence/interfaces"
	"qrd/internal/store"
	"qrd/internal/store/memory"
	"qrd/internal/store/sqlite"
	"qrd/internal/structures"
)

// NewStoreProvider selects the persistence backend. The memory driver relies
// on the snapshot scheduler for durability; sqlite is durable on its own.
func NewStoreProvider(conf *structures.Config, logger Logger) (store.Store, error) {
	switch conf.Store.Driver {
	case "sqlite":
		db, err := sqlite.Open(context.Background(), conf.Store.SqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Infof(TypeApp, "Using sqlite store at %s", conf.Store.SqlitePath)
		return sqlite.NewStore(db), nil
	case "memory", "":
		logger.Infof(TypeApp, "Using in-memory store with snapshot persistence")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}
}

// NewSnapshotterProvider exposes the store's snapshot surface when the
// backend has one; sqlite-backed runs get the noop.
func NewSnapshotterProvider(st store.Store) interfaces.SnapshotterInterface {
	if s, ok := st.(interfaces.SnapshotterInterface); ok {
		return s
	}
	return &noopSnapshotter{}
}

type noopSnapshotter struct{}

func (n *noopSnapshotter) SnapshotJSON() ([]byte, error) { return nil, nil }
func (n *noopSnapshotter) RestoreJSON(_ []byte) error    { return nil }
