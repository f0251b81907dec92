package interfaces

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

// SnapshotterInterface is implemented by stores that serialize their full
// state for periodic snapshot persistence.
type SnapshotterInterface interface {
	SnapshotJSON() ([]byte, error)
	RestoreJSON(data []byte) error
}
