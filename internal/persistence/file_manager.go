package persistence

import (
	"os"

	"qrd/internal/persistence/interfaces"
	"qrd/internal/providers"
)

// FileManager writes compressed store snapshots atomically: tmp file, sync,
// rename. A torn write never replaces the previous good snapshot.
type FileManager struct {
	snapshotter interfaces.SnapshotterInterface
	compressor  interfaces.CompressorInterface
	logger      providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, snapshotter interfaces.SnapshotterInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor:  compressor,
		snapshotter: snapshotter,
		logger:      logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	jsonData, err := f.snapshotter.SnapshotJSON()
	if err != nil {
		return err
	}
	if jsonData == nil {
		return nil
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	return f.snapshotter.RestoreJSON(decompressedData)
}
