package schema

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion guards against decoding snapshots written by an
// incompatible model layout.
const snapshotVersion = 1

type snapshot struct {
	Version int     `msgpack:"version"`
	Schema  *Schema `msgpack:"schema"`
}

// EncodeSnapshot serializes the schema so a later run can skip live
// inspection.
func EncodeSnapshot(s *Schema) ([]byte, error) {
	return msgpack.Marshal(&snapshot{Version: snapshotVersion, Schema: s})
}

// DecodeSnapshot restores a schema written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Schema, error) {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("schema: decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("schema: snapshot version %d is not supported", snap.Version)
	}
	if snap.Schema == nil {
		return nil, fmt.Errorf("schema: snapshot holds no schema")
	}
	return snap.Schema, nil
}

// WriteSnapshot encodes the schema to the given path.
func WriteSnapshot(s *Schema, path string) error {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot decodes a schema from the given path.
func ReadSnapshot(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}
