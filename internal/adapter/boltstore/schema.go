package boltstore

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the snapshot file format version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaInfo = []byte("schema_info")

// SchemaInfo describes where a snapshot came from.
type SchemaInfo struct {
	Version   int       `json:"version"`
	Source    string    `json:"source"`
	Dimension int       `json:"dimension"`
	Lines     int       `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
}

func readSchemaInfo(tx *bbolt.Tx) (*SchemaInfo, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, fmt.Errorf("not a linecheck snapshot: meta bucket missing")
	}
	data := b.Get(keySchemaInfo)
	if data == nil {
		return nil, fmt.Errorf("not a linecheck snapshot: schema info missing")
	}
	var info SchemaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("corrupt schema info: %w", err)
	}
	return &info, nil
}

func writeSchemaInfo(tx *bbolt.Tx, info *SchemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaInfo, data)
}

// checkSchema rejects snapshots written by a different format version.
func checkSchema(info *SchemaInfo) error {
	if info.Version != CurrentSchemaVersion {
		return fmt.Errorf("snapshot schema version %d is not supported (want %d): re-run 'linecheck snapshot'",
			info.Version, CurrentSchemaVersion)
	}
	return nil
}
