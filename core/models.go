package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// NewID returns a fresh document id for documents written without one.
func NewID() string {
	return uuid.NewString()
}

// VersionToken derives the version token for a document revision.
// Format: 16 hex digits of revision, dash, 16 hex digits of BLAKE2b-64(body).
func VersionToken(revision uint64, body []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(body)
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x-%016x", revision, binary.BigEndian.Uint64(sum))
}

// CollectionRef names a collection inside a database.
type CollectionRef struct {
	Database   string
	Collection string
}

func (r CollectionRef) String() string {
	return r.Database + "/" + r.Collection
}

// StoredDocument is the persisted form of one document revision.
type StoredDocument struct {
	Revision  uint64    // Starts at 1, incremented on every write
	ETag      string    // Version token of this revision
	UpdatedAt time.Time // When this revision was written
	Body      string    // Compact JSON including id, _etag and _ts
}

// DatabaseInfo describes a provisioned database.
type DatabaseInfo struct {
	Name      string
	CreatedAt time.Time
}

// CollectionInfo describes a provisioned collection.
type CollectionInfo struct {
	Database  string
	Name      string
	CreatedAt time.Time
}

// FunctionDef is a user-defined function registered on a collection.
// Functions are stored as metadata only; nothing evaluates them.
type FunctionDef struct {
	Name      string
	Body      string
	CreatedAt time.Time
}
