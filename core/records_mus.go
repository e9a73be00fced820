package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for persisted records. Times are stored as Unix
// microseconds, matching the precision the store guarantees.

var (
	StoredDocumentMUS = storedDocumentMUS{}
	DatabaseInfoMUS   = databaseInfoMUS{}
	CollectionInfoMUS = collectionInfoMUS{}
	FunctionDefMUS    = functionDefMUS{}
)

type storedDocumentMUS struct{}

func (s storedDocumentMUS) Marshal(v StoredDocument, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.Revision, bs)
	n += ord.String.Marshal(v.ETag, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n + ord.String.Marshal(v.Body, bs[n:])
}

func (s storedDocumentMUS) Unmarshal(bs []byte) (v StoredDocument, n int, err error) {
	v.Revision, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.ETag, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Body, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s storedDocumentMUS) Size(v StoredDocument) (size int) {
	size = varint.Uint64.Size(v.Revision)
	size += ord.String.Size(v.ETag)
	size += sizeTime(v.UpdatedAt)
	return size + ord.String.Size(v.Body)
}

type databaseInfoMUS struct{}

func (s databaseInfoMUS) Marshal(v DatabaseInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	return n + marshalTime(v.CreatedAt, bs[n:])
}

func (s databaseInfoMUS) Unmarshal(bs []byte) (v DatabaseInfo, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s databaseInfoMUS) Size(v DatabaseInfo) (size int) {
	return ord.String.Size(v.Name) + sizeTime(v.CreatedAt)
}

type collectionInfoMUS struct{}

func (s collectionInfoMUS) Marshal(v CollectionInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Database, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	return n + marshalTime(v.CreatedAt, bs[n:])
}

func (s collectionInfoMUS) Unmarshal(bs []byte) (v CollectionInfo, n int, err error) {
	v.Database, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s collectionInfoMUS) Size(v CollectionInfo) (size int) {
	return ord.String.Size(v.Database) + ord.String.Size(v.Name) + sizeTime(v.CreatedAt)
}

type functionDefMUS struct{}

func (s functionDefMUS) Marshal(v FunctionDef, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Body, bs[n:])
	return n + marshalTime(v.CreatedAt, bs[n:])
}

func (s functionDefMUS) Unmarshal(bs []byte) (v FunctionDef, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Body, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s functionDefMUS) Size(v FunctionDef) (size int) {
	return ord.String.Size(v.Name) + ord.String.Size(v.Body) + sizeTime(v.CreatedAt)
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(unixMicro(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if us == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(unixMicro(t))
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
