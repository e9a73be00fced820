package badger

import (
	"github.com/poiesic/docket/core"
)

// Key prefixes for different data types. Names and ids never contain '/',
// so it is safe as a separator.
const (
	databasePrefix   = "dbinfo"
	collectionPrefix = "colinfo"
	documentPrefix   = "docrec"
	functionPrefix   = "fnrec"
)

// makeDatabaseKey generates a key for database metadata.
// Format: prefix:database
func makeDatabaseKey(name string) []byte {
	return []byte(databasePrefix + ":" + name)
}

// makeCollectionKey generates a key for collection metadata.
// Format: prefix:database/collection
func makeCollectionKey(ref core.CollectionRef) []byte {
	return []byte(collectionPrefix + ":" + ref.Database + "/" + ref.Collection)
}

// makePartialCollectionKey generates a prefix for collections of a database.
// Format: prefix:database/
func makePartialCollectionKey(database string) []byte {
	return []byte(collectionPrefix + ":" + database + "/")
}

// makeDocumentKey generates a key for a document by id.
// Format: prefix:database/collection/id
func makeDocumentKey(ref core.CollectionRef, id string) []byte {
	return []byte(documentPrefix + ":" + ref.Database + "/" + ref.Collection + "/" + id)
}

// makeFunctionKey generates a key for a function registered on a collection.
// Format: prefix:database/collection/name
func makeFunctionKey(ref core.CollectionRef, name string) []byte {
	return []byte(functionPrefix + ":" + ref.Database + "/" + ref.Collection + "/" + name)
}

// makePartialFunctionKey generates a prefix for functions of a collection.
// Format: prefix:database/collection/
func makePartialFunctionKey(ref core.CollectionRef) []byte {
	return []byte(functionPrefix + ":" + ref.Database + "/" + ref.Collection + "/")
}
