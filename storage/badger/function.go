// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// FunctionRepository implements storage.FunctionRepository for BadgerDB.
type FunctionRepository struct {
	backend *Backend
}

var _ storage.FunctionRepository = (*FunctionRepository)(nil)

// NewFunctionRepository creates a new FunctionRepository.
func NewFunctionRepository(backend *Backend) *FunctionRepository {
	return &FunctionRepository{
		backend: backend,
	}
}

// RegisterFunction persists a function definition on a collection.
func (r *FunctionRepository) RegisterFunction(ctx context.Context, ref core.CollectionRef, fn core.FunctionDef) error {
	if err := core.ValidateName(fn.Name); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := requireCollection(tx, ref); err != nil {
			return err
		}
		key := makeFunctionKey(ref, fn.Name)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: %q", storage.ErrFunctionExists, fn.Name)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		fn.CreatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalFunctionDef(&fn)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent registration of the same name committed first.
		return fmt.Errorf("%w: %q", storage.ErrFunctionExists, fn.Name)
	}
	return classify(err)
}

// ListFunctions returns the functions registered on a collection, sorted by name.
func (r *FunctionRepository) ListFunctions(ctx context.Context, ref core.CollectionRef) ([]core.FunctionDef, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var functions []core.FunctionDef
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialFunctionKey(ref)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				fn, err := storage.UnmarshalFunctionDef(val)
				if err != nil {
					return err
				}
				functions = append(functions, *fn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, classify(err)
	}
	return functions, nil
}
