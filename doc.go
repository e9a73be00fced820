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

// Package docket is an embedded document store front-end.
//
// A Client owns the connection to one collection. It provisions the
// database and collection lazily on first use, and exposes
// an idempotent write (Upsert), a read (Get) and a best-effort bulk write
// (Seed):
//
//	client, err := docket.NewClient(
//	    docket.WithPath("./data"),
//	    docket.WithCollection("tweets"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	doc, _ := core.ParseDocument(`{"id":"a","text":"hello"}`)
//	stored, version, err := client.Upsert(ctx, doc, "")
//
// Passing the returned version back as expectedVersion makes the next write
// conditional: it fails with storage.ErrConflict if the document changed in
// between.
//
// Untrusted JSON text should go through the gateway package, which
// validates and parses it before calling Upsert.
package docket
