// Copyright 2025 Rishta Labs
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


// Package vectorindex defines the vector store contract: upsert and delete
// of embedding records keyed by profile identifier, and nearest-neighbor
// search optionally restricted to an identifier set.
//
// The local subpackage is an embedded BadgerDB implementation using
// brute-force cosine similarity; the qdrant subpackage talks to a remote
// Qdrant server over its REST API. Both expect unit-normalized vectors.
package vectorindex
