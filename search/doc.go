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


// Package search implements hybrid profile matching: scalar filtering over
// the profile store narrows the corpus to a candidate set, then vector
// similarity against the query ranks the candidates.
//
// The candidate set is partitioned into fixed-size chunks so that a single
// vector query never carries an unbounded identifier predicate. Per-chunk
// results are merged keeping the best score per profile, ranked globally,
// and the top results are hydrated from the profile store.
package search
