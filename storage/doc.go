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


// Package storage defines the document-store contract for profile records.
//
// The ProfileRepository interface covers insertion, retrieval, deletion, and
// filtered queries over profiles. The Filter type expresses the scalar
// constraints (equality on enumerable fields plus a closed age range) that
// produce the candidate set for hybrid search.
//
// The badger subpackage provides the embedded BadgerDB implementation.
package storage
