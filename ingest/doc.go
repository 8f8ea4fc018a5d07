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


// Package ingest loads profiles into the store and keeps the vector index
// in sync with them.
//
// The Importer reads profiles from CSV with header-driven field mapping and
// batched inserts. The Syncer walks the profile store, builds each profile's
// canonical text, and embeds and indexes it; profiles whose text fingerprint
// already matches the index are skipped, so repeated syncs only pay for
// changed profiles.
package ingest
