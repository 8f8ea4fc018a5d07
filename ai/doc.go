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


// Package ai defines the embedding provider contract.
//
// The Embedder interface maps text to fixed-length vectors for semantic
// search. The openai subpackage implements it against any OpenAI-compatible
// embedding API; the mock subpackage provides deterministic test doubles.
package ai
