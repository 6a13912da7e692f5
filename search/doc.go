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


// Package search provides user-scoped search across notebooks, sections and notes.
//
// The Engine validates a Request, runs one bounded lookup per entity type
// concurrently on a worker pool and merges the three result lists into a
// single Response:
//   - With a query, each store ranks by text relevance
//   - Without a query, each store orders by most recent update
//   - Labels always narrow results to documents carrying every requested label
//
// Notebooks and sections are capped at 10 hits each, notes at 20. Note hits
// carry a short content preview instead of the full content.
//
// Errors are either an *InvalidRequestError (the caller sent an unusable
// request) or a *StoreError (one of the stores failed). A failing store fails
// the whole search; partial results are never returned.
package search
