/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists documents.
// It keeps the local project store, an embedded SQLite database holding one
// canonical snapshot per project id next to an index of {id, title,
// updatedAt, pageCount}, plus revisions, a block search index and a page
// thumbnail cache. It also reads and writes standalone document JSON files
// with transactional writes and timestamped backups.
// Everything loaded goes through merge-with-defaults, so older payloads are
// upgraded instead of rejected.
package storage
