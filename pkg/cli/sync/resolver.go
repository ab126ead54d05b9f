/* Copyright 2025 Shoplist Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sync implements the synchronization engine between the local
// database and the Shoplist server
package sync

import (
	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/database"
)

// Resolution is the outcome of comparing a local record against the server
// copy of the same record
type Resolution int

const (
	// ResolutionApplyRemote overwrites the local state with the server copy
	ResolutionApplyRemote Resolution = iota
	// ResolutionKeepLocal keeps the local copy. It carries an unpushed change
	// that is at least as recent as the server copy and will win on upload.
	ResolutionKeepLocal
)

// Resolve applies last-writer-wins between a local record and the server copy.
// A clean local record is just a cached snapshot, so the server copy always
// replaces it. A dirty local record survives only if its change is at least as
// recent as the server's; on a tie the local change is kept so it is not
// silently dropped before it had a chance to upload.
func Resolve(local database.Record, remote client.RemoteRecord) Resolution {
	if local.Dirty && local.UpdatedAt >= remote.UpdatedAt {
		return ResolutionKeepLocal
	}

	return ResolutionApplyRemote
}
