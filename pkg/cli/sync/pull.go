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

package sync

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/log"
)

// pullTable fetches the records of a table changed since the stored cursor and
// merges them into the local database. The whole batch and the cursor advance
// commit in one transaction, so a crash mid-pull replays the batch instead of
// skipping it.
func pullTable(ctx context.ShoplistCtx, tbl database.Table, full bool, stats *Stats) error {
	var cursor int64
	if !full {
		var err error
		cursor, err = database.GetCursor(ctx.DB, tbl.Name, ctx.OwnerID)
		if err != nil {
			return errors.Wrapf(err, "getting cursor for %s", tbl.Name)
		}
	}

	resp, err := client.Query(ctx, tbl.Name, cursor)
	if err != nil {
		return errors.Wrapf(err, "querying %s changes", tbl.Name)
	}

	log.Debug("pulled %d %s records after cursor %d\n", len(resp.Records), tbl.Name, cursor)

	return ctx.DB.InTransaction(func(tx *sql.Tx) error {
		for _, remote := range resp.Records {
			if err := mergeRecord(tx, tbl, remote, ctx.OwnerID); err != nil {
				return errors.Wrapf(err, "merging %s record %s", tbl.Name, remote.ID)
			}

			stats.Pulled++
		}

		return database.UpsertCursor(tx, tbl.Name, ctx.OwnerID, resp.ServerTime)
	})
}

// mergeRecord reconciles one server record with its local counterpart
func mergeRecord(tx *sql.Tx, tbl database.Table, remote client.RemoteRecord, owner string) error {
	local, err := database.GetRecord(tx, tbl, remote.ID)
	if err == database.ErrRecordNotFound {
		if remote.Deleted {
			// a tombstone for a record this device never had
			return nil
		}

		rec := database.Record{
			ID:        database.RemoteID(remote.ID),
			OwnerID:   owner,
			CreatedAt: remote.CreatedAt,
			UpdatedAt: remote.UpdatedAt,
			Fields:    remote.Fields,
		}
		return database.InsertRecord(tx, tbl, rec)
	} else if err != nil {
		return errors.Wrap(err, "getting local record")
	}

	if Resolve(local, remote) == ResolutionKeepLocal {
		log.Debug("keeping local %s record %s over server copy\n", tbl.Name, local.ID.Value)
		return nil
	}

	if remote.Deleted {
		return applyRemoteTombstone(tx, tbl, local, remote)
	}

	local.OwnerID = owner
	local.CreatedAt = remote.CreatedAt
	local.UpdatedAt = remote.UpdatedAt
	local.Dirty = false
	local.Deleted = false
	local.SyncError = ""
	local.Fields = remote.Fields

	return database.UpdateRecord(tx, tbl, local)
}

// applyRemoteTombstone removes a locally pristine record that was deleted on
// the server. A record whose cascading children carry unpushed changes is
// resurrected instead, so the children's changes upload rather than vanish.
func applyRemoteTombstone(tx *sql.Tx, tbl database.Table, local database.Record, remote client.RemoteRecord) error {
	dirtyChildren, err := database.HasDirtyChildren(tx, tbl, local.ID.Value)
	if err != nil {
		return errors.Wrap(err, "checking for dirty children")
	}

	if dirtyChildren {
		log.Debug("resurrecting %s record %s: children have unpushed changes\n", tbl.Name, local.ID.Value)

		local.Dirty = true
		local.Deleted = false
		// stamp past the tombstone so the resurrection wins on other devices
		if local.UpdatedAt <= remote.UpdatedAt {
			local.UpdatedAt = remote.UpdatedAt + 1
		}

		return database.UpdateRecord(tx, tbl, local)
	}

	if err := database.ExpungeCleanChildren(tx, tbl, local.ID.Value); err != nil {
		return errors.Wrap(err, "expunging children")
	}

	return database.Expunge(tx, tbl, local.ID.Value)
}
