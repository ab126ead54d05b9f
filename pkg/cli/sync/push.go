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

// isConflictError reports whether the server turned down a write because it
// holds a newer revision of the record
func isConflictError(err error) bool {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsConflict()
	}

	return false
}

func recordPayload(rec database.Record) client.RecordPayload {
	return client.RecordPayload{
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Fields:    rec.Fields,
	}
}

// pushTable uploads the dirty records of a table in creation order. A stale
// write the server turns down as a conflict is left dirty for the pull phase
// to resolve; a permanent rejection is recorded on the record and does not
// stop the rest of the batch; a transient failure aborts the cycle so it
// retries later.
func pushTable(ctx context.ShoplistCtx, tbl database.Table, stats *Stats) error {
	records, err := database.ListDirty(ctx.DB, tbl, ctx.OwnerID)
	if err != nil {
		return errors.Wrapf(err, "listing dirty %s records", tbl.Name)
	}

	for _, rec := range records {
		// a record the server already rejected waits for a local edit
		// before it uploads again
		if rec.SyncError != "" {
			continue
		}

		log.Debug("pushing %s record %s\n", tbl.Name, rec.ID.Value)

		if err := pushRecord(ctx, tbl, rec); err != nil {
			if isConflictError(err) {
				log.Debug("server holds a newer %s record %s; deferring to pull\n", tbl.Name, rec.ID.Value)
				continue
			}

			if client.IsPermanentError(err) {
				log.Warnf("server rejected %s record %s: %v\n", tbl.Name, rec.ID.Value, err)

				if e := database.SetSyncError(ctx.DB, tbl, rec.ID.Value, err.Error()); e != nil {
					return errors.Wrap(e, "recording sync error")
				}

				stats.Errors++
				continue
			}

			return errors.Wrapf(err, "pushing %s record %s", tbl.Name, rec.ID.Value)
		}

		stats.Pushed++
	}

	return nil
}

// pushRecord uploads a single dirty record and acknowledges it locally. The
// local bookkeeping runs in its own transaction guarded by the snapshot's
// updated_at, so an edit that lands while the record is in flight stays dirty.
func pushRecord(ctx context.ShoplistCtx, tbl database.Table, rec database.Record) error {
	if rec.ID.IsLocal() {
		if rec.Deleted {
			// created and deleted without ever reaching the server
			return ctx.DB.InTransaction(func(tx *sql.Tx) error {
				return database.Expunge(tx, tbl, rec.ID.Value)
			})
		}

		resp, err := client.CreateRecord(ctx, tbl.Name, rec.ID.Value, recordPayload(rec))
		if err != nil {
			return errors.Wrap(err, "creating record in the server")
		}

		return ctx.DB.InTransaction(func(tx *sql.Tx) error {
			// if a previous cycle crashed between the create and the remap,
			// the pull phase may have already inserted the record under its
			// server id. Fold the local row into it instead of colliding.
			_, err := database.GetRecord(tx, tbl, resp.Record.ID)
			if err == nil {
				if err := database.Expunge(tx, tbl, rec.ID.Value); err != nil {
					return errors.Wrap(err, "expunging superseded record")
				}
				if err := database.RemapChildRefs(tx, tbl, rec.ID.Value, resp.Record.ID); err != nil {
					return errors.Wrap(err, "remapping child references")
				}

				return database.MarkClean(tx, tbl, resp.Record.ID, rec.UpdatedAt)
			} else if err != database.ErrRecordNotFound {
				return errors.Wrap(err, "getting record")
			}

			if err := database.RemapID(tx, tbl, rec.ID.Value, resp.Record.ID); err != nil {
				return errors.Wrap(err, "remapping record id")
			}

			return database.MarkClean(tx, tbl, resp.Record.ID, rec.UpdatedAt)
		})
	}

	if rec.Deleted {
		if _, err := client.DeleteRecord(ctx, tbl.Name, rec.ID.Value, rec.UpdatedAt); err != nil {
			return errors.Wrap(err, "deleting record in the server")
		}

		return ctx.DB.InTransaction(func(tx *sql.Tx) error {
			cur, err := database.GetRecord(tx, tbl, rec.ID.Value)
			if err == database.ErrRecordNotFound {
				return nil
			} else if err != nil {
				return errors.Wrap(err, "getting record")
			}

			// an edit landed while the deletion was in flight; the record
			// stays dirty and the newer state uploads next cycle
			if cur.UpdatedAt != rec.UpdatedAt || !cur.Deleted {
				return nil
			}

			return database.Expunge(tx, tbl, rec.ID.Value)
		})
	}

	if _, err := client.UpdateRecord(ctx, tbl.Name, rec.ID.Value, recordPayload(rec)); err != nil {
		return errors.Wrap(err, "updating record in the server")
	}

	return database.MarkClean(ctx.DB, tbl, rec.ID.Value, rec.UpdatedAt)
}
