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
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/log"
)

// ErrNotLoggedIn is an error for syncing without a session
var ErrNotLoggedIn = errors.New("not logged in")

// ErrOwnerMismatch is an error for syncing under a different account than the
// one the local data belongs to
var ErrOwnerMismatch = errors.New("local data belongs to a different account")

// Stats summarizes one sync cycle
type Stats struct {
	Pushed int
	Pulled int
	Errors int
}

// checkOwner verifies that the local data belongs to the signed-in account.
// Pulling another account's changes into this database would interleave two
// users' data.
func checkOwner(ctx context.ShoplistCtx) error {
	var stored string
	err := database.GetSystem(ctx.DB, consts.SystemOwnerID, &stored)
	if err == sql.ErrNoRows {
		return errors.New("owner not recorded. Please log in again")
	} else if err != nil {
		return errors.Wrap(err, "querying owner")
	}

	if stored != ctx.OwnerID {
		return ErrOwnerMismatch
	}

	return nil
}

// Run performs one sync cycle. Each table, parents before children, pushes
// its local changes before pulling the server's, so a concurrent pull never
// overwrites a local write that has not been uploaded. A final push uploads
// records the pull phase dirtied, such as a record resurrected over a remote
// tombstone. A full sync discards the pull cursors and replays the server's
// entire state through conflict resolution.
func Run(ctx context.ShoplistCtx, full bool) (Stats, error) {
	var stats Stats

	if ctx.SessionKey == "" {
		return stats, ErrNotLoggedIn
	}
	if err := checkOwner(ctx); err != nil {
		return stats, err
	}

	if full {
		log.Debug("performing a full sync\n")

		if err := database.DeleteCursors(ctx.DB, ctx.OwnerID); err != nil {
			return stats, errors.Wrap(err, "resetting cursors")
		}
	}

	for _, tbl := range database.Tables {
		if err := pushTable(ctx, tbl, &stats); err != nil {
			return stats, errors.Wrapf(err, "pushing %s", tbl.Name)
		}

		if err := pullTable(ctx, tbl, full, &stats); err != nil {
			return stats, errors.Wrapf(err, "pulling %s", tbl.Name)
		}
	}

	for _, tbl := range database.Tables {
		if err := pushTable(ctx, tbl, &stats); err != nil {
			return stats, errors.Wrapf(err, "settling %s", tbl.Name)
		}
	}

	if err := database.UpsertSystem(ctx.DB, consts.SystemLastSyncAt, ctx.Clock.Now().UnixMilli()); err != nil {
		return stats, errors.Wrap(err, "updating last sync time")
	}

	return stats, nil
}
