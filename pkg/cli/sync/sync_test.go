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
	"fmt"
	"net/http"
	"testing"

	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "user1"

func newTestCtx(t *testing.T, srv *fakeServer) context.ShoplistCtx {
	ctx := context.InitTestCtx(t)
	ctx.APIEndpoint = srv.URL()
	ctx.SessionKey = "testkey"
	ctx.OwnerID = testOwner

	require.NoError(t, database.UpsertSystem(ctx.DB, consts.SystemOwnerID, testOwner), "recording owner")

	return ctx
}

func insertLocal(t *testing.T, ctx context.ShoplistCtx, table string, rec database.Record) {
	tbl := database.MustGetTable(t, table)
	rec.OwnerID = testOwner
	require.NoError(t, database.InsertRecord(ctx.DB, tbl, rec), "inserting local record")
}

func getLocal(t *testing.T, ctx context.ShoplistCtx, table, id string) database.Record {
	rec, err := database.GetRecord(ctx.DB, database.MustGetTable(t, table), id)
	require.NoError(t, err, "getting local record")

	return rec
}

func TestRunPushCreate(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx, "list_items", database.Record{
		ID:        database.LocalID("i1"),
		CreatedAt: 110,
		UpdatedAt: 110,
		Dirty:     true,
		Fields:    map[string]interface{}{"list_id": "l1", "name": "Milk"},
	})

	stats, err := Run(ctx, false)
	require.NoError(t, err, "syncing")
	assert.Equal(t, 2, stats.Pushed, "pushed count mismatch")

	// the list got a server id and its item's reference was remapped
	list := getLocal(t, ctx, "lists", "srv-1")
	assert.Equal(t, database.IDRemote, list.ID.Kind, "list id should be remote")
	assert.False(t, list.Dirty, "list should be clean")

	item := getLocal(t, ctx, "list_items", "srv-2")
	assert.Equal(t, "srv-1", item.Str("list_id"), "item reference not remapped")
	assert.False(t, item.Dirty, "item should be clean")

	remote, ok := srv.get("lists", "srv-1")
	require.True(t, ok, "list should exist on the server")
	assert.Equal(t, "Groceries", remote.Fields["name"], "server copy mismatch")
}

func TestRunPushUpdate(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	srv.seed("lists", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Groceries"}})
	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 200,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Weekend"},
	})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	remote, ok := srv.get("lists", "r1")
	require.True(t, ok, "record should exist on the server")
	assert.Equal(t, "Weekend", remote.Fields["name"], "server copy not updated")
	assert.Equal(t, int64(200), remote.UpdatedAt, "server stamp mismatch")

	local := getLocal(t, ctx, "lists", "r1")
	assert.False(t, local.Dirty, "record should be clean after push")
}

func TestRunPushDelete(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	srv.seed("lists", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Groceries"}})
	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 300,
		Dirty:     true,
		Deleted:   true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	remote, ok := srv.get("lists", "r1")
	require.True(t, ok, "tombstone should remain on the server")
	assert.True(t, remote.Deleted, "server record should be tombstoned")

	_, err = database.GetRecord(ctx.DB, database.MustGetTable(t, "lists"), "r1")
	assert.Equal(t, database.ErrRecordNotFound, err, "acked tombstone should be expunged locally")
}

func TestRunPushDeleteNeverUploaded(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	// created and deleted offline; the server never hears about it
	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 150,
		Dirty:     true,
		Deleted:   true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})

	stats, err := Run(ctx, false)
	require.NoError(t, err, "syncing")
	assert.Equal(t, 1, stats.Pushed, "pushed count mismatch")

	_, ok := srv.get("lists", "srv-1")
	assert.False(t, ok, "record should never reach the server")

	_, err = database.GetRecord(ctx.DB, database.MustGetTable(t, "lists"), "l1")
	assert.Equal(t, database.ErrRecordNotFound, err, "record should be expunged locally")
}

func TestRunPullInsert(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	srv.seed("products", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Milk"}})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	local := getLocal(t, ctx, "products", "r1")
	assert.Equal(t, database.IDRemote, local.ID.Kind, "id should be remote")
	assert.Equal(t, "Milk", local.Str("name"), "name mismatch")
	assert.Equal(t, testOwner, local.OwnerID, "owner mismatch")
	assert.False(t, local.Dirty, "pulled record should be clean")
}

func TestRunPullTombstone(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "products", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Fields:    map[string]interface{}{"name": "Milk"},
	})
	srv.seed("products", serverRecord{ID: "r1", UpdatedAt: 200, Deleted: true})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	_, err = database.GetRecord(ctx.DB, database.MustGetTable(t, "products"), "r1")
	assert.Equal(t, database.ErrRecordNotFound, err, "pristine record should be purged")
}

func TestRunConflictRemoteWins(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 200,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "local edit"},
	})
	srv.seed("lists", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 300, Fields: map[string]interface{}{"name": "remote edit"}})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	local := getLocal(t, ctx, "lists", "r1")
	assert.Equal(t, "remote edit", local.Str("name"), "newer remote edit should win")
	assert.False(t, local.Dirty, "record should be clean")
}

func TestRunConflictLocalWins(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 400,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "local edit"},
	})
	srv.seed("lists", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 300, Fields: map[string]interface{}{"name": "remote edit"}})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	// the newer local edit survived the pull and won on the server
	local := getLocal(t, ctx, "lists", "r1")
	assert.Equal(t, "local edit", local.Str("name"), "newer local edit should win")
	assert.False(t, local.Dirty, "record should be clean after upload")

	remote, _ := srv.get("lists", "r1")
	assert.Equal(t, "local edit", remote.Fields["name"], "server should carry the local edit")
}

func TestRunConflictLocalEditResurrects(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	// deleted remotely at 300, edited locally at 400: the edit is newer and wins
	insertLocal(t, ctx, "products", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 400,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "renamed"},
	})
	srv.seed("products", serverRecord{ID: "r1", UpdatedAt: 300, Deleted: true})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	local := getLocal(t, ctx, "products", "r1")
	assert.Equal(t, "renamed", local.Str("name"), "local edit should survive the remote tombstone")

	remote, _ := srv.get("products", "r1")
	assert.False(t, remote.Deleted, "record should be resurrected on the server")
}

func TestRunPullListTombstoneWithDirtyItems(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx, "list_items", database.Record{
		ID:        database.LocalID("i1"),
		CreatedAt: 150,
		UpdatedAt: 150,
		Dirty:     true,
		Fields:    map[string]interface{}{"list_id": "r1", "name": "Milk"},
	})
	srv.seed("lists", serverRecord{ID: "r1", UpdatedAt: 200, Deleted: true})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	// the list was resurrected locally and re-uploaded with its item
	list := getLocal(t, ctx, "lists", "r1")
	assert.False(t, list.Deleted, "list should be resurrected")

	remote, _ := srv.get("lists", "r1")
	assert.False(t, remote.Deleted, "list should be resurrected on the server")

	items, err := database.GetListItems(ctx.DB, "r1")
	require.NoError(t, err, "getting list items")
	require.Len(t, items, 1, "item should survive")
	assert.Equal(t, database.IDRemote, items[0].ID.Kind, "item should have been uploaded")
}

func TestRunPullListTombstonePurgesCleanItems(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx, "list_items", database.Record{
		ID:        database.RemoteID("r2"),
		CreatedAt: 150,
		UpdatedAt: 150,
		Fields:    map[string]interface{}{"list_id": "r1", "name": "Milk"},
	})
	srv.seed("lists", serverRecord{ID: "r1", UpdatedAt: 200, Deleted: true})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	lists := database.MustGetTable(t, "lists")
	items := database.MustGetTable(t, "list_items")

	_, err = database.GetRecord(ctx.DB, lists, "r1")
	assert.Equal(t, database.ErrRecordNotFound, err, "list should be purged")

	_, err = database.GetRecord(ctx.DB, items, "r2")
	assert.Equal(t, database.ErrRecordNotFound, err, "clean items should be purged with the list")
}

func TestRunCursorAdvance(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	srv.seed("products", serverRecord{ID: "r1", UpdatedAt: 100, Fields: map[string]interface{}{"name": "Milk"}})

	stats, err := Run(ctx, false)
	require.NoError(t, err, "syncing")
	assert.Equal(t, 1, stats.Pulled, "pulled count mismatch")

	cursor, err := database.GetCursor(ctx.DB, "products", testOwner)
	require.NoError(t, err, "getting cursor")
	assert.NotEqual(t, int64(0), cursor, "cursor should have advanced")

	// nothing new on the server; the next cycle pulls nothing
	stats, err = Run(ctx, false)
	require.NoError(t, err, "syncing again")
	assert.Equal(t, 0, stats.Pulled, "repeat cycle should pull nothing")
}

func TestRunFullSync(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	srv.seed("products", serverRecord{ID: "r1", UpdatedAt: 100, Fields: map[string]interface{}{"name": "Milk"}})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	// wipe the local copy to simulate divergence; an incremental sync cannot
	// see it but a full sync replays everything
	tbl := database.MustGetTable(t, "products")
	require.NoError(t, database.Expunge(ctx.DB, tbl, "r1"), "wiping local record")

	stats, err := Run(ctx, false)
	require.NoError(t, err, "incremental syncing")
	assert.Equal(t, 0, stats.Pulled, "incremental sync should miss the divergence")

	_, err = Run(ctx, true)
	require.NoError(t, err, "full syncing")

	local := getLocal(t, ctx, "products", "r1")
	assert.Equal(t, "Milk", local.Str("name"), "full sync should restore the record")
}

func TestRunNotLoggedIn(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)
	ctx.SessionKey = ""

	_, err := Run(ctx, false)
	assert.Equal(t, ErrNotLoggedIn, err, "error mismatch")
}

func TestRunOwnerMismatch(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)
	ctx.OwnerID = "someone-else"

	_, err := Run(ctx, false)
	assert.Equal(t, ErrOwnerMismatch, err, "error mismatch")
}

func TestRunPermanentErrorRecorded(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	srv.setFailStatus(http.StatusUnprocessableEntity)

	stats, err := Run(ctx, false)
	require.NoError(t, err, "a rejected record must not fail the cycle")
	assert.Equal(t, 1, stats.Errors, "error count mismatch")

	local := getLocal(t, ctx, "lists", "l1")
	assert.True(t, local.Dirty, "rejected record stays dirty")
	assert.NotEmpty(t, local.SyncError, "rejection should be recorded on the record")
}

func TestRunTransientErrorAborts(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	srv.setFailStatus(http.StatusInternalServerError)

	_, err := Run(ctx, false)
	require.Error(t, err, "a server failure should abort the cycle")

	local := getLocal(t, ctx, "lists", "l1")
	assert.True(t, local.Dirty, "record stays dirty for the next cycle")
	assert.Empty(t, local.SyncError, "transient failures are not recorded on the record")
}

func TestRunPushCreateAckLost(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	// a previous cycle created the record on the server but crashed before
	// recording the server id locally
	srv.seedCreated("lists", "l1", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Groceries"}})
	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx, "list_items", database.Record{
		ID:        database.LocalID("i1"),
		CreatedAt: 110,
		UpdatedAt: 110,
		Dirty:     true,
		Fields:    map[string]interface{}{"list_id": "l1", "name": "Milk"},
	})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	// the retried create deduplicated on the server and the local record
	// picked up the id from the first attempt
	lists, err := database.ListRecords(ctx.DB, database.MustGetTable(t, "lists"), testOwner, true)
	require.NoError(t, err, "listing lists")
	require.Len(t, lists, 1, "retried create must not duplicate the list")
	assert.Equal(t, database.RemoteID("r1"), lists[0].ID, "list id mismatch")

	items, err := database.GetListItems(ctx.DB, "r1")
	require.NoError(t, err, "getting list items")
	require.Len(t, items, 1, "item should follow the list")
}

func TestRunPushCreateAlreadyPulled(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	// the crashed create was pulled back under its server id before the
	// retry; the leftover local-id row folds into it instead of colliding
	srv.seedCreated("lists", "l1", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Groceries"}})
	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.RemoteID("r1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx, "list_items", database.Record{
		ID:        database.LocalID("i1"),
		CreatedAt: 110,
		UpdatedAt: 110,
		Dirty:     true,
		Fields:    map[string]interface{}{"list_id": "l1", "name": "Milk"},
	})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	lists, err := database.ListRecords(ctx.DB, database.MustGetTable(t, "lists"), testOwner, true)
	require.NoError(t, err, "listing lists")
	require.Len(t, lists, 1, "folded record must not leave a duplicate")
	assert.Equal(t, database.RemoteID("r1"), lists[0].ID, "list id mismatch")
	assert.False(t, lists[0].Dirty, "folded record should be clean")

	items, err := database.GetListItems(ctx.DB, "r1")
	require.NoError(t, err, "getting list items")
	require.Len(t, items, 1, "item reference should be remapped to the server id")
}

func TestRunRoundTripSecondDevice(t *testing.T) {
	srv := newFakeServer(t)
	ctx1 := newTestCtx(t, srv)
	ctx2 := newTestCtx(t, srv)

	insertLocal(t, ctx1, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})
	insertLocal(t, ctx1, "list_items", database.Record{
		ID:        database.LocalID("i1"),
		CreatedAt: 110,
		UpdatedAt: 110,
		Dirty:     true,
		Fields:    map[string]interface{}{"list_id": "l1", "name": "Milk", "quantity": float64(2)},
	})

	_, err := Run(ctx1, false)
	require.NoError(t, err, "syncing first device")

	stats, err := Run(ctx2, false)
	require.NoError(t, err, "syncing second device")
	assert.Equal(t, 2, stats.Pulled, "pulled count mismatch")

	list := getLocal(t, ctx2, "lists", "srv-1")
	assert.Equal(t, "Groceries", list.Str("name"), "list name mismatch")
	assert.False(t, list.Dirty, "pulled list should be clean")

	items, err := database.GetListItems(ctx2.DB, "srv-1")
	require.NoError(t, err, "getting list items")
	require.Len(t, items, 1, "item should arrive with its list")
	assert.Equal(t, "Milk", items[0].Str("name"), "item name mismatch")
}

func TestRunRepeatCycleNoWrites(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	insertLocal(t, ctx, "lists", database.Record{
		ID:        database.LocalID("l1"),
		CreatedAt: 100,
		UpdatedAt: 100,
		Dirty:     true,
		Fields:    map[string]interface{}{"name": "Groceries"},
	})

	_, err := Run(ctx, false)
	require.NoError(t, err, "syncing")

	creates, updates, deletes := srv.writeCalls()
	assert.Equal(t, 1, creates, "create call count mismatch")

	// nothing changed since; the next cycle reads but never writes
	_, err = Run(ctx, false)
	require.NoError(t, err, "syncing again")

	creates2, updates2, deletes2 := srv.writeCalls()
	assert.Equal(t, creates, creates2, "repeat cycle should issue no creates")
	assert.Equal(t, updates, updates2, "repeat cycle should issue no updates")
	assert.Equal(t, deletes, deletes2, "repeat cycle should issue no deletes")
}

func TestPullTableReplayFromSameCursor(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	srv.seed("products", serverRecord{ID: "r1", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Milk"}})
	srv.seed("products", serverRecord{ID: "r2", CreatedAt: 100, UpdatedAt: 100, Fields: map[string]interface{}{"name": "Flour"}})

	tbl := database.MustGetTable(t, "products")
	var stats Stats
	require.NoError(t, pullTable(ctx, tbl, false, &stats), "pulling")

	// a crash before the cursor commit replays the same batch; the merge
	// must converge to the same state
	require.NoError(t, database.UpsertCursor(ctx.DB, "products", testOwner, 0), "rewinding cursor")
	require.NoError(t, pullTable(ctx, tbl, false, &stats), "replaying pull")

	records, err := database.ListRecords(ctx.DB, tbl, testOwner, true)
	require.NoError(t, err, "listing products")
	require.Len(t, records, 2, "replayed batch must not duplicate records")
	for _, rec := range records {
		assert.False(t, rec.Dirty, "replayed records should stay clean")
	}
}

func TestRunQueuedOfflineEdits(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	// three records created while offline push with one call each
	for i, name := range []string{"Milk", "Flour", "Eggs"} {
		insertLocal(t, ctx, "products", database.Record{
			ID:        database.LocalID(fmt.Sprintf("p%d", i+1)),
			CreatedAt: int64(100 + i),
			UpdatedAt: int64(100 + i),
			Dirty:     true,
			Fields:    map[string]interface{}{"name": name},
		})
	}

	stats, err := Run(ctx, false)
	require.NoError(t, err, "syncing")
	assert.Equal(t, 3, stats.Pushed, "pushed count mismatch")

	creates, updates, deletes := srv.writeCalls()
	assert.Equal(t, 3, creates, "each queued record uploads exactly once")
	assert.Equal(t, 0, updates, "no updates expected")
	assert.Equal(t, 0, deletes, "no deletes expected")
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name   string
		local  database.Record
		remote client.RemoteRecord
		want   Resolution
	}{
		{
			name:   "clean local",
			local:  database.Record{UpdatedAt: 500},
			remote: client.RemoteRecord{UpdatedAt: 100},
			want:   ResolutionApplyRemote,
		},
		{
			name:   "dirty local newer",
			local:  database.Record{UpdatedAt: 500, Dirty: true},
			remote: client.RemoteRecord{UpdatedAt: 100},
			want:   ResolutionKeepLocal,
		},
		{
			name:   "dirty local older",
			local:  database.Record{UpdatedAt: 100, Dirty: true},
			remote: client.RemoteRecord{UpdatedAt: 500},
			want:   ResolutionApplyRemote,
		},
		{
			name:   "dirty local tie",
			local:  database.Record{UpdatedAt: 500, Dirty: true},
			remote: client.RemoteRecord{UpdatedAt: 500},
			want:   ResolutionKeepLocal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.local, tc.remote), "resolution mismatch")
		})
	}
}
