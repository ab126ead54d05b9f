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

package check

import (
	"testing"

	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckItem(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.OwnerID = "test-owner"
	testutils.SetupListWithItems(t, ctx.DB)

	err := Do(ctx, "groceries", "milk")
	require.NoError(t, err, "checking the item")

	var checked, dirty bool
	database.MustScan(t, "scanning the item",
		ctx.DB.QueryRow("SELECT checked, dirty FROM list_items WHERE id = ?", "milk-item-id"), &checked, &dirty)

	assert.True(t, checked, "the item should be checked")
	assert.True(t, dirty, "the change should be dirty")

	var flourChecked bool
	database.MustScan(t, "scanning the other item",
		ctx.DB.QueryRow("SELECT checked FROM list_items WHERE id = ?", "flour-item-id"), &flourChecked)

	assert.False(t, flourChecked, "other items should be left alone")
}

func TestCheckItemToggle(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.OwnerID = "test-owner"
	testutils.SetupListWithItems(t, ctx.DB)

	require.NoError(t, Do(ctx, "groceries", "milk"), "checking the item")
	require.NoError(t, Do(ctx, "groceries", "milk"), "unchecking the item")

	var checked bool
	database.MustScan(t, "scanning the item",
		ctx.DB.QueryRow("SELECT checked FROM list_items WHERE id = ?", "milk-item-id"), &checked)

	assert.False(t, checked, "a second toggle should uncheck the item")
}

func TestCheckItemClearsSyncError(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.OwnerID = "test-owner"
	testutils.SetupListWithItems(t, ctx.DB)

	database.MustExec(t, "recording a rejection", ctx.DB,
		"UPDATE list_items SET sync_error = ? WHERE id = ?", "rejected", "milk-item-id")

	err := Do(ctx, "groceries", "milk")
	require.NoError(t, err, "checking the item")

	var syncError string
	database.MustScan(t, "scanning the item",
		ctx.DB.QueryRow("SELECT sync_error FROM list_items WHERE id = ?", "milk-item-id"), &syncError)

	assert.Empty(t, syncError, "an edit supersedes a recorded push failure")
}

func TestCheckItemNotFound(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.OwnerID = "test-owner"
	testutils.SetupListWithItems(t, ctx.DB)

	err := Do(ctx, "groceries", "no-such-item")
	assert.Error(t, err, "checking a missing item should fail")

	err = Do(ctx, "no-such-list", "milk")
	assert.Error(t, err, "checking an item of a missing list should fail")
}
