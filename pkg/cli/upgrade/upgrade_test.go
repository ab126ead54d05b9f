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

package upgrade

import (
	"strconv"
	"testing"

	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLastUpgrade(t *testing.T, ctx context.ShoplistCtx, secondsAgo int64) {
	val := strconv.FormatInt(ctx.Clock.Now().Unix()-secondsAgo, 10)
	require.NoError(t, database.UpsertSystem(ctx.DB, consts.SystemLastUpgrade, val), "setting last upgrade")
}

func TestShouldCheckUpdate(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.EnableUpgradeCheck = true

	setLastUpgrade(t, ctx, upgradeInterval+1)

	got, err := shouldCheckUpdate(ctx)
	require.NoError(t, err, "checking")
	assert.True(t, got, "a stale check should be due")
}

func TestShouldCheckUpdateRecent(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.EnableUpgradeCheck = true

	setLastUpgrade(t, ctx, 60)

	got, err := shouldCheckUpdate(ctx)
	require.NoError(t, err, "checking")
	assert.False(t, got, "a recent check should be throttled")
}

func TestShouldCheckUpdateDisabled(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.EnableUpgradeCheck = false

	setLastUpgrade(t, ctx, upgradeInterval+1)

	got, err := shouldCheckUpdate(ctx)
	require.NoError(t, err, "checking")
	assert.False(t, got, "disabled config should suppress the check")
}
