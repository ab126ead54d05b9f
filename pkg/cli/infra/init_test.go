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

package infra

import (
	"testing"

	"github.com/shoplist/shoplist/pkg/cli/config"
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigFile(t *testing.T) {
	ctx := context.InitTestCtx(t)

	require.NoError(t, initConfigFile(ctx, ""), "initializing config file")

	cf, err := config.Read(ctx)
	require.NoError(t, err, "reading config")
	assert.Equal(t, DefaultAPIEndpoint, cf.APIEndpoint, "endpoint mismatch")
	assert.Equal(t, DefaultSyncIntervalMin, cf.SyncIntervalMin, "interval mismatch")
	assert.True(t, cf.EnableUpgradeCheck, "upgrade check should default on")
}

func TestInitConfigFilePreservesExisting(t *testing.T) {
	ctx := context.InitTestCtx(t)

	existing := config.Config{APIEndpoint: "https://example.com", SyncIntervalMin: 5}
	require.NoError(t, config.Write(ctx, existing), "writing config")

	require.NoError(t, initConfigFile(ctx, "https://other.example.com"), "initializing config file")

	cf, err := config.Read(ctx)
	require.NoError(t, err, "reading config")
	assert.Equal(t, existing, cf, "an existing config must not be overwritten")
}

func TestSetupCtx(t *testing.T) {
	ctx := context.InitTestCtx(t)

	require.NoError(t, initConfigFile(ctx, ""), "initializing config file")
	require.NoError(t, database.UpsertSystem(ctx.DB, consts.SystemSessionKey, "somekey"), "setting session key")
	require.NoError(t, database.UpsertSystem(ctx.DB, consts.SystemSessionKeyExpiry, 1893456000), "setting expiry")
	require.NoError(t, database.UpsertSystem(ctx.DB, consts.SystemOwnerID, "user1"), "setting owner")

	got, err := setupCtx(ctx)
	require.NoError(t, err, "setting up context")

	assert.Equal(t, "somekey", got.SessionKey, "session key mismatch")
	assert.Equal(t, int64(1893456000), got.SessionKeyExpiry, "expiry mismatch")
	assert.Equal(t, "user1", got.OwnerID, "owner mismatch")
	assert.Equal(t, DefaultAPIEndpoint, got.APIEndpoint, "endpoint mismatch")
	assert.Equal(t, int64(DefaultSyncIntervalMin), got.SyncInterval, "interval mismatch")
	assert.NotNil(t, got.HTTPClient, "http client should be configured")
}

func TestInitSystemIdempotent(t *testing.T) {
	ctx := context.InitTestCtx(t)

	require.NoError(t, InitSystem(ctx), "initializing system")

	var first string
	require.NoError(t, database.GetSystem(ctx.DB, consts.SystemLastUpgrade, &first), "getting last upgrade")

	require.NoError(t, InitSystem(ctx), "initializing system again")

	var second string
	require.NoError(t, database.GetSystem(ctx.DB, consts.SystemLastUpgrade, &second), "getting last upgrade again")
	assert.Equal(t, first, second, "existing system values must be preserved")
}
