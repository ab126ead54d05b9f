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

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemRoundTrip(t *testing.T) {
	db := InitTestDB(t)

	require.NoError(t, UpsertSystem(db, "sessionKey", "abc"), "upserting")

	var got string
	require.NoError(t, GetSystem(db, "sessionKey", &got), "getting")
	assert.Equal(t, "abc", got, "value mismatch")

	require.NoError(t, UpsertSystem(db, "sessionKey", "def"), "upserting again")
	require.NoError(t, GetSystem(db, "sessionKey", &got), "getting again")
	assert.Equal(t, "def", got, "value should be replaced")
}

func TestCursors(t *testing.T) {
	db := InitTestDB(t)

	got, err := GetCursor(db, "lists", "user1")
	require.NoError(t, err, "getting missing cursor")
	assert.Equal(t, int64(0), got, "a missing cursor starts at zero")

	require.NoError(t, UpsertCursor(db, "lists", "user1", 1500), "upserting cursor")

	got, err = GetCursor(db, "lists", "user1")
	require.NoError(t, err, "getting cursor")
	assert.Equal(t, int64(1500), got, "cursor mismatch")

	// another owner's cursor is independent
	got, err = GetCursor(db, "lists", "user2")
	require.NoError(t, err, "getting other owner cursor")
	assert.Equal(t, int64(0), got, "cursors must be scoped per owner")
}

func TestDeleteCursors(t *testing.T) {
	db := InitTestDB(t)

	require.NoError(t, UpsertCursor(db, "lists", "user1", 100), "upserting cursor")
	require.NoError(t, UpsertCursor(db, "products", "user1", 200), "upserting cursor")
	require.NoError(t, UpsertCursor(db, "lists", "user2", 300), "upserting other owner cursor")
	require.NoError(t, UpsertSystem(db, "sessionKey", "abc"), "upserting sessionKey")

	require.NoError(t, DeleteCursors(db, "user1"), "deleting cursors")

	got, err := GetCursor(db, "lists", "user1")
	require.NoError(t, err, "getting cursor")
	assert.Equal(t, int64(0), got, "cursor should be reset")

	got, err = GetCursor(db, "lists", "user2")
	require.NoError(t, err, "getting cursor")
	assert.Equal(t, int64(300), got, "other owner cursors must survive")

	var key string
	require.NoError(t, GetSystem(db, "sessionKey", &key), "getting sessionKey")
	assert.Equal(t, "abc", key, "unrelated keys must survive")
}
