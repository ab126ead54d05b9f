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

// Package consts provides definitions of constants
package consts

var (
	// ShoplistDirName is the name of the directory containing shoplist files
	ShoplistDirName = "shoplist"
	// ShoplistDBFileName is a filename for the Shoplist SQLite database
	ShoplistDBFileName = "shoplist.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "shoplistrc"

	// SystemSchema is the key for schema version in the system table
	SystemSchema = "schema"
	// SystemLastSyncAt is the timestamp of the server at the last sync
	SystemLastSyncAt = "last_sync_time"
	// SystemSessionKey is the session key
	SystemSessionKey = "session_token"
	// SystemSessionKeyExpiry is the timestamp at which the session key will expire
	SystemSessionKeyExpiry = "session_token_expiry"
	// SystemOwnerID is the id of the signed-in user
	SystemOwnerID = "owner_id"
	// SystemLastUpgrade is the timestamp at which the system most recently checked for an upgrade
	SystemLastUpgrade = "last_upgrade"

	// SystemCursorPrefix prefixes the per-table, per-owner pull cursor keys.
	// A full key looks like "cursor:lists:<owner id>".
	SystemCursorPrefix = "cursor"
)
