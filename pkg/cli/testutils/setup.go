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

package testutils

import (
	"testing"

	"github.com/shoplist/shoplist/pkg/cli/database"
)

// SetupLists seeds two lists for the test owner
func SetupLists(t *testing.T, db *database.DB) {
	database.MustExec(t, "setting up list 1", db,
		"INSERT INTO lists (id, owner_id, created_at, updated_at, name) VALUES (?, ?, ?, ?, ?)",
		"groceries-list-id", "test-owner", 1515199943000, 1515199943000, "groceries")
	database.MustExec(t, "setting up list 2", db,
		"INSERT INTO lists (id, owner_id, created_at, updated_at, name) VALUES (?, ?, ?, ?, ?)",
		"hardware-list-id", "test-owner", 1515199944000, 1515199944000, "hardware")
}

// SetupListWithItems seeds a list holding two items for the test owner
func SetupListWithItems(t *testing.T, db *database.DB) {
	database.MustExec(t, "setting up list", db,
		"INSERT INTO lists (id, owner_id, created_at, updated_at, name) VALUES (?, ?, ?, ?, ?)",
		"groceries-list-id", "test-owner", 1515199943000, 1515199943000, "groceries")

	database.MustExec(t, "setting up item 1", db,
		"INSERT INTO list_items (id, owner_id, created_at, updated_at, list_id, name, quantity) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"milk-item-id", "test-owner", 1515199951000, 1515199951000, "groceries-list-id", "milk", 1)
	database.MustExec(t, "setting up item 2", db,
		"INSERT INTO list_items (id, owner_id, created_at, updated_at, list_id, name, quantity) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"flour-item-id", "test-owner", 1515199952000, 1515199952000, "groceries-list-id", "flour", 2)
}
