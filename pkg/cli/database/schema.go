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

// ChildRef is a column in another table referencing a table's id
type ChildRef struct {
	Table  string
	Column string
	// Cascade marks references whose rows are tombstoned together with
	// the referenced record
	Cascade bool
}

// Table describes a synchronized table: its entity-specific columns and the
// foreign keys pointing at it. Every synchronized table also carries the
// shared columns id, id_kind, owner_id, created_at, updated_at, dirty,
// deleted and sync_error.
type Table struct {
	Name      string
	Columns   []string
	ChildRefs []ChildRef
}

// Tables lists the synchronized tables in dependency order: a table always
// appears before the tables referencing it. Push and pull both walk this
// slice front to back so that parents are handled before children.
var Tables = []Table{
	{
		Name:    "products",
		Columns: []string{"barcode", "name", "description", "category", "image_url"},
		ChildRefs: []ChildRef{
			{Table: "list_items", Column: "product_id"},
		},
	},
	{
		Name:    "stores",
		Columns: []string{"name", "address", "latitude", "longitude"},
	},
	{
		Name:    "budgets",
		Columns: []string{"name", "amount", "start_date", "end_date", "category"},
	},
	{
		Name:    "lists",
		Columns: []string{"name", "description"},
		ChildRefs: []ChildRef{
			{Table: "list_items", Column: "list_id", Cascade: true},
		},
	},
	{
		Name:    "list_items",
		Columns: []string{"list_id", "product_id", "name", "quantity", "unit", "price", "checked", "note"},
	},
}

// GetTable looks up a table definition by name
func GetTable(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}

	return Table{}, false
}
