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
	"github.com/pkg/errors"

	"github.com/shoplist/shoplist/pkg/cli/utils"
)

// Str returns the named field as a string
func (r Record) Str(col string) string {
	if v, ok := r.Fields[col].(string); ok {
		return v
	}

	return ""
}

// Num returns the named field as a float64
func (r Record) Num(col string) float64 {
	switch v := r.Fields[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}

	return 0
}

// Int returns the named field as an int64
func (r Record) Int(col string) int64 {
	switch v := r.Fields[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	}

	return 0
}

// Bool returns the named field as a boolean. Boolean fields are stored as
// 0/1 integers.
func (r Record) Bool(col string) bool {
	return r.Int(col) != 0
}

// NewRecord constructs a fresh local record for the given table: it assigns
// a client-generated id, stamps both timestamps and marks the record dirty.
func NewRecord(tbl Table, owner string, fields map[string]interface{}, now int64) (Record, error) {
	id, err := utils.GenerateUUID()
	if err != nil {
		return Record{}, errors.Wrap(err, "generating a record id")
	}

	rec := Record{
		ID:        LocalID(id),
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
		Dirty:     true,
		Fields:    map[string]interface{}{},
	}
	for _, col := range tbl.Columns {
		if v, ok := fields[col]; ok {
			rec.Fields[col] = v
		}
	}

	return rec, nil
}

// List is a shopping list
type List struct {
	ID          ID
	Name        string
	Description string
	CreatedAt   int64
	UpdatedAt   int64
	Dirty       bool
	SyncError   string
}

// ListFromRecord converts a lists record into a List
func ListFromRecord(rec Record) List {
	return List{
		ID:          rec.ID,
		Name:        rec.Str("name"),
		Description: rec.Str("description"),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Dirty:       rec.Dirty,
		SyncError:   rec.SyncError,
	}
}

// ListItem is an entry of a shopping list
type ListItem struct {
	ID        ID
	ListID    string
	ProductID string
	Name      string
	Quantity  float64
	Unit      string
	Price     float64
	Checked   bool
	Note      string
	CreatedAt int64
	UpdatedAt int64
	Dirty     bool
	SyncError string
}

// ItemFromRecord converts a list_items record into a ListItem
func ItemFromRecord(rec Record) ListItem {
	return ListItem{
		ID:        rec.ID,
		ListID:    rec.Str("list_id"),
		ProductID: rec.Str("product_id"),
		Name:      rec.Str("name"),
		Quantity:  rec.Num("quantity"),
		Unit:      rec.Str("unit"),
		Price:     rec.Num("price"),
		Checked:   rec.Bool("checked"),
		Note:      rec.Str("note"),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Dirty:     rec.Dirty,
		SyncError: rec.SyncError,
	}
}

// GetListByName finds a non-deleted list with the given name for the owner
func GetListByName(q Queryable, owner, name string) (Record, error) {
	tbl, _ := GetTable("lists")

	recs, err := queryRecords(q, tbl, "owner_id = ? AND deleted = 0 AND name = ?", owner, name)
	if err != nil {
		return Record{}, errors.Wrapf(err, "querying list %s", name)
	}
	if len(recs) == 0 {
		return Record{}, ErrRecordNotFound
	}

	return recs[0], nil
}

// GetListItems returns the non-deleted items of a list in creation order
func GetListItems(q Queryable, listID string) ([]Record, error) {
	tbl, _ := GetTable("list_items")

	return queryRecords(q, tbl, "list_id = ? AND deleted = 0", listID)
}
