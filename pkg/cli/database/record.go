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
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrRecordNotFound is an error for looking up a record that does not exist
var ErrRecordNotFound = errors.New("record not found")

// Record is a row of a synchronized table. Entity-specific columns live in
// Fields, keyed by column name, so that the sync pipelines can treat all
// tables uniformly.
type Record struct {
	ID        ID
	OwnerID   string
	CreatedAt int64
	UpdatedAt int64
	Dirty     bool
	Deleted   bool
	SyncError string
	Fields    map[string]interface{}
}

// sharedColumns are selected for every synchronized table, in this order
var sharedColumns = []string{"id", "id_kind", "owner_id", "created_at", "updated_at", "dirty", "deleted", "sync_error"}

func selectColumns(tbl Table) string {
	return strings.Join(append(append([]string{}, sharedColumns...), tbl.Columns...), ", ")
}

// normalizeValue converts sqlite byte slices into strings so that Fields
// values compare predictably
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}

func scanRecord(tbl Table, scan func(dest ...interface{}) error) (Record, error) {
	rec := Record{Fields: map[string]interface{}{}}

	var kind string
	dests := []interface{}{&rec.ID.Value, &kind, &rec.OwnerID, &rec.CreatedAt, &rec.UpdatedAt, &rec.Dirty, &rec.Deleted, &rec.SyncError}

	vals := make([]interface{}, len(tbl.Columns))
	for i := range vals {
		dests = append(dests, &vals[i])
	}

	if err := scan(dests...); err != nil {
		return rec, err
	}

	rec.ID.Kind = IDKind(kind)
	for i, col := range tbl.Columns {
		rec.Fields[col] = normalizeValue(vals[i])
	}

	return rec, nil
}

// GetRecord fetches a single record by its current id value
func GetRecord(q Queryable, tbl Table, id string) (Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", selectColumns(tbl), tbl.Name)

	rec, err := scanRecord(tbl, q.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return Record{}, ErrRecordNotFound
	} else if err != nil {
		return Record{}, errors.Wrapf(err, "scanning %s record %s", tbl.Name, id)
	}

	return rec, nil
}

func queryRecords(q Queryable, tbl Table, where string, args ...interface{}) ([]Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY rowid", selectColumns(tbl), tbl.Name, where)

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s records", tbl.Name)
	}
	defer rows.Close()

	var ret []Record
	for rows.Next() {
		rec, err := scanRecord(tbl, rows.Scan)
		if err != nil {
			return nil, errors.Wrapf(err, "scanning a %s record", tbl.Name)
		}

		ret = append(ret, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterating %s records", tbl.Name)
	}

	return ret, nil
}

// ListRecords returns the records of a table for the given owner, in creation
// order, excluding tombstoned rows unless includeDeleted is set
func ListRecords(q Queryable, tbl Table, owner string, includeDeleted bool) ([]Record, error) {
	if includeDeleted {
		return queryRecords(q, tbl, "owner_id = ?", owner)
	}

	return queryRecords(q, tbl, "owner_id = ? AND deleted = 0", owner)
}

// ListDirty returns the records of a table whose local state has not been
// acknowledged by the server, in creation order
func ListDirty(q Queryable, tbl Table, owner string) ([]Record, error) {
	return queryRecords(q, tbl, "dirty = 1 AND owner_id = ?", owner)
}

// ListSyncErrors returns the records of a table whose last push was rejected
// by the server
func ListSyncErrors(q Queryable, tbl Table, owner string) ([]Record, error) {
	return queryRecords(q, tbl, "sync_error != '' AND owner_id = ?", owner)
}

// CountDirty counts the unacknowledged records of a table for the given owner
func CountDirty(q Queryable, tbl Table, owner string) (int, error) {
	var ret int
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE dirty = 1 AND owner_id = ?", tbl.Name)
	if err := q.QueryRow(query, owner).Scan(&ret); err != nil {
		return 0, errors.Wrapf(err, "counting dirty %s records", tbl.Name)
	}

	return ret, nil
}

// fieldColumns returns the entity columns of the table that the record
// carries a value for, in schema order
func fieldColumns(tbl Table, rec Record) []string {
	var ret []string
	for _, col := range tbl.Columns {
		if _, ok := rec.Fields[col]; ok {
			ret = append(ret, col)
		}
	}

	return ret
}

// InsertRecord inserts a new record
func InsertRecord(q Queryable, tbl Table, rec Record) error {
	cols := append(append([]string{}, sharedColumns...), fieldColumns(tbl, rec)...)

	args := []interface{}{rec.ID.Value, string(rec.ID.Kind), rec.OwnerID, rec.CreatedAt, rec.UpdatedAt, rec.Dirty, rec.Deleted, rec.SyncError}
	for _, col := range fieldColumns(tbl, rec) {
		args = append(args, rec.Fields[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl.Name, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	if _, err := q.Exec(query, args...); err != nil {
		return errors.Wrapf(err, "inserting %s record %s", tbl.Name, rec.ID.Value)
	}

	return nil
}

// UpdateRecord overwrites an existing record with the given data, keyed by
// the record's id
func UpdateRecord(q Queryable, tbl Table, rec Record) error {
	sets := []string{"id_kind = ?", "owner_id = ?", "created_at = ?", "updated_at = ?", "dirty = ?", "deleted = ?", "sync_error = ?"}
	args := []interface{}{string(rec.ID.Kind), rec.OwnerID, rec.CreatedAt, rec.UpdatedAt, rec.Dirty, rec.Deleted, rec.SyncError}

	for _, col := range fieldColumns(tbl, rec) {
		sets = append(sets, fmt.Sprintf("%s = ?", col))
		args = append(args, rec.Fields[col])
	}
	args = append(args, rec.ID.Value)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", tbl.Name, strings.Join(sets, ", "))

	if _, err := q.Exec(query, args...); err != nil {
		return errors.Wrapf(err, "updating %s record %s", tbl.Name, rec.ID.Value)
	}

	return nil
}

// UpdateFields applies a user mutation to a record: it sets the given entity
// columns, advances updated_at and marks the record dirty. updated_at never
// moves backwards even if the wall clock does. The edit supersedes any
// recorded push failure, so sync_error is cleared and the record uploads
// again.
func UpdateFields(q Queryable, tbl Table, id string, fields map[string]interface{}, now int64) error {
	sets := []string{"updated_at = MAX(?, updated_at)", "dirty = 1", "sync_error = ''"}
	args := []interface{}{now}

	for _, col := range tbl.Columns {
		if v, ok := fields[col]; ok {
			sets = append(sets, fmt.Sprintf("%s = ?", col))
			args = append(args, v)
		}
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", tbl.Name, strings.Join(sets, ", "))

	res, err := q.Exec(query, args...)
	if err != nil {
		return errors.Wrapf(err, "updating fields of %s record %s", tbl.Name, id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// MarkClean clears the dirty flag of a record, but only if the record has not
// been mutated since the given updated_at was read. A user edit that lands
// while the record is in flight to the server keeps the record dirty.
func MarkClean(q Queryable, tbl Table, id string, updatedAt int64) error {
	query := fmt.Sprintf("UPDATE %s SET dirty = 0, sync_error = '' WHERE id = ? AND updated_at = ?", tbl.Name)
	if _, err := q.Exec(query, id, updatedAt); err != nil {
		return errors.Wrapf(err, "marking %s record %s clean", tbl.Name, id)
	}

	return nil
}

// SetSyncError records a permanent push failure on a record
func SetSyncError(q Queryable, tbl Table, id, message string) error {
	query := fmt.Sprintf("UPDATE %s SET sync_error = ? WHERE id = ?", tbl.Name)
	if _, err := q.Exec(query, message, id); err != nil {
		return errors.Wrapf(err, "setting sync error on %s record %s", tbl.Name, id)
	}

	return nil
}

// RemapID replaces a record's id with a server-assigned one. The primary key
// and every foreign key referencing it are updated together; callers run
// RemapID inside a transaction so the remap is atomic.
func RemapID(q Queryable, tbl Table, oldID, newID string) error {
	query := fmt.Sprintf("UPDATE %s SET id = ?, id_kind = ? WHERE id = ?", tbl.Name)
	if _, err := q.Exec(query, newID, string(IDRemote), oldID); err != nil {
		return errors.Wrapf(err, "remapping id of %s record %s", tbl.Name, oldID)
	}

	return RemapChildRefs(q, tbl, oldID, newID)
}

// RemapChildRefs repoints the foreign keys of a record's children at a new
// parent id without touching the parent row itself
func RemapChildRefs(q Queryable, tbl Table, oldID, newID string) error {
	for _, ref := range tbl.ChildRefs {
		query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", ref.Table, ref.Column, ref.Column)
		if _, err := q.Exec(query, newID, oldID); err != nil {
			return errors.Wrapf(err, "remapping %s.%s references from %s", ref.Table, ref.Column, oldID)
		}
	}

	return nil
}

// Tombstone marks a record as deleted and dirty so the deletion is pushed to
// the server. Cascading children are tombstoned in the same call; callers run
// Tombstone inside a transaction.
func Tombstone(q Queryable, tbl Table, id string, now int64) error {
	query := fmt.Sprintf("UPDATE %s SET deleted = 1, dirty = 1, updated_at = MAX(?, updated_at) WHERE id = ?", tbl.Name)

	res, err := q.Exec(query, now, id)
	if err != nil {
		return errors.Wrapf(err, "tombstoning %s record %s", tbl.Name, id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return ErrRecordNotFound
	}

	for _, ref := range tbl.ChildRefs {
		if !ref.Cascade {
			continue
		}

		query := fmt.Sprintf("UPDATE %s SET deleted = 1, dirty = 1, updated_at = MAX(?, updated_at) WHERE %s = ?", ref.Table, ref.Column)
		if _, err := q.Exec(query, now, id); err != nil {
			return errors.Wrapf(err, "tombstoning %s children of %s", ref.Table, id)
		}
	}

	return nil
}

// Expunge physically removes a record once its deletion has been acknowledged
// by the server
func Expunge(q Queryable, tbl Table, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", tbl.Name)
	if _, err := q.Exec(query, id); err != nil {
		return errors.Wrapf(err, "expunging %s record %s", tbl.Name, id)
	}

	return nil
}

// ExpungeCleanChildren physically removes the cascading children of a record
// that carry no unacknowledged local state. Dirty children are left alone so
// their changes are not lost.
func ExpungeCleanChildren(q Queryable, tbl Table, id string) error {
	for _, ref := range tbl.ChildRefs {
		if !ref.Cascade {
			continue
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND dirty = 0", ref.Table, ref.Column)
		if _, err := q.Exec(query, id); err != nil {
			return errors.Wrapf(err, "expunging %s children of %s", ref.Table, id)
		}
	}

	return nil
}

// HasDirtyChildren reports whether any cascading child of the record has
// unacknowledged local state
func HasDirtyChildren(q Queryable, tbl Table, id string) (bool, error) {
	for _, ref := range tbl.ChildRefs {
		if !ref.Cascade {
			continue
		}

		var count int
		query := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = ? AND dirty = 1", ref.Table, ref.Column)
		if err := q.QueryRow(query, id).Scan(&count); err != nil {
			return false, errors.Wrapf(err, "counting dirty %s children of %s", ref.Table, id)
		}

		if count > 0 {
			return true, nil
		}
	}

	return false, nil
}

// ClaimOwnerless assigns pre-authentication local records to the given owner
// and marks them dirty so they are uploaded on the next sync
func ClaimOwnerless(q Queryable, owner string) error {
	for _, tbl := range Tables {
		query := fmt.Sprintf("UPDATE %s SET owner_id = ?, dirty = 1 WHERE owner_id = ''", tbl.Name)
		if _, err := q.Exec(query, owner); err != nil {
			return errors.Wrapf(err, "claiming %s records", tbl.Name)
		}
	}

	return nil
}
