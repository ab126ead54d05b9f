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
	"strconv"

	"github.com/pkg/errors"

	"github.com/shoplist/shoplist/pkg/cli/consts"
)

// GetSystem scans the value of the system configuration with the given key
// into the destination
func GetSystem(q Queryable, key string, dest interface{}) error {
	if err := q.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest); err != nil {
		return err
	}

	return nil
}

// UpsertSystem inserts or updates a system configuration value
func UpsertSystem(q Queryable, key string, val interface{}) error {
	_, err := q.Exec(`INSERT INTO system (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	if err != nil {
		return errors.Wrapf(err, "upserting system value for %s", key)
	}

	return nil
}

// DeleteSystem removes a system configuration value
func DeleteSystem(q Queryable, key string) error {
	if _, err := q.Exec("DELETE FROM system WHERE key = ?", key); err != nil {
		return errors.Wrapf(err, "deleting system value for %s", key)
	}

	return nil
}

func cursorKey(table, owner string) string {
	return fmt.Sprintf("%s:%s:%s", consts.SystemCursorPrefix, table, owner)
}

// GetCursor returns the pull watermark for the given table and owner.
// A table that has never been pulled has a cursor of zero.
func GetCursor(q Queryable, table, owner string) (int64, error) {
	var raw string
	err := GetSystem(q, cursorKey(table, owner), &raw)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "querying cursor for %s", table)
	}

	ret, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing cursor for %s", table)
	}

	return ret, nil
}

// UpsertCursor saves the pull watermark for the given table and owner
func UpsertCursor(q Queryable, table, owner string, val int64) error {
	if err := UpsertSystem(q, cursorKey(table, owner), strconv.FormatInt(val, 10)); err != nil {
		return errors.Wrapf(err, "saving cursor for %s", table)
	}

	return nil
}

// DeleteCursors removes all pull watermarks belonging to the given owner
func DeleteCursors(q Queryable, owner string) error {
	pattern := fmt.Sprintf("%s:%%:%s", consts.SystemCursorPrefix, owner)
	if _, err := q.Exec("DELETE FROM system WHERE key LIKE ?", pattern); err != nil {
		return errors.Wrap(err, "deleting cursors")
	}

	return nil
}
