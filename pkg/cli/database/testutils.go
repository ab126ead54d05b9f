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
	"testing"

	"github.com/pkg/errors"

	"github.com/shoplist/shoplist/pkg/cli/utils"
)

// MustScan scans the given row and fails a test in case of any errors
func MustScan(t *testing.T, message string, row *sql.Row, args ...interface{}) {
	t.Helper()

	if err := row.Scan(args...); err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "scanning a row"), message))
	}
}

// MustExec executes the given SQL query and fails a test if an error occurs
func MustExec(t *testing.T, message string, q Queryable, query string, args ...interface{}) sql.Result {
	t.Helper()

	result, err := q.Exec(query, args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "executing sql"), message))
	}

	return result
}

// InitTestDB initializes an in-memory test database with the current schema
func InitTestDB(t *testing.T) *DB {
	t.Helper()

	id, err := utils.GenerateUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating a test database name"))
	}

	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", id))
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening in-memory database"))
	}

	if err := Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating test database"))
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// MustGetTable looks up a table definition and fails the test if it is missing
func MustGetTable(t *testing.T, name string) Table {
	t.Helper()

	tbl, ok := GetTable(name)
	if !ok {
		t.Fatalf("unknown table %s", name)
	}

	return tbl
}
