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

// Package database provides the local store for shoplist data
package database

import (
	"database/sql"

	// the sqlite driver backing the local store
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB is a handle to the local database
type DB struct {
	*sql.DB
}

// Queryable is the common interface of a database handle and a transaction.
// Operations that can run either standalone or as part of a transaction
// accept a Queryable.
type Queryable interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Open opens the database connection at the given path
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// Serialize all writes through a single connection. SQLite allows one
	// writer at a time; a pool of writing connections causes SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &DB{db}, nil
}

// InTransaction runs the given function inside a transaction. The transaction
// is committed if the function returns nil and rolled back otherwise, so a
// logical operation is either fully applied or not at all.
func (db *DB) InTransaction(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back a transaction: %s", rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}
