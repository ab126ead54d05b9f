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
	"fmt"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/shoplist/shoplist/pkg/cli/consts"
)

// syncColumns are the shared columns carried by every synchronized table
const syncColumns = `
	id text NOT NULL PRIMARY KEY,
	id_kind text NOT NULL DEFAULT 'local',
	owner_id text NOT NULL DEFAULT '',
	created_at integer NOT NULL,
	updated_at integer NOT NULL,
	dirty integer NOT NULL DEFAULT 1,
	deleted integer NOT NULL DEFAULT 0,
	sync_error text NOT NULL DEFAULT ''`

func createTableSQL(name, entityColumns string) string {
	return fmt.Sprintf("CREATE TABLE %s (%s,%s\n);", name, syncColumns, entityColumns)
}

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-init",
			Up: []string{
				`CREATE TABLE system (
					key text NOT NULL PRIMARY KEY,
					value text NOT NULL
				);`,
				createTableSQL("products", `
	barcode text NOT NULL DEFAULT '',
	name text NOT NULL,
	description text NOT NULL DEFAULT '',
	category text NOT NULL DEFAULT '',
	image_url text NOT NULL DEFAULT ''`),
				createTableSQL("stores", `
	name text NOT NULL,
	address text NOT NULL DEFAULT '',
	latitude real NOT NULL DEFAULT 0,
	longitude real NOT NULL DEFAULT 0`),
				createTableSQL("budgets", `
	name text NOT NULL,
	amount real NOT NULL DEFAULT 0,
	start_date integer NOT NULL DEFAULT 0,
	end_date integer NOT NULL DEFAULT 0,
	category text NOT NULL DEFAULT ''`),
				createTableSQL("lists", `
	name text NOT NULL,
	description text NOT NULL DEFAULT ''`),
				createTableSQL("list_items", `
	list_id text NOT NULL,
	product_id text NOT NULL DEFAULT '',
	name text NOT NULL,
	quantity real NOT NULL DEFAULT 1,
	unit text NOT NULL DEFAULT '',
	price real NOT NULL DEFAULT 0,
	checked integer NOT NULL DEFAULT 0,
	note text NOT NULL DEFAULT ''`),
				`CREATE INDEX idx_list_items_list_id ON list_items(list_id);`,
				`CREATE INDEX idx_lists_dirty ON lists(dirty);`,
				`CREATE INDEX idx_list_items_dirty ON list_items(dirty);`,
			},
			Down: []string{
				"DROP TABLE list_items;",
				"DROP TABLE lists;",
				"DROP TABLE budgets;",
				"DROP TABLE stores;",
				"DROP TABLE products;",
				"DROP TABLE system;",
			},
		},
	},
}

// Migrate brings the local schema up to date
func Migrate(db *DB) error {
	n, err := migrate.Exec(db.DB, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return errors.Wrap(err, "running migrations")
	}

	if n > 0 {
		if err := UpsertSystem(db, consts.SystemSchema, fmt.Sprintf("%d", len(migrations.Migrations))); err != nil {
			return errors.Wrap(err, "recording schema version")
		}
	}

	return nil
}
