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

package context

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/clock"
)

// getDefaultTestPaths creates default test paths with all paths pointing to a temp directory
func getDefaultTestPaths(t *testing.T) Paths {
	tmpDir := t.TempDir()
	return Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
	}
}

// InitTestCtx initializes a test context with an in-memory database
// and a temporary directory for all paths
func InitTestCtx(t *testing.T) ShoplistCtx {
	paths := getDefaultTestPaths(t)
	db := database.InitTestDB(t)

	if err := InitShoplistDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	return ShoplistCtx{
		DB:    db,
		Paths: paths,
		Clock: clock.NewMock(),
	}
}

// InitTestCtxWithDB initializes a test context with the provided database
// and a temporary directory for all paths.
func InitTestCtxWithDB(t *testing.T, db *database.DB) ShoplistCtx {
	paths := getDefaultTestPaths(t)

	if err := InitShoplistDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	return ShoplistCtx{
		DB:    db,
		Paths: paths,
		Clock: clock.NewMock(),
	}
}
