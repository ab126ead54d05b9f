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

package main

import (
	"os"
	"strings"

	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/shoplist/shoplist/pkg/cli/cmd/add"
	"github.com/shoplist/shoplist/pkg/cli/cmd/check"
	"github.com/shoplist/shoplist/pkg/cli/cmd/login"
	"github.com/shoplist/shoplist/pkg/cli/cmd/logout"
	"github.com/shoplist/shoplist/pkg/cli/cmd/ls"
	"github.com/shoplist/shoplist/pkg/cli/cmd/remove"
	"github.com/shoplist/shoplist/pkg/cli/cmd/root"
	"github.com/shoplist/shoplist/pkg/cli/cmd/status"
	"github.com/shoplist/shoplist/pkg/cli/cmd/sync"
	"github.com/shoplist/shoplist/pkg/cli/cmd/version"
	"github.com/shoplist/shoplist/pkg/cli/cmd/watch"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the --dbPath flag value from command line arguments
// regardless of where it appears (before or after the subcommand).
// Returns empty string if not found.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func main() {
	// The database has to be open before cobra parses flags, so --dbPath is
	// scanned out of the raw arguments here.
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(add.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(check.NewCmd(*ctx))
	root.Register(remove.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
