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

// Package output provides functions to print information on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"time"

	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/log"
)

func formatStamp(ms int64) string {
	return time.UnixMilli(ms).Format("Jan 2, 2006 3:04pm (MST)")
}

// ListInfo prints a shopping list's information
func ListInfo(rec database.Record) {
	log.Infof("name: %s\n", rec.Str("name"))
	log.Infof("created at: %s\n", formatStamp(rec.CreatedAt))
	log.Infof("updated at: %s\n", formatStamp(rec.UpdatedAt))
	log.Infof("id: %s\n", rec.ID.Value)

	if rec.Dirty {
		log.Infof("pending upload: yes\n")
	}
	if rec.SyncError != "" {
		log.Warnf("sync error: %s\n", rec.SyncError)
	}
}

// ItemLine prints a single list item in a listing
func ItemLine(rec database.Record) {
	mark := " "
	if rec.Bool("checked") {
		mark = "x"
	}

	line := fmt.Sprintf("  [%s] %s", mark, rec.Str("name"))

	if qty := rec.Num("quantity"); qty != 0 {
		line = fmt.Sprintf("%s (%g", line, qty)
		if unit := rec.Str("unit"); unit != "" {
			line = fmt.Sprintf("%s %s", line, unit)
		}
		line = fmt.Sprintf("%s)", line)
	}

	if rec.Dirty {
		line = fmt.Sprintf("%s *", line)
	}

	log.Plainf("%s\n", line)
}

// ListLine prints a single shopping list in a listing, with its item count
func ListLine(rec database.Record, itemCount int) {
	line := fmt.Sprintf("%s (%d)", rec.Str("name"), itemCount)
	if rec.Dirty {
		line = fmt.Sprintf("%s *", line)
	}

	log.Plainf("%s\n", line)
}
