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

package check

import (
	"database/sql"

	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Check off an item
 shoplist check groceries milk

 * Running it again unchecks the item
 shoplist check groceries milk`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new check command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check <list> <item>",
		Short:   "Toggle the checked state of a list item",
		Aliases: []string{"c", "tick"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := Do(ctx, args[0], args[1]); err != nil {
			return errors.Wrap(err, "toggling item")
		}

		return nil
	}
}

// Do toggles the checked flag of the named item. The change marks the item
// dirty so it uploads on the next sync.
func Do(ctx context.ShoplistCtx, listName, itemName string) error {
	db := ctx.DB

	list, err := database.GetListByName(db, ctx.OwnerID, listName)
	if errors.Cause(err) == database.ErrRecordNotFound {
		return errors.Errorf("list %s not found", listName)
	} else if err != nil {
		return errors.Wrap(err, "finding the list")
	}

	items, err := database.GetListItems(db, list.ID.Value)
	if err != nil {
		return errors.Wrap(err, "listing items")
	}

	var target database.Record
	var found bool
	for _, item := range items {
		if item.Str("name") == itemName {
			target = item
			found = true
			break
		}
	}
	if !found {
		return errors.Errorf("item %s not found in %s", itemName, listName)
	}

	checked := 1
	if target.Bool("checked") {
		checked = 0
	}

	tbl, _ := database.GetTable("list_items")
	now := ctx.Clock.Now().UnixMilli()

	err = db.InTransaction(func(tx *sql.Tx) error {
		return database.UpdateFields(tx, tbl, target.ID.Value, map[string]interface{}{"checked": checked}, now)
	})
	if err != nil {
		return errors.Wrap(err, "updating the item")
	}

	if checked == 1 {
		log.Successf("checked %s\n", itemName)
	} else {
		log.Successf("unchecked %s\n", itemName)
	}

	return nil
}
