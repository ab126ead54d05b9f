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

package remove

import (
	"database/sql"
	"fmt"

	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/shoplist/shoplist/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var yesFlag bool

var example = `
 * Remove a list and all its items
 shoplist remove groceries

 * Remove a single item from a list
 shoplist remove groceries milk`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new remove command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <list> <item?>",
		Short:   "Remove a list or a list item",
		Aliases: []string{"rm", "d", "delete"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "remove without asking for confirmation")

	return cmd
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		listName := args[0]

		if len(args) == 1 {
			if err := removeList(ctx, listName); err != nil {
				return errors.Wrap(err, "removing list")
			}
		} else {
			if err := removeItem(ctx, listName, args[1]); err != nil {
				return errors.Wrap(err, "removing item")
			}
		}

		return nil
	}
}

func confirm(question string) (bool, error) {
	if yesFlag {
		return true, nil
	}

	return ui.Confirm(question, false)
}

func removeList(ctx context.ShoplistCtx, listName string) error {
	db := ctx.DB

	list, err := database.GetListByName(db, ctx.OwnerID, listName)
	if errors.Cause(err) == database.ErrRecordNotFound {
		return errors.Errorf("list %s not found", listName)
	} else if err != nil {
		return errors.Wrap(err, "finding the list")
	}

	ok, err := confirm(fmt.Sprintf("remove list '%s' and all its items?", listName))
	if err != nil {
		return errors.Wrap(err, "getting confirmation")
	}
	if !ok {
		log.Info("aborted\n")
		return nil
	}

	tbl, _ := database.GetTable("lists")
	now := ctx.Clock.Now().UnixMilli()

	err = db.InTransaction(func(tx *sql.Tx) error {
		return database.Tombstone(tx, tbl, list.ID.Value, now)
	})
	if err != nil {
		return errors.Wrap(err, "tombstoning the list")
	}

	log.Successf("removed %s\n", listName)

	return nil
}

func removeItem(ctx context.ShoplistCtx, listName, itemName string) error {
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

	ok, err := confirm(fmt.Sprintf("remove '%s' from '%s'?", itemName, listName))
	if err != nil {
		return errors.Wrap(err, "getting confirmation")
	}
	if !ok {
		log.Info("aborted\n")
		return nil
	}

	tbl, _ := database.GetTable("list_items")
	now := ctx.Clock.Now().UnixMilli()

	err = db.InTransaction(func(tx *sql.Tx) error {
		return database.Tombstone(tx, tbl, target.ID.Value, now)
	})
	if err != nil {
		return errors.Wrap(err, "tombstoning the item")
	}

	log.Successf("removed %s\n", itemName)

	return nil
}
