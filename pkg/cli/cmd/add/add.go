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

package add

import (
	"database/sql"

	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/shoplist/shoplist/pkg/cli/output"
	"github.com/shoplist/shoplist/pkg/cli/upgrade"
	"github.com/shoplist/shoplist/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var descriptionFlag string
var quantityFlag float64
var unitFlag string
var priceFlag float64
var noteFlag string

var example = `
 * Create a shopping list
 shoplist add groceries

 * Add an item to a list, creating the list if needed
 shoplist add groceries milk

 * Add an item with a quantity and a unit
 shoplist add groceries flour -q 2 -u kg`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <list> <item?>",
		Short:   "Add a new list or list item",
		Aliases: []string{"a", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&descriptionFlag, "description", "d", "", "a description for a new list")
	f.Float64VarP(&quantityFlag, "quantity", "q", 1, "the quantity of the item")
	f.StringVarP(&unitFlag, "unit", "u", "", "the unit of the quantity")
	f.Float64VarP(&priceFlag, "price", "p", 0, "the expected price of the item")
	f.StringVarP(&noteFlag, "note", "n", "", "a note for the item")

	return cmd
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		listName := args[0]
		if err := validate.ListName(listName); err != nil {
			return errors.Wrap(err, "invalid list name")
		}

		now := ctx.Clock.Now().UnixMilli()

		if len(args) == 1 {
			rec, err := writeList(ctx, listName, descriptionFlag, now)
			if err != nil {
				return errors.Wrap(err, "creating the list")
			}

			log.Successf("added %s\n", listName)
			output.ListInfo(rec)
		} else {
			itemName := args[1]
			if err := validate.ItemName(itemName); err != nil {
				return errors.Wrap(err, "invalid item name")
			}
			if err := validate.Quantity(quantityFlag); err != nil {
				return errors.Wrap(err, "invalid quantity")
			}

			rec, err := writeItem(ctx, listName, itemName, now)
			if err != nil {
				return errors.Wrap(err, "adding the item")
			}

			log.Successf("added to %s\n", listName)
			output.ItemLine(rec)
		}

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		return nil
	}
}

func createList(ctx context.ShoplistCtx, tx *sql.Tx, name, description string, now int64) (database.Record, error) {
	tbl, _ := database.GetTable("lists")

	rec, err := database.NewRecord(tbl, ctx.OwnerID, map[string]interface{}{
		"name":        name,
		"description": description,
	}, now)
	if err != nil {
		return database.Record{}, err
	}
	if err := database.InsertRecord(tx, tbl, rec); err != nil {
		return database.Record{}, errors.Wrap(err, "inserting the list")
	}

	return rec, nil
}

// getOrCreateList returns the list with the given name, creating a dirty
// list record if none exists
func getOrCreateList(ctx context.ShoplistCtx, tx *sql.Tx, name string, now int64) (database.Record, error) {
	rec, err := database.GetListByName(tx, ctx.OwnerID, name)
	if err == nil {
		return rec, nil
	}
	if errors.Cause(err) != database.ErrRecordNotFound {
		return database.Record{}, errors.Wrap(err, "finding the list")
	}

	return createList(ctx, tx, name, "", now)
}

func writeList(ctx context.ShoplistCtx, name, description string, now int64) (database.Record, error) {
	var rec database.Record

	err := ctx.DB.InTransaction(func(tx *sql.Tx) error {
		_, err := database.GetListByName(tx, ctx.OwnerID, name)
		if err == nil {
			return errors.Errorf("list %s already exists", name)
		}
		if errors.Cause(err) != database.ErrRecordNotFound {
			return errors.Wrap(err, "finding the list")
		}

		rec, err = createList(ctx, tx, name, description, now)
		return err
	})
	if err != nil {
		return database.Record{}, err
	}

	return rec, nil
}

func writeItem(ctx context.ShoplistCtx, listName, itemName string, now int64) (database.Record, error) {
	var rec database.Record

	err := ctx.DB.InTransaction(func(tx *sql.Tx) error {
		list, err := getOrCreateList(ctx, tx, listName, now)
		if err != nil {
			return err
		}

		tbl, _ := database.GetTable("list_items")
		rec, err = database.NewRecord(tbl, ctx.OwnerID, map[string]interface{}{
			"list_id":  list.ID.Value,
			"name":     itemName,
			"quantity": quantityFlag,
			"unit":     unitFlag,
			"price":    priceFlag,
			"checked":  0,
			"note":     noteFlag,
		}, now)
		if err != nil {
			return err
		}
		if err := database.InsertRecord(tx, tbl, rec); err != nil {
			return errors.Wrap(err, "inserting the item")
		}

		return nil
	})
	if err != nil {
		return database.Record{}, err
	}

	return rec, nil
}
