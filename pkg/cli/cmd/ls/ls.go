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

package ls

import (
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/shoplist/shoplist/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var nameOnly bool

var example = `
 * List all shopping lists
 shoplist ls

 * List the items of a list
 shoplist ls groceries`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new ls command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls <list name?>",
		Aliases: []string{"l", "view"},
		Short:   "List shopping lists or the items of a list",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&nameOnly, "name-only", "", false, "print list names only")

	return cmd
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return printLists(ctx)
		}

		return printItems(ctx, args[0])
	}
}

func printLists(ctx context.ShoplistCtx) error {
	db := ctx.DB
	tbl, _ := database.GetTable("lists")

	recs, err := database.ListRecords(db, tbl, ctx.OwnerID, false)
	if err != nil {
		return errors.Wrap(err, "listing lists")
	}

	for _, rec := range recs {
		if nameOnly {
			log.Plainf("%s\n", rec.Str("name"))
			continue
		}

		items, err := database.GetListItems(db, rec.ID.Value)
		if err != nil {
			return errors.Wrapf(err, "counting items of %s", rec.Str("name"))
		}

		output.ListLine(rec, len(items))
	}

	return nil
}

func printItems(ctx context.ShoplistCtx, listName string) error {
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

	log.Infof("on %s\n", list.Str("name"))
	for _, item := range items {
		output.ItemLine(item)
	}

	return nil
}
