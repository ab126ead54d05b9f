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

package status

import (
	"time"

	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  shoplist status`

// NewCmd returns a new status command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the sync status",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

func printLastSync(ctx context.ShoplistCtx) error {
	var lastSyncAt int64
	if err := database.GetSystem(ctx.DB, consts.SystemLastSyncAt, &lastSyncAt); err != nil {
		return errors.Wrap(err, "querying last sync time")
	}

	if lastSyncAt == 0 {
		log.Info("last synced: never\n")
	} else {
		t := time.UnixMilli(lastSyncAt)
		log.Infof("last synced: %s\n", t.Format("Jan 2, 2006 3:04pm (MST)"))
	}

	return nil
}

func printPending(ctx context.ShoplistCtx) error {
	db := ctx.DB

	total := 0
	for _, tbl := range database.Tables {
		count, err := database.CountDirty(db, tbl, ctx.OwnerID)
		if err != nil {
			return errors.Wrapf(err, "counting pending %s", tbl.Name)
		}
		if count > 0 {
			log.Infof("pending %s: %d\n", tbl.Name, count)
		}

		total += count
	}

	if total == 0 {
		log.Info("nothing to push\n")
	}

	return nil
}

func printFailures(ctx context.ShoplistCtx) error {
	db := ctx.DB

	for _, tbl := range database.Tables {
		recs, err := database.ListSyncErrors(db, tbl, ctx.OwnerID)
		if err != nil {
			return errors.Wrapf(err, "listing failed %s", tbl.Name)
		}

		for _, rec := range recs {
			log.Warnf("%s %s failed to sync: %s\n", tbl.Name, rec.ID.Value, rec.SyncError)
		}
	}

	return nil
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.SessionKey == "" {
			log.Info("logged in: no\n")
		} else {
			log.Info("logged in: yes\n")
		}

		if err := client.GetHealth(ctx); err != nil {
			log.Info("server: unreachable\n")
		} else {
			log.Info("server: online\n")
		}

		if err := printLastSync(ctx); err != nil {
			return err
		}
		if err := printPending(ctx); err != nil {
			return err
		}
		if err := printFailures(ctx); err != nil {
			return err
		}

		return nil
	}
}
