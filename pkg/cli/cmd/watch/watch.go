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

package watch

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	syncer "github.com/shoplist/shoplist/pkg/cli/sync"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

// healthInterval is how often the server is probed for connectivity
const healthInterval = 30 * time.Second

var intervalFlag int

var example = `
 * Keep the local store in sync, syncing every 15 minutes
 shoplist watch

 * Sync every 5 minutes
 shoplist watch -i 5`

// NewCmd returns a new watch command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Keep syncing in the background",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.IntVarP(&intervalFlag, "interval", "i", 0, "minutes between periodic syncs (defaults to value in config)")

	return cmd
}

func getInterval(ctx context.ShoplistCtx) int64 {
	if intervalFlag > 0 {
		return int64(intervalFlag)
	}
	if ctx.SyncInterval > 0 {
		return ctx.SyncInterval
	}

	return int64(infra.DefaultSyncIntervalMin)
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.SessionKey == "" {
			return errors.New("not logged in")
		}

		o := syncer.NewOrchestrator(ctx)
		o.Notify = func(s syncer.Status) {
			if s.LastError != "" {
				log.Warnf("sync failed: %s\n", s.LastError)
				return
			}

			log.Debug("state: %s, online: %t\n", s.State, s.Online)
		}
		go o.Run()

		m := syncer.NewMonitor(ctx, healthInterval, func(online bool) {
			if online {
				log.Info("server reachable\n")
			} else {
				log.Warnf("server unreachable. changes will sync when it is back.\n")
			}

			o.SetOnline(online)
		})
		go m.Run()

		interval := getInterval(ctx)
		c := cron.New()
		if err := c.AddFunc(fmt.Sprintf("@every %dm", interval), func() {
			o.Trigger(false)
		}); err != nil {
			return errors.Wrap(err, "scheduling periodic sync")
		}
		c.Start()

		log.Infof("watching. syncing every %d minutes.\n", interval)
		o.Trigger(false)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("stopping\n")
		c.Stop()
		m.Stop()
		o.Stop()

		return nil
	}
}
