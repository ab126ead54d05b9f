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

package sync

import (
	stdsync "sync"
	"time"

	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/log"
)

// Monitor polls the server health endpoint and reports connectivity
// transitions
type Monitor struct {
	ctx      context.ShoplistCtx
	interval time.Duration
	onChange func(online bool)

	doneCh   chan struct{}
	stopOnce stdsync.Once
}

// NewMonitor creates a connectivity monitor. onChange is called with the
// initial reading and on every transition, from the monitor's goroutine.
func NewMonitor(ctx context.ShoplistCtx, interval time.Duration, onChange func(online bool)) *Monitor {
	return &Monitor{
		ctx:      ctx,
		interval: interval,
		onChange: onChange,
		doneCh:   make(chan struct{}),
	}
}

func (m *Monitor) probe() bool {
	err := client.GetHealth(m.ctx)
	if err != nil {
		log.Debug("health probe failed: %v\n", err)
	}

	return err == nil
}

// Run polls until Stop is called. It blocks. The first probe happens
// immediately so callers start from a fresh reading.
func (m *Monitor) Run() {
	online := m.probe()
	m.onChange(online)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.doneCh:
			return
		case <-ticker.C:
			cur := m.probe()
			if cur != online {
				online = cur
				m.onChange(online)
			}
		}
	}
}

// Stop terminates the Run loop
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.doneCh)
	})
}
