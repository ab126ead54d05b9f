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
	"testing"
	"time"
)

func waitForOnline(t *testing.T, ch <-chan bool, want bool) {
	timeout := time.After(5 * time.Second)

	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for online=%v", want)
		}
	}
}

func TestMonitorReportsTransitions(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)

	ch := make(chan bool, 16)
	m := NewMonitor(ctx, 10*time.Millisecond, func(online bool) { ch <- online })

	go m.Run()
	defer m.Stop()

	// initial reading
	waitForOnline(t, ch, true)

	srv.setHealthy(false)
	waitForOnline(t, ch, false)

	srv.setHealthy(true)
	waitForOnline(t, ch, true)
}

func TestMonitorInitialReadingOffline(t *testing.T) {
	srv := newFakeServer(t)
	ctx := newTestCtx(t, srv)
	srv.setHealthy(false)

	ch := make(chan bool, 16)
	m := NewMonitor(ctx, 10*time.Millisecond, func(online bool) { ch <- online })

	go m.Run()
	defer m.Stop()

	waitForOnline(t, ch, false)
}
