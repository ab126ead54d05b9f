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

	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/log"
)

// State is the lifecycle state of the orchestrator
type State int

const (
	// StateIdle means the orchestrator is online and waiting for work
	StateIdle State = iota
	// StateSyncing means a sync cycle is running
	StateSyncing
	// StateOffline means the server is unreachable; sync requests queue up
	// until connectivity returns
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateOffline:
		return "offline"
	}

	return "unknown"
}

// Status is a snapshot of the orchestrator for display
type Status struct {
	State      State
	Online     bool
	LastSyncAt int64
	LastError  string
}

// Orchestrator serializes sync cycles and reacts to connectivity changes. At
// most one cycle runs at a time; requests made while one is pending coalesce.
type Orchestrator struct {
	ctx context.ShoplistCtx

	mu          stdsync.Mutex
	syncing     bool
	online      bool
	pending     bool
	pendingFull bool
	lastSyncAt  int64
	lastErr     error

	triggerCh chan struct{}
	doneCh    chan struct{}
	stopOnce  stdsync.Once

	// Notify, if set, is called with a status snapshot after every state
	// change. It runs on the orchestrator's goroutine and must not block.
	Notify func(Status)
}

// NewOrchestrator creates an orchestrator. It assumes connectivity until the
// monitor reports otherwise.
func NewOrchestrator(ctx context.ShoplistCtx) *Orchestrator {
	return &Orchestrator{
		ctx:       ctx,
		online:    true,
		triggerCh: make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
	}
}

// Trigger requests a sync cycle. Requests coalesce while a cycle is already
// pending; a full request is never downgraded by a later incremental one.
func (o *Orchestrator) Trigger(full bool) {
	o.mu.Lock()
	o.pending = true
	o.pendingFull = o.pendingFull || full
	o.mu.Unlock()

	select {
	case o.triggerCh <- struct{}{}:
	default:
	}
}

// SetOnline records a connectivity change. Coming back online runs any sync
// request that queued up while offline.
func (o *Orchestrator) SetOnline(online bool) {
	o.mu.Lock()
	wasOnline := o.online
	o.online = online
	hasPending := o.pending
	o.mu.Unlock()

	if online && !wasOnline {
		log.Debug("connectivity restored\n")

		if hasPending {
			select {
			case o.triggerCh <- struct{}{}:
			default:
			}
		}
	}

	if online != wasOnline {
		o.notify()
	}
}

// Status returns a snapshot of the orchestrator
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := StateIdle
	if o.syncing {
		state = StateSyncing
	} else if !o.online {
		state = StateOffline
	}

	ret := Status{
		State:      state,
		Online:     o.online,
		LastSyncAt: o.lastSyncAt,
	}
	if o.lastErr != nil {
		ret.LastError = o.lastErr.Error()
	}

	return ret
}

func (o *Orchestrator) notify() {
	if o.Notify != nil {
		o.Notify(o.Status())
	}
}

// Run processes sync requests until Stop is called. It blocks.
func (o *Orchestrator) Run() {
	for {
		select {
		case <-o.doneCh:
			return
		case <-o.triggerCh:
			o.runCycle()
		}
	}
}

// Stop terminates the Run loop. A cycle in progress finishes first.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.doneCh)
	})
}

func (o *Orchestrator) runCycle() {
	o.mu.Lock()
	if !o.online {
		// leave the request queued; SetOnline reruns it
		o.mu.Unlock()
		return
	}
	full := o.pendingFull
	o.pending = false
	o.pendingFull = false
	o.syncing = true
	o.mu.Unlock()
	o.notify()

	stats, err := Run(o.ctx, full)

	o.mu.Lock()
	o.syncing = false
	o.lastErr = err
	if err == nil {
		o.lastSyncAt = o.ctx.Clock.Now().UnixMilli()
	} else if client.IsTransientError(err) {
		// the server is unreachable; go offline right away instead of
		// waiting for the connectivity monitor to probe. The request stays
		// pending so SetOnline resumes it.
		o.online = false
		o.pending = true
		o.pendingFull = o.pendingFull || full
	}
	o.mu.Unlock()

	if err != nil {
		log.Debug("sync cycle failed: %v\n", err)
	} else {
		log.Debug("sync cycle done. pushed %d, pulled %d, errors %d\n", stats.Pushed, stats.Pulled, stats.Errors)
	}

	o.notify()
}
