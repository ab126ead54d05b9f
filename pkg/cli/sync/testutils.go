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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	stdsync "sync"
	"testing"

	"github.com/shoplist/shoplist/pkg/cli/client"
)

// serverRecord is a record held by the fake server. changedAt is the server
// clock at the last write and drives the query cursor, independently of the
// client-supplied updated_at used for conflict resolution.
type serverRecord struct {
	ID        string
	CreatedAt int64
	UpdatedAt int64
	Deleted   bool
	Fields    map[string]interface{}
	changedAt int64
}

// fakeServer is an in-memory implementation of the sync API for tests
type fakeServer struct {
	t *testing.T

	mu          stdsync.Mutex
	records     map[string]map[string]serverRecord
	idempotency map[string]string
	clock       int64
	nextID      int
	healthy     bool
	failStatus  int
	creates     int
	updates     int
	deletes     int

	server *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	s := &fakeServer{
		t:           t,
		records:     map[string]map[string]serverRecord{},
		idempotency: map[string]string{},
		clock:       1000,
		healthy:     true,
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)

	return s
}

func (s *fakeServer) URL() string {
	return s.server.URL
}

// setFailStatus makes every write respond with the given status code. Zero
// restores normal behavior.
func (s *fakeServer) setFailStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = code
}

func (s *fakeServer) setHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// seed places a record on the server directly, as if another device had
// pushed it
func (s *fakeServer) seed(table string, rec serverRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock++
	rec.changedAt = s.clock
	s.tableRecords(table)[rec.ID] = rec
}

// seedCreated places a record on the server as if the local client had pushed
// it under the given idempotency key but crashed before acknowledging the
// response
func (s *fakeServer) seedCreated(table, localID string, rec serverRecord) {
	s.seed(table, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[fmt.Sprintf("%s:%s", table, localID)] = rec.ID
}

// writeCalls returns how many create, update, and delete requests the server
// has served
func (s *fakeServer) writeCalls() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creates, s.updates, s.deletes
}

// get returns the server's copy of a record
func (s *fakeServer) get(table, id string) (serverRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tableRecords(table)[id]
	return rec, ok
}

func (s *fakeServer) tableRecords(table string) map[string]serverRecord {
	if s.records[table] == nil {
		s.records[table] = map[string]serverRecord{}
	}

	return s.records[table]
}

func toRemote(rec serverRecord) client.RemoteRecord {
	return client.RemoteRecord{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Deleted:   rec.Deleted,
		Fields:    rec.Fields,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}

func (s *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/"), "/")

	if parts[0] == "health" {
		if !s.healthy {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	table := parts[0]

	switch {
	case r.Method == "GET":
		s.handleQuery(w, r, table)
	case r.Method == "POST" && len(parts) == 1:
		s.handleCreate(w, r, table)
	case r.Method == "PATCH" && len(parts) == 2:
		s.handleUpdate(w, r, table, parts[1])
	case r.Method == "DELETE" && len(parts) == 2:
		s.handleDelete(w, r, table, parts[1])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *fakeServer) handleQuery(w http.ResponseWriter, r *http.Request, table string) {
	after, _ := strconv.ParseInt(r.URL.Query().Get("updated_after"), 10, 64)

	resp := client.QueryResp{ServerTime: s.clock}
	for _, rec := range s.tableRecords(table) {
		if rec.changedAt > after {
			resp.Records = append(resp.Records, toRemote(rec))
		}
	}

	writeJSON(w, resp)
}

func (s *fakeServer) handleCreate(w http.ResponseWriter, r *http.Request, table string) {
	s.creates++

	if s.failStatus != 0 {
		http.Error(w, "failing", s.failStatus)
		return
	}

	var payload client.RecordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	idempotencyKey := fmt.Sprintf("%s:%s", table, r.Header.Get("X-Idempotency-Key"))
	if id, ok := s.idempotency[idempotencyKey]; ok {
		writeJSON(w, client.CreateRecordResp{Record: toRemote(s.tableRecords(table)[id])})
		return
	}

	s.nextID++
	s.clock++
	rec := serverRecord{
		ID:        fmt.Sprintf("srv-%d", s.nextID),
		CreatedAt: payload.CreatedAt,
		UpdatedAt: payload.UpdatedAt,
		Fields:    payload.Fields,
		changedAt: s.clock,
	}
	s.tableRecords(table)[rec.ID] = rec
	s.idempotency[idempotencyKey] = rec.ID

	writeJSON(w, client.CreateRecordResp{Record: toRemote(rec)})
}

func (s *fakeServer) handleUpdate(w http.ResponseWriter, r *http.Request, table, id string) {
	s.updates++

	if s.failStatus != 0 {
		http.Error(w, "failing", s.failStatus)
		return
	}

	var payload client.RecordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, ok := s.tableRecords(table)[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	// last-writer-wins; a tie favors the writer
	if rec.UpdatedAt > payload.UpdatedAt {
		http.Error(w, "conflict", http.StatusConflict)
		return
	}

	s.clock++
	rec.UpdatedAt = payload.UpdatedAt
	rec.Fields = payload.Fields
	rec.Deleted = false
	rec.changedAt = s.clock
	s.tableRecords(table)[id] = rec

	writeJSON(w, client.UpdateRecordResp{Record: toRemote(rec)})
}

func (s *fakeServer) handleDelete(w http.ResponseWriter, r *http.Request, table, id string) {
	s.deletes++

	if s.failStatus != 0 {
		http.Error(w, "failing", s.failStatus)
		return
	}

	rec, ok := s.tableRecords(table)[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	deletedAt, _ := strconv.ParseInt(r.URL.Query().Get("deleted_at"), 10, 64)

	if rec.UpdatedAt > deletedAt {
		http.Error(w, "conflict", http.StatusConflict)
		return
	}

	s.clock++
	rec.Deleted = true
	rec.UpdatedAt = deletedAt
	rec.Fields = nil
	rec.changedAt = s.clock
	s.tableRecords(table)[id] = rec

	writeJSON(w, client.DeleteRecordResp{Status: 200})
}
