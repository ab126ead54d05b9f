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

package database

import "fmt"

// IDKind tags an identifier as client-generated or server-assigned.
// The tag travels with the id instead of being encoded in the id string,
// so no code ever needs to match on a string prefix.
type IDKind string

var (
	// IDLocal marks a client-generated identifier that the server has not seen
	IDLocal IDKind = "local"
	// IDRemote marks a server-assigned identifier
	IDRemote IDKind = "remote"
)

// ID is a tagged record identifier
type ID struct {
	Value string
	Kind  IDKind
}

// LocalID returns a local id with the given value
func LocalID(value string) ID {
	return ID{Value: value, Kind: IDLocal}
}

// RemoteID returns a remote id with the given value
func RemoteID(value string) ID {
	return ID{Value: value, Kind: IDRemote}
}

// IsLocal returns true if the id has not been replaced by a server-assigned one
func (id ID) IsLocal() bool {
	return id.Kind == IDLocal
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%s", id.Kind, id.Value)
}
