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

package validate

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shoplist/shoplist/pkg/cli/utils"
)

// ErrListNameEmpty is an error for an empty list name
var ErrListNameEmpty = errors.New("The list name is empty")

// ErrListNameNumeric is an error for a list name that only contains numbers
var ErrListNameNumeric = errors.New("The list name cannot contain only numbers")

// ErrListNameMultiline is an error for a list name that has linebreaks
var ErrListNameMultiline = errors.New("The list name contains multiple lines")

// ErrItemNameEmpty is an error for an empty item name
var ErrItemNameEmpty = errors.New("The item name is empty")

// ErrItemNameMultiline is an error for an item name that has linebreaks
var ErrItemNameMultiline = errors.New("The item name contains multiple lines")

// ErrQuantityNotPositive is an error for a zero or negative item quantity
var ErrQuantityNotPositive = errors.New("The quantity must be positive")

// ListName validates a shopping list name
func ListName(name string) error {
	if name == "" {
		return ErrListNameEmpty
	}

	if utils.IsNumber(name) {
		return ErrListNameNumeric
	}

	if strings.Contains(name, "\n") || strings.Contains(name, "\r\n") {
		return ErrListNameMultiline
	}

	return nil
}

// ItemName validates a list item name
func ItemName(name string) error {
	if name == "" {
		return ErrItemNameEmpty
	}

	if strings.Contains(name, "\n") || strings.Contains(name, "\r\n") {
		return ErrItemNameMultiline
	}

	return nil
}

// Quantity validates an item quantity
func Quantity(qty float64) error {
	if qty <= 0 {
		return ErrQuantityNotPositive
	}

	return nil
}
