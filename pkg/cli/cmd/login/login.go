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

package login

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/infra"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/shoplist/shoplist/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  shoplist login`

var apiEndpointFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.ShoplistCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// getServerDisplayURL derives a user-facing URL of the server from the
// configured API endpoint
func getServerDisplayURL(ctx context.ShoplistCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// Do dispatches a signin request and persists the resulting session. Records
// created before the first login carry no owner and are claimed for the
// signed-in user so that they become part of the sync set.
func Do(ctx context.ShoplistCtx, email, password string) error {
	resp, err := client.Signin(ctx, email, password)
	if err != nil {
		return errors.Wrap(err, "requesting signin")
	}

	err = ctx.DB.InTransaction(func(tx *sql.Tx) error {
		if err := database.UpsertSystem(tx, consts.SystemSessionKey, resp.Key); err != nil {
			return errors.Wrap(err, "saving session key")
		}
		if err := database.UpsertSystem(tx, consts.SystemSessionKeyExpiry, resp.ExpiresAt); err != nil {
			return errors.Wrap(err, "saving session key expiry")
		}
		if err := database.UpsertSystem(tx, consts.SystemOwnerID, resp.UserUUID); err != nil {
			return errors.Wrap(err, "saving owner id")
		}
		if err := database.ClaimOwnerless(tx, resp.UserUUID); err != nil {
			return errors.Wrap(err, "claiming ownerless records")
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func newRun(ctx context.ShoplistCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		if displayURL := getServerDisplayURL(ctx); displayURL != "" {
			log.Infof("logging in to %s\n", displayURL)
		}

		var email, password string
		if err := ui.PromptInput("email", &email); err != nil {
			return errors.Wrap(err, "getting email input")
		}
		if email == "" {
			return errors.New("Email is empty")
		}

		if err := ui.PromptPassword("password", &password); err != nil {
			return errors.Wrap(err, "getting password input")
		}
		if password == "" {
			return errors.New("Password is empty")
		}

		err := Do(ctx, email, password)
		if errors.Cause(err) == client.ErrInvalidLogin {
			log.Error("wrong login\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Success("logged in\n")

		return nil
	}
}
