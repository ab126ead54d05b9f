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

// Package upgrade provides a way to check for update of shoplist
package upgrade

import (
	stdctx "context"
	"strconv"
	"strings"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/log"
)

// upgradeInterval is the minimum interval between upgrade checks, in seconds
var upgradeInterval int64 = 86400 * 7

const (
	repoOwner = "shoplist"
	repoName  = "shoplist"
)

// getLatestVersion fetches the latest release tag from GitHub
func getLatestVersion() (string, error) {
	client := github.NewClient(nil)

	release, _, err := client.Repositories.GetLatestRelease(stdctx.Background(), repoOwner, repoName)
	if err != nil {
		return "", errors.Wrap(err, "fetching the latest release")
	}

	tag := release.GetTagName()
	if tag == "" {
		return "", errors.New("release has no tag")
	}

	return strings.TrimPrefix(tag, "v"), nil
}

func shouldCheckUpdate(ctx context.ShoplistCtx) (bool, error) {
	if !ctx.EnableUpgradeCheck {
		return false, nil
	}

	var lastUpgradeStr string
	if err := database.GetSystem(ctx.DB, consts.SystemLastUpgrade, &lastUpgradeStr); err != nil {
		return false, errors.Wrap(err, "getting last upgrade time")
	}

	lastUpgrade, err := strconv.ParseInt(lastUpgradeStr, 10, 64)
	if err != nil {
		return false, errors.Wrap(err, "parsing last upgrade time")
	}

	now := ctx.Clock.Now().Unix()

	return now-lastUpgrade > upgradeInterval, nil
}

func touchLastUpgrade(ctx context.ShoplistCtx) error {
	nowStr := strconv.FormatInt(ctx.Clock.Now().Unix(), 10)
	if err := database.UpsertSystem(ctx.DB, consts.SystemLastUpgrade, nowStr); err != nil {
		return errors.Wrap(err, "updating last upgrade time")
	}

	return nil
}

// Check checks if a new version of shoplist was released, and if so, notifies
// the user. Checks are throttled to once per interval.
func Check(ctx context.ShoplistCtx) error {
	ok, err := shouldCheckUpdate(ctx)
	if err != nil {
		return errors.Wrap(err, "checking if upgrade check should happen")
	}
	if !ok {
		return nil
	}

	latest, err := getLatestVersion()
	if err != nil {
		return errors.Wrap(err, "getting the latest version")
	}

	if err := touchLastUpgrade(ctx); err != nil {
		return errors.Wrap(err, "recording the check")
	}

	current := strings.TrimPrefix(ctx.Version, "v")
	if current == latest || current == "master" {
		log.Infof("you are up-to-date (%s)\n", ctx.Version)
		return nil
	}

	log.Infof("a newer version %s is available. You are on %s.\n", latest, current)
	log.Plainf("to upgrade, see https://github.com/%s/%s/releases\n", repoOwner, repoName)

	return nil
}
