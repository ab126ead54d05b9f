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

// Package infra provides operations and definitions for the
// local infrastructure for Shoplist
package infra

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shoplist/shoplist/pkg/cli/client"
	"github.com/shoplist/shoplist/pkg/cli/config"
	"github.com/shoplist/shoplist/pkg/cli/consts"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/database"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"github.com/shoplist/shoplist/pkg/cli/utils"
	"github.com/shoplist/shoplist/pkg/clock"
	"github.com/shoplist/shoplist/pkg/dirs"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
	// DefaultSyncIntervalMin is the default background sync interval in minutes
	DefaultSyncIntervalMin = 15
)

// RunEFunc is a function type of shoplist commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.ShoplistDirName, consts.ShoplistDBFileName)
}

// loadEnv loads environment overrides from a .env file in the config
// directory, if one exists. Values already present in the environment win.
func loadEnv(paths context.Paths) error {
	envPath := fmt.Sprintf("%s/%s/.env", paths.Config, consts.ShoplistDirName)

	ok, err := utils.FileExists(envPath)
	if err != nil {
		return errors.Wrap(err, "checking env file")
	}
	if !ok {
		return nil
	}

	if err := godotenv.Load(envPath); err != nil {
		return errors.Wrap(err, "loading env file")
	}

	log.Debug("loaded env file at %s\n", envPath)

	return nil
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.ShoplistCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitShoplistDirs(paths); err != nil {
		return context.ShoplistCtx{}, errors.Wrap(err, "creating the shoplist dirs")
	}

	dbPath := getDBPath(paths, customDBPath)

	db, err := database.Open(dbPath)
	if err != nil {
		return context.ShoplistCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.ShoplistCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the Shoplist environment and returns a new shoplist context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.ShoplistCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := loadEnv(ctx.Paths); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := database.Migrate(ctx.DB); err != nil {
		return nil, errors.Wrap(err, "migrating the database")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.ShoplistCtx) (context.ShoplistCtx, error) {
	db := ctx.DB

	var sessionKey string
	var sessionKeyExpiry int64
	var ownerID string

	err := database.GetSystem(db, consts.SystemSessionKey, &sessionKey)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding session key")
	}
	err = database.GetSystem(db, consts.SystemSessionKeyExpiry, &sessionKeyExpiry)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding session key expiry")
	}
	err = database.GetSystem(db, consts.SystemOwnerID, &ownerID)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding owner id")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	syncInterval := cf.SyncIntervalMin
	if syncInterval <= 0 {
		syncInterval = DefaultSyncIntervalMin
	}

	ret := context.ShoplistCtx{
		Paths:              ctx.Paths,
		Version:            ctx.Version,
		DB:                 ctx.DB,
		SessionKey:         sessionKey,
		SessionKeyExpiry:   sessionKeyExpiry,
		OwnerID:            ownerID,
		APIEndpoint:        cf.APIEndpoint,
		SyncInterval:       int64(syncInterval),
		Clock:              clock.New(),
		EnableUpgradeCheck: cf.EnableUpgradeCheck,
		HTTPClient:         client.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

func initSystemKV(db database.Queryable, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.ShoplistCtx) error {
	log.Debug("initializing the system\n")

	return ctx.DB.InTransaction(func(tx *sql.Tx) error {
		nowStr := strconv.FormatInt(time.Now().Unix(), 10)
		if err := initSystemKV(tx, consts.SystemLastUpgrade, nowStr); err != nil {
			return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastUpgrade)
		}
		if err := initSystemKV(tx, consts.SystemLastSyncAt, "0"); err != nil {
			return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastSyncAt)
		}

		return nil
	})
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.ShoplistCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint:        endpoint,
		SyncIntervalMin:    DefaultSyncIntervalMin,
		EnableUpgradeCheck: true,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
