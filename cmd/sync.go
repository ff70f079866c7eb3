package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"unifm/cache"
	"unifm/config"
	"unifm/core/library"
	"unifm/core/netease"
	"unifm/core/session"
	"unifm/db"
	"unifm/logger"
	"unifm/repository"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full library sync and exit",
	Long:  `Fetches the provider playlist listing, mirrors every playlist's tracks and rebuilds the unified catalog, then prints a summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
		})

		if err := db.ConnectDB(cfg); err != nil {
			return err
		}
		defer db.CloseDB()
		if err := db.InitDB(); err != nil {
			return err
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()
		if err := db.MigrateMirrorTables(); err != nil {
			return err
		}
		if err := cache.ConnectRedis(cfg); err != nil {
			return err
		}
		defer cache.CloseRedis()

		sess := session.NewStore(session.NewRedisKV(cache.RedisClient))
		if err := sess.Load(cmd.Context()); err != nil {
			return err
		}

		provider := netease.NewClient(cfg.NeteaseAPIURL, cfg.NeteaseQuality, cfg.NeteaseRatePerSec, sess)
		syncer := library.NewSyncer(provider,
			repository.NewMirrorRepository(db.GormDB),
			repository.NewMySQLCatalogRepository(db.DB),
			sess, cfg.NeteaseUID)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		summary, err := syncer.SyncAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
			return err
		}

		fmt.Printf("batch %s: %d playlists, %d songs, %d failed (%s)\n",
			summary.BatchID, summary.Playlists, summary.Songs, summary.Failed,
			summary.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
