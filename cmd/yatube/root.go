package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"yatube/internal/config"
	"yatube/internal/logger"
	"yatube/internal/pagecache"
	"yatube/internal/store"
)

// app is the state shared by all subcommands, filled in before any of them run.
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "yatube",
		Short:        "Yatube blogging platform",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newGroupCmd(a),
		newUserCmd(a),
		newCacheCmd(a),
	)
	return root
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(a.cfg.Database, a.log)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// openCache builds the configured page cache. The returned func releases it.
func (a *app) openCache(ctx context.Context) (pagecache.Cache, func() error, error) {
	if a.cfg.Cache.Backend != "redis" {
		return pagecache.NewMemoryCache(nil), func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Cache.RedisAddr,
		Password: a.cfg.Cache.RedisPassword,
		DB:       a.cfg.Cache.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", a.cfg.Cache.RedisAddr, err)
	}
	a.log.WithField("addr", a.cfg.Cache.RedisAddr).Info("Using Redis page cache")
	return pagecache.NewRedisCache(client, a.cfg.Cache.Prefix), client.Close, nil
}
