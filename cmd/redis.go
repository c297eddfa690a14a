package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"opentrends/internal/config"
	"opentrends/internal/model"
	"opentrends/internal/redisclient"
	"opentrends/internal/storage"

	"github.com/spf13/cobra"
)

// redisCmd groups Redis-related subcommands.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis snapshot backend utilities",
}

// pingCmd pings the configured Redis server.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print PONG",
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb := redisclient.New(GetConfig().Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

// snapshotsCmd shows what the Redis backend holds for each mode.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots per mode and slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb, config.Duration(cfg.Snapshots.RedisTTL))

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODE\tSLOT\tTAKEN\tITEMS\tAGE")
		for _, m := range model.Modes() {
			for _, slot := range []storage.Slot{storage.Current, storage.Previous} {
				snap, err := store.Get(ctx, storage.Key{Mode: m, Slot: slot})
				switch {
				case err != nil:
					fmt.Fprintf(tw, "%s\t%s\tunreadable: %v\t\t\n", m, slot, err)
				case snap == nil:
					fmt.Fprintf(tw, "%s\t%s\t-\t\t\n", m, slot)
				default:
					age := time.Since(snap.Timestamp).Round(time.Minute)
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m, slot, snap.Timestamp.Local().Format("2006-01-02 15:04"), len(snap.Items), age)
				}
			}
		}
		return tw.Flush()
	},
}

func init() {
	redisCmd.AddCommand(pingCmd, snapshotsCmd)
	rootCmd.AddCommand(redisCmd)
}
