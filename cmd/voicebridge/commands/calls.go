package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/attainly/voicebridge/pkg/callstore"
)

var (
	flagUser  string
	flagLimit int
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect stored call records",
}

var callsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List a user's recent calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *callstore.Store) error {
			recs, err := store.RecentHistory(ctx, flagUser, flagLimit)
			if err != nil {
				return err
			}
			return printYAML(recs)
		})
	},
}

var callsEffectivenessCmd = &cobra.Command{
	Use:   "effectiveness",
	Short: "Aggregate call outcomes per call type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *callstore.Store) error {
			metrics, err := store.Effectiveness(ctx, flagUser)
			if err != nil {
				return err
			}
			return printYAML(metrics)
		})
	},
}

var callsFollowupCmd = &cobra.Command{
	Use:   "followup",
	Short: "List completed calls flagged as needing follow-up",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *callstore.Store) error {
			recs, err := store.NeedingFollowUp(ctx, flagUser)
			if err != nil {
				return err
			}
			return printYAML(recs)
		})
	},
}

func init() {
	callsCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id (required)")
	callsRecentCmd.Flags().IntVar(&flagLimit, "limit", 20, "maximum records to list")
	callsCmd.AddCommand(callsRecentCmd)
	callsCmd.AddCommand(callsEffectivenessCmd)
	callsCmd.AddCommand(callsFollowupCmd)
}

func withStore(fn func(context.Context, *callstore.Store) error) error {
	if flagUser == "" {
		return errors.New("--user is required")
	}
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	store, err := callstore.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open call store: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), store)
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
