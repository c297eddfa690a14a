package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"opentrends/internal/apperr"
	"opentrends/internal/model"
	"opentrends/internal/selector"

	"github.com/spf13/cobra"
)

var (
	trendsMode  string
	trendsLimit int
	trendsJSON  bool
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Print the ranked listing for a mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := model.ParseMode(trendsMode)
		if err != nil {
			return err
		}
		a, err := newApp(GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		view, err := a.selector.Select(ctx, mode)
		if err != nil {
			return withHint(err)
		}
		if trendsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		printView(cmd.OutOrStdout(), view, trendsLimit)
		return nil
	},
}

var refreshMode string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch a fresh listing now and rotate snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		modes := model.Modes()
		if refreshMode != "" {
			m, err := model.ParseMode(refreshMode)
			if err != nil {
				return err
			}
			modes = []model.Mode{m}
		}
		a, err := newApp(GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		for _, m := range modes {
			res, err := a.policy.Refresh(cmd.Context(), m, time.Now())
			if err != nil {
				return withHint(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d items, previous snapshot: %v\n", m, res.Source, len(res.Items), res.Previous != nil)
		}
		return nil
	},
}

func printView(w io.Writer, v selector.View, limit int) {
	fmt.Fprintf(w, "%s (%s, %s)\n", v.Mode, v.Source, v.Timestamp.Local().Format("2006-01-02 15:04"))
	if v.Notice != "" {
		fmt.Fprintf(w, "! %s\n", v.Notice)
	}
	for i, it := range v.Items {
		if limit > 0 && i >= limit {
			break
		}
		line := fmt.Sprintf("%2d. %-32s %6d votes", i+1, it.Item.Name, it.Item.VotesCount)
		if it.HasHistory {
			line += fmt.Sprintf("  %+5d  %7.1f/h", it.DeltaVotes, it.VotesPerHour)
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, it.Item.ID)
	}
}

// withHint appends the remediation hint of a configuration error.
func withHint(err error) error {
	if h := apperr.HintOf(err); h != "" {
		return fmt.Errorf("%w\n%s", err, h)
	}
	return err
}

func init() {
	trendsCmd.Flags().StringVarP(&trendsMode, "mode", "m", "most_voted", "ranking mode: most_voted, vote_growth or vote_velocity")
	trendsCmd.Flags().IntVarP(&trendsLimit, "limit", "n", 0, "print at most n items (0 = all)")
	trendsCmd.Flags().BoolVar(&trendsJSON, "json", false, "print the view as JSON")
	refreshCmd.Flags().StringVarP(&refreshMode, "mode", "m", "", "refresh only this mode")
	rootCmd.AddCommand(trendsCmd, refreshCmd)
}
