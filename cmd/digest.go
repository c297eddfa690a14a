package cmd

import (
	"fmt"
	"sort"

	"opentrends/internal/digest"
	"opentrends/internal/model"
	"opentrends/worker"

	"github.com/spf13/cobra"
)

var digestMode string

// digestCmd groups Markdown digest subcommands.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Markdown digests of the rankings",
}

var digestWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write today's digest into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		modes := digestModes(cfg)
		if digestMode != "" {
			m, err := model.ParseMode(digestMode)
			if err != nil {
				return err
			}
			modes = []model.Mode{m}
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		w := &worker.DigestWriter{
			Policy:    a.policy,
			OutputDir: cfg.Digest.OutputDir,
			Title:     cfg.Digest.Title,
			TopN:      cfg.Digest.TopN,
		}
		for _, m := range modes {
			path, written, err := w.WriteMode(cmd.Context(), m)
			if err != nil {
				return withHint(err)
			}
			if written {
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", path)
			}
		}
		return nil
	},
}

var digestInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Parse a digest file and print its frontmatter and body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := digest.ParseFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Frontmatter:")
		keys := make([]string, 0, len(doc.Frontmatter))
		for k := range doc.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %v\n", k, doc.Frontmatter[k])
		}
		fmt.Fprintln(out, "\nBody:")
		fmt.Fprintln(out, doc.Body)
		return nil
	},
}

func init() {
	digestWriteCmd.Flags().StringVarP(&digestMode, "mode", "m", "", "write only this mode (default: digest.modes)")
	digestCmd.AddCommand(digestWriteCmd, digestInspectCmd)
	rootCmd.AddCommand(digestCmd)
}
