package cmd

import (
	"context"
	"fmt"
	"time"

	"opentrends/internal/adaptation"
	"opentrends/internal/model"

	"github.com/spf13/cobra"
)

var translateLanguage string

var adaptCmd = &cobra.Command{
	Use:   "adapt <item-id>",
	Short: "Suggest how to adapt a listed product to the Brazilian market",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runGeneration(cmd.Context(), adaptation.KindAdaptation, args[0], "")
		if err != nil {
			return err
		}
		if res.Notice != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Notice)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate <item-id>",
	Short: "Translate a listed product's name, tagline and description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runGeneration(cmd.Context(), adaptation.KindTranslation, args[0], translateLanguage)
		if err != nil {
			return err
		}
		if res.Notice != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Notice)
		}
		if tr := res.Translation; tr != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n\n%s\n", tr.Name, tr.Tagline, tr.Description)
		}
		return nil
	},
}

func runGeneration(ctx context.Context, kind adaptation.Kind, id, language string) (adaptation.Result, error) {
	a, err := newApp(GetConfig())
	if err != nil {
		return adaptation.Result{}, err
	}
	defer a.Close()

	item, err := lookupItem(ctx, a, id)
	if err != nil {
		return adaptation.Result{}, err
	}
	if language == "" {
		language = a.prefs.Language
	}
	a.registry.Trigger(adaptation.Request{Kind: kind, Item: item, Language: language})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()
	return a.registry.Wait(ctx, kind, id)
}

// lookupItem searches the shown view, then every mode's stored current
// snapshot for id, without fetching.
func lookupItem(ctx context.Context, a *app, id string) (model.Item, error) {
	if v, ok := a.selector.Current(); ok {
		for _, it := range v.Items {
			if it.Item.ID == id {
				return it.Item, nil
			}
		}
	}
	for _, m := range model.Modes() {
		cur := a.history.Load(ctx, m).Current
		if cur == nil {
			continue
		}
		for _, it := range cur.Items {
			if it.ID == id {
				return it, nil
			}
		}
	}
	return model.Item{}, fmt.Errorf("item %s is not in any stored ranking, run `opentrends trends` first", id)
}

func init() {
	translateCmd.Flags().StringVarP(&translateLanguage, "language", "l", "", "target language (default from prefs, Portuguese)")
	rootCmd.AddCommand(adaptCmd, translateCmd)
}
