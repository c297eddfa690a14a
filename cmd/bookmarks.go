package cmd

import (
	"fmt"
	"text/tabwriter"

	"opentrends/internal/bookmarks"

	"github.com/spf13/cobra"
)

var bookmarkNotes string

// bookmarksCmd groups saved-idea subcommands.
var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"saved"},
	Short:   "Manage saved ideas",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved ideas, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()
		bs, err := a.openBookmarks()
		if err != nil {
			return err
		}
		list, err := bs.List(cmd.Context(), a.prefs.UserID)
		if err != nil {
			return retryable(err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tITEM\tSAVED\tNOTES")
		for _, b := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.ItemName, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Notes)
		}
		return tw.Flush()
	},
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <item-id>",
	Short: "Save a listed product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()
		item, err := lookupItem(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		bs, err := a.openBookmarks()
		if err != nil {
			return err
		}
		b, err := bs.Insert(cmd.Context(), bookmarks.NewBookmark{
			UserID:        a.prefs.UserID,
			CatalogItemID: item.ID,
			ItemName:      item.Name,
			ItemPayload:   item,
			Notes:         bookmarkNotes,
		})
		if err != nil {
			return retryable(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s as %s\n", item.Name, b.ID)
		return nil
	},
}

var bookmarksDeleteCmd = &cobra.Command{
	Use:   "delete <bookmark-id>",
	Short: "Remove a saved idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()
		bs, err := a.openBookmarks()
		if err != nil {
			return err
		}
		if err := bs.Delete(cmd.Context(), args[0]); err != nil {
			return retryable(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
		return nil
	},
}

func retryable(err error) error {
	return fmt.Errorf("%w (nothing was changed; try again)", err)
}

func init() {
	bookmarksAddCmd.Flags().StringVar(&bookmarkNotes, "notes", "", "free-form notes")
	bookmarksCmd.AddCommand(bookmarksListCmd, bookmarksAddCmd, bookmarksDeleteCmd)
	rootCmd.AddCommand(bookmarksCmd)
}
