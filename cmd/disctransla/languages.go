package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
)

func newLanguagesCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			languages := catalog.New()

			entries := languages.Entries()
			if page > 0 {
				var pages int
				entries, pages = languages.Page(page, catalog.DefaultPageSize)
				if page > pages {
					page = pages
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d/%d\n", page, pages)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\n", e.Code, e.Name)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total supported languages: %d\n", languages.Len())
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "show one page of 15 entries (default: all)")

	return cmd
}
