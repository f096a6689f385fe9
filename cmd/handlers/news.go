package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"marketpulse/internal/core"

	"github.com/spf13/cobra"
)

// NewNewsCmd creates the news command
func NewNewsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "news <company>",
		Short: "List recent news links for a company",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			discoverer, err := newDiscoverer(cfg.Search, cfg.Fetch)
			if err != nil {
				return err
			}

			company := strings.Join(args, " ")
			links := discoverer.DiscoverLinks(cmd.Context(), company)
			return writeLinks(os.Stdout, links, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

// writeLinks prints links as a numbered list or as {"news_links": [...]}
func writeLinks(w io.Writer, links []core.ArticleLink, format string) error {
	if links == nil {
		links = []core.ArticleLink{}
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]core.ArticleLink{"news_links": links})
	}

	if len(links) == 0 {
		fmt.Fprintln(w, "No news links found")
		return nil
	}
	for i, link := range links {
		fmt.Fprintf(w, "%2d. %s\n    %s\n", i+1, link.Title, link.URL)
	}
	return nil
}
