package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"marketpulse/internal/core"
	"marketpulse/internal/fetch"
	"marketpulse/internal/pipeline"

	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var (
		linksFile string
		format    string
		o         overrides
	)

	cmd := &cobra.Command{
		Use:   "analyze [company]",
		Short: "Summarize and score news articles",
		Long: `Analyze news articles for a company. Links are discovered through the
configured search provider, or read from a file with --links (JSON
{"news_links": [...]}, a JSON array, or text/markdown containing URLs).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if linksFile == "" && len(args) == 0 {
				return fmt.Errorf("provide a company name or --links file")
			}
			if format != "json" && format != "text" {
				return fmt.Errorf("unsupported format %q (json or text)", format)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, o)
			if err != nil {
				return err
			}
			defer a.Close()

			var links []core.ArticleLink
			if linksFile != "" {
				links, err = fetch.ReadLinksFromFile(linksFile)
				if err != nil {
					return err
				}
			} else {
				links = a.discoverer.DiscoverLinks(cmd.Context(), strings.Join(args, " "))
			}
			if len(links) == 0 {
				return fmt.Errorf("no news links to analyze")
			}

			report, err := a.pipeline.ProcessReport(cmd.Context(), links)
			if err != nil {
				return err
			}
			return writeReport(os.Stdout, report, format)
		},
	}

	cmd.Flags().StringVar(&linksFile, "links", "", "Read links from a file instead of searching")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or text")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Concurrent article workers (default from config)")
	cmd.Flags().IntVar(&o.required, "required", 0, "Maximum articles in the result (default from config)")
	cmd.Flags().BoolVar(&o.noAudio, "no-audio", false, "Skip translated audio")

	return cmd
}

// writeReport prints the ResultSet as JSON, or a readable report with
// failures and batch stats
func writeReport(w io.Writer, report *pipeline.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report.Results)
	}

	titles := make([]string, 0, len(report.Results))
	for title := range report.Results {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	for _, title := range titles {
		r := report.Results[title]
		fmt.Fprintf(w, "## %s\n", title)
		fmt.Fprintf(w, "URL:       %s\n", r.URL)
		fmt.Fprintf(w, "Sentiment: %s\n", r.Sentiment)
		fmt.Fprintf(w, "Topics:    %s\n", strings.Join(r.Topics, ", "))
		if r.Audio != nil {
			fmt.Fprintf(w, "Audio:     %s\n", *r.Audio)
		}
		fmt.Fprintf(w, "\nSummary:\n%s\n\n%s\n\n", r.Summary, r.Analysis)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "Skipped %d article(s):\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  - [%s] %s (%s)\n", f.Kind, f.Title, f.URL)
		}
		fmt.Fprintln(w)
	}

	if len(report.Degraded) > 0 {
		fmt.Fprintf(w, "Degraded %d step(s):\n", len(report.Degraded))
		for _, d := range report.Degraded {
			fmt.Fprintf(w, "  - [%s] %s: %v\n", d.Kind, d.Title, d.Err)
		}
		fmt.Fprintln(w)
	}

	s := report.Stats
	fmt.Fprintf(w, "Dispatched %d, succeeded %d, dropped %d, kept %d, degraded %d, cache hits %d in %s\n",
		s.Dispatched, s.Succeeded, s.Dropped, s.Kept, s.Degraded, s.CacheHits, s.Elapsed.Round(time.Millisecond))
	return nil
}
