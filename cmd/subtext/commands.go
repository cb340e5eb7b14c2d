package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/subtext/internal/analysis"
	"github.com/kalambet/subtext/internal/api"
	"github.com/kalambet/subtext/internal/storage"
)

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a contract or terms-of-service document",
	Long: `Analyze a contract or terms-of-service document.

Examples:
  subtext analyze ./terms.pdf
  subtext analyze --url https://example.com/terms`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		if len(args) == 0 && url == "" {
			return fmt.Errorf("a PDF file path or --url is required")
		}
		if len(args) > 0 && url != "" {
			return fmt.Errorf("pass either a file path or --url, not both")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var resp *http.Response
		if url != "" {
			printStep("Fetching and analyzing %s...", url)
			resp, err = client.post(ctx, "/analyze/url", api.AnalyzeURLRequest{URL: url})
		} else {
			printStep("Analyzing %s...", args[0])
			resp, err = client.postFile(ctx, "/analyze", args[0])
		}
		if err != nil {
			return err
		}

		var result api.AnalyzeResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Indexed %d clauses from %s", result.Chunks, result.Source)
		printReport(cmd.OutOrStdout(), result.Report)
		printStatus("Report ID", "%s", result.ID)
		return nil
	},
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask a question about the analyzed document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/chat", api.ChatRequest{Query: question})
		if err != nil {
			return err
		}

		var result api.ChatResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Response)
		return nil
	},
}

// --- reports ---

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List recent analysis reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/reports?limit=%d", limit))
		if err != nil {
			return err
		}

		var result struct {
			Reports []storage.ReportRecord `json:"reports"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Reports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No reports yet.")
			return nil
		}

		w := cmd.OutOrStdout()
		for _, r := range result.Reports {
			score := colorize(scoreColor(r.RiskScore), fmt.Sprintf("%3d", r.RiskScore))
			fmt.Fprintf(w, "%s  %s  score %s  %d findings\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.ID, score, r.FindingCount)
			fmt.Fprintf(w, "    %s — %s\n", r.Source, firstLine(r.Summary))
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/reports/"+args[0])
		if err != nil {
			return err
		}

		var result struct {
			ID     string          `json:"id"`
			Source string          `json:"source"`
			Report analysis.Report `json:"report"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStatus("Source", "%s", result.Source)
		printReport(cmd.OutOrStdout(), result.Report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("url", "", "URL of a terms page to fetch and analyze")
	reportsCmd.Flags().Int("limit", 20, "maximum number of reports to list")
	reportsCmd.AddCommand(reportShowCmd)
}

// printReport renders an analysis report for the terminal.
func printReport(w io.Writer, report analysis.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, colorize(colorBold, "Summary"))
	fmt.Fprintln(w, report.Summary)
	fmt.Fprintln(w)

	if len(report.RedFlags) > 0 {
		fmt.Fprintln(w, colorize(colorBold, "Red flags"))
		for _, f := range report.RedFlags {
			level := colorize(riskColor(f.RiskLevel), string(f.RiskLevel))
			page := ""
			if f.PageNumber != nil {
				page = fmt.Sprintf(" (page %d)", *f.PageNumber)
			}
			fmt.Fprintf(w, "  [%s] %s%s: %s\n", level, f.Category, page, f.Description)
			if f.Quote != "" {
				fmt.Fprintf(w, "      %q\n", f.Quote)
			}
		}
		fmt.Fprintln(w)
	}

	score := colorize(scoreColor(report.OverallRiskScore), fmt.Sprintf("%d/100", report.OverallRiskScore))
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Risk score:"), score)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 80
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
