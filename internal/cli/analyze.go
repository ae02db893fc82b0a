package cli

import (
	"time"

	"nexus/internal/core"
	"nexus/internal/validate"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	domain      string
	competitors []string
	company     string
	purpose     string
	region      string
	info        string
	format      string
	stream      bool
}

// request applies the competitor input policy and reports every refused name.
func (o *analyzeOptions) request(warn func(name string, err error)) core.AnalysisRequest {
	var list validate.CompetitorList
	for _, name := range o.competitors {
		if err := list.Add(name); err != nil {
			warn(name, err)
		}
	}
	return core.AnalysisRequest{
		Domain:         o.domain,
		Competitors:    list.Names(),
		Company:        o.company,
		Purpose:        o.purpose,
		Region:         o.region,
		AdditionalInfo: o.info,
		ReportFormat:   o.format,
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a competitive analysis with the active model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			req := opts.request(func(name string, err error) {
				printf(cmd.ErrOrStderr(), "忽略竞品 %q: %v\n", name, err)
			})
			if err := validate.ValidateAnalysisRequest(&req); err != nil {
				return err
			}

			if opts.stream {
				reportID, err := a.client.StreamAnalysis(cmd.Context(), req, func(chunk string) error {
					printf(out, "%s", chunk)
					return nil
				})
				if err != nil {
					return err
				}
				printf(out, "\n\n报告已保存: %s\n", reportID)
				return nil
			}

			report, err := a.client.StartAnalysis(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := renderMarkdown(out, report.Content); err != nil {
				return err
			}
			elapsed := time.Duration(report.AnalysisTime) * time.Millisecond
			printf(out, "\n报告已保存: %s (耗时 %.1f 秒)\n", report.ID, elapsed.Seconds())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.domain, "domain", "", "analysis domain: finance, healthcare, education, legal")
	f.StringArrayVar(&opts.competitors, "competitor", nil, "competitor name (repeatable, at most 5)")
	f.StringVar(&opts.company, "company", "", "your own product")
	f.StringVar(&opts.purpose, "purpose", "", "analysis purpose: market_entry, defense, optimization, investment")
	f.StringVar(&opts.region, "region", "", "target region: china, global, asia")
	f.StringVar(&opts.info, "info", "", "additional notes for the analyst")
	f.StringVar(&opts.format, "format", "", "preferred report format")
	f.BoolVar(&opts.stream, "stream", false, "print the report while it is generated")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("purpose")
	return cmd
}
