package cli

import (
	"os"
	"strings"
	"time"

	"nexus/internal/core"
	"nexus/internal/prompt"

	"github.com/spf13/cobra"
)

const reportTimeLayout = "2006-01-02 15:04"

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse saved analysis reports",
	}
	cmd.AddCommand(
		newReportsListCmd(a),
		newReportsShowCmd(a),
		newReportsExportCmd(a),
		newReportsDeleteCmd(a),
	)
	return cmd
}

func newReportsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := a.client.ListReports(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				printf(cmd.ErrOrStderr(), "暂无报告\n")
				return nil
			}

			tw := newTable(cmd.OutOrStdout())
			printf(tw, "ID\tCREATED\tDOMAIN\tCOMPETITORS\tMODEL\n")
			for _, s := range summaries {
				printf(tw, "%s\t%s\t%s\t%s\t%s\n",
					s.ID,
					s.CreatedAt.Local().Format(reportTimeLayout),
					prompt.DomainLabel(s.Domain),
					strings.Join(s.Competitors, prompt.CompetitorSeparator),
					s.Model.Name)
			}
			return tw.Flush()
		},
	}
}

func newReportsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a report; markdown is styled on a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.client.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeReportHeader(cmd, report)
			return renderMarkdown(cmd.OutOrStdout(), report.Content)
		},
	}
}

func writeReportHeader(cmd *cobra.Command, r *core.Report) {
	w := cmd.ErrOrStderr()
	company := r.Company
	if company == "" {
		company = prompt.UnspecifiedCompany
	}
	elapsed := time.Duration(r.AnalysisTime) * time.Millisecond
	printf(w, "分析领域: %s\n", prompt.DomainLabel(r.Domain))
	printf(w, "分析目的: %s\n", prompt.PurposeLabel(r.Purpose))
	printf(w, "竞品列表: %s\n", strings.Join(r.Competitors, prompt.CompetitorSeparator))
	printf(w, "您的产品: %s\n", company)
	printf(w, "生成时间: %s\n", r.CreatedAt.Local().Format(reportTimeLayout))
	printf(w, "使用模型: %s (%s)\n", r.Model.Name, r.Model.ModelName)
	printf(w, "分析耗时: %.1f 秒\n\n", elapsed.Seconds())
}

func newReportsExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Download the self-contained HTML document of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.client.ExportReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(output, doc, core.FilePermissionReadWrite); err != nil {
				return err
			}
			printf(cmd.ErrOrStderr(), "已导出到 %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newReportsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a report",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteReport(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "已删除报告 %s\n", args[0])
			return nil
		},
	}
}
