package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mhp-content/internal/model"
	"mhp-content/internal/service"
)

func (a *app) scoreReliabilityCommand() *cobra.Command {
	var (
		categories []string
		results    string
	)
	cmd := &cobra.Command{
		Use:   "score-reliability",
		Short: "Score stored articles from their evidence summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cats []model.Category
			for _, v := range categories {
				c, err := parseCategory(v)
				if err != nil {
					return err
				}
				cats = append(cats, c)
			}
			llm, err := a.llm()
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			svc := service.NewReliabilityService(s, llm, a.cfg.Generation.ItemDelay, a.log)
			run, err := svc.ScoreAll(cmd.Context(), cats)
			if err != nil {
				return err
			}
			if results == "" {
				results = a.cfg.Reliability.ResultsFile
			}
			if err := service.WriteResults(results, run); err != nil {
				return fmt.Errorf("write results: %w", err)
			}

			out := cmd.OutOrStdout()
			printReport(out, "Reliability scoring", run.Report)
			printSummary(out, run.Summary)
			fmt.Fprintln(out, mutedStyle.Render("results written to "+results))
			return reportErr(run.Report)
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Categories to score (default: every scored category)")
	cmd.Flags().StringVar(&results, "results", "", "Results file (default from config)")
	return cmd
}

func (a *app) backfillEmbeddingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-embeddings",
		Short: "Generate missing embeddings for stored articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			llm, err := a.llm()
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := a.embeddingService(s, llm).Backfill(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "Embedding backfill", report)
			return reportErr(report)
		},
	}
}

func (a *app) searchCommand() *cobra.Command {
	var (
		query     string
		threshold float64
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find stored articles similar to a query",
		RunE: func(cmd *cobra.Command, _ []string) error {
			llm, err := a.llm()
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			matches, err := a.embeddingService(s, llm).Search(cmd.Context(), query, threshold, limit)
			if err != nil {
				return err
			}
			printMatches(cmd.OutOrStdout(), query, matches)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search text")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum similarity (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum results (default from config)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func (a *app) updateContentCommand() *cobra.Command {
	var (
		section, file, modelName string
		count                    int
	)
	cmd := &cobra.Command{
		Use:   "update-content",
		Short: "Regenerate one section of the most recent articles in a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			llm, err := a.llm()
			if err != nil {
				return err
			}
			svc := service.NewContentService(llm, nil, a.cfg, a.log)
			report, err := svc.RegenerateSection(cmd.Context(), a.outputPath(file), section, count, modelName)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "Section "+section, report)
			return reportErr(report)
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "Section to update (summary, overview, practical_takeaways)")
	cmd.Flags().IntVarP(&count, "count", "c", 10, "Number of most recent articles to update (0 for all)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Article file (default from config)")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (default from config)")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}

func (a *app) updateSummariesCommand() *cobra.Command {
	var (
		modelName string
		count     int
	)
	cmd := &cobra.Command{
		Use:   "update-summaries",
		Short: "Regenerate the summaries of the newest stored articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			llm, err := a.llm()
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := service.NewContentService(llm, s, a.cfg, a.log).UpdateSummaries(cmd.Context(), count, modelName)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "Summaries", report)
			return reportErr(report)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 10, "Number of newest articles to update")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (default from config)")
	return cmd
}
