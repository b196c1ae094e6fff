package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mhp-content/internal/articlefile"
	"mhp-content/internal/model"
	"mhp-content/internal/service"
)

func parseCategory(s string) (model.Category, error) {
	c := model.Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (a *app) generateCommand() *cobra.Command {
	var (
		topic, category, modelName, output string
		noClear                            bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one article and write it to the output file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := parseCategory(category)
			if err != nil {
				return err
			}
			llm, err := a.llm()
			if err != nil {
				return err
			}
			output = a.outputPath(output)
			if !noClear {
				if err := articlefile.Clear(output); err != nil {
					return err
				}
			}

			gen := service.NewGeneratorService(llm, 0, a.log)
			article, err := gen.Generate(cmd.Context(), topic, c, modelName)
			if err != nil {
				return err
			}
			n, err := articlefile.Append(output, article.Document())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				okStyle.Render("✓"), article.Title,
				mutedStyle.Render(fmt.Sprintf("(%s, %d in %s)", article.Slug, n, output)),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic of the article")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category of the article")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default from config)")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Append to the output file instead of clearing it")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (a *app) generateMultipleCommand() *cobra.Command {
	var (
		topics, category, feed, modelName, output string
		count                                     int
		delay                                     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate-multiple",
		Short: "Generate one article per topic from a list or a news feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := parseCategory(category)
			if err != nil {
				return err
			}
			var list []string
			switch {
			case topics != "":
				list = service.ParseTopics(topics)
				if count > 0 && len(list) > count {
					list = list[:count]
				}
			case feed != "":
				list, err = service.NewTopicService(a.log).FeedTopics(cmd.Context(), feed, count)
				if err != nil {
					return fmt.Errorf("read feed: %w", err)
				}
			}
			if len(list) == 0 {
				return service.ErrNoTopics
			}
			if !cmd.Flags().Changed("delay") {
				delay = a.cfg.Generation.ArticleDelay
			}
			return a.generateBatch(cmd, list, c, modelName, output, delay)
		},
	}
	cmd.Flags().StringVarP(&topics, "topics", "t", "", "Comma-separated list of topics")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category for all articles")
	cmd.Flags().StringVar(&feed, "feed", "", "RSS/Atom feed whose item titles become topics")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Maximum number of articles (0 for all topics)")
	cmd.Flags().DurationVar(&delay, "delay", 5*time.Second, "Pause between articles")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default from config)")
	_ = cmd.MarkFlagRequired("category")
	cmd.MarkFlagsOneRequired("topics", "feed")
	cmd.MarkFlagsMutuallyExclusive("topics", "feed")
	return cmd
}

func (a *app) generateRiskFactorsCommand() *cobra.Command {
	var (
		topics, modelName, output string
		number                    int
		all                       bool
	)
	cmd := &cobra.Command{
		Use:   "generate-risk-factors",
		Short: "Generate risk factor articles from the predefined topic list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := service.RiskFactors(topics, number, all)
			if err != nil {
				return err
			}
			return a.generateBatch(cmd, list, model.CategoryRiskFactors, modelName, output, a.cfg.Generation.ArticleDelay)
		},
	}
	cmd.Flags().StringVarP(&topics, "topics", "t", "", "Comma-separated list of specific topics")
	cmd.Flags().IntVarP(&number, "number", "n", 10, "Number of predefined topics to generate")
	cmd.Flags().BoolVar(&all, "all", false, "Generate every predefined topic")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default from config)")
	return cmd
}

// generateBatch clears the output once, then appends every accepted article to it.
func (a *app) generateBatch(cmd *cobra.Command, topics []string, c model.Category, modelName, output string, delay time.Duration) error {
	llm, err := a.llm()
	if err != nil {
		return err
	}
	output = a.outputPath(output)
	if err := articlefile.Clear(output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printTitle(out, fmt.Sprintf("Generating %d %s articles", len(topics), c))
	gen := service.NewGeneratorService(llm, delay, a.log)
	report, err := gen.GenerateBatch(cmd.Context(), topics, c, modelName, func(_ context.Context, article *model.Article) error {
		if _, err := articlefile.Append(output, article.Document()); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s %s\n", okStyle.Render("✓"), article.Title)
		return nil
	})
	if err != nil {
		return err
	}
	printReport(out, "Generation", report)
	return reportErr(report)
}

func (a *app) outputPath(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Generation.Output
}
