package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seojinpark/newsight"
	"github.com/seojinpark/newsight/internal/config"
	"github.com/seojinpark/newsight/internal/logging"
	"github.com/seojinpark/newsight/internal/output"
)

var (
	configPath   string
	outputFormat string
	cfg          *config.Config
	logger       zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsight",
		Short: "AI trend sensing - news ingestion, dedup, scoring and keyword curation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "human", "output format: json, text, human")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(topCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(approveCmd())
	rootCmd.AddCommand(keywordsCmd())
	rootCmd.AddCommand(addKeywordCmd())
	rootCmd.AddCommand(rmKeywordCmd())
	rootCmd.AddCommand(feedbackCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(addUserCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env, the YAML config and the logger. Missing files fall
// back to defaults.
func setup() error {
	godotenv.Load()

	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err = logging.New(cfg.Environment, cfg.LogLevel)
	return err
}

func openEngine() (*newsight.Engine, error) {
	engine, err := newsight.NewEngine(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	return engine, nil
}

func parseID(arg string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid article ID %q: %w", arg, err)
	}
	return id, nil
}

func runCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion cycle: search, scrape, dedup, analyze, store",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout())
			defer cancel()

			stats, err := engine.Run(ctx, owner)
			if err != nil {
				return err
			}
			return formatter.OutputRunStats(stats)
		},
	}
	cmd.Flags().StringVarP(&owner, "owner", "u", "", "run against this user's keywords (default: global approved set)")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored articles, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			articles, err := engine.Articles()
			if err != nil {
				return fmt.Errorf("failed to list articles: %w", err)
			}
			return formatter.OutputArticleList(articles)
		},
	}
}

func topCmd() *cobra.Command {
	var department string
	var limit, days int
	var byViews bool
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank articles for a department by score and interest relevance",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if byViews {
				ranked, err := engine.TopViewedArticles(department, days, limit)
				if err != nil {
					return fmt.Errorf("failed to rank by views: %w", err)
				}
				return formatter.OutputTopViewed(ranked)
			}

			ranked, err := engine.TopArticles(department, limit)
			if err != nil {
				return fmt.Errorf("failed to rank articles: %w", err)
			}
			return formatter.OutputRankedArticles(ranked)
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "department code (e.g. T_CLOUD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum articles to show (default: 5)")
	cmd.Flags().BoolVar(&byViews, "views", false, "rank by view count instead of score")
	cmd.Flags().IntVar(&days, "days", 0, "trailing window in days for --views (default: 7)")
	return cmd
}

func scoreCmd() *cobra.Command {
	var update bool
	cmd := &cobra.Command{
		Use:   "score <article-id>",
		Short: "Show an article's score breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articleID, err := parseID(args[0])
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			var score *newsight.ArticleScore
			if update {
				score, err = engine.UpdateScore(context.Background(), articleID)
			} else {
				score, err = engine.Score(articleID)
			}
			if err != nil {
				return fmt.Errorf("failed to score article %d: %w", articleID, err)
			}
			return formatter.OutputScore(score)
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "recompute and persist the score first")
	return cmd
}

func recommendCmd() *cobra.Command {
	var department string
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest fresh search keywords from recent analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			items := engine.RecommendKeywords(context.Background(), department, limit)
			return formatter.OutputRecommendations(items)
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "bias suggestions toward this department")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum suggestions (default: 10)")
	return cmd
}

func approveCmd() *cobra.Command {
	var user, category string
	cmd := &cobra.Command{
		Use:   "approve <keyword>",
		Short: "Approve a suggested keyword for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.ApproveKeyword(user, args[0], category); err != nil {
				return fmt.Errorf("failed to approve keyword: %w", err)
			}
			fmt.Printf("Approved keyword %q for %s\n", args[0], user)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "owner email")
	cmd.Flags().StringVar(&category, "category", "", "keyword category")
	cmd.MarkFlagRequired("user")
	return cmd
}

func keywordsCmd() *cobra.Command {
	var user string
	var others bool
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List approved keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if others {
				usage, err := engine.OtherUsersKeywords(user)
				if err != nil {
					return fmt.Errorf("failed to aggregate keywords: %w", err)
				}
				return formatter.OutputKeywordUsage(usage)
			}

			items, err := engine.Keywords(user)
			if err != nil {
				return fmt.Errorf("failed to list keywords: %w", err)
			}
			return formatter.OutputKeywords(items)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "owner email (default: global approved set)")
	cmd.Flags().BoolVar(&others, "others", false, "show what other users track instead")
	return cmd
}

func addKeywordCmd() *cobra.Command {
	var user, category string
	cmd := &cobra.Command{
		Use:   "add-keyword <keyword>",
		Short: "Register an approved keyword directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			kw, err := engine.CreateKeyword(user, args[0], category)
			if err != nil {
				return fmt.Errorf("failed to add keyword: %w", err)
			}
			fmt.Printf("Added keyword %d: %s\n", kw.ID, kw.Keyword)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "owner email")
	cmd.Flags().StringVar(&category, "category", "", "keyword category")
	cmd.MarkFlagRequired("user")
	return cmd
}

func rmKeywordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-keyword <keyword-id>",
		Short: "Delete a keyword by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywordID, err := parseID(args[0])
			if err != nil {
				return err
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.DeleteKeyword(keywordID); err != nil {
				return fmt.Errorf("failed to delete keyword %d: %w", keywordID, err)
			}
			fmt.Printf("Deleted keyword %d\n", keywordID)
			return nil
		},
	}
}

func feedbackCmd() *cobra.Command {
	var user, comment string
	var like, dislike bool
	cmd := &cobra.Command{
		Use:   "feedback <article-id>",
		Short: "React to or comment on an article; no flags shows the rollup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articleID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if like && dislike {
				return fmt.Errorf("--like and --dislike are mutually exclusive")
			}
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := context.Background()
			switch {
			case like || dislike:
				if err := engine.SubmitReaction(ctx, articleID, user, like); err != nil {
					return fmt.Errorf("failed to record reaction: %w", err)
				}
			case comment != "":
				if err := engine.SubmitComment(ctx, articleID, user, comment); err != nil {
					return fmt.Errorf("failed to record comment: %w", err)
				}
			}

			summary, err := engine.GetFeedbackSummary(articleID, user)
			if err != nil {
				return fmt.Errorf("failed to load feedback: %w", err)
			}
			return formatter.OutputFeedbackSummary(summary)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "acting user email")
	cmd.Flags().BoolVar(&like, "like", false, "toggle a like")
	cmd.Flags().BoolVar(&dislike, "dislike", false, "toggle a dislike")
	cmd.Flags().StringVar(&comment, "comment", "", "leave a free-text comment")
	return cmd
}

func viewCmd() *cobra.Command {
	var user, department string
	cmd := &cobra.Command{
		Use:   "view <article-id>",
		Short: "Record one article view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articleID, err := parseID(args[0])
			if err != nil {
				return err
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.RecordView(articleID, user, department); err != nil {
				return fmt.Errorf("failed to record view: %w", err)
			}
			fmt.Printf("Recorded view of article %d\n", articleID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "viewer email (optional)")
	cmd.Flags().StringVarP(&department, "department", "d", "", "viewer department (defaults to the user's)")
	return cmd
}

func addUserCmd() *cobra.Command {
	var name, department string
	cmd := &cobra.Command{
		Use:   "add-user <email>",
		Short: "Register a user for keyword ownership and view logging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			userID, err := engine.CreateUser(args[0], name, department)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Printf("Created user %d: %s\n", userID, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVarP(&department, "department", "d", "", "department code")
	return cmd
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}

			data, err := yaml.Marshal(config.Default())
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			if err := os.WriteFile(configPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Created default config at %s\n", configPath)
			return nil
		},
	}
}
