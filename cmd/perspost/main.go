package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/perspost/internal/collect"
	"github.com/TobiSchelling/perspost/internal/config"
	"github.com/TobiSchelling/perspost/internal/fetch"
	"github.com/TobiSchelling/perspost/internal/llm"
	"github.com/TobiSchelling/perspost/internal/logging"
	"github.com/TobiSchelling/perspost/internal/metrics"
	"github.com/TobiSchelling/perspost/internal/pipeline"
	"github.com/TobiSchelling/perspost/internal/post"
	"github.com/TobiSchelling/perspost/internal/prompt"
	"github.com/TobiSchelling/perspost/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
)

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "perspost",
	Short:   "Perspective-driven social media posts",
	Long:    "perspost drafts social media posts about an article, written from a fixed set of perspective statements.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		if path != "" {
			logger.Debug("loaded config", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(perspectivesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("perspost", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/perspost/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to choose a provider, persona and perspectives.")
		return nil
	},
}

// --- generate command ---

var (
	input            string
	isURL            bool
	wordCount        int
	perspectivesFile string
	jsonOutput       bool
	showReasoning    bool
	dryRun           bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a post from article text or a URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		perspectives := resolvePerspectives(cmd.ErrOrStderr(), perspectivesFile, cfg.Perspectives)
		pipe, err := buildPipeline(perspectives, nil)
		if err != nil {
			return err
		}

		req := post.Request{
			Content:   input,
			IsURL:     isURL,
			WordCount: resolveWordCount(wordCount),
		}
		ctx := cmd.Context()

		if dryRun {
			instruction, ok := pipe.DryRun(ctx, req)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", pipeline.ErrExtraction)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), instruction)
			return nil
		}

		result, err := pipe.Generate(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), result, showReasoning)
		}
		printResult(cmd.OutOrStdout(), result, cfg.Post.Platform, showReasoning)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&input, "input", "i", "", "Article URL or summary text")
	generateCmd.Flags().BoolVar(&isURL, "is-url", false, "Whether the input is a URL")
	generateCmd.Flags().IntVar(&wordCount, "word-count", 0, "Target word count (default from config, 225)")
	generateCmd.Flags().StringVar(&perspectivesFile, "perspectives-file", "", "Path to a file containing perspective statements (one per line)")
	generateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	generateCmd.Flags().BoolVar(&showReasoning, "reasoning", false, "Include the model's reasoning")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the prompt without calling the provider")
	_ = generateCmd.MarkFlagRequired("input")
}

// --- serve command ---

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and preview page",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := metrics.New()
		pipe, err := buildPipeline(cfg.Perspectives, m)
		if err != nil {
			return err
		}
		srv, err := server.New(pipe, logger, m)
		if err != nil {
			return err
		}

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://%s:%d\n", host, port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, host, port)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Interface to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- feed command ---

var (
	feedLimit     int
	feedWordCount int
)

var feedCmd = &cobra.Command{
	Use:   "feed [url]",
	Short: "Generate posts for the newest entries of a feed",
	Long:  "Generate posts for the newest entries of an RSS or Atom feed. Without a URL, every feed in the config is read.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feeds := make([]collect.FeedConfig, 0, len(cfg.Feeds))
		if len(args) == 1 {
			feeds = append(feeds, collect.FeedConfig{URL: args[0]})
		} else {
			for _, f := range cfg.Feeds {
				feeds = append(feeds, collect.FeedConfig{URL: f.URL, Name: f.Name})
			}
		}
		if len(feeds) == 0 {
			return fmt.Errorf("no feed given and none configured")
		}

		pipe, err := buildPipeline(cfg.Perspectives, nil)
		if err != nil {
			return err
		}
		reader := collect.NewFeedReader(cfg.Fetch.Timeout, logger)
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		for _, fc := range feeds {
			entries, err := reader.Latest(ctx, fc, feedLimit)
			if err != nil {
				logger.Error("reading feed", zap.String("url", fc.URL), zap.Error(err))
				continue
			}
			for i, entry := range entries {
				fmt.Fprintf(out, "\nENTRY %d: %s (%s)\n", i+1, entry.Title, entry.Source)
				fmt.Fprintln(out, entry.URL)

				result, err := generateForEntry(ctx, pipe, entry, resolveWordCount(feedWordCount))
				if err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
					continue
				}
				printResult(out, result, cfg.Post.Platform, false)
			}
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedLimit, "limit", collect.DefaultLimit, "Entries to take per feed")
	feedCmd.Flags().IntVar(&feedWordCount, "word-count", 0, "Target word count (default from config, 225)")
}

// generateForEntry generates from the entry's page, using the feed summary
// when the page yields no text.
func generateForEntry(ctx context.Context, pipe *pipeline.Pipeline, entry collect.FeedEntry, words int) (*post.Result, error) {
	result, err := pipe.Generate(ctx, post.Request{Content: entry.URL, IsURL: true, WordCount: words})
	if err != nil {
		return nil, err
	}
	if result.Error != pipeline.ErrExtraction || entry.Summary == "" {
		return result, nil
	}
	logger.Info("using feed summary", zap.String("url", entry.URL))
	return pipe.Generate(ctx, post.Request{Content: entry.Title + "\n" + entry.Summary, WordCount: words})
}

// --- samples command ---

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Generate posts for the built-in sample articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := buildPipeline(cfg.Perspectives, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		platform := strings.ToUpper(cfg.Post.Platform)

		fmt.Fprintf(out, "GENERATING SAMPLE %s POSTS\n\n", platform)
		for i, sample := range sampleArticles {
			fmt.Fprintf(out, "SAMPLE %d: %s\n", i+1, sample.Title)
			fmt.Fprintln(out, strings.Repeat("-", 80))

			result, err := pipe.Generate(cmd.Context(), post.Request{
				Content:   sample.Summary,
				WordCount: cfg.Post.WordCount,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s POST (Confidence Score: %.2f):\n", platform, result.ConfidenceScore)
			fmt.Fprintln(out, result.Post)
			if result.Error != "" {
				fmt.Fprintf(out, "Error: %s\n", result.Error)
			}
			fmt.Fprintf(out, "\n%s\n\n", strings.Repeat("=", 80))
		}
		return nil
	},
}

// --- perspectives command ---

var perspectivesCmd = &cobra.Command{
	Use:   "perspectives",
	Short: "List the configured perspective statements",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Perspectives (%s on %s):\n\n", cfg.Post.Persona, cfg.Post.Topic)
		for i, p := range cfg.Perspectives {
			fmt.Fprintf(out, "  %d. %s\n", i+1, p)
		}
		fmt.Fprintf(out, "\nKeywords used for fallback scoring: %s\n", strings.Join(post.Keywords(cfg.Perspectives), ", "))
	},
}

// --- helpers ---

func buildPipeline(perspectives []string, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	gen := cfg.Generation
	provider, err := llm.CreateProvider(llm.Settings{
		Provider:    gen.Provider,
		Model:       gen.Model,
		APIKey:      gen.APIKey(),
		APIKeyEnv:   gen.APIKeyEnv,
		BaseURL:     gen.BaseURL,
		OllamaURL:   gen.OllamaURL,
		Temperature: gen.Temperature,
		Timeout:     gen.Timeout,
		Structured:  gen.StructuredOutput,
	})
	if err != nil {
		return nil, err
	}
	if !provider.IsConfigured() {
		logger.Warn("generation provider not configured; requests will fail",
			zap.String("provider", provider.Name()),
			zap.String("api_key_env", gen.APIKeyEnv),
		)
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		MaxChars:  cfg.Fetch.MaxChars,
		UserAgent: cfg.Fetch.UserAgent,
		Extractor: cfg.Fetch.Extractor,
		Logger:    logger,
	})

	return pipeline.New(provider, fetcher,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
		pipeline.WithDefaultPerspectives(perspectives),
		pipeline.WithMaxTokens(gen.MaxTokens),
		pipeline.WithTimeout(gen.Timeout),
		pipeline.WithPromptOptions(prompt.Options{
			Persona:    cfg.Post.Persona,
			Topic:      cfg.Post.Topic,
			Platform:   cfg.Post.Platform,
			Structured: gen.StructuredOutput,
		}),
	), nil
}

// resolvePerspectives loads path when given. A read failure is reported on
// w and the defaults are used instead.
func resolvePerspectives(w io.Writer, path string, defaults []string) []string {
	if path == "" {
		return defaults
	}
	perspectives, err := config.LoadPerspectives(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading perspectives file: %v\n", err)
		fmt.Fprintln(w, "Using default perspectives instead.")
		return defaults
	}
	if len(perspectives) == 0 {
		fmt.Fprintf(w, "Perspectives file %s is empty; using default perspectives instead.\n", path)
		return defaults
	}
	return perspectives
}

func resolveWordCount(n int) int {
	if n > 0 {
		return n
	}
	if cfg != nil && cfg.Post.WordCount > 0 {
		return cfg.Post.WordCount
	}
	return post.DefaultWordCount
}

func printResult(w io.Writer, result *post.Result, platform string, reasoning bool) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintf(w, "GENERATED %s POST:\n", strings.ToUpper(platform))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, result.Post)
	fmt.Fprintln(w, "\n"+strings.Repeat("-", 50))
	fmt.Fprintf(w, "Confidence Score: %.2f\n", result.ConfidenceScore)
	if reasoning && result.Reasoning != "" {
		fmt.Fprintf(w, "Reasoning: %s\n", result.Reasoning)
	}
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}
	fmt.Fprintln(w, rule)
}

func writeJSON(w io.Writer, result *post.Result, reasoning bool) error {
	out := struct {
		*post.Result
		Reasoning string `json:"reasoning,omitempty"`
	}{Result: result}
	if reasoning {
		out.Reasoning = result.Reasoning
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
