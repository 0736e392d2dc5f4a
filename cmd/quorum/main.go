package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quorum/internal/config"
	"quorum/internal/logging"
	"quorum/internal/orchestrator"
	"quorum/internal/specialists"
	"quorum/internal/store"
	"quorum/internal/types"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string
	sessionID  string
	timeout    time.Duration

	// ask flags
	contextPairs []string
	priorityFlag string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "quorum",
	Short: "quorum - multi-specialist knowledge orchestrator",
	Long: `quorum routes natural-language queries to a panel of knowledge
specialists, dispatches the relevant ones in parallel under a shared
deadline, cross-validates what comes back, and synthesizes a single
attributed answer.

Run without arguments to start the interactive prompt.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// askCmd processes a single query
var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask the specialist panel a single question",
	Long: `Routes one query through the full pipeline and prints the
synthesized answer with confidence and source attribution.

Example:
  quorum ask "why are we seeing gateway timeouts" --context component=gateway`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// specialistsCmd lists the registered specialists
var specialistsCmd = &cobra.Command{
	Use:   "specialists",
	Short: "List registered specialists and their domain tags",
	RunE:  runSpecialists,
}

// statsCmd prints the reliability table
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-specialist reliability records",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "quorum.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", ".", "workspace directory for logs")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "session ID for query history")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-query deadline override")

	askCmd.Flags().StringArrayVar(&contextPairs, "context", nil, "structured context hint (key=value, repeatable)")
	askCmd.Flags().StringVar(&priorityFlag, "priority", "normal", "query priority (background, normal, urgent)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(specialistsCmd)
	rootCmd.AddCommand(statsCmd)
}

// bootstrap loads config, initializes logging, and builds the orchestrator
// with the built-in specialist panel registered.
func bootstrap() (*orchestrator.Orchestrator, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}

	if err := logging.Initialize(workspace, cfg.Logging.DebugMode, cfg.Logging.Level); err != nil {
		return nil, nil, err
	}
	logging.SetCategories(cfg.Logging.Categories)

	var rs types.ReliabilityStore
	if cfg.Store.Enabled {
		s, err := store.NewReliabilityStore(cfg.Store.DatabasePath)
		if err != nil {
			logger.Warn("reliability store unavailable, running in-memory", zap.Error(err))
		} else {
			rs = s
		}
	}

	orch := orchestrator.New(cfg, rs)

	for _, s := range []types.Specialist{
		specialists.NewTickets(),
		specialists.NewTopology(),
		specialists.NewDocs(),
	} {
		if err := orch.RegisterSpecialist(s); err != nil {
			return nil, nil, err
		}
	}

	return orch, cfg, nil
}

func buildQuery(content string) (types.Query, error) {
	q := types.Query{
		Content:     content,
		RequesterID: sessionID,
		Timeout:     timeout,
	}

	switch priorityFlag {
	case "background":
		q.Priority = types.PriorityBackground
	case "", "normal":
		q.Priority = types.PriorityNormal
	case "urgent":
		q.Priority = types.PriorityUrgent
	default:
		return q, fmt.Errorf("unknown priority: %s", priorityFlag)
	}

	if len(contextPairs) > 0 {
		q.Context = make(map[string]string, len(contextPairs))
		for _, pair := range contextPairs {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return q, fmt.Errorf("context must be key=value, got %q", pair)
			}
			q.Context[key] = value
		}
	}

	return q, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	orch, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer orch.Close()

	q, err := buildQuery(strings.Join(args, " "))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	answer, err := orch.ProcessQuery(ctx, q)
	if err != nil {
		return err
	}

	printAnswer(answer)
	return nil
}

func runSpecialists(cmd *cobra.Command, args []string) error {
	orch, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer orch.Close()

	for _, s := range orch.Registry().List() {
		fmt.Printf("%-12s %s\n", s.ID(), strings.Join(s.DomainTags(), ", "))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	orch, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer orch.Close()

	records := orch.Tracker().All()
	if len(records) == 0 {
		fmt.Println("No reliability history yet.")
		return nil
	}

	fmt.Printf("%-12s %8s %8s %10s %10s %8s\n",
		"SPECIALIST", "QUERIES", "SUCCESS", "AVG CONF", "VAL RATE", "SCORE")
	for _, rec := range records {
		fmt.Printf("%-12s %8d %8d %10.2f %10.2f %8.2f\n",
			rec.SpecialistID, rec.TotalQueries, rec.SuccessfulResponses,
			rec.AvgConfidence, rec.ValidationSuccessRate, rec.ReliabilityScore)
	}
	return nil
}

// runInteractive reads queries from stdin in a loop. Config changes are
// hot-reloaded while the loop runs, and idle sessions are swept in the
// background.
func runInteractive() error {
	orch, cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := config.NewWatcher(configPath, cfg)
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		watcher.OnReload(orch.ApplyConfig)
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config watcher failed to start", zap.Error(err))
		}
		defer watcher.Stop()
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				orch.Sweep()
			}
		}
	}()
	defer func() { <-sweepDone }()

	if sessionID == "" {
		sessionID = fmt.Sprintf("interactive-%d", os.Getpid())
	}

	fmt.Println("quorum interactive - type a question, or 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		q, err := buildQuery(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		answer, err := orch.ProcessQuery(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		printAnswer(answer)
	}

	cancel()
	return nil
}

func printAnswer(a *types.Answer) {
	fmt.Println()
	fmt.Println(a.Text)
	fmt.Println()
	fmt.Printf("confidence: %.2f (%s)  |  %v  |  %d source(s)\n",
		a.Confidence, a.Trace.ConfidenceLabel, a.ProcessingTime.Round(time.Millisecond), len(a.Sources))
	for _, src := range a.Sources {
		fmt.Printf("  - %s (%d fragment(s), best %.2f)\n", src.SpecialistID, src.FragmentCount, src.Confidence)
	}
	fmt.Println()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
