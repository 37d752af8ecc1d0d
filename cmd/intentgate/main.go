package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zen-systems/intentgate/pkg/adapter"
	"github.com/zen-systems/intentgate/pkg/arbiter"
	"github.com/zen-systems/intentgate/pkg/config"
	"github.com/zen-systems/intentgate/pkg/gate"
	"github.com/zen-systems/intentgate/pkg/margin"
	"github.com/zen-systems/intentgate/pkg/registry"
	"github.com/zen-systems/intentgate/pkg/router"
	"github.com/zen-systems/intentgate/pkg/schema"
	"github.com/zen-systems/intentgate/pkg/semantic"
)

var (
	configFile   string
	registryFile string
	mockFlag     bool
	debugFlag    bool
	jsonFlag     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "intentgate",
		Short: "Query classification and routing for the library assistant",
		Long: `Intentgate classifies patron queries against the category registry and
	routes each one to a downstream agent. Ambiguous queries resolve through
	an LLM arbiter or a clarification dialogue.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to routing config file")
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "path to category registry file")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "use mock providers (no API keys needed)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "emit JSON output")

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func classifyCmd() *cobra.Command {
	var stateOut string

	cmd := &cobra.Command{
		Use:   "classify [query]",
		Short: "Classify a query and print the routing decision",
		Long: `Runs the full pipeline for a query: heuristic gate, semantic matcher,
	margin engine, then the LLM arbiter for anything not resolved directly.

	When the pipeline asks a clarifying question, the dialogue state is written
	to --state-out (default clarification.json); pass it back with resolve.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			outcome, err := r.Classify(context.Background(), args[0], nil)
			if err != nil {
				return err
			}

			return printOutcome(outcome, stateOut)
		},
	}

	cmd.Flags().StringVar(&stateOut, "state-out", "clarification.json", "file to write clarification state to")

	return cmd
}

func resolveCmd() *cobra.Command {
	var stateFile string
	var choice string
	var elaboration string
	var stateOut string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a clarification dialogue",
		Long: `Continues a clarification dialogue started by classify. Pass the state
	file written by classify plus either --choice (an option id) or
	--elaboration (free text after choosing "none of the above").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stateFile == "" {
				return fmt.Errorf("--state is required")
			}

			data, err := os.ReadFile(stateFile)
			if err != nil {
				return fmt.Errorf("failed to read state file: %w", err)
			}
			var state schema.ClarificationState
			if err := json.Unmarshal(data, &state); err != nil {
				return fmt.Errorf("failed to parse state file: %w", err)
			}

			r, err := buildRouter()
			if err != nil {
				return err
			}

			outcome, err := r.ResolveClarification(context.Background(), choice, &state, elaboration)
			if err != nil {
				return err
			}

			return printOutcome(outcome, stateOut)
		},
	}

	cmd.Flags().StringVar(&stateFile, "state", "clarification.json", "state file written by classify")
	cmd.Flags().StringVar(&choice, "choice", "", "id of the chosen clarification option")
	cmd.Flags().StringVar(&elaboration, "elaboration", "", "free-text elaboration after \"none of the above\"")
	cmd.Flags().StringVar(&stateOut, "state-out", "clarification.json", "file to write updated state to")

	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List registered categories and their agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tAGENT\tPROTOTYPES\tDESCRIPTION")
			for _, cat := range reg.Categories() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", cat.ID, cat.AgentID, len(cat.Prototypes), cat.Description)
			}
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry, agent map, and routing config",
		Long:  "Checks configuration invariants without running the pipeline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Routing.Validate(); err != nil {
				return fmt.Errorf("routing config invalid: %w", err)
			}

			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			agents, err := config.LoadAgentMapWithFallback(cfg.Routing.AgentsPath)
			if err != nil {
				return fmt.Errorf("failed to load agent map: %w", err)
			}
			if err := reg.ValidateAgents(agents); err != nil {
				return err
			}

			if !reg.Has(cfg.Routing.FallbackCategory) {
				return fmt.Errorf("fallback category %q not in registry", cfg.Routing.FallbackCategory)
			}

			fmt.Printf("Configuration is valid: %d categories, %d agents.\n", reg.Len(), len(agents.Agents))
			return nil
		},
	}
}

func printOutcome(outcome *schema.Outcome, stateOut string) error {
	if jsonFlag {
		data, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		if outcome.State != nil && stateOut != "" {
			return writeState(outcome.State, stateOut)
		}
		return nil
	}

	if outcome.Resolved() {
		d := outcome.Decision
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "category\t%s\n", d.CategoryID)
		fmt.Fprintf(w, "agent\t%s\n", d.AgentID)
		fmt.Fprintf(w, "mode\t%s\n", d.Mode)
		fmt.Fprintf(w, "confidence\t%s\n", d.Tier)
		fmt.Fprintf(w, "reason\t%s\n", d.Reason)
		return w.Flush()
	}

	if outcome.Clarification != nil {
		fmt.Println(outcome.Clarification.Question)
		fmt.Println()
		for _, opt := range outcome.Clarification.Options {
			fmt.Printf("  [%s] %s\n", opt.ID, opt.Label)
		}
	} else if outcome.State != nil && outcome.State.Turn == schema.TurnAwaitingElaboration {
		fmt.Println("Tell me a bit more about what you need, then run resolve with --elaboration.")
	}

	if outcome.State != nil && stateOut != "" {
		if err := writeState(outcome.State, stateOut); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nDialogue state written to %s\n", stateOut)
	}
	return nil
}

func writeState(state *schema.ClarificationState, path string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithRoutingFile(configFile)
	}
	return config.Load()
}

func loadRegistry() (*registry.Registry, error) {
	if registryFile != "" {
		return registry.Load(registryFile)
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Routing.RegistryPath != "" {
		return registry.Load(cfg.Routing.RegistryPath)
	}
	return registry.Default(), nil
}

func buildRouter() (*router.Router, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	reg, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	agents, err := config.LoadAgentMapWithFallback(cfg.Routing.AgentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent map: %w", err)
	}
	if err := reg.ValidateAgents(agents); err != nil {
		return nil, err
	}

	embedder, judge, err := createProviders(cfg)
	if err != nil {
		return nil, err
	}

	matcher := semantic.NewMatcher(reg, embedder,
		semantic.WithTopK(cfg.Routing.TopK),
		semantic.WithTimeout(time.Duration(cfg.Routing.EmbedTimeoutMs)*time.Millisecond),
		semantic.WithDebug(debugFlag))
	if err := matcher.BuildIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to build prototype index: %w", err)
	}

	engine, err := margin.NewEngine(cfg.Routing.Margin)
	if err != nil {
		return nil, err
	}

	arb := arbiter.New(judge, reg, arbiter.WithDebug(debugFlag))

	rules := gate.DefaultRules()
	if cfg.Routing.RulesPath != "" {
		rules, err = gate.LoadRules(cfg.Routing.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load gate rules: %w", err)
		}
	}

	return router.New(reg, gate.New(rules), matcher, engine, arb,
		router.WithFallbackCategory(cfg.Routing.FallbackCategory),
		router.WithDebug(debugFlag))
}

// createProviders wires the embedding provider and the arbiter judge from
// config. Mock mode swaps both for deterministic local implementations.
func createProviders(cfg *config.Config) (adapter.Embedder, arbiter.Judge, error) {
	arbiterTimeout := time.Duration(cfg.Routing.ArbiterTimeoutMs) * time.Millisecond

	if mockFlag {
		judge := arbiter.NewLLMJudge(adapter.NewMockAdapter(), "mock-1", arbiterTimeout)
		return adapter.NewMockEmbedder(), judge, nil
	}

	var embedder adapter.Embedder
	switch cfg.Routing.EmbedderProvider {
	case "openai":
		e, err := adapter.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Routing.EmbedderModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create openai embedder: %w", err)
		}
		embedder = e
	case "google":
		e, err := adapter.NewGoogleEmbedder(cfg.GoogleAPIKey, cfg.Routing.EmbedderModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create google embedder: %w", err)
		}
		embedder = e
	case "mock":
		embedder = adapter.NewMockEmbedder()
	default:
		return nil, nil, fmt.Errorf("unknown embedder provider %q", cfg.Routing.EmbedderProvider)
	}

	var judgeAdapter adapter.Adapter
	switch cfg.Routing.ArbiterAdapter {
	case "anthropic":
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		judgeAdapter = a
	case "openai":
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		judgeAdapter = a
	case "google":
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		judgeAdapter = a
	case "mock":
		judgeAdapter = adapter.NewMockAdapter()
	default:
		return nil, nil, fmt.Errorf("unknown arbiter adapter %q", cfg.Routing.ArbiterAdapter)
	}

	model := cfg.Routing.ArbiterModel
	return embedder, arbiter.NewLLMJudge(judgeAdapter, model, arbiterTimeout), nil
}
