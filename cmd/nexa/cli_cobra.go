package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vikasprajapat2/nexa/pkg/memory"
	"gopkg.in/yaml.v3"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var (
		showVersion bool
		cfgPath     string
	)

	root := &cobra.Command{
		Use:   appName,
		Short: "Voice-driven personal assistant that learns from every conversation",
		Long: strings.TrimSpace(`nexa is a personal assistant that runs local system commands, answers from
a knowledge model it trains on every exchange, and falls back to hosted AI
providers and offline replies when it does not know the answer.

Use CLI commands to onboard, chat locally, serve the web assistant, and
inspect or manage what has been learned.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "Path to the config file")

	configPath := func() string { return cfgPath }

	root.AddCommand(newOnboardCommand(configPath))
	root.AddCommand(newServeCommand(configPath))
	root.AddCommand(newChatCommand(configPath))
	root.AddCommand(newAskCommand(configPath))
	root.AddCommand(newTrainCommand(configPath))
	root.AddCommand(newStatsCommand(configPath))
	root.AddCommand(newExportCommand(configPath))
	root.AddCommand(newResetCommand(configPath))
	root.AddCommand(newStatusCommand(configPath))
	root.AddCommand(newVersionCommand())

	return root
}

func newOnboardCommand(configPath func() string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.nexa config",
		Long:    "Create the default configuration file for a new nexa installation.",
		Example: "  nexa onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return onboard(configPath(), force, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config without asking")
	return cmd
}

func newServeCommand(configPath func() string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the web assistant (HTTP API, web page, WebSocket)",
		Long:    "Start the assistant loop, the HTTP gateway with its embedded web page, and scheduled knowledge backups.",
		Example: "  nexa serve --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath(), debug)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newChatCommand(configPath func() string) *cobra.Command {
	var (
		message string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		Long:  "Run an interactive session or send a one-shot message through the full assistant pipeline.",
		Example: strings.Join([]string{
			"  nexa chat",
			"  nexa chat --message \"what time is it\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return chat(configPath(), strings.TrimSpace(message), debug)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot message to send to the assistant")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newAskCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:     "ask <text>",
		Short:   "Query the knowledge model only",
		Long:    "Ask the learned knowledge model directly. Nothing is trained and no provider is called.",
		Args:    cobra.MinimumNArgs(1),
		Example: "  nexa ask \"hello nexa\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMemory(configPath(), func(ctx context.Context, mem *memory.Service) error {
				reply, ok := mem.GenerateResponse(strings.Join(args, " "))
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "(no confident answer)")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply)
				return nil
			})
		},
	}
}

func newTrainCommand(configPath func() string) *cobra.Command {
	var input, response string

	cmd := &cobra.Command{
		Use:     "train",
		Short:   "Teach the knowledge model an exchange",
		Example: "  nexa train --input \"who made you\" --response \"I was built by my owner.\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("--input is required")
			}
			if strings.TrimSpace(response) == "" {
				return fmt.Errorf("--response is required")
			}
			return withMemory(configPath(), func(ctx context.Context, mem *memory.Service) error {
				if err := mem.Train(ctx, input, response); err != nil {
					return err
				}
				stats := mem.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Learned. Vocabulary: %d words, %d patterns\n",
					stats.VocabularySize, stats.PatternsLearned)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "What the user says")
	cmd.Flags().StringVarP(&response, "response", "r", "", "What the assistant should answer")
	return cmd
}

func newStatsCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Short:   "Show knowledge model statistics",
		Example: "  nexa stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMemory(configPath(), func(ctx context.Context, mem *memory.Service) error {
				writeStats(cmd.OutOrStdout(), mem.StoreDescription(), mem.Stats())
				return nil
			})
		},
	}
}

func newExportCommand(configPath func() string) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export what the assistant has learned",
		Long:  "Write the vocabulary, top patterns, intents and recent conversations as JSON or YAML.",
		Example: strings.Join([]string{
			"  nexa export",
			"  nexa export --format yaml --output knowledge.yaml",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMemory(configPath(), func(ctx context.Context, mem *memory.Service) error {
				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}
				return writeKnowledge(w, mem.Export(), format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newResetCommand(configPath func() string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Forget everything the assistant has learned",
		Long:    "Replace the stored knowledge model with an empty one. Take a backup first if you may want it back.",
		Example: "  nexa reset --yes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to erase the knowledge model without --yes")
			}
			return withMemory(configPath(), func(ctx context.Context, mem *memory.Service) error {
				if err := mem.Forget(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Knowledge model reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm erasing the knowledge model")
	return cmd
}

func newStatusCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration, knowledge store, and provider readiness",
		Example: "  nexa status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return status(configPath(), cmd.OutOrStdout())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  nexa version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion(cmd.OutOrStdout())
			return nil
		},
	}
}

func withMemory(cfgPath string, fn func(ctx context.Context, mem *memory.Service) error) error {
	cfg, err := loadConfig(cfgPath, false)
	if err != nil {
		return err
	}
	ctx := context.Background()
	mem, err := openMemory(ctx, cfg)
	if err != nil {
		return err
	}
	defer mem.Close()
	return fn(ctx, mem)
}

func writeStats(w io.Writer, store string, stats memory.Stats) {
	fmt.Fprintln(w, "Knowledge store:", store)
	fmt.Fprintf(w, "Vocabulary size: %d\n", stats.VocabularySize)
	fmt.Fprintf(w, "Patterns learned: %d\n", stats.PatternsLearned)
	fmt.Fprintf(w, "Intents known: %d\n", stats.IntentsKnown)
	fmt.Fprintf(w, "Training examples: %d\n", stats.TotalTrainingExamples)
	fmt.Fprintf(w, "Conversations stored: %d\n", stats.ConversationsStored)
}

func writeKnowledge(w io.Writer, k memory.Knowledge, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(k)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(k); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q: use json or yaml", format)
	}
}
