// Nexa - voice-driven personal assistant with a learning memory
// License: MIT
//
// Copyright (c) 2026 Nexa contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/vikasprajapat2/nexa/pkg/assistant"
	"github.com/vikasprajapat2/nexa/pkg/bus"
	"github.com/vikasprajapat2/nexa/pkg/commands"
	"github.com/vikasprajapat2/nexa/pkg/config"
	"github.com/vikasprajapat2/nexa/pkg/gateway"
	"github.com/vikasprajapat2/nexa/pkg/logger"
	"github.com/vikasprajapat2/nexa/pkg/memory"
	"github.com/vikasprajapat2/nexa/pkg/providers"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const (
	appName         = "nexa"
	shutdownTimeout = 10 * time.Second
)

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// formatBuildInfo returns build time and go version info
func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Fprintf(w, "  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Fprintf(w, "  Go: %s\n", goVer)
	}
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nexa", "config.json")
}

// loadConfig reads the config file and initialises logging from it.
func loadConfig(path string, debug bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Output:   cfg.Logging.Output,
		FilePath: config.ExpandHome(cfg.Logging.FilePath),
	}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}
	return cfg, nil
}

func openMemory(ctx context.Context, cfg *config.Config) (*memory.Service, error) {
	store, err := memory.OpenStore(ctx, memory.StoreOptions{
		Backend:  cfg.Memory.Backend,
		Path:     cfg.MemoryPath(),
		RedisURL: cfg.Memory.RedisURL,
		RedisKey: cfg.Memory.RedisKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}
	svc, err := memory.NewService(ctx, memory.Config{
		Store:               store,
		HistorySize:         cfg.Memory.HistorySize,
		ConfidenceThreshold: cfg.Memory.ConfidenceThreshold,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// newAssistant wires memory, local commands and the upstream chain.
func newAssistant(ctx context.Context, cfg *config.Config, msgBus *bus.MessageBus) (*assistant.Assistant, *memory.Service, *providers.Chain, error) {
	mem, err := openMemory(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	chain, err := providers.NewChainFromConfig(cfg)
	if err != nil {
		_ = mem.Close()
		return nil, nil, nil, fmt.Errorf("configure providers: %w", err)
	}

	dispatcher := commands.NewDefaultDispatcher(commands.NewExecHost(), commands.Options{
		TypeDelay:   time.Duration(cfg.Assistant.TypeDelayMS) * time.Millisecond,
		SearchRoots: cfg.SearchRoots(),
	})

	a, err := assistant.New(assistant.Options{
		Bus:      msgBus,
		Memory:   mem,
		Commands: dispatcher,
		Upstream: chain,
	})
	if err != nil {
		_ = mem.Close()
		return nil, nil, nil, err
	}

	logger.InfoCF("assistant", "Assistant initialized", map[string]interface{}{
		"store":     mem.StoreDescription(),
		"providers": chain.Names(),
		"commands":  dispatcher.Names(),
	})
	return a, mem, chain, nil
}

func serve(cfgPath string, debug bool) error {
	cfg, err := loadConfig(cfgPath, debug)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgBus := bus.NewMessageBus()
	a, mem, chain, err := newAssistant(ctx, cfg, msgBus)
	if err != nil {
		return err
	}
	defer mem.Close()

	fmt.Println("\n📦 Assistant Status:")
	fmt.Printf("  • Knowledge store: %s\n", mem.StoreDescription())
	stats := mem.Stats()
	fmt.Printf("  • Vocabulary: %d words, %d patterns\n", stats.VocabularySize, stats.PatternsLearned)
	if chain.Len() > 0 {
		fmt.Printf("  • Providers: %s\n", strings.Join(chain.Names(), ", "))
	} else {
		fmt.Println("  • Providers: none (offline replies only)")
	}

	if expr := strings.TrimSpace(cfg.Memory.BackupCron); expr != "" {
		scheduler, err := memory.NewBackupScheduler(mem, expr, cfg.BackupDir())
		if err != nil {
			return err
		}
		go scheduler.Run(ctx)
		fmt.Printf("✓ Knowledge backups scheduled (%s) into %s\n", expr, cfg.BackupDir())
	}

	server := gateway.NewServer(gateway.Options{
		Addr:            cfg.ListenAddr(),
		Bus:             msgBus,
		Knowledge:       mem,
		EnableWebSocket: cfg.Server.EnableWebSocket,
		Running:         a.Running,
	})

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCF("assistant", "Assistant loop stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
	if cfg.Server.EnableWebSocket {
		go server.RunOutbound(ctx)
	}
	server.SetReady(true)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("gateway", "HTTP server error", map[string]interface{}{"error": err.Error()})
			serverErr <- err
		}
	}()
	fmt.Printf("✓ Nexa listening on http://%s\n", cfg.ListenAddr())
	if cfg.Server.EnableWebSocket {
		fmt.Println("✓ WebSocket endpoint available at /ws")
	}
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var runErr error
	select {
	case <-sigChan:
	case runErr = <-serverErr:
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.WarnCF("gateway", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	cancel()
	msgBus.Close()
	// The deferred mem.Close must not run under an in-flight Train.
	if !awaitLoop(shutdownCtx, runDone) {
		logger.WarnC("assistant", "Timed out waiting for the assistant loop to finish")
	}
	fmt.Println("✓ Nexa stopped")
	return runErr
}

// awaitLoop reports whether done closed before ctx ended.
func awaitLoop(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func chat(cfgPath, message string, debug bool) error {
	cfg, err := loadConfig(cfgPath, debug)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, mem, _, err := newAssistant(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer mem.Close()

	if message != "" {
		reply, err := a.Process(ctx, message)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s %s\n", appName, reply.Text)
		return nil
	}

	fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", appName)
	interactiveMode(a)
	return nil
}

func interactiveMode(a *assistant.Assistant) {
	prompt := fmt.Sprintf("%s You: ", appName)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".nexa_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(a)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !respond(a, line) {
			return
		}
	}
}

func simpleInteractiveMode(a *assistant.Assistant) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !respond(a, line) {
			return
		}
	}
}

// respond prints the reply for one line and reports whether to keep going.
func respond(a *assistant.Assistant, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	if input == "exit" || input == "quit" {
		fmt.Println("Goodbye!")
		return false
	}

	reply, err := a.Process(context.Background(), input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}
	fmt.Printf("\n%s %s\n\n", appName, reply.Text)
	return true
}

func onboard(cfgPath string, force bool, in io.Reader, out io.Writer) error {
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
		fmt.Fprint(out, "Overwrite? (y/n): ")
		response, readErr := bufio.NewReader(in).ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("read confirmation: %w", readErr)
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(cfgPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(out, "%s is ready!\n", appName)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. (Optional) Add a Hugging Face token to", cfgPath)
	fmt.Fprintln(out, "     or export HF_API_KEY. Get one at: https://huggingface.co/settings/tokens")
	fmt.Fprintf(out, "  2. Chat locally: %s chat -m \"Hello!\"\n", appName)
	fmt.Fprintf(out, "  3. Start the web assistant: %s serve\n", appName)
	fmt.Fprintf(out, "  4. Check readiness: %s status\n", appName)
	return nil
}

func status(cfgPath string, out io.Writer) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Fprintf(out, "%s Status\n", appName)
	fmt.Fprintf(out, "Version: %s\n", formatVersion())
	if build, _ := formatBuildInfo(); build != "" {
		fmt.Fprintf(out, "Build: %s\n", build)
	}
	fmt.Fprintln(out)

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintln(out, "Config:", cfgPath, "✓")
	} else {
		fmt.Fprintln(out, "Config:", cfgPath, "✗")
	}

	backend := cfg.Memory.Backend
	if backend == "" {
		backend = memory.BackendFile
	}
	switch backend {
	case memory.BackendRedis:
		fmt.Fprintln(out, "Knowledge store: redis", cfg.Memory.RedisURL)
	default:
		path := cfg.MemoryPath()
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "Knowledge store: %s %s ✓\n", backend, path)
		} else {
			fmt.Fprintf(out, "Knowledge store: %s %s not initialized\n", backend, path)
		}
	}
	fmt.Fprintln(out, "Listen address:", cfg.ListenAddr())

	ready := 0
	for _, name := range cfg.ProviderOrder() {
		cred, err := providers.ProviderCredentialStatus(cfg, name)
		switch {
		case err != nil:
			fmt.Fprintf(out, "Provider %s: ✗ %v\n", name, err)
		case cred.Configured && cred.Mode != "":
			ready++
			fmt.Fprintf(out, "Provider %s: ✓ (%s)\n", name, cred.Mode)
		case cred.Configured:
			ready++
			fmt.Fprintf(out, "Provider %s: ✓\n", name)
		default:
			fmt.Fprintf(out, "Provider %s: not set\n", name)
		}
	}
	if ready == 0 {
		fmt.Fprintln(out, "Upstream: offline replies only")
	}
	return nil
}
