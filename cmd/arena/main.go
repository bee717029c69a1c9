// Command arena runs the game engine used by the RL training harness.
//
// Usage:
//
//	arena serve --config config.yaml
//	arena validate --config config.yaml
//	arena version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/impostorlabs/arena"
	"github.com/impostorlabs/arena/pkg/config"
	"github.com/impostorlabs/arena/pkg/engine"
	"github.com/impostorlabs/arena/pkg/llms"
	"github.com/impostorlabs/arena/pkg/logger"
	"github.com/impostorlabs/arena/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the engine server."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Println(arena.GetVersion())
	return nil
}

type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required")
	}
	if _, err := config.Load(cli.Config); err != nil {
		return err
	}
	fmt.Println("configuration is valid")
	return nil
}

type ServeCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	llmRegistry := llms.NewLLMRegistry()
	defer func() { _ = llmRegistry.Close() }()
	for name, llmCfg := range cfg.LLMs {
		if _, err := llmRegistry.CreateFromConfig(name, llmCfg); err != nil {
			return err
		}
	}

	engineAPI := engine.NewEngineAPI()
	srv := server.New(cfg, engineAPI, llmRegistry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.GetLogger().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("arena"),
		kong.Description("Hidden-role game engine for RL training rollouts"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = file
	}
	logger.Init(level, output, cli.LogFormat)

	ctx.FatalIfErrorf(ctx.Run(&cli))
}
