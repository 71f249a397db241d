package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"bankit/internal/cli"
	"bankit/internal/config"
	"bankit/internal/log"
	"bankit/internal/services"
)

var commands = []subcommands.Command{
	&listCmd{},
	&projectCmd{},
	&summaryCmd{},
	&materializeCmd{},
}

type session struct {
	cfg     *config.Config
	logger  *log.Logger
	account *services.AccountService
	close   func()
}

// openSession loads the configuration and opens the account service. Logs
// go to stderr so they never mix with the command output.
func openSession(ctx context.Context) *session {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	res := cli.InitBackend(ctx, logger, cfg)
	return &session{
		cfg:     cfg,
		logger:  logger,
		account: cli.NewAccountService(cfg, res, logger),
		close: func() {
			if err := res.Cleanup(); err != nil {
				fmt.Fprintln(os.Stderr, "cleanup:", err)
			}
		},
	}
}
