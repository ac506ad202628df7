package main

import (
	"context"

	"liner/internal/daemonrun"
)

// runDaemon is the --daemon entry point: it resolves configuration and hands
// off to the long-running watch loop. Unlike the toggle, configuration
// failures here propagate as real errors.
func runDaemon(cmdCtx context.Context, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	return daemonrun.Run(cmdCtx, cfg, daemonrun.Options{
		ConfigPath: ctx.resolvedConfigPath(),
	})
}
