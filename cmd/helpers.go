package cmd

import (
	"context"
	"errors"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/mj1618/uipilot/internal/vision"
	"github.com/spf13/viper"
)

// engineConfig assembles the engine configuration from the layered
// flag/env/config-file settings.
func engineConfig() engine.Config {
	return engine.Config{
		Tool:    viper.GetString("tool"),
		Session: viper.GetString("session"),
		Mode:    engine.Mode(viper.GetString("mode")),
		Timeout: viper.GetDuration("timeout"),
		Vision: vision.Config{
			Provider: viper.GetString("provider"),
			Model:    viper.GetString("model"),
			// A provider named on the command line or in config opts out of
			// the silent agent-bridge switch.
			ExplicitProvider: viper.GetString("provider") != "",
		},
	}
}

// withEngine builds an engine, opens the channel session, runs fn, and
// releases the session.
func withEngine(ctx context.Context, fn func(ctx context.Context, eng *engine.Engine) error) error {
	eng, err := engine.New(engineConfig(), engine.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := eng.Connect(ctx); err != nil {
		return err
	}
	defer eng.Close(ctx)
	return fn(ctx, eng)
}

// printAction writes the result envelope and converts a non-OK outcome into
// a non-zero exit. Fatal errors take precedence over the envelope's message.
func printAction(res *engine.ActionResult, err error) error {
	if res != nil {
		if perr := output.Print(res); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if res != nil && !res.OK() {
		return errors.New(res.Error)
	}
	return nil
}
