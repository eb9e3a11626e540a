package main

import (
	"github.com/urfave/cli"

	"volraycast/pkg/config"
	"volraycast/pkg/log"
)

var logger = log.New("volraycast")

func setupLogging(ctx *cli.Context, cfg *config.Config) {
	if cfg != nil && cfg.Output.Verbose {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	if cfg != nil {
		for module, name := range cfg.Output.Modules {
			// already checked by Validate
			level, _ := log.ParseLevel(name)
			log.SetModuleLevel(module, level)
		}
	}
}

// setup loads the configuration and applies the logging flags.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.GlobalString("config"))
	if err != nil {
		setupLogging(ctx, nil)
		return nil, err
	}
	setupLogging(ctx, cfg)
	return cfg, nil
}
