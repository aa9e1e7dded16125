package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/iwvelando/initiative-sim/internal/config"
	"github.com/iwvelando/initiative-sim/internal/game"
	"github.com/iwvelando/initiative-sim/internal/logging"
	"github.com/iwvelando/initiative-sim/internal/optimizer"
	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/optimization"
	"github.com/iwvelando/initiative-sim/pkg/output"
	"github.com/iwvelando/initiative-sim/pkg/validation"
	"go.uber.org/zap"
)

// loadConfiguration returns the named preset when one is given, otherwise
// the configuration file at path.
func loadConfiguration(path, preset string) (*config.Configuration, error) {
	if preset == "" {
		return config.LoadConfiguration(path)
	}
	scenario, err := config.Preset(preset)
	if err != nil {
		return nil, err
	}
	return &config.Configuration{Scenarios: []config.Scenario{scenario}}, nil
}

// onlyScenario deactivates every scenario except name.
func onlyScenario(conf *config.Configuration, name string) error {
	target, ok := conf.FindScenario(name)
	if !ok {
		return fmt.Errorf("scenario %q not found", name)
	}
	for i := range conf.Scenarios {
		conf.Scenarios[i].Active = false
	}
	target.Active = true
	return nil
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	presetName := flag.String("preset", "", "play a built-in scenario instead of the configuration file")
	scenarioName := flag.String("scenario", "", "play only the named scenario")
	interactive := flag.Bool("interactive", false, "choose initiatives at a prompt instead of replaying plans")
	suggest := flag.Bool("suggest", false, "replace plans with suggested ones before playing")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation, *presetName)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *scenarioName != "" {
		if err := onlyScenario(conf, *scenarioName); err != nil {
			logger.Fatal("failed to select scenario",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *suggest {
		runner, err := optimizer.NewRunner(logger, conf)
		if err != nil {
			logger.Fatal("failed to initialize planner",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		planned, err := runner.Run(ctx)
		if err != nil {
			logger.Fatal("failed to plan scenarios",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if outputFormat == constants.OutputFormatPretty {
			summaries := make([]optimization.Summary, 0, len(planned.Summaries))
			for _, name := range planned.Names() {
				summaries = append(summaries, planned.Summaries[name])
			}
			output.WritePlans(os.Stdout, summaries)
			fmt.Println()
		}
	}

	var results []game.Result
	if *interactive {
		selector := game.NewPromptSelector(os.Stdin, os.Stdout)
		for _, scenario := range conf.ActiveScenarios() {
			result, err := game.Play(ctx, logger, scenario, selector)
			if err != nil {
				logger.Fatal("failed to play scenario",
					zap.String("op", "main"),
					zap.String("scenario", scenario.Name),
					zap.Error(err),
				)
			}
			results = append(results, result)
			fmt.Println()
		}
	} else {
		results, err = game.RunAll(ctx, logger, *conf)
		if err != nil {
			logger.Fatal("failed to run scenarios",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results)
	case constants.OutputFormatCSV:
		output.CsvFormat(results)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(results); err != nil {
			logger.Fatal("failed to write results",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
