package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/iwvelando/cre-underwriter/internal/config"
	"github.com/iwvelando/cre-underwriter/internal/projection"
	"github.com/iwvelando/cre-underwriter/internal/sector"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/server"
	"github.com/iwvelando/cre-underwriter/internal/underwriting"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/optimization"
	"github.com/iwvelando/cre-underwriter/pkg/output"
	"github.com/iwvelando/cre-underwriter/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every command once the root has loaded
// configuration.
type app struct {
	configPath   string
	envFile      string
	outputFormat string
	logLevel     string

	conf   *config.Configuration
	logger *zap.Logger
	format string
	out    io.Writer
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "cre-underwriter",
		Short: "Commercial real estate underwriting engine",
		Long: `cre-underwriter evaluates commercial real estate deals: single-period
underwriting, multi-year cash flow projections, LP/GP equity waterfalls,
sector-specific metrics and sensitivity analysis.`,
		Version:           Version,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&a.envFile, "env-file", ".env", "path to a .env file with CRE_ overrides")
	flags.StringVarP(&a.outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	_ = root.RegisterFlagCompletionFunc("output-format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		a.underwriteCommand(),
		a.projectCommand(),
		a.waterfallCommand(),
		a.sectorCommand(),
		a.sectorsCommand(),
		a.sensitivityCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
		return nil
	}

	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	// The default config file is optional; an explicit one is not.
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}
	a.conf = conf

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	a.format = conf.Output.Format
	if a.outputFormat != "" {
		a.format = a.outputFormat
	}
	return validation.ValidateOutputFormat(a.format)
}

// loadDeal reads the deal file and logs its advisory warnings.
func (a *app) loadDeal(path string) (*config.Deal, error) {
	deal, err := config.LoadDeal(path)
	if err != nil {
		return nil, err
	}
	for _, warning := range deal.ValidateDeal() {
		a.logger.Warn("Deal warning: "+warning,
			zap.String("op", "main.loadDeal"),
			zap.String("deal", deal.Name),
		)
	}
	return deal, nil
}

func (a *app) underwriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "underwrite <deal.yaml>",
		Short: "Compute single-period underwriting metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			deal, err := a.loadDeal(args[0])
			if err != nil {
				return err
			}
			return output.Underwriting(a.out, a.format, underwriting.CalculateUnderwriting(deal.Inputs))
		},
	}
}

func (a *app) projectCommand() *cobra.Command {
	var years int
	cmd := &cobra.Command{
		Use:   "project <deal.yaml>",
		Short: "Project annual cash flows, exit and returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if years < 0 || years > constants.MaxHoldPeriodYears {
				return fmt.Errorf("--years must be between 0 and %d, got %d", constants.MaxHoldPeriodYears, years)
			}
			deal, err := a.loadDeal(args[0])
			if err != nil {
				return err
			}
			opts := a.conf.Engine.ProjectionOptions()
			opts.Years = years
			return output.Projection(a.out, a.format, projection.Project(deal.Inputs, opts))
		},
	}
	cmd.Flags().IntVar(&years, "years", 0, "projection length (default: the deal's hold period)")
	return cmd
}

func (a *app) waterfallCommand() *cobra.Command {
	var flows string
	cmd := &cobra.Command{
		Use:   "waterfall <deal.yaml>",
		Short: "Distribute equity cash flows between LP and GP",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			deal, err := a.loadDeal(args[0])
			if err != nil {
				return err
			}
			if deal.Waterfall == nil {
				return fmt.Errorf("deal %s has no waterfall structure", args[0])
			}

			var cashFlows []float64
			if flows != "" {
				if cashFlows, err = parseFloats(flows); err != nil {
					return err
				}
			} else {
				cashFlows = projection.Project(deal.Inputs, a.conf.Engine.ProjectionOptions()).Summary.CashFlows
			}
			if len(cashFlows) == 0 {
				return fmt.Errorf("deal %s cannot be projected; pass --cash-flows", args[0])
			}

			res, err := waterfall.CalculateWaterfall(cashFlows, *deal.Waterfall, waterfall.Options{IRR: a.conf.Engine.IRROptions()})
			if err != nil {
				return err
			}
			a.logger.Info("waterfall computed",
				zap.String("op", "main.waterfall"),
				zap.String("runId", res.RunID),
				zap.Int("periods", len(res.Periods)),
			)
			return output.Waterfall(a.out, a.format, res)
		},
	}
	cmd.Flags().StringVar(&flows, "cash-flows", "", "comma-separated period cash flows instead of the deal projection")
	return cmd
}

func (a *app) sectorCommand() *cobra.Command {
	var override string
	cmd := &cobra.Command{
		Use:   "sector <deal.yaml>",
		Short: "Compute sector-specific metrics and benchmark warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			deal, err := a.loadDeal(args[0])
			if err != nil {
				return err
			}
			s := deal.SectorOverride()
			if override != "" {
				if s, err = sector.Parse(override); err != nil {
					return err
				}
			}
			catalog, err := sector.DefaultCatalog()
			if err != nil {
				return err
			}
			res, err := sector.CalculateSectorMetrics(deal.Inputs, deal.SectorProfile, s, catalog)
			if err != nil {
				return err
			}
			return output.SectorMetrics(a.out, a.format, res)
		},
	}
	cmd.Flags().StringVar(&override, "sector", "", "sector override (e.g. HOTEL, data center)")
	return cmd
}

func (a *app) sectorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "List the sector catalog",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			catalog, err := sector.DefaultCatalog()
			if err != nil {
				return err
			}
			return output.Sectors(a.out, a.format, catalog.Entries())
		},
	}
}

func (a *app) sensitivityCommand() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "sensitivity <deal.yaml>",
		Short: "Run the deal's sensitivity grid, scenarios and solver targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deal, err := a.loadDeal(args[0])
			if err != nil {
				return err
			}
			if deal.Sensitivity == nil && len(deal.Scenarios) == 0 && len(deal.Targets) == 0 {
				return fmt.Errorf("deal %s defines no sensitivity grid, scenarios or targets", args[0])
			}

			runner, err := sensitivity.NewRunner(a.logger, a.conf.Engine.SensitivityConfig(deal.Waterfall))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			eng := sensitivity.Engine(engine)

			if deal.Sensitivity != nil {
				g := *deal.Sensitivity
				if g.Engine == "" {
					g.Engine = eng
				}
				res, err := runner.RunGrid(ctx, deal.Inputs, g)
				if err != nil {
					return err
				}
				if err := output.Grid(a.out, a.format, res); err != nil {
					return err
				}
			}
			if len(deal.Scenarios) > 0 {
				results, err := runner.RunScenarios(ctx, deal.Inputs, deal.Scenarios, eng)
				if err != nil {
					return err
				}
				if err := output.Scenarios(a.out, a.format, results); err != nil {
					return err
				}
			}
			if len(deal.Targets) > 0 {
				summaries := make([]optimization.Summary, 0, len(deal.Targets))
				for _, t := range deal.Targets {
					summary, err := runner.Solve(ctx, deal.Inputs, t)
					if err != nil {
						return fmt.Errorf("target %s: %w", t.Name, err)
					}
					summaries = append(summaries, summary)
				}
				if err := output.Targets(a.out, a.format, summaries); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&engine, "engine", string(sensitivity.EngineProjection), "calculator for grids and scenarios: projection, underwriting")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serverConfig := a.conf.Server
			if address != "" {
				serverConfig.Address = address
			}
			cfg, err := server.NewConfig(serverConfig)
			if err != nil {
				return err
			}
			handler, err := server.NewHandler(a.logger, server.Options{
				MaxBodySize:    cfg.BodySizeBytes(),
				Version:        Version,
				AllowedOrigins: cfg.AllowedOrigins,
				Engine:         a.conf.Engine,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, a.logger, cfg.Address, handler)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address override (e.g. :8080)")
	return cmd
}

func parseFloats(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cash flow %q: %w", trimmed, err)
		}
		out = append(out, v)
	}
	return out, nil
}
