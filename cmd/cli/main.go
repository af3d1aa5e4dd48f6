package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"embsurvey/adapters/sqlstore"
	"embsurvey/app"
	"embsurvey/internal/config"
	"embsurvey/internal/errors"
	"embsurvey/internal/instrument"
	"embsurvey/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// flags shared by every command; zero values leave the loaded config alone
type globalFlags struct {
	configPath string
	input      string
	outputDir  string
	instrument string
	threshold  float64
	strict     bool
	dbDriver   string
	dbDSN      string
	logLevel   string
	logFormat  string
}

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "embsurvey",
		Short:         "Clean, score and analyse the EMB workforce survey export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (optional)")
	pf.StringVarP(&flags.input, "input", "i", "", "raw survey export (.csv or .xlsx)")
	pf.StringVarP(&flags.outputDir, "output-dir", "o", "", "directory for processed/ and outputs/")
	pf.StringVar(&flags.instrument, "instrument", "", "instrument YAML replacing the built-in survey layout")
	pf.Float64Var(&flags.threshold, "threshold", 0, "minimum completion percentage for the complete view")
	pf.BoolVar(&flags.strict, "strict-schema", false, "fail when the export does not match the instrument")
	pf.StringVar(&flags.dbDriver, "db-driver", "", "optional SQL sink: sqlite or postgres")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "data source name for the SQL sink")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "console or json")

	rootCmd.AddCommand(
		newStageCmd(flags, "clean", app.StageClean, "Extract and normalize respondents and write the processed tables"),
		newStageCmd(flags, "explore", app.StageExplore, "Write descriptive statistics and the completion analysis"),
		newStageCmd(flags, "segment", app.StageSegment, "Write regional, segment, pain-point and pilot-candidate analyses"),
		newStageCmd(flags, "run", app.StageAll, "Run every stage and write the findings report and manifest"),
		newSchemaCmd(flags),
		newMigrateCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// loadConfig merges file, environment and flags, flags winning
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Paths.Input = flags.input
	}
	if changed("output-dir") {
		cfg.Paths.OutputDir = flags.outputDir
	}
	if changed("instrument") {
		cfg.Paths.Instrument = flags.instrument
	}
	if changed("threshold") {
		cfg.Pipeline.CompletionThreshold = flags.threshold
	}
	if changed("strict-schema") {
		cfg.Pipeline.StrictSchema = flags.strict
	}
	if changed("db-driver") {
		cfg.Database.Driver = flags.dbDriver
	}
	if changed("db-dsn") {
		cfg.Database.DSN = flags.dbDSN
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadInstrument(cfg *config.Config) (*instrument.Instrument, error) {
	if cfg.Paths.Instrument != "" {
		return instrument.LoadFile(cfg.Paths.Instrument)
	}
	return instrument.Default()
}

// setup builds the logger and the pipeline service; the returned cleanup
// closes the SQL sink and flushes the logger
func setup(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (*config.Config, *app.PipelineService, func(), error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Paths.Input == "" {
		return nil, nil, nil, errors.ConfigInvalid("an input file is required (--input or EMBSURVEY_PATHS_INPUT)")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }

	inst, err := loadInstrument(cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	var store *sqlstore.Store
	if cfg.Database.Enabled() {
		db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		store = sqlstore.NewStore(db, logger)
		flush := cleanup
		cleanup = func() {
			db.Close()
			flush()
		}
	}

	svc := app.NewPipelineService(inst, app.PipelineOptions{
		CompletionThreshold: cfg.Pipeline.CompletionThreshold,
		StrictSchema:        cfg.Pipeline.StrictSchema,
	}, store, logger)

	logger.Debug("configuration loaded",
		zap.String("input", cfg.Paths.Input),
		zap.String("output_dir", cfg.Paths.OutputDir),
		zap.Float64("threshold", cfg.Pipeline.CompletionThreshold),
		zap.Bool("sql_sink", store != nil))
	return cfg, svc, cleanup, nil
}

func newStageCmd(flags *globalFlags, use string, stage app.Stage, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, svc, cleanup, err := setup(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.Run(ctx, app.RunRequest{
				Input:     cfg.Paths.Input,
				OutputDir: cfg.Paths.OutputDir,
				Stage:     stage,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func newSchemaCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show how the instrument schema binds to the export header, with any drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cfg.Paths.Input == "" {
				return errors.ConfigInvalid("an input file is required (--input or EMBSURVEY_PATHS_INPUT)")
			}
			inst, err := loadInstrument(cfg)
			if err != nil {
				return err
			}

			// drift is reported, not fatal, when only inspecting
			svc := app.NewPipelineService(inst, app.PipelineOptions{}, nil, zap.NewNop())
			p, err := svc.Resolve(cfg.Paths.Input)
			if err != nil {
				return err
			}

			type boundField struct {
				Name    string          `json:"name"`
				Mode    instrument.Mode `json:"mode"`
				Scale   string          `json:"scale,omitempty"`
				Columns []int           `json:"columns"`
			}
			fields := make([]boundField, 0, len(p.Fields))
			for _, f := range p.Fields {
				fields = append(fields, boundField{Name: f.Spec.Name, Mode: f.Spec.Mode, Scale: f.Spec.Scale, Columns: f.Columns})
			}
			return printJSON(struct {
				Width  int                    `json:"width"`
				Groups int                    `json:"question_groups"`
				Fields []boundField           `json:"fields"`
				Drift  instrument.DriftReport `json:"drift"`
			}{Width: p.Table.Width(), Groups: len(p.Groups), Fields: fields, Drift: p.Drift})
		},
	}
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the SQL sink schema without running the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errors.ConfigInvalid("no database configured (--db-driver and --db-dsn)")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Printf("schema %s ready on %s\n", sqlstore.SchemaVersion(), cfg.Database.Driver)
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
