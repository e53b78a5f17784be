// Package cli implements the scicheck command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/pipeline"
	"github.com/scicheckagent/scicheck/internal/store"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scicheck",
	Short: "SciCheck - AI-assisted claim extraction and verification",
	Long: `SciCheck extracts explicit, testable claims from text or articles and
verifies them in stages: an AI verdict with justification and keywords,
an external check against scholarly databases (Semantic Scholar, Crossref,
CORE, PubMed), and long-form research reports on follow-up questions.

Every stage is cached by claim content, so repeated analyses of the same
claims cost nothing.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("scicheck v0.3.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.scicheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.scicheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SCICHECK_*
	viper.SetEnvPrefix("SCICHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the runtime config: defaults, then the config file, then
// environment overrides.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := viper.GetString("llm_api_key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := viper.GetString("semantic_scholar_api_key"); v != "" {
		cfg.Providers.SemanticScholarAPIKey = v
	}
	if v := viper.GetString("core_api_key"); v != "" {
		cfg.Providers.COREAPIKey = v
	}

	cfg.Output.Verbose = verbose
	return cfg, nil
}

// newLogger builds the CLI logger: debug-level development output when
// verbose, warnings only otherwise.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// setup assembles the pipeline for a command run. The returned func releases
// the store and flushes the logger.
func setup() (*pipeline.Pipeline, *model.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	backend, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(cfg.Store.Path, cfg.Store.MemoryTTL, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	p := pipeline.New(cfg, st, backend, logger)
	cleanup := func() {
		_ = st.Close()
		_ = logger.Sync()
	}
	return p, cfg, cleanup, nil
}
