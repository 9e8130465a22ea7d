package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/engipa/internal"
)

// RunFunc is the action behind a command
type RunFunc func(cmd *cobra.Command, args []string) error

// Runners holds the actions of the subcommands. A nil runner leaves its
// command out of the tree.
type Runners struct {
	Rhymes   RunFunc
	Known    RunFunc
	Contains RunFunc
	Import   RunFunc
	Serve    RunFunc
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "engipa [text]",
		Short: "English to IPA transcriber",
		Long: `engipa transcribes English text to the International Phonetic Alphabet.

Pronunciations come from the CMU Pronouncing Dictionary, stored either in
a SQLite database or a JSON file. Run "engipa import" once to build both.

Examples:
  engipa "Hello, world!"             # Best transcription
  engipa --all "the tomato"          # Every combination of variants
  engipa --stress primary tomato     # Primary stress marks only
  engipa --batch sentences.txt       # One transcription per line
  engipa rhymes orange               # Rhymes from the dictionary`,
		Args:          cobra.ArbitraryArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

// AddCommands attaches the subcommands to root
func AddCommands(root *cobra.Command, flags *Flags, r Runners) {
	if r.Rhymes != nil {
		cmd := &cobra.Command{
			Use:   "rhymes word...",
			Short: "List dictionary words rhyming with each word",
			Args:  cobra.MinimumNArgs(1),
			RunE:  r.Rhymes,
		}
		cmd.Flags().BoolVar(&flags.Flat, "flat", false, "Search the JSON flat map regardless of --backend")
		root.AddCommand(cmd)
	}

	if r.Known != nil {
		root.AddCommand(&cobra.Command{
			Use:   "known word...",
			Short: "Report whether every word is in the dictionary",
			Args:  cobra.MinimumNArgs(1),
			RunE:  r.Known,
		})
	}

	if r.Contains != nil {
		root.AddCommand(&cobra.Command{
			Use:   "contains ipa",
			Short: "List dictionary entries whose IPA contains a fragment",
			Args:  cobra.ExactArgs(1),
			RunE:  r.Contains,
		})
	}

	if r.Import != nil {
		root.AddCommand(&cobra.Command{
			Use:   "import cmudict-file",
			Short: "Build the SQLite and JSON dictionaries from a CMU dictionary file",
			Args:  cobra.ExactArgs(1),
			RunE:  r.Import,
		})
	}

	if r.Serve != nil {
		cmd := &cobra.Command{
			Use:   "serve",
			Short: "Serve the transcriber over a JSON HTTP API",
			Args:  cobra.NoArgs,
			RunE:  r.Serve,
		}
		cmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")
		cmd.Flags().StringSliceVar(&flags.AllowedOrigins, "allowed-origins", flags.AllowedOrigins, "CORS allowed origins")
		viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
		viper.BindPFlag("server.allowed_origins", cmd.Flags().Lookup("allowed-origins"))
		root.AddCommand(cmd)
	}
}

// DefaultDataDir is where the imported dictionaries live by default
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "engipa")
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	dataDir := DefaultDataDir()

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.engipa.yaml)")
	pf.StringVar(&flags.Backend, "backend", flags.Backend, "Dictionary backend (sql or json)")
	pf.StringVar(&flags.SQLPath, "sql-path", filepath.Join(dataDir, "cmudict.db"), "SQLite dictionary file")
	pf.StringVar(&flags.JSONPath, "json-path", filepath.Join(dataDir, "cmudict.json"), "JSON dictionary file")
	pf.BoolVar(&flags.Breaker, "breaker", false, "Stop querying a failing dictionary for a while")
	pf.StringVar(&flags.Stress, "stress", flags.Stress, "Stress marks: all, primary or none")
	pf.BoolVar(&flags.KeepPunct, "keep-punct", flags.KeepPunct, "Keep the punctuation around words")
	pf.StringVar(&flags.CustomFile, "custom", "", "YAML file of custom pronunciations")
	pf.BoolVar(&flags.JSON, "json", false, "Print results as JSON")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn or error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")

	// Local flags
	cmd.Flags().BoolVarP(&flags.All, "all", "a", false, "Print every combination of pronunciation variants")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Transcribe every line of a file")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("dictionary.backend", pf.Lookup("backend"))
	viper.BindPFlag("dictionary.sql_path", pf.Lookup("sql-path"))
	viper.BindPFlag("dictionary.json_path", pf.Lookup("json-path"))
	viper.BindPFlag("dictionary.breaker", pf.Lookup("breaker"))
	viper.BindPFlag("transcribe.stress", pf.Lookup("stress"))
	viper.BindPFlag("transcribe.keep_punct", pf.Lookup("keep-punct"))
	viper.BindPFlag("transcribe.custom_file", pf.Lookup("custom"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".engipa" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".engipa")
	}

	// Environment variables, ENGIPA_DICTIONARY_BACKEND for dictionary.backend
	viper.SetEnvPrefix("ENGIPA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// ApplyConfig copies the configured values of the bound keys into flags.
// Explicitly set flags win over the environment, which wins over the
// config file.
func ApplyConfig(flags *Flags) {
	flags.Backend = viper.GetString("dictionary.backend")
	flags.SQLPath = viper.GetString("dictionary.sql_path")
	flags.JSONPath = viper.GetString("dictionary.json_path")
	flags.Breaker = viper.GetBool("dictionary.breaker")
	flags.Stress = viper.GetString("transcribe.stress")
	flags.KeepPunct = viper.GetBool("transcribe.keep_punct")
	flags.CustomFile = viper.GetString("transcribe.custom_file")
	flags.LogLevel = viper.GetString("log.level")
	flags.LogFormat = viper.GetString("log.format")
	if viper.IsSet("server.addr") {
		flags.Addr = viper.GetString("server.addr")
	}
	if viper.IsSet("server.allowed_origins") {
		flags.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
}
