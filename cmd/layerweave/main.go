// layerweave composes layered instruction documents: core fragments,
// extension packs and project overrides merge into one document per
// entity, then a nine-stage template pass resolves cross-document
// directives against the composed corpus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"layerweave/internal/logging"
)

// version is stamped at release; the value is also exposed to documents
// via {{ctx:version}}.
const version = "0.4.0"

var (
	// Global flags
	verbose     bool
	projectRoot string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "layerweave",
	Short: "layerweave - layered template composition for agent documents",
	Long: `layerweave assembles final textual artifacts (agent instructions,
policy documents, configuration prompts) from source fragments spread
across three override layers: a core layer, named extension packs, and a
project-specific override layer.

Composition runs in two phases: first every entity's layer chain is merged
into one intermediate document, then a template pass resolves includes,
section extractions, conditionals, loops, variables and references against
the fully-composed corpus.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	SilenceUsage: true,
}

// versionCmd prints the tool version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the layerweave version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("layerweave " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root directory")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
