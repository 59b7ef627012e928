// Package commands defines all Cobra CLI commands for the findai binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/findai-go/internal/audit"
	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "findai",
		Short: "findai answers questions from a precomputed embedding corpus",
		Long: `findai is a retrieval-augmented question answering service.

It loads a corpus of passages and their embeddings, ranks passages by cosine
similarity to each question, and asks a language model to answer from the
best matches.

Embedding and generation backends are selected via EMBEDDING_PROVIDER and
GENERATION_BACKEND, or a YAML config file (~/.findai/config.yaml).
See 'findai --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.findai/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewInspectCmd(),
		NewDoctorCmd(),
		NewVersionCmd(),
	)

	return root
}
