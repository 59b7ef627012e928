package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// doctorTimeout bounds all checks run by `findai doctor`.
const doctorTimeout = 10 * time.Second

// NewDoctorCmd constructs the `findai doctor` command, which checks that the
// Ollama server is reachable and that the configured models are installed.
// It never pulls or modifies models.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check Ollama reachability and installed models",
		Long: `Check that the Ollama server at OLLAMA_HOST answers and that every model
the configured backends use is installed.

Models are only checked for backends served by Ollama (EMBEDDING_PROVIDER=ollama,
GENERATION_BACKEND=ollama). Install missing models with 'ollama pull <model>'.

Examples:
  findai doctor
  OLLAMA_HOST=http://gpu-box:11434 findai doctor`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			c := ollamaClient()

			models, err := c.ListModels(ctx)
			if err != nil {
				fmt.Fprintf(out, "✗ ollama at %s: %v\n", c.Host(), err)
				return fmt.Errorf("doctor: ollama is not reachable")
			}
			fmt.Fprintf(out, "✓ ollama at %s (%d models installed)\n", c.Host(), len(models))

			required := requiredOllamaModels()

			missing := 0
			for _, name := range required {
				ok, err := c.HasModel(ctx, name)
				switch {
				case err != nil:
					fmt.Fprintf(out, "✗ %s: %v\n", name, err)
					missing++
				case !ok:
					fmt.Fprintf(out, "✗ %s: not installed (run: ollama pull %s)\n", name, name)
					missing++
				default:
					fmt.Fprintf(out, "✓ %s\n", name)
				}
			}
			if missing > 0 {
				return fmt.Errorf("doctor: %d of %d required models unavailable", missing, len(required))
			}
			return nil
		},
	}
}
