package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/rag"
	"github.com/54b3r/findai-go/internal/vectorstore"
)

// NewInspectCmd constructs the `findai inspect` command, which loads the
// corpus artifacts and prints their shape. No backend is contacted.
func NewInspectCmd() *cobra.Command {
	var embeddingsPath, textsPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load the corpus artifacts and print their shape",
		Long: `Load the embeddings matrix and the passage texts and print the corpus
size, the embedding dimension and the resolved paths.

Exits non-zero with the failure kind (missing_artifact, shape_mismatch,
corrupt) when the artifacts cannot be loaded.

Examples:
  findai inspect
  findai inspect --embeddings ./data/embeddings.npy --texts ./data/texts.pkl`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if embeddingsPath == "" {
				embeddingsPath = config.EnvOr("FINDAI_EMBEDDINGS_PATH", rag.DefaultEmbeddingsPath)
			}
			if textsPath == "" {
				textsPath = config.EnvOr("FINDAI_TEXTS_PATH", rag.DefaultTextsPath)
			}

			s, err := vectorstore.Load(embeddingsPath, textsPath)
			if err != nil {
				var le *vectorstore.LoadError
				if errors.As(err, &le) {
					return fmt.Errorf("inspect: %s: %w", le.Kind, err)
				}
				return fmt.Errorf("inspect: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "embeddings:  %s\n", s.EmbeddingsPath())
			fmt.Fprintf(out, "texts:       %s\n", s.TextsPath())
			fmt.Fprintf(out, "corpus size: %d\n", s.Len())
			fmt.Fprintf(out, "dimension:   %d\n", s.Dim())
			return nil
		},
	}

	cmd.Flags().StringVar(&embeddingsPath, "embeddings", "", "Path to the embeddings .npy file (env: FINDAI_EMBEDDINGS_PATH)")
	cmd.Flags().StringVar(&textsPath, "texts", "", "Path to the texts .pkl file (env: FINDAI_TEXTS_PATH)")

	return cmd
}
