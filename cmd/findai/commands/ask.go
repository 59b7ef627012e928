package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/findai-go/internal/logging"
)

// NewAskCmd constructs the `findai ask` command, which answers a single
// question against the local corpus and prints the answer with its sources.
func NewAskCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the corpus",
		Long: `Load the corpus, retrieve the passages most similar to the question,
and print the generated answer followed by its sources.

Examples:
  findai ask "what are cats?"
  findai ask -k 3 "which animals are mammals?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			rt, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer rt.flush()

			if err := rt.engine.EnsureLoaded(ctx); err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			resp, err := rt.engine.Answer(ctx, strings.Join(args, " "), k)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Answer)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Sources (%d):\n", resp.Metadata.SourcesCount)
			for i, s := range resp.Sources {
				fmt.Fprintf(out, "  %d. [%.3f] #%d %s\n", i+1, s.Score, s.Index, s.Excerpt)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "max-results", "k", 0, "Number of passages to retrieve (default: RAG_DEFAULT_K)")

	return cmd
}
