// draft-proposal runs the deal assistant workflow from a terminal: rank a
// deal database against a scenario, list a key's models, or draft a proposal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fosterfinance/deal-assistant/pkg/llm"
)

// apiKeyEnv is read when --api-key is not given.
const apiKeyEnv = "DEAL_ASSISTANT_API_KEY"

type options struct {
	database    string
	provider    string
	apiKey      string
	model       string
	contextSize int
	raw         bool
	verbose     bool

	// factory overrides the provider clients; nil uses the real SDKs.
	factory llm.ClientFactory
}

func (o *options) key() string {
	if o.apiKey != "" {
		return o.apiKey
	}
	return os.Getenv(apiKeyEnv)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&options{})
}

func newRootCmdWithOptions(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "draft-proposal",
		Short: "Draft credit proposals from a historic deal database",
		Long: `draft-proposal ranks historic deals against a client scenario and asks a
text-generation provider to draft a credit proposal grounded on the best matches.

The API key is read from --api-key or ` + apiKeyEnv + `.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.database, "database", "d", "Database.csv", "Deal database CSV")
	root.PersistentFlags().StringVarP(&opts.provider, "provider", "p", "gemini", "Provider: gemini, openai or anthropic")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "Provider API key (default $"+apiKeyEnv+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	rank := newRankCmd(opts)
	rank.Flags().IntVarP(&opts.contextSize, "limit", "n", 3, "Number of reference deals")

	generate := newGenerateCmd(opts)
	generate.Flags().StringVarP(&opts.model, "model", "m", "", "Model to use instead of the auto-selected one")
	generate.Flags().BoolVar(&opts.raw, "raw", false, "Print markdown without terminal rendering")

	root.AddCommand(rank, newModelsCmd(opts), generate)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
