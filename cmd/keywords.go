package main

import (
	"github.com/spf13/cobra"

	"github.com/ems-codex/brand-sentiment/internal/model"
	"github.com/ems-codex/brand-sentiment/internal/sentiment"
)

var keywordsOutput string

// keywordSets is the inspection output for one dataset.
type keywordSets struct {
	Dataset      string   `json:"dataset" yaml:"dataset"`
	Exclusions   []string `json:"exclusions" yaml:"exclusions"`
	Negatives    []string `json:"negatives" yaml:"negatives"`
	Destinations []string `json:"destinations" yaml:"destinations"`
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords <dataset>",
	Short: "Show the assembled keyword sets for a dataset",
	Long:  "Loads the dataset's optional context and negative keyword files from the bucket and prints the merged exclusion, negative and destination sets the classifier would use.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dataset := args[0]
		bucket := newBucket()

		// Use the configured scope when the dataset is a known client, so
		// per-client bucket overrides apply here too.
		scope := model.ClientScope{Dataset: dataset}
		if selected, err := selectClients(cfg.Clients, []string{dataset}); err == nil {
			scope = selected[0]
		}

		ctxKW, err := bucket.ContextKeywords(ctx, scope)
		if err != nil {
			return err
		}
		negKW, err := bucket.NegativeKeywords(ctx, scope)
		if err != nil {
			return err
		}

		sets := sentiment.Assemble(ctxKW, negKW)
		return writeResults(cmd, keywordsOutput, keywordSets{
			Dataset:      dataset,
			Exclusions:   sets.Exclusions,
			Negatives:    sets.Negatives,
			Destinations: sets.Destinations,
		})
	},
}

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(keywordsCmd)
}
