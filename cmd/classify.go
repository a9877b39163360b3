package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ems-codex/brand-sentiment/internal/model"
	"github.com/ems-codex/brand-sentiment/internal/sentiment"
)

var (
	classifyContextFile   string
	classifyNegativesFile string
	classifyOutput        string
)

// classification is the ad-hoc output row.
type classification struct {
	Query    string         `json:"query" yaml:"query"`
	Score    float64        `json:"sentiment_score" yaml:"sentiment_score"`
	Category model.Category `json:"sentiment_category" yaml:"sentiment_category"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [query...]",
	Short: "Classify queries ad hoc, from arguments or stdin",
	Long:  "Scores each query with the same keyword rules and lexicon the pipeline uses. Keyword overrides can be supplied as local files, one keyword per line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries := args
		if len(queries) == 0 {
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				if q := strings.TrimSpace(sc.Text()); q != "" {
					queries = append(queries, q)
				}
			}
			if err := sc.Err(); err != nil {
				return eris.Wrap(err, "read stdin")
			}
		}
		if len(queries) == 0 {
			return eris.New("no queries given")
		}

		ctxKW, err := readKeywordFile(classifyContextFile)
		if err != nil {
			return err
		}
		negKW, err := readKeywordFile(classifyNegativesFile)
		if err != nil {
			return err
		}

		cls := sentiment.NewClassifier(sentiment.Assemble(ctxKW, negKW))
		results := make([]classification, 0, len(queries))
		for _, q := range queries {
			score := cls.Score(q)
			results = append(results, classification{Query: q, Score: score, Category: sentiment.Categorize(score)})
		}

		return writeResults(cmd, classifyOutput, results)
	},
}

// readKeywordFile loads a newline-separated keyword list; empty path means
// no override.
func readKeywordFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read keyword file %s", path)
	}
	var kws []string
	for _, line := range strings.Split(string(data), "\n") {
		if kw := strings.TrimSpace(line); kw != "" {
			kws = append(kws, kw)
		}
	}
	return kws, nil
}

// writeResults renders v to the command's stdout in the requested format.
func writeResults(cmd *cobra.Command, format string, v any) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal json")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "marshal yaml")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
	case "table":
		rows, ok := v.([]classification)
		if !ok {
			return eris.New("table output not supported here")
		}
		for _, r := range rows {
			fmt.Fprintf(cmd.OutOrStdout(), "%+.4f\t%s\t%s\n", r.Score, r.Category, r.Query)
		}
	default:
		return eris.Errorf("unknown output format %q", format)
	}
	return nil
}

func init() {
	classifyCmd.Flags().StringVar(&classifyContextFile, "context-file", "", "local context-keyword file (merged into exclusions)")
	classifyCmd.Flags().StringVar(&classifyNegativesFile, "negatives-file", "", "local negative-keyword file")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(classifyCmd)
}
