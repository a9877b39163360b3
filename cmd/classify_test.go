package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadKeywordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte("  spa day \n\nsunset cruise\n"), 0o644))

	kws, err := readKeywordFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"spa day", "sunset cruise"}, kws)
}

func TestReadKeywordFile_EmptyPath(t *testing.T) {
	kws, err := readKeywordFile("")
	require.NoError(t, err)
	assert.Nil(t, kws)
}

func TestReadKeywordFile_Missing(t *testing.T) {
	_, err := readKeywordFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func newOutCmd(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	return cmd
}

func TestWriteResults_Table(t *testing.T) {
	var buf bytes.Buffer
	err := writeResults(newOutCmd(&buf), "table", []classification{
		{Query: "worst experience ever", Score: -1.0, Category: "negative"},
	})
	require.NoError(t, err)
	assert.Equal(t, "-1.0000\tnegative\tworst experience ever\n", buf.String())
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeResults(newOutCmd(&buf), "json", []classification{
		{Query: "lovely beach", Score: 0.0, Category: "neutral"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"sentiment_category": "neutral"`)
}

func TestWriteResults_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := writeResults(newOutCmd(&buf), "yaml", []classification{
		{Query: "lovely beach", Score: 0.0, Category: "neutral"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "sentiment_category: neutral")
}

func TestWriteResults_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeResults(newOutCmd(&buf), "csv", nil)
	assert.Error(t, err)
}

func TestClassifyCommand_StdinQueries(t *testing.T) {
	classifyContextFile = ""
	classifyNegativesFile = ""
	classifyOutput = "table"

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("worst experience ever\n\nst lucia honeymoon\n"))
	cmd.SetOut(&buf)

	require.NoError(t, classifyCmd.RunE(cmd, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "worst experience ever")
	assert.Contains(t, lines[1], "+0.0000\tneutral\tst lucia honeymoon")
}

func TestClassifyCommand_NoQueries(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(""))

	err := classifyCmd.RunE(cmd, nil)
	assert.Error(t, err)
}
