// Package main provides tests for the flowcraft CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/cli"
	"github.com/flowcraft-dev/flowcraft/internal/loader"
	"github.com/flowcraft-dev/flowcraft/internal/script"
	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

func TestMain(m *testing.M) {
	script.RegisterFunc("cmd_test_generate", func(args pipeline.Args) (pipeline.Outputs, error) {
		return loader.NewTable([]string{"n"}, [][]any{{1}, {2}, {3}}), nil
	})
	script.RegisterFunc("cmd_test_double", func(args pipeline.Args) (pipeline.Outputs, error) {
		t, _ := args["values"].(loader.Table)
		out := make([][]any, len(t.Rows))
		for i := range t.Rows {
			out[i] = []any{t.Rows[i][0]}
		}
		return loader.NewTable(t.Columns, out), nil
	})
	os.Exit(m.Run())
}

func testdataDir(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Join(wd, "testdata")
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "flowcraft")
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, want := range []string{"run", "list", "catalog", "lineage", "history"} {
		assert.Contains(t, buf.String(), want)
	}
}

func TestRunCommand(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "--project-dir", td, "--ledger", ":memory:"})

	require.NoError(t, cmd.Execute())
}

func TestRunCommandFilteredByTags(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "--project-dir", td, "--ledger", ":memory:", "--tags", "prep"})

	require.NoError(t, cmd.Execute())
}

func TestRunCommandParallel(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "--project-dir", td, "--ledger", ":memory:", "--parallel"})

	require.NoError(t, cmd.Execute())
}

func TestListCommand(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"list", "--project-dir", td})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "double_values")
}

func TestLineageCommand(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"lineage", "--project-dir", td})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "double_values")
}

func TestHistoryCommand(t *testing.T) {
	td := testdataDir(t)
	ledgerPath := filepath.Join(t.TempDir(), "ledger.db")

	run := cli.NewRootCmd()
	run.SetArgs([]string{"run", "--project-dir", td, "--ledger", ledgerPath})
	require.NoError(t, run.Execute())

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"history", "--project-dir", td, "--ledger", ledgerPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "succeeded")
}

func TestCatalogDescribeCommand(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"catalog", "describe", "raw_numbers", "--project-dir", td})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "CSVDataset")
}

func TestCatalogDescribeUnknownDataset(t *testing.T) {
	td := testdataDir(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"catalog", "describe", "does_not_exist", "--project-dir", td})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			cmd := cli.NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"completion", shell})
			assert.NoError(t, cmd.Execute())
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"unknown-command"})

	assert.Error(t, cmd.Execute())
}
