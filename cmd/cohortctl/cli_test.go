package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const sampleCSV = "Cliente;Plano iniciou em;Plano cancelou em\n" +
	"A;15/01/2024;\n" +
	"B;10/01/2024;20/03/2024\n" +
	"C;05/02/2024;\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", "", "--as-of", "2024-06-15"}, args...))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCompute_Table(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	path := writeSample(t)

	out, errOut, err := run(t, "compute", "--view", "abs", path)
	require.NoError(t, err)

	assert.Contains(t, out, "jan/24")
	assert.Contains(t, out, "fev/24")
	assert.Contains(t, out, "Crescimento")
	assert.Contains(t, errOut, "cohorts: 2")
}

func TestCompute_JSON(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	path := writeSample(t)

	out, _, err := run(t, "compute", "--format", "json", path)
	require.NoError(t, err)

	var stats core.CohortStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats.Cohorts, 2)
	assert.Equal(t, 2, stats.Cohorts[0].TotalStarters)
	assert.Len(t, stats.Cohorts[0].Retention, core.RetentionLen)
}

func TestCompute_YAML(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	path := writeSample(t)

	out, errOut, err := run(t, "compute", "-f", "yaml", path)
	require.NoError(t, err)
	assert.Empty(t, errOut)

	var stats core.CohortStats
	require.NoError(t, yaml.Unmarshal([]byte(out), &stats))
	require.Len(t, stats.Cohorts, 2)
	assert.Equal(t, "2024-02", stats.Cohorts[1].Cohort)
	assert.Equal(t, core.MaxMonths, stats.MaxMonths)
}

func TestCompute_Errors(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, _, err := run(t, "compute", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, _, err = run(t, "--as-of", "15/06/2024", "compute", writeSample(t))
	assert.ErrorContains(t, err, "--as-of")

	_, _, err = run(t, "compute")
	assert.Error(t, err)

	_, _, err = run(t, "compute", "-f", "xml", writeSample(t))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestExport(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	path := writeSample(t)
	output := filepath.Join(t.TempDir(), "out.xlsx")

	out, _, err := run(t, "export", "--progress=false", "-o", output, path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 cohorts")

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestLast_EmptyMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, _, err := run(t, "last")
	assert.ErrorIs(t, err, core.ErrNoImport)
}

func TestImport_MemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	out, _, err := run(t, "import", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "saved import")
}

func TestImportThenLast_SQLiteStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_URL", filepath.Join(t.TempDir(), "cohort.db"))

	_, _, err := run(t, "import", writeSample(t))
	require.NoError(t, err)

	out, errOut, err := run(t, "last", "--view", "abs")
	require.NoError(t, err)
	assert.Contains(t, errOut, "subs.csv")
	assert.Contains(t, out, "jan/24")
}

func TestPrintMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMarkdown(&buf, "# Resumo\n\nA retencao de **jan/24** ficou estavel.", 60))
	assert.Contains(t, buf.String(), "Resumo")
	assert.Contains(t, buf.String(), "jan/24")
}
