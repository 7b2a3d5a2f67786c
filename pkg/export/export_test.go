package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	return Dataset{
		Title:   "Precision@5",
		Notes:   []string{"lexical: 0.40"},
		Headers: []string{"strategy", "rank", "user_a", "user_b", "weight", "good"},
		Rows: [][]string{
			{"lexical", "1", "L", "T", "19.00", "yes"},
			{"lexical", "2", "a", "b, c", "12.50", "no"},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)
	assert.Equal(t, "# Precision@5\n# lexical: 0.40\nstrategy,rank,user_a,user_b,weight,good\nlexical,1,L,T,19.00,yes\nlexical,2,a,\"b, c\",12.50,no\n", string(out))
}

func TestPDFExporter(t *testing.T) {
	out, err := NewPDFExporter().Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := sample()
	data.Rows = append(data.Rows, []string{"short"})
	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "eval.csv")
	require.NoError(t, WriteFile(path, sample()))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "user_a")

	assert.Error(t, WriteFile(filepath.Join(dir, "eval.xlsx"), sample()))
}
