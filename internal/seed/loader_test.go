package seed

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/chr21-gene-api/internal/duckdb"
)

const martHeader = "Gene stable ID,Gene name,Gene description,Chromosome/scaffold name,Gene start (bp),Gene end (bp),Strand,Gene type\n"

const martSample = martHeader +
	"ENSG00000142168,SOD1,superoxide dismutase 1,21,31659666,31668931,1,protein_coding\n" +
	"ENSG00000159216,RUNX1,RUNX family transcription factor 1,21,34787801,35049344,-1,protein_coding\n" +
	"ENSG00000901000,,,21,5011799,,,lncRNA\n"

func TestParseComma(t *testing.T) {
	genes, err := parse(strings.NewReader(martSample))
	require.NoError(t, err)
	require.Len(t, genes, 3)

	g := genes[0]
	assert.Equal(t, "ENSG00000142168", g.StableID)
	assert.Equal(t, "SOD1", *g.Name)
	assert.Equal(t, "superoxide dismutase 1", *g.Description)
	assert.Equal(t, "21", *g.Chromosome)
	assert.Equal(t, int64(31659666), *g.Start)
	assert.Equal(t, int64(31668931), *g.End)
	assert.Equal(t, 1, *g.Strand)
	assert.Equal(t, "protein_coding", *g.Type)

	assert.Equal(t, -1, *genes[1].Strand)

	// Empty columns normalize to nil, never to empty strings.
	g = genes[2]
	assert.Nil(t, g.Name)
	assert.Nil(t, g.Description)
	assert.Nil(t, g.End)
	assert.Nil(t, g.Strand)
}

func TestParseTabAndPipe(t *testing.T) {
	for _, delim := range []string{"\t", "|"} {
		input := strings.ReplaceAll(martSample, ",", delim)
		genes, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, genes, 3)
		assert.Equal(t, "SOD1", *genes[0].Name)
	}
}

func TestParseSkipsRowsWithoutStableID(t *testing.T) {
	input := martHeader +
		",NONAME,orphan row,21,100,200,1,protein_coding\n" +
		"   ,SPACES,padded id,21,100,200,1,protein_coding\n" +
		"ENSG00000000001,KEEP,kept row,21,100,200,1,protein_coding\n"

	genes, err := parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, genes, 1)
	assert.Equal(t, "ENSG00000000001", genes[0].StableID)
}

func TestParseNonNumericCoordinates(t *testing.T) {
	input := martHeader +
		"ENSG00000000001,BADSTART,non-numeric start,21,abc,200,1,protein_coding\n"

	genes, err := parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, genes, 1)

	// The row survives, only the unparsable field degrades to nil.
	assert.Nil(t, genes[0].Start)
	assert.Equal(t, int64(200), *genes[0].End)
}

func TestParseTrimsWhitespace(t *testing.T) {
	input := martHeader +
		" ENSG00000000001 , SOD1 , desc ,21, 100 ,200,1,protein_coding\n"

	genes, err := parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, genes, 1)
	assert.Equal(t, "ENSG00000000001", genes[0].StableID)
	assert.Equal(t, "SOD1", *genes[0].Name)
	assert.Equal(t, int64(100), *genes[0].Start)
}

func TestParseMissingStableIDColumn(t *testing.T) {
	input := "Gene name,Gene type\nSOD1,protein_coding\n"
	_, err := parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gene stable ID")
}

func TestParseMissingFile(t *testing.T) {
	genes, err := Parse(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Empty(t, genes)
}

func TestParseGzippedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mart_export.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(martSample))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	genes, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, genes, 3)
	assert.Equal(t, "SOD1", *genes[0].Name)
}

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mart_export.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunSeedsOnce(t *testing.T) {
	ctx := context.Background()
	s, err := duckdb.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	path := writeDataset(t, martSample)

	require.NoError(t, Run(ctx, s, path, nil))
	total, _, err := s.Find(ctx, duckdb.Filter{}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// A second run simulates a warm restart and must not duplicate rows.
	require.NoError(t, Run(ctx, s, path, nil))
	total, _, err = s.Find(ctx, duckdb.Filter{}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestRunMissingFile(t *testing.T) {
	ctx := context.Background()
	s, err := duckdb.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, Run(ctx, s, filepath.Join(t.TempDir(), "absent.txt"), nil))
	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}
