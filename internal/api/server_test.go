package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/chr21-gene-api/internal/duckdb"
	"github.com/inodb/chr21-gene-api/internal/gene"
	"github.com/inodb/chr21-gene-api/internal/query"
)

func strp(s string) *string { return &s }
func i64p(n int64) *int64   { return &n }

// testServer serves five chromosome 21 genes plus one on chromosome 1.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := duckdb.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	genes := []gene.Gene{
		{StableID: "ENSG00000000001", Name: strp("GENE1"), Chromosome: strp("21"),
			Start: i64p(1000), Type: strp("protein_coding")},
		{StableID: "ENSG00000000002", Name: strp("GENE2"), Chromosome: strp("21"),
			Start: i64p(2000), Type: strp("protein_coding")},
		{StableID: "ENSG00000000003", Name: strp("GENE3"), Chromosome: strp("21"),
			Start: i64p(3000), Type: strp("lncRNA")},
		{StableID: "ENSG00000000004", Name: strp("SOD1"), Chromosome: strp("21"),
			Start: i64p(4000), Description: strp("superoxide dismutase 1"),
			Type: strp("protein_coding")},
		{StableID: "ENSG00000000005", Chromosome: strp("21"),
			Type: strp("lncRNA")},
		{StableID: "ENSG00000000006", Name: strp("OFFCHR"), Chromosome: strp("1"),
			Start: i64p(500), Type: strp("protein_coding")},
	}
	require.NoError(t, s.BulkInsert(context.Background(), genes))

	ts := httptest.NewServer(NewServer(query.New(s)).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestRootWelcome(t *testing.T) {
	ts := testServer(t)

	var body map[string]string
	code := getJSON(t, ts.URL+"/", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome to Chromosome 21 Gene API", body["message"])
}

func TestListGenesPaginated(t *testing.T) {
	ts := testServer(t)

	var res gene.ListResult
	code := getJSON(t, ts.URL+"/genes?chromosome=21&page=1&page_size=2", &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 2, res.PageSize)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "ENSG00000000001", res.Items[0].StableID)
	assert.Equal(t, "ENSG00000000002", res.Items[1].StableID)
}

func TestListGenesDefaults(t *testing.T) {
	ts := testServer(t)

	var res gene.ListResult
	code := getJSON(t, ts.URL+"/genes", &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 25, res.PageSize)
	assert.Len(t, res.Items, 6)

	// Null start coordinate sorts last.
	assert.Equal(t, "ENSG00000000005", res.Items[5].StableID)
	assert.Nil(t, res.Items[5].Start)
}

func TestListGenesFilters(t *testing.T) {
	ts := testServer(t)

	var res gene.ListResult
	getJSON(t, ts.URL+"/genes?gene_type=LNC", &res)
	assert.Equal(t, 2, res.Total)

	getJSON(t, ts.URL+"/genes?search=DISMUTASE", &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "ENSG00000000004", res.Items[0].StableID)

	getJSON(t, ts.URL+"/genes?search=gene", &res)
	assert.Equal(t, 3, res.Total)
}

func TestListGenesBadParams(t *testing.T) {
	ts := testServer(t)

	for _, qs := range []string{
		"page=0",
		"page=-3",
		"page_size=0",
		"page_size=201",
		"page=abc",
		"page_size=abc",
	} {
		var body map[string]string
		code := getJSON(t, ts.URL+"/genes?"+qs, &body)
		assert.Equal(t, http.StatusUnprocessableEntity, code, qs)
		assert.NotEmpty(t, body["detail"], qs)
	}
}

func TestGetGeneByID(t *testing.T) {
	ts := testServer(t)

	var g gene.Gene
	code := getJSON(t, ts.URL+"/genes/ENSG00000000004", &g)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "SOD1", *g.Name)
	assert.Equal(t, int64(4000), *g.Start)

	var body map[string]string
	code = getJSON(t, ts.URL+"/genes/ENSG99999999999", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Gene not found", body["detail"])
}

func TestGetGeneByName(t *testing.T) {
	ts := testServer(t)

	var g gene.Gene
	code := getJSON(t, ts.URL+"/genes/by-name/sod1", &g)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ENSG00000000004", g.StableID)

	var body map[string]string
	code = getJSON(t, ts.URL+"/genes/by-name/NOPE", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Gene not found", body["detail"])
}

func TestUnknownRoute(t *testing.T) {
	ts := testServer(t)

	var body map[string]string
	code := getJSON(t, ts.URL+"/nope/nope", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", body["detail"])
}

func TestMethodNotAllowed(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/genes", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Method Not Allowed", body["detail"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := testServer(t)

	var body map[string]string
	code := getJSON(t, ts.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	// Metrics endpoint exists and reports the request counter.
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/genes")
		require.NoError(t, err)
		resp.Body.Close()
	}
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "gene_api_requests_total")
}

func TestGeneJSONShape(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/genes/ENSG00000000005")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))

	for _, field := range []string{
		"gene_stable_id", "gene_name", "gene_description", "chromosome",
		"gene_start", "gene_end", "strand", "gene_type",
	} {
		assert.Contains(t, raw, field)
	}
	// Nullable fields appear as JSON null, not as empty strings.
	assert.Equal(t, "null", string(raw["gene_name"]))
	assert.Equal(t, "null", string(raw["gene_start"]))
}

func TestTotalInvariantAcrossPages(t *testing.T) {
	ts := testServer(t)

	totals := map[int]bool{}
	for page := 1; page <= 3; page++ {
		var res gene.ListResult
		getJSON(t, fmt.Sprintf("%s/genes?chromosome=21&page=%d&page_size=2", ts.URL, page), &res)
		totals[res.Total] = true
	}
	assert.Len(t, totals, 1)
	assert.True(t, totals[5])
}
