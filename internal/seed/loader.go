// Package seed loads a Biomart mart-export file into the gene store.
// Seeding happens once, at first startup, and only when the store is
// still empty.
package seed

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/chr21-gene-api/internal/duckdb"
	"github.com/inodb/chr21-gene-api/internal/gene"
)

// Biomart export column names.
const (
	ColStableID    = "Gene stable ID"
	ColName        = "Gene name"
	ColDescription = "Gene description"
	ColChromosome  = "Chromosome/scaffold name"
	ColStart       = "Gene start (bp)"
	ColEnd         = "Gene end (bp)"
	ColStrand      = "Strand"
	ColType        = "Gene type"
)

// Run seeds the store from the dataset file at path. It is a no-op when
// the store already holds at least one gene, so warm restarts never
// duplicate rows.
//
// The empty-check and the insert are not guarded by a cross-process
// lock: two processes seeding the same shared database concurrently can
// race on the primary key. Serialize first-run initialization yourself
// if you share the database file.
func Run(ctx context.Context, store *duckdb.Store, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	empty, err := store.IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if !empty {
		logger.Debug("gene store already seeded, skipping load")
		return nil
	}

	genes, err := Parse(path)
	if err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}
	if len(genes) == 0 {
		logger.Warn("no dataset rows to seed, serving an empty store",
			zap.String("path", path))
		return nil
	}

	if err := store.BulkInsert(ctx, genes); err != nil {
		return fmt.Errorf("seed genes: %w", err)
	}

	logger.Info("seeded gene store",
		zap.Int("genes", len(genes)),
		zap.String("path", path))
	return nil
}

// Parse reads the mart-export file at path into gene records. A missing
// file yields zero records rather than an error, so the service can
// start against an empty dataset. Supports gzipped exports.
func Parse(path string) ([]gene.Gene, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Check for gzip magic number (0x1f, 0x8b)
	magic := make([]byte, 2)
	if _, err := io.ReadFull(f, magic); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil // empty file, empty dataset
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek dataset: %w", err)
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return parse(reader)
}

// parse reads delimited content with a header row into gene records.
func parse(reader io.Reader) ([]gene.Gene, error) {
	br := bufio.NewReader(reader)

	delim, err := detectDelimiter(br)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	idCol, ok := cols[ColStableID]
	if !ok {
		return nil, fmt.Errorf("dataset header missing %q column", ColStableID)
	}

	var genes []gene.Gene
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}

		// A row without a stable id can never be addressed, so it
		// is dropped rather than stored.
		stableID := strings.TrimSpace(field(rec, idCol))
		if stableID == "" {
			continue
		}

		genes = append(genes, gene.Gene{
			StableID:    stableID,
			Name:        cleanStr(lookup(rec, cols, ColName)),
			Description: cleanStr(lookup(rec, cols, ColDescription)),
			Chromosome:  cleanStr(lookup(rec, cols, ColChromosome)),
			Start:       parseInt64(lookup(rec, cols, ColStart)),
			End:         parseInt64(lookup(rec, cols, ColEnd)),
			Strand:      parseInt(lookup(rec, cols, ColStrand)),
			Type:        cleanStr(lookup(rec, cols, ColType)),
		})
	}

	return genes, nil
}

// detectDelimiter sniffs the header line for the most frequent of
// tab, pipe and comma. Biomart exports vary between the three.
func detectDelimiter(br *bufio.Reader) (rune, error) {
	peek, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("peek dataset header: %w", err)
	}

	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	delim := ','
	best := strings.Count(line, ",")
	if n := strings.Count(line, "\t"); n > best {
		delim, best = '\t', n
	}
	if n := strings.Count(line, "|"); n > best {
		delim = '|'
	}
	return delim, nil
}

// field returns rec[i], tolerating short rows.
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// lookup returns the named column of rec, or "" when the column is
// absent from the header.
func lookup(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return field(rec, i)
}

// cleanStr trims the value and normalizes empty strings to nil.
func cleanStr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// parseInt64 parses a coordinate column, degrading to nil on anything
// non-numeric rather than failing the load.
func parseInt64(v string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseInt(v string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}
