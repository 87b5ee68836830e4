package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inodb/chr21-gene-api/internal/gene"
)

const geneColumns = `gene_stable_id, gene_name, gene_description, chromosome,
	gene_start, gene_end, strand, gene_type`

// Rows without a start coordinate sort after all positioned rows; the
// stable id breaks ties so pagination is deterministic.
const geneOrder = `ORDER BY gene_start ASC NULLS LAST, gene_stable_id`

// Filter restricts a Find query. Zero-value fields are ignored.
type Filter struct {
	// Chromosome is an exact match on the chromosome/scaffold name.
	Chromosome string
	// Type is a case-insensitive substring match on the gene type.
	Type string
	// Search is a case-insensitive substring match on the gene name
	// or description.
	Search string
}

// IsEmpty reports whether the store holds zero genes.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM genes`).Scan(&n); err != nil {
		return false, fmt.Errorf("count genes: %w", err)
	}
	return n == 0, nil
}

// BulkInsert inserts all given genes in one transaction. A failed insert,
// including a stable-id collision, rolls back the whole batch so no
// partial state is visible.
func (s *Store) BulkInsert(ctx context.Context, genes []gene.Gene) error {
	if len(genes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO genes (`+geneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare gene insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range genes {
		if _, err := stmt.ExecContext(ctx,
			g.StableID, g.Name, g.Description, g.Chromosome,
			g.Start, g.End, g.Strand, g.Type,
		); err != nil {
			return fmt.Errorf("insert gene %s: %w", g.StableID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gene insert: %w", err)
	}
	return nil
}

// GetByID returns the gene with the given stable id, or gene.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*gene.Gene, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+geneColumns+` FROM genes WHERE gene_stable_id = ?`, id)

	g, err := scanGene(row)
	if err == sql.ErrNoRows {
		return nil, gene.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query gene by id: %w", err)
	}
	return g, nil
}

// FindByName returns the gene whose name equals the given name, compared
// case-insensitively. When several genes share a name the one with the
// smallest start coordinate wins. Returns gene.ErrNotFound on no match.
func (s *Store) FindByName(ctx context.Context, name string) (*gene.Gene, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+geneColumns+` FROM genes
		WHERE gene_name IS NOT NULL AND lower(gene_name) = lower(?)
		`+geneOrder+` LIMIT 1`, name)

	g, err := scanGene(row)
	if err == sql.ErrNoRows {
		return nil, gene.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query gene by name: %w", err)
	}
	return g, nil
}

// Find returns the total number of genes matching the filter and one page
// of matches, ordered ascending by start coordinate.
func (s *Store) Find(ctx context.Context, f Filter, offset, limit int) (int, []gene.Gene, error) {
	where, args := buildWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM genes`+where, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count matching genes: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+geneColumns+` FROM genes`+where+` `+geneOrder+` LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return 0, nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()

	genes := []gene.Gene{}
	for rows.Next() {
		g, err := scanGene(rows)
		if err != nil {
			return 0, nil, fmt.Errorf("scan gene: %w", err)
		}
		genes = append(genes, *g)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate genes: %w", err)
	}

	return total, genes, nil
}

// buildWhere translates a Filter into a WHERE clause and its arguments.
func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Chromosome != "" {
		conds = append(conds, `chromosome = ?`)
		args = append(args, f.Chromosome)
	}
	if f.Type != "" {
		conds = append(conds, `gene_type ILIKE ?`)
		args = append(args, "%"+f.Type+"%")
	}
	if f.Search != "" {
		conds = append(conds, `(gene_name ILIKE ? OR gene_description ILIKE ?)`)
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanGene scans one genes row, converting NULL columns to nil pointers.
func scanGene(row rowScanner) (*gene.Gene, error) {
	var (
		g          gene.Gene
		name, desc sql.NullString
		chrom, typ sql.NullString
		start, end sql.NullInt64
		strand     sql.NullInt32
	)

	if err := row.Scan(&g.StableID, &name, &desc, &chrom, &start, &end, &strand, &typ); err != nil {
		return nil, err
	}

	g.Name = nullStr(name)
	g.Description = nullStr(desc)
	g.Chromosome = nullStr(chrom)
	g.Start = nullInt64(start)
	g.End = nullInt64(end)
	g.Strand = nullInt(strand)
	g.Type = nullStr(typ)
	return &g, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}
