// Package query translates validated request parameters into gene store
// calls and shapes the results for transport. Both the HTTP server and
// the Lambda handler sit on top of this engine.
package query

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/chr21-gene-api/internal/duckdb"
	"github.com/inodb/chr21-gene-api/internal/gene"
)

// ErrInvalidArgument marks client errors caused by out-of-range
// pagination parameters. Adapters map it to 400 or 422.
var ErrInvalidArgument = errors.New("invalid argument")

// Pagination bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// ListParams are the validated parameters of a gene list query.
type ListParams struct {
	Page       int
	PageSize   int
	Chromosome string
	GeneType   string
	Search     string
}

// Engine answers read queries against the gene store. All operations
// are pure reads; storage failures propagate to the caller.
type Engine struct {
	store  *duckdb.Store
	logger *zap.Logger
}

// New creates an engine over the given store.
func New(store *duckdb.Store) *Engine {
	return &Engine{store: store, logger: zap.NewNop()}
}

// SetLogger sets the logger for query diagnostics.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// List returns one page of genes matching the filters, ordered
// ascending by start coordinate, plus the total match count.
func (e *Engine) List(ctx context.Context, p ListParams) (*gene.ListResult, error) {
	if p.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidArgument, p.Page)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page_size must be between 1 and %d, got %d",
			ErrInvalidArgument, MaxPageSize, p.PageSize)
	}

	filter := duckdb.Filter{
		Chromosome: p.Chromosome,
		Type:       p.GeneType,
		Search:     p.Search,
	}
	offset := (p.Page - 1) * p.PageSize

	total, items, err := e.store.Find(ctx, filter, offset, p.PageSize)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("listed genes",
		zap.Int("total", total),
		zap.Int("page", p.Page),
		zap.Int("returned", len(items)))

	return &gene.ListResult{
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Items:    items,
	}, nil
}

// GetByID returns the gene with the given stable id, or gene.ErrNotFound.
func (e *Engine) GetByID(ctx context.Context, id string) (*gene.Gene, error) {
	return e.store.GetByID(ctx, id)
}

// GetByName returns the gene matching the given name case-insensitively,
// preferring the smallest start coordinate when names collide.
func (e *Engine) GetByName(ctx context.Context, name string) (*gene.Gene, error) {
	return e.store.FindByName(ctx, name)
}
