// Package gene defines the gene record served by the API.
package gene

import "errors"

// ErrNotFound is returned when no gene matches the requested id or name.
var ErrNotFound = errors.New("gene not found")

// Gene is one row of the Biomart export, keyed by its Ensembl stable ID.
// Nullable columns are pointer fields and serialize as JSON null.
type Gene struct {
	StableID    string  `json:"gene_stable_id"`
	Name        *string `json:"gene_name"`
	Description *string `json:"gene_description"`
	Chromosome  *string `json:"chromosome"`
	Start       *int64  `json:"gene_start"`
	End         *int64  `json:"gene_end"`
	Strand      *int    `json:"strand"`
	Type        *string `json:"gene_type"`
}

// ListResult is a single page of genes plus the total match count
// before pagination.
type ListResult struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Items    []Gene `json:"items"`
}
