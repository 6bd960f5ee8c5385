package services

import (
	"context"

	"github.com/damacus/r2-manager/internal/models"
)

// DefaultPageSize is the number of files per page when the caller gives none.
const DefaultPageSize = 50

// Paginate cuts one page out of a level's files. page is 1-indexed; a page
// outside 1..totalPages yields no files but valid metadata.
func Paginate(files []models.FileEntry, page, limit int) ([]models.FileEntry, models.Pagination) {
	if limit < 1 {
		limit = 1
	}
	total := len(files)
	totalPages := (total + limit - 1) / limit

	p := models.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalFiles:  total,
		Limit:       limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}

	if page < 1 || page > totalPages {
		return []models.FileEntry{}, p
	}
	start := (page - 1) * limit
	end := min(start+limit, total)

	visible := make([]models.FileEntry, end-start)
	copy(visible, files[start:end])
	return visible, p
}

// PageRequest selects one page of a folder level.
type PageRequest struct {
	Prefix          string
	Page            int
	Limit           int
	IncludeAllStats bool
}

// Paginator serves paginated folder listings. Only the visible page is signed.
type Paginator struct {
	lister *Lister
	signer *URLSigner
}

func NewPaginator(lister *Lister, signer *URLSigner) *Paginator {
	return &Paginator{lister: lister, signer: signer}
}

// Page lists req.Prefix, slices the requested page and signs its files.
// With IncludeAllStats the bucket-wide inventory and totals are attached.
func (p *Paginator) Page(ctx context.Context, req PageRequest) (*models.ListingPage, error) {
	level, err := p.lister.ListFolder(ctx, req.Prefix)
	if err != nil {
		return nil, err
	}

	visible, pagination := Paginate(level.Files, req.Page, req.Limit)
	if err := p.signer.SignFiles(ctx, visible); err != nil {
		return nil, err
	}

	page := &models.ListingPage{
		Folders:    level.Folders,
		Files:      visible,
		Pagination: pagination,
	}

	if req.IncludeAllStats {
		entries, stats, err := p.lister.Inventory(ctx, "")
		if err != nil {
			return nil, err
		}
		page.AllFiles = entries
		page.Stats = &stats
	}
	return page, nil
}
