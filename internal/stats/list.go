package stats

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/baystate-data/arrestlog/internal/model"
)

// List fetches one page of records plus the totals for the same filter
// and search term. Pages before 1 are clamped to 1; a page past the end
// returns an empty record list with the real totals.
func (e *Engine) List(ctx context.Context, f model.Filter, search string, page, pageSize int) (*model.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	offset := (page - 1) * pageSize

	var (
		records []model.ArrestRecord
		total   int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) { records, err = e.store.ListArrests(egCtx, f, search, pageSize, offset); return })
	eg.Go(func() (err error) { total, err = e.store.CountArrests(egCtx, f, search); return })
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: list")
	}

	if records == nil {
		records = []model.ArrestRecord{}
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &model.Page{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
