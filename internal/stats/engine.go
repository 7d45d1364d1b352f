// Package stats implements the aggregation engine and the paginated list
// fetcher. Each request fans out the independent store queries
// concurrently, then reduces the raw rows into the final aggregate shapes
// with pure functions; no accumulator is shared between computations.
package stats

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/model"
	"github.com/baystate-data/arrestlog/internal/store"
)

const (
	topCitiesLimit    = 10
	topChargesLimit   = 20
	topChargesPerDim  = 5
	recentWeekDays    = 7
	recentMonthDays   = 30
)

// Engine computes aggregate bundles and record pages over a Store.
type Engine struct {
	store store.Store
	now   func() time.Time
}

// NewEngine creates an Engine using wall-clock time for the "this week" /
// "this month" counters.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// Aggregate computes the full bundle for one filter. The underlying
// queries run in parallel; the bundle succeeds or fails as a whole.
func (e *Engine) Aggregate(ctx context.Context, f model.Filter) (*model.AggregateBundle, error) {
	start := time.Now()
	gran := arrests.ChooseGranularity(f.DateFrom, f.DateTo)

	// "This week" and "this month" are relative to evaluation time, not
	// to the date filter.
	today := model.DateOf(e.now().UTC())
	weekAgo := today.AddDays(-recentWeekDays)
	monthAgo := today.AddDays(-recentMonthDays)

	var (
		counts     store.StatCounts
		avgAge     float64
		cities     []model.CityCount
		timeline   []model.DateCount
		dows       []store.DowCount
		ageRanges  []store.KeyCount
		sexes      []store.KeyCount
		races      []store.KeyCount
		chargeRows []store.ChargeRow
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) { counts, err = e.store.Counts(egCtx, f, weekAgo, monthAgo); return })
	eg.Go(func() (err error) { avgAge, err = e.store.AverageAge(egCtx, f); return })
	eg.Go(func() (err error) { cities, err = e.store.CityCounts(egCtx, f); return })
	eg.Go(func() (err error) { timeline, err = e.store.TimelineCounts(egCtx, f, gran); return })
	eg.Go(func() (err error) { dows, err = e.store.DayOfWeekCounts(egCtx, f); return })
	eg.Go(func() (err error) { ageRanges, err = e.store.AgeRangeCounts(egCtx, f); return })
	eg.Go(func() (err error) { sexes, err = e.store.SexCounts(egCtx, f); return })
	eg.Go(func() (err error) { races, err = e.store.RaceCounts(egCtx, f); return })
	eg.Go(func() (err error) { chargeRows, err = e.store.ChargeRows(egCtx, f); return })
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: aggregate")
	}

	bundle := model.NewAggregateBundle()
	bundle.TimelineData = timeline
	bundle.DayOfWeekData = zeroFilledDays(dows)
	bundle.AgeDistribution = zeroFilledAgeRanges(ageRanges)
	for _, kc := range sexes {
		bundle.SexBreakdown = append(bundle.SexBreakdown, model.SexCount{Sex: kc.Key, Count: kc.Count})
	}
	for _, kc := range races {
		bundle.RaceBreakdown = append(bundle.RaceBreakdown, model.RaceCount{Race: kc.Key, Count: kc.Count})
	}

	merged := mergeCities(cities)
	if len(merged) > topCitiesLimit {
		merged = merged[:topCitiesLimit]
	}
	bundle.TopCities = merged

	charges := reduceCharges(chargeRows, gran)
	bundle.TopCharges = charges.top(topChargesLimit)
	bundle.ChargeCategories = charges.categories()
	bundle.ChargeTrends = charges.trends()
	bundle.ChargesByAge = charges.byAge(topChargesPerDim)
	bundle.ChargesByRace = charges.byRace(topChargesPerDim)
	bundle.ChargesBySex = charges.bySex(topChargesPerDim)

	bundle.Stats = model.Stats{
		Total:        counts.Total,
		ThisWeek:     counts.ThisWeek,
		ThisMonth:    counts.ThisMonth,
		TotalCharges: charges.total,
		AverageAge:   round1(avgAge),
	}
	if counts.Total > 0 {
		bundle.Stats.AvgChargesPerArrest = round1(float64(charges.total) / float64(counts.Total))
	}

	zap.L().Debug("aggregate bundle computed",
		zap.String("filter", arrests.FilterKey(f)),
		zap.String("granularity", string(gran)),
		zap.Int64("total", counts.Total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return bundle, nil
}

// Heatmap returns the full ranked city count list (the uncapped variant
// of topCities), keyed by canonical city names.
func (e *Engine) Heatmap(ctx context.Context, f model.Filter) ([]model.CityCount, error) {
	raw, err := e.store.CityCounts(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "stats: heatmap")
	}
	return mergeCities(raw), nil
}

// mergeCities folds raw city_town groups into canonical city keys,
// dropping rows whose city normalizes to empty, sorted by count
// descending then city ascending.
func mergeCities(raw []model.CityCount) []model.CityCount {
	counts := make(map[string]int64, len(raw))
	for _, cc := range raw {
		key := arrests.NormalizeCity(cc.City)
		if key == "" {
			continue
		}
		counts[key] += cc.Count
	}

	out := make([]model.CityCount, 0, len(counts))
	for city, count := range counts {
		out = append(out, model.CityCount{City: city, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	return out
}

// zeroFilledDays emits all seven day names in Sunday-first order; days
// with no records carry a zero count.
func zeroFilledDays(dows []store.DowCount) []model.DayCount {
	var counts [7]int64
	for _, dc := range dows {
		if dc.Dow >= 0 && dc.Dow < 7 {
			counts[dc.Dow] = dc.Count
		}
	}
	out := make([]model.DayCount, 7)
	for i, name := range arrests.DayNames {
		out[i] = model.DayCount{Day: name, Count: counts[i]}
	}
	return out
}

// zeroFilledAgeRanges emits the fixed age buckets in order, zero-filling
// empty ones.
func zeroFilledAgeRanges(ranges []store.KeyCount) []model.AgeRangeCount {
	counts := make(map[string]int64, len(ranges))
	for _, kc := range ranges {
		counts[kc.Key] = kc.Count
	}
	out := make([]model.AgeRangeCount, 0, len(arrests.AgeRanges))
	for _, label := range arrests.AgeRanges {
		out = append(out, model.AgeRangeCount{AgeRange: label, Count: counts[label]})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
