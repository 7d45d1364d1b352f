package stats

import (
	"sort"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/model"
	"github.com/baystate-data/arrestlog/internal/store"
)

// chargeReduction is the single-pass accumulation over the charge rows.
// One scan feeds every charge-derived aggregate so the counts always
// agree with each other.
type chargeReduction struct {
	total      int64
	byCharge   map[string]int64
	byCategory map[arrests.Category]int64
	byBucket   map[bucketKey]int64
	ageCharge  map[string]map[string]int64
	raceCharge map[string]map[string]int64
	sexCharge  map[string]map[string]int64
}

type bucketKey struct {
	date     model.Date
	category arrests.Category
}

func reduceCharges(rows []store.ChargeRow, g arrests.Granularity) *chargeReduction {
	r := &chargeReduction{
		byCharge:   map[string]int64{},
		byCategory: map[arrests.Category]int64{},
		byBucket:   map[bucketKey]int64{},
		ageCharge:  map[string]map[string]int64{},
		raceCharge: map[string]map[string]int64{},
		sexCharge:  map[string]map[string]int64{},
	}
	for _, row := range rows {
		tokens := arrests.TokenizeCharges(row.Charges)
		for _, tok := range tokens {
			r.total++
			r.byCharge[tok]++

			cat := arrests.ClassifyCharge(tok)
			r.byCategory[cat]++
			if !row.Date.IsZero() {
				r.byBucket[bucketKey{date: arrests.Truncate(row.Date, g), category: cat}]++
			}

			if row.Age > 0 {
				bump(r.ageCharge, arrests.AgeRange(row.Age), tok)
			}
			if row.Sex != "" && row.Sex != "U" {
				bump(r.sexCharge, row.Sex, tok)
			}
			if row.Race != "" && row.Race != "U" {
				bump(r.raceCharge, row.Race, tok)
			}
		}
	}
	return r
}

func bump(m map[string]map[string]int64, key, charge string) {
	inner, ok := m[key]
	if !ok {
		inner = map[string]int64{}
		m[key] = inner
	}
	inner[charge]++
}

// top returns the n most frequent charge tokens, ties broken by charge
// text ascending.
func (r *chargeReduction) top(n int) []model.ChargeCount {
	out := rankCharges(r.byCharge)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (r *chargeReduction) categories() []model.CategoryCount {
	out := make([]model.CategoryCount, 0, len(r.byCategory))
	for cat, count := range r.byCategory {
		out = append(out, model.CategoryCount{Category: string(cat), Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (r *chargeReduction) trends() []model.TrendPoint {
	out := make([]model.TrendPoint, 0, len(r.byBucket))
	for key, count := range r.byBucket {
		out = append(out, model.TrendPoint{Date: key.date, Category: string(key.category), Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Time().Equal(out[j].Date.Time()) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (r *chargeReduction) byAge(perDim int) []model.AgeChargeCount {
	out := []model.AgeChargeCount{}
	// Fixed bucket order keeps the cross-tab stable across requests.
	for _, ageRange := range arrests.AgeRanges {
		inner, ok := r.ageCharge[ageRange]
		if !ok {
			continue
		}
		for _, cc := range capCharges(inner, perDim) {
			out = append(out, model.AgeChargeCount{AgeRange: ageRange, Charge: cc.Charge, Count: cc.Count})
		}
	}
	return out
}

func (r *chargeReduction) byRace(perDim int) []model.RaceChargeCount {
	out := []model.RaceChargeCount{}
	for _, race := range sortedKeys(r.raceCharge) {
		for _, cc := range capCharges(r.raceCharge[race], perDim) {
			out = append(out, model.RaceChargeCount{Race: race, Charge: cc.Charge, Count: cc.Count})
		}
	}
	return out
}

func (r *chargeReduction) bySex(perDim int) []model.SexChargeCount {
	out := []model.SexChargeCount{}
	for _, sex := range sortedKeys(r.sexCharge) {
		for _, cc := range capCharges(r.sexCharge[sex], perDim) {
			out = append(out, model.SexChargeCount{Sex: sex, Charge: cc.Charge, Count: cc.Count})
		}
	}
	return out
}

func rankCharges(counts map[string]int64) []model.ChargeCount {
	out := make([]model.ChargeCount, 0, len(counts))
	for charge, count := range counts {
		out = append(out, model.ChargeCount{Charge: charge, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Charge < out[j].Charge
	})
	return out
}

func capCharges(counts map[string]int64, n int) []model.ChargeCount {
	out := rankCharges(counts)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedKeys(m map[string]map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
