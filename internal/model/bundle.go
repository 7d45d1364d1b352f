package model

// Stats holds the headline counters for a filtered record set.
type Stats struct {
	Total               int64   `json:"total"`
	ThisWeek            int64   `json:"thisWeek"`
	ThisMonth           int64   `json:"thisMonth"`
	TotalCharges        int64   `json:"totalCharges"`
	AverageAge          float64 `json:"averageAge"`
	AvgChargesPerArrest float64 `json:"avgChargesPerArrest"`
}

// CityCount is a canonical city key with its arrest count.
type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}

// ChargeCount is one charge token with its occurrence count.
type ChargeCount struct {
	Charge string `json:"charge"`
	Count  int64  `json:"count"`
}

// DateCount is one timeline bucket.
type DateCount struct {
	Date  Date  `json:"date"`
	Count int64 `json:"count"`
}

// DayCount is one day-of-week bucket (day is the English day name).
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// AgeRangeCount is one fixed age bucket.
type AgeRangeCount struct {
	AgeRange string `json:"ageRange"`
	Count    int64  `json:"count"`
}

// SexCount is one sex code with its count.
type SexCount struct {
	Sex   string `json:"sex"`
	Count int64  `json:"count"`
}

// RaceCount is one race code with its count.
type RaceCount struct {
	Race  string `json:"race"`
	Count int64  `json:"count"`
}

// CategoryCount is one charge category with its count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// TrendPoint is one (time bucket, category) cell of the charge trend series.
type TrendPoint struct {
	Date     Date   `json:"date"`
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// AgeChargeCount is one (age range, charge) cross-tab entry.
type AgeChargeCount struct {
	AgeRange string `json:"ageRange"`
	Charge   string `json:"charge"`
	Count    int64  `json:"count"`
}

// RaceChargeCount is one (race, charge) cross-tab entry.
type RaceChargeCount struct {
	Race   string `json:"race"`
	Charge string `json:"charge"`
	Count  int64  `json:"count"`
}

// SexChargeCount is one (sex, charge) cross-tab entry.
type SexChargeCount struct {
	Sex    string `json:"sex"`
	Charge string `json:"charge"`
	Count  int64  `json:"count"`
}

// AggregateBundle is the full aggregate response for one filter. Every
// field is always present; empty inputs produce empty slices, not nulls.
type AggregateBundle struct {
	Stats            Stats             `json:"stats"`
	TopCities        []CityCount       `json:"topCities"`
	TopCharges       []ChargeCount     `json:"topCharges"`
	TimelineData     []DateCount       `json:"timelineData"`
	DayOfWeekData    []DayCount        `json:"dayOfWeekData"`
	AgeDistribution  []AgeRangeCount   `json:"ageDistribution"`
	SexBreakdown     []SexCount        `json:"sexBreakdown"`
	RaceBreakdown    []RaceCount       `json:"raceBreakdown"`
	ChargeCategories []CategoryCount   `json:"chargeCategories"`
	ChargeTrends     []TrendPoint      `json:"chargeTrends"`
	ChargesByAge     []AgeChargeCount  `json:"chargesByAge"`
	ChargesByRace    []RaceChargeCount `json:"chargesByRace"`
	ChargesBySex     []SexChargeCount  `json:"chargesBySex"`
}

// NewAggregateBundle returns a bundle with all slices initialized so the
// JSON encoding always emits arrays.
func NewAggregateBundle() *AggregateBundle {
	return &AggregateBundle{
		TopCities:        []CityCount{},
		TopCharges:       []ChargeCount{},
		TimelineData:     []DateCount{},
		DayOfWeekData:    []DayCount{},
		AgeDistribution:  []AgeRangeCount{},
		SexBreakdown:     []SexCount{},
		RaceBreakdown:    []RaceCount{},
		ChargeCategories: []CategoryCount{},
		ChargeTrends:     []TrendPoint{},
		ChargesByAge:     []AgeChargeCount{},
		ChargesByRace:    []RaceChargeCount{},
		ChargesBySex:     []SexChargeCount{},
	}
}
