// Package model holds the shared value types for the arrest analytics
// service: records, filters, aggregate shapes, and pages.
package model

// ArrestRecord is one arrest row as stored in the arrest_logs table.
// Records are externally owned and read-only; JSON field names match the
// dashboard wire format.
type ArrestRecord struct {
	ArrestID       string `json:"arrest_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Age            int    `json:"age"` // 0 means unknown
	Sex            string `json:"sex"`
	Race           string `json:"race"`
	Charges        string `json:"charges"` // comma-delimited charge descriptions
	ArrestDate     Date   `json:"arrest_date"`
	ArrestTime     string `json:"arrest_time"`
	CityTown       string `json:"city_town"`
	StreetLine     string `json:"street_line"`
	ZipCode        string `json:"zip_code,omitempty"`
	ProcessingTime string `json:"processing_time"`
	SourceFile     string `json:"source_file"`
}

// Page is one page of arrest records plus pagination metadata.
type Page struct {
	Records    []ArrestRecord `json:"records"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// Filter holds the optional user-supplied constraints applied uniformly
// across every aggregate in one response. Zero values mean unconstrained.
type Filter struct {
	Town     string
	DateFrom *Date
	DateTo   *Date
}

// IsZero reports whether no constraint is set.
func (f Filter) IsZero() bool {
	return f.Town == "" && f.DateFrom == nil && f.DateTo == nil
}
