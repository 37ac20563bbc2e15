package models

// OptID is an optional stable identifier. Unmapped display names yield an
// invalid OptID, not an error; downstream consumers tolerate missing IDs.
type OptID struct {
	ID    int64
	Valid bool
}

// ID wraps a resolved identifier.
func ID(id int64) OptID { return OptID{ID: id, Valid: true} }

// FinalRecord is one row of the denormalized output dataset: a normalized
// record joined against the reference maps and flagged by issuer category.
type FinalRecord struct {
	NormalizedRecord

	Category Category

	IssuerID OptID
	IssueID  OptID

	// IsCollector is 1 when IssuerID belongs to the configured set of
	// collector-agency identifiers, 0 otherwise.
	IsCollector int
}

// FinalDataset is the union of the enriched, reference-joined category
// datasets. Row order is the concatenation order; indices are contiguous
// slice positions. Built once per run and not mutated afterwards.
type FinalDataset []FinalRecord
