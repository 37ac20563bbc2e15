package dto

import (
	"math"

	"bondpulse/internal/domain/models"
)

// SnapshotRow represents one dataset row as returned by the
// GET /api/v1/snapshot endpoint.
//
// Fields match the API contract and may differ from internal domain models.
// Missing numerics and unresolved identifiers serialize as JSON null.
type SnapshotRow struct {
	Category             string   `json:"category" example:"mfo"`
	Name                 string   `json:"name" example:"БондА"`
	ISIN                 string   `json:"isin" example:"RU000A105N25"`
	Issuer               string   `json:"issuer" example:"ЭмитентА"`
	IssuerID             *int64   `json:"issuer_id" example:"1"`
	IssueID              *int64   `json:"issue_id" example:"7"`
	IsCollector          int      `json:"is_collector" example:"0"`
	NAC                  *float64 `json:"nac" example:"1.2"`
	Duration             *float64 `json:"duration" example:"365"`
	YieldRate            *float64 `json:"yield_rate" example:"0.155"`
	Price                *float64 `json:"price" example:"99.8"`
	OutstandingVolume    *float64 `json:"outstanding_volume" example:"1000000"`
	AmountOfDeals        *float64 `json:"amount_of_deals" example:"10"`
	TradingVolume        *float64 `json:"trading_volume" example:"100000"`
	CouponRate           *float64 `json:"coupon_rate" example:"0.12"`
	ShareOfTradingVolume *float64 `json:"share_of_trading_volume" example:"0.1"`
	StartWeek            string   `json:"start_week" example:"2025-08-18"`
}

// SnapshotResponse wraps the rows of the latest completed run.
type SnapshotResponse struct {
	Rows  []SnapshotRow `json:"rows"`
	Count int           `json:"count" example:"120"`
}

// NewSnapshotResponse converts a dataset into its API representation.
func NewSnapshotResponse(ds models.FinalDataset) SnapshotResponse {
	rows := make([]SnapshotRow, 0, len(ds))
	for _, rec := range ds {
		rows = append(rows, SnapshotRow{
			Category:             string(rec.Category),
			Name:                 rec.Name,
			ISIN:                 rec.ISIN,
			Issuer:               rec.Issuer,
			IssuerID:             optID(rec.IssuerID),
			IssueID:              optID(rec.IssueID),
			IsCollector:          rec.IsCollector,
			NAC:                  optFloat(rec.NAC),
			Duration:             optFloat(rec.Duration),
			YieldRate:            optFloat(rec.YieldRate),
			Price:                optFloat(rec.Price),
			OutstandingVolume:    optFloat(rec.OutstandingVolume),
			AmountOfDeals:        optFloat(rec.AmountOfDeals),
			TradingVolume:        optFloat(rec.TradingVolume),
			CouponRate:           optFloat(rec.CouponRate),
			ShareOfTradingVolume: optFloat(rec.ShareOfTradingVolume),
			StartWeek:            rec.StartWeek.Format("2006-01-02"),
		})
	}
	return SnapshotResponse{Rows: rows, Count: len(rows)}
}

func optFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func optID(id models.OptID) *int64 {
	if !id.Valid {
		return nil
	}
	return &id.ID
}
