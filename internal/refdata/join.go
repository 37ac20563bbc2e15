// Package refdata joins enriched category datasets against the static
// reference maps: issuer and issue identifiers and the collector flag.
package refdata

import (
	"bondpulse/config"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/logger"
)

// Join produces the denormalized dataset from both category record sets.
// Row order is mfo first, then collectors, each preserving its input order.
// Unmapped issuer or bond names produce invalid identifiers rather than
// errors; each miss is logged once.
func Join(mfo, collectors []models.NormalizedRecord, ref *config.Reference) models.FinalDataset {
	collectorSet := make(map[int64]struct{}, len(ref.CollectorIDs))
	for _, id := range ref.CollectorIDs {
		collectorSet[id] = struct{}{}
	}

	out := make(models.FinalDataset, 0, len(mfo)+len(collectors))
	out = appendCategory(out, mfo, models.CategoryMFO, ref, collectorSet)
	out = appendCategory(out, collectors, models.CategoryCollectors, ref, collectorSet)
	return out
}

func appendCategory(out models.FinalDataset, recs []models.NormalizedRecord, category models.Category, ref *config.Reference, collectorSet map[int64]struct{}) models.FinalDataset {
	for _, rec := range recs {
		final := models.FinalRecord{
			NormalizedRecord: rec,
			Category:         category,
		}

		if id, ok := ref.Issuers[rec.Issuer]; ok {
			final.IssuerID = models.ID(id)
			if _, isCollector := collectorSet[id]; isCollector {
				final.IsCollector = 1
			}
		} else {
			logger.L().Warn().Str("issuer", rec.Issuer).Str("isin", rec.ISIN).Msg("issuer not in reference map")
		}

		if id, ok := ref.Issues[rec.Name]; ok {
			final.IssueID = models.ID(id)
		} else {
			logger.L().Warn().Str("name", rec.Name).Str("isin", rec.ISIN).Msg("issue not in reference map")
		}

		out = append(out, final)
	}
	return out
}
