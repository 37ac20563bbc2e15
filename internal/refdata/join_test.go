package refdata

import (
	"testing"
	"time"

	"bondpulse/config"
	"bondpulse/internal/domain/models"
)

func testReference() *config.Reference {
	return &config.Reference{
		Issuers:      map[string]int64{"IssuerA": 1, "КоллекторБ": 13},
		Issues:       map[string]int64{"BondA": 7, "БондБ": 8},
		CollectorIDs: []int64{12, 13, 15},
	}
}

func record(name, issuer string) models.NormalizedRecord {
	return models.NormalizedRecord{
		Name:                 name,
		ISIN:                 "RU000A100001",
		Issuer:               issuer,
		TradingVolume:        100,
		OutstandingVolume:    1000,
		ShareOfTradingVolume: 0.1,
		StartWeek:            time.Date(2025, time.August, 18, 0, 0, 0, 0, time.UTC),
	}
}

func TestJoinResolvesIdentifiers(t *testing.T) {
	ds := Join([]models.NormalizedRecord{record("BondA", "IssuerA")}, nil, testReference())
	if len(ds) != 1 {
		t.Fatalf("got %d rows, want 1", len(ds))
	}
	row := ds[0]

	if row.IssuerID != models.ID(1) {
		t.Errorf("IssuerID = %+v, want resolved 1", row.IssuerID)
	}
	if row.IssueID != models.ID(7) {
		t.Errorf("IssueID = %+v, want resolved 7", row.IssueID)
	}
	if row.IsCollector != 0 {
		t.Errorf("IsCollector = %d, want 0", row.IsCollector)
	}
	if row.Category != models.CategoryMFO {
		t.Errorf("Category = %s, want mfo", row.Category)
	}
	if row.ShareOfTradingVolume != 0.1 {
		t.Errorf("ShareOfTradingVolume = %v, want 0.1 carried through", row.ShareOfTradingVolume)
	}
}

func TestJoinCollectorFlag(t *testing.T) {
	ds := Join(nil, []models.NormalizedRecord{record("БондБ", "КоллекторБ")}, testReference())
	row := ds[0]

	if row.IssuerID != models.ID(13) {
		t.Errorf("IssuerID = %+v, want resolved 13", row.IssuerID)
	}
	if row.IsCollector != 1 {
		t.Errorf("IsCollector = %d, want 1 for collector issuer", row.IsCollector)
	}
	if row.Category != models.CategoryCollectors {
		t.Errorf("Category = %s, want collectors", row.Category)
	}
}

func TestJoinUnmappedNamesStayInvalid(t *testing.T) {
	ds := Join([]models.NormalizedRecord{record("Неизвестный бонд", "Неизвестный эмитент")}, nil, testReference())
	row := ds[0]

	if row.IssuerID.Valid {
		t.Errorf("IssuerID = %+v, want invalid for unmapped issuer", row.IssuerID)
	}
	if row.IssueID.Valid {
		t.Errorf("IssueID = %+v, want invalid for unmapped issue", row.IssueID)
	}
	if row.IsCollector != 0 {
		t.Errorf("IsCollector = %d, want 0 when issuer is unmapped", row.IsCollector)
	}
}

func TestJoinConcatenationOrder(t *testing.T) {
	mfo := []models.NormalizedRecord{record("BondA", "IssuerA"), record("БондБ", "IssuerA")}
	collectors := []models.NormalizedRecord{record("BondA", "КоллекторБ")}

	ds := Join(mfo, collectors, testReference())
	if len(ds) != 3 {
		t.Fatalf("got %d rows, want 3", len(ds))
	}
	wantCategories := []models.Category{models.CategoryMFO, models.CategoryMFO, models.CategoryCollectors}
	for i, want := range wantCategories {
		if ds[i].Category != want {
			t.Errorf("row %d category = %s, want %s", i, ds[i].Category, want)
		}
	}
	if ds[0].Name != "BondA" || ds[1].Name != "БондБ" {
		t.Errorf("mfo rows out of order: %s, %s", ds[0].Name, ds[1].Name)
	}
}
