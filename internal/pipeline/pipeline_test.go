package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"bondpulse/config"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/scrape"
)

// fakePortal serves one fixed table page and accepts every interaction.
type fakePortal struct {
	markup    string
	loginErr  error
	loggedIn  bool
	navigated []string
}

func (f *fakePortal) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}
func (f *fakePortal) Click(string, scrape.By) error               { return nil }
func (f *fakePortal) SendKeys(string, scrape.By, string) error    { return nil }
func (f *fakePortal) ToggleIndexed(string, int) error             { return nil }
func (f *fakePortal) Markup() (string, error)                     { return f.markup, nil }
func (f *fakePortal) Settle(time.Duration)                        {}
func (f *fakePortal) WaitClickable(string, scrape.By, time.Duration) error {
	return errors.New("not found") // single page
}
func (f *fakePortal) Login(config.PortalConfig) error {
	f.loggedIn = true
	return f.loginErr
}

func cell(text string) string {
	return `<td class="el-table__cell"><div><div><span><div><span>` + text + `</span></div></span></div></div></td>`
}

func linkedCell(text string) string {
	return `<td class="el-table__cell"><div><div><span><div><a><span>` + text + `</span></a></div></span></div></div></td>`
}

func pageMarkup(name, isin, issuer string) string {
	cells := `<td class="el-table__cell"></td><td class="el-table__cell"></td>` +
		linkedCell(name) + cell(isin) + cell("1,2") + linkedCell(issuer) + cell("200") +
		cell("15,5") + cell("99,8") + cell("1 000") + cell("10") + cell("100") + cell("12,0")
	return `<html><body><table><tbody><tr class="el-table__row">` + cells + `</tr></tbody></table></body></html>`
}

type recordingRepo struct {
	runID      int64
	createErr  error
	insertErr  error
	inserted   models.FinalDataset
	finishRows int
	status     string
}

func (r *recordingRepo) CreateRun(_ time.Time) (int64, error) {
	return r.runID, r.createErr
}
func (r *recordingRepo) InsertSnapshotBatch(_ int64, ds models.FinalDataset) error {
	r.inserted = ds
	return r.insertErr
}
func (r *recordingRepo) FinishRun(_ int64, rows int, status string) error {
	r.finishRows = rows
	r.status = status
	return nil
}
func (r *recordingRepo) LatestSnapshot(int) (models.FinalDataset, error) { return nil, nil }

func testConfig() config.Config {
	return config.Config{
		Portal: config.PortalConfig{BaseURL: "https://portal.test", Login: "u", Password: "p"},
		Scrape: config.ScrapeConfig{Settle: 0, WaitTimeout: time.Millisecond, NextRetries: 0},
	}
}

func testRef() *config.Reference {
	return &config.Reference{
		Issuers:      map[string]int64{"IssuerA": 1},
		Issues:       map[string]int64{"BondA": 7},
		CollectorIDs: []int64{12, 13, 15},
	}
}

func overrideSessions(t *testing.T, factory func(ctx context.Context, cfg config.Config) (portalSession, func(), error)) {
	t.Helper()
	old := newPortalSession
	newPortalSession = factory
	t.Cleanup(func() { newPortalSession = old })
}

func TestRun_HappyPath(t *testing.T) {
	sessions := []*fakePortal{
		{markup: pageMarkup("BondA", "RU000A100001", "IssuerA")},
		{markup: pageMarkup("БондБ", "RU000A100002", "КоллекторБ")},
	}
	var created int
	overrideSessions(t, func(_ context.Context, _ config.Config) (portalSession, func(), error) {
		s := sessions[created]
		created++
		return s, func() {}, nil
	})

	repo := &recordingRepo{runID: 9}
	runner := NewRunner(testConfig(), testRef(), repo)

	ds, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("got %d rows, want 2", len(ds))
	}
	if ds[0].Category != models.CategoryMFO || ds[1].Category != models.CategoryCollectors {
		t.Fatalf("category order wrong: %s, %s", ds[0].Category, ds[1].Category)
	}
	if ds[0].IssuerID != models.ID(1) || ds[0].IssueID != models.ID(7) {
		t.Fatalf("reference join not applied: %+v", ds[0])
	}
	if ds[0].YieldRate != 0.155 {
		t.Fatalf("YieldRate = %v, want 0.155", ds[0].YieldRate)
	}

	for i, s := range sessions {
		if !s.loggedIn {
			t.Errorf("session %d never logged in", i)
		}
		if len(s.navigated) == 0 || s.navigated[0] != "https://portal.test" {
			t.Errorf("session %d did not open the portal: %v", i, s.navigated)
		}
	}

	if repo.status != "completed" || repo.finishRows != 2 {
		t.Fatalf("run not finalized: status=%q rows=%d", repo.status, repo.finishRows)
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("persisted %d rows, want 2", len(repo.inserted))
	}
}

func TestRun_OneCategoryFails(t *testing.T) {
	var created int
	overrideSessions(t, func(_ context.Context, _ config.Config) (portalSession, func(), error) {
		created++
		if created == 1 {
			return nil, nil, errors.New("chrome crashed")
		}
		return &fakePortal{markup: pageMarkup("БондБ", "RU000A100002", "КоллекторБ")}, func() {}, nil
	})

	runner := NewRunner(testConfig(), testRef(), nil)
	ds, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("got %d rows, want the surviving category only", len(ds))
	}
	if ds[0].Category != models.CategoryCollectors {
		t.Fatalf("Category = %s, want collectors", ds[0].Category)
	}
	if created != 2 {
		t.Fatalf("created %d sessions, want 2 (second category must still run)", created)
	}
}

func TestRun_BothCategoriesFail(t *testing.T) {
	overrideSessions(t, func(_ context.Context, _ config.Config) (portalSession, func(), error) {
		return nil, nil, errors.New("chrome crashed")
	})

	runner := NewRunner(testConfig(), testRef(), nil)
	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("want error when both categories fail")
	}
}

func TestRun_LoginFailureIsolated(t *testing.T) {
	var created int
	overrideSessions(t, func(_ context.Context, _ config.Config) (portalSession, func(), error) {
		created++
		if created == 1 {
			return &fakePortal{loginErr: errors.New("bad credentials")}, func() {}, nil
		}
		return &fakePortal{markup: pageMarkup("БондБ", "RU000A100002", "КоллекторБ")}, func() {}, nil
	})

	runner := NewRunner(testConfig(), testRef(), nil)
	ds, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ds) != 1 || ds[0].Category != models.CategoryCollectors {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
}

func TestRun_PersistFailureMarksRun(t *testing.T) {
	overrideSessions(t, func(_ context.Context, _ config.Config) (portalSession, func(), error) {
		return &fakePortal{markup: pageMarkup("BondA", "RU000A100001", "IssuerA")}, func() {}, nil
	})

	repo := &recordingRepo{runID: 3, insertErr: errors.New("copy failed")}
	runner := NewRunner(testConfig(), testRef(), repo)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("want error when persistence fails")
	}
	if repo.status != "failed" {
		t.Fatalf("status = %q, want failed", repo.status)
	}
}
