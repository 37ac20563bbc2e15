package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"bondpulse/internal/domain/dto"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/service"
)

// mockSnapServiceRouter implements service.SnapshotService for testing router wiring
type mockSnapServiceRouter struct {
	resp models.FinalDataset
	err  error
}

func (m *mockSnapServiceRouter) GetLatest(_ context.Context, _ int) (models.FinalDataset, error) {
	return m.resp, m.err
}

var _ service.SnapshotService = (*mockSnapServiceRouter)(nil)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockSnapServiceRouter{resp: models.FinalDataset{
		{
			NormalizedRecord: models.NormalizedRecord{Name: "BondA", ISIN: "RU000A100001", Issuer: "IssuerA"},
			Category:         models.CategoryMFO,
		},
	}}
	h := NewHandler(svc)
	r := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot?limit=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Ensure RequestID middleware injected header
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	var out dto.SnapshotResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if out.Count != 1 || out.Rows[0].ISIN != "RU000A100001" {
		t.Fatalf("unexpected body: %+v", out)
	}
}
