package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/service"
)

// stubTreeService returns one fixed tree from every operation so handler
// tests can focus on response shaping.
type stubTreeService struct {
	tree model.Tree
}

func (s *stubTreeService) Plant(context.Context, service.PlantParams) (*model.Tree, error) {
	t := s.tree
	return &t, nil
}

func (s *stubTreeService) Get(context.Context, string, uint64) (*service.TreeView, error) {
	return &service.TreeView{Tree: s.tree}, nil
}

func (s *stubTreeService) ListByCustomer(context.Context, string) ([]service.TreeView, error) {
	return nil, nil
}

func (s *stubTreeService) ListByFarmer(context.Context, string) ([]service.TreeView, error) {
	return nil, nil
}

func (s *stubTreeService) Water(context.Context, string, uint64) (*model.Tree, error) {
	t := s.tree
	return &t, nil
}

func (s *stubTreeService) Fertilize(context.Context, string, uint64) (*model.Tree, error) {
	t := s.tree
	return &t, nil
}

func (s *stubTreeService) Advance(context.Context, string, uint64) (*service.AdvanceResult, error) {
	t := s.tree
	return &service.AdvanceResult{Tree: &t}, nil
}

func (s *stubTreeService) Claim(context.Context, string, uint64) (*service.PayoutResult, error) {
	return &service.PayoutResult{TreeID: s.tree.ID}, nil
}

func (s *stubTreeService) Kill(context.Context, string, uint64, string) (*model.Tree, error) {
	t := s.tree
	return &t, nil
}

func (s *stubTreeService) Delete(context.Context, string, uint64) error {
	return nil
}

func (s *stubTreeService) MoveDevice(context.Context, string, uint64) (*model.Tree, error) {
	t := s.tree
	return &t, nil
}

func newTreeContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", "cust1")
	return c, rec
}

func decodeTree(t *testing.T, rec *httptest.ResponseRecorder) TreeResponse {
	t.Helper()
	var resp TreeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestPlantResponseCarriesCountdown(t *testing.T) {
	stub := &stubTreeService{tree: model.Tree{
		ID:         1,
		TypeID:     "mango",
		CustomerID: "cust1",
		FarmerID:   "farmer1",
		Phase:      model.PhaseSeedling,
		Health:     2,
		PlantedOn:  time.Now(),
	}}
	h := NewTreeHandler(stub, service.GrowthConfig{PhaseDuration: 30 * time.Second})

	c, rec := newTreeContext(http.MethodPost, "/api/trees", `{"type":"mango","farmerUid":"farmer1"}`)
	if err := h.Plant(c); err != nil {
		t.Fatalf("Plant: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	resp := decodeTree(t, rec)
	if resp.TimeRemainingSeconds < 25 || resp.TimeRemainingSeconds > 30 {
		t.Fatalf("timeRemainingSeconds = %d, want the full phase countdown", resp.TimeRemainingSeconds)
	}
	if resp.Ready {
		t.Fatalf("fresh tree reported ready")
	}
}

func TestAdvanceResponseRecomputesCountdown(t *testing.T) {
	stub := &stubTreeService{tree: model.Tree{
		ID:         1,
		TypeID:     "mango",
		CustomerID: "cust1",
		FarmerID:   "farmer1",
		Phase:      model.PhasePlant,
		Health:     2,
		PlantedOn:  time.Now().Add(-10 * time.Second),
	}}
	h := NewTreeHandler(stub, service.GrowthConfig{PhaseDuration: 30 * time.Second})

	c, rec := newTreeContext(http.MethodPost, "/api/trees/1/advance", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Advance(c); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	resp := decodeTree(t, rec)
	if resp.TimeRemainingSeconds < 15 || resp.TimeRemainingSeconds > 20 {
		t.Fatalf("timeRemainingSeconds = %d, want about 20", resp.TimeRemainingSeconds)
	}
}

func TestTendedTreeResponseReportsReady(t *testing.T) {
	stub := &stubTreeService{tree: model.Tree{
		ID:         1,
		TypeID:     "mango",
		CustomerID: "cust1",
		FarmerID:   "farmer1",
		Phase:      model.PhaseSeedling,
		Health:     2,
		Watered:    true,
		Fertilized: true,
		PlantedOn:  time.Now().Add(-31 * time.Second),
	}}
	h := NewTreeHandler(stub, service.GrowthConfig{PhaseDuration: 30 * time.Second})

	c, rec := newTreeContext(http.MethodPost, "/api/trees/1/water", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Water(c); err != nil {
		t.Fatalf("Water: %v", err)
	}
	resp := decodeTree(t, rec)
	if resp.TimeRemainingSeconds != 0 || !resp.Ready {
		t.Fatalf("response = remaining %d ready %v, want 0/true", resp.TimeRemainingSeconds, resp.Ready)
	}
}

func TestKillResponseReportsNoCountdown(t *testing.T) {
	stub := &stubTreeService{tree: model.Tree{
		ID:         1,
		TypeID:     "mango",
		CustomerID: "cust1",
		FarmerID:   "farmer1",
		Phase:      model.PhaseDead,
		KillReason: "storm damage",
		PlantedOn:  time.Now(),
	}}
	h := NewTreeHandler(stub, service.GrowthConfig{PhaseDuration: 30 * time.Second})

	c, rec := newTreeContext(http.MethodPost, "/api/trees/1/kill", `{"reason":"storm damage"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Kill(c); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	resp := decodeTree(t, rec)
	if resp.TimeRemainingSeconds != 0 || resp.Ready {
		t.Fatalf("dead tree response = remaining %d ready %v, want 0/false", resp.TimeRemainingSeconds, resp.Ready)
	}
}
