package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

type stubQuerier struct {
	item      dbgen.InventoryItem
	adjustErr error
	valuation dbgen.InventoryValuationRow

	inserted *dbgen.InsertInventoryItemParams
	adjusted *dbgen.AdjustInventoryQuantityParams
}

func (s *stubQuerier) InsertInventoryItem(_ context.Context, arg dbgen.InsertInventoryItemParams) (dbgen.InventoryItem, error) {
	s.inserted = &arg
	return s.item, nil
}

func (s *stubQuerier) ListInventoryItems(_ context.Context, _ dbgen.ListInventoryItemsParams) ([]dbgen.InventoryItem, error) {
	return []dbgen.InventoryItem{s.item}, nil
}

func (s *stubQuerier) GetInventoryItemByID(_ context.Context, _ pgtype.UUID) (dbgen.InventoryItem, error) {
	return s.item, nil
}

func (s *stubQuerier) AdjustInventoryQuantity(_ context.Context, arg dbgen.AdjustInventoryQuantityParams) (dbgen.InventoryItem, error) {
	s.adjusted = &arg
	return s.item, s.adjustErr
}

func (s *stubQuerier) DeleteInventoryItem(_ context.Context, _ pgtype.UUID) error {
	return nil
}

func (s *stubQuerier) InventoryValuation(_ context.Context) (dbgen.InventoryValuationRow, error) {
	return s.valuation, nil
}

func TestCreateValidatesPayload(t *testing.T) {
	h := &Handler{Q: &stubQuerier{}, Validate: validator.New()}
	body := bytes.NewBufferString(`{"sku":"","batch":"B001","productionDate":"2026-02-10"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/inventory", body)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRecordsBatch(t *testing.T) {
	q := &stubQuerier{item: dbgen.InventoryItem{
		ID:  pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Sku: "DCW-001",
	}}
	h := &Handler{Q: q, Validate: validator.New()}
	body := bytes.NewBufferString(`{"sku":"DCW-001","batch":"B001","productionDate":"2026-02-10","quantity":12,"materialCostCents":277,"containerCostCents":250,"targetPriceCents":1800}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/inventory", body)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, q.inserted)
	require.Equal(t, int32(12), q.inserted.Quantity)
	require.Equal(t, "2026-02-10", q.inserted.ProductionDate.Time.Format("2006-01-02"))
}

func TestAdjustRejectsUnderflow(t *testing.T) {
	q := &stubQuerier{adjustErr: pgx.ErrNoRows}
	h := &Handler{Q: q}
	body := bytes.NewBufferString(`{"delta":-5}`)
	req := requestWithID(http.MethodPost, body)
	rec := httptest.NewRecorder()
	h.Adjust(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	h := &Handler{Q: &stubQuerier{}}
	body := bytes.NewBufferString(`{"delta":0}`)
	req := requestWithID(http.MethodPost, body)
	rec := httptest.NewRecorder()
	h.Adjust(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValuationIncludesProfit(t *testing.T) {
	q := &stubQuerier{valuation: dbgen.InventoryValuationRow{
		Batches:     2,
		Units:       30,
		CostCents:   15000,
		RetailCents: 54000,
	}}
	h := &Handler{Q: q}
	req := httptest.NewRequest(http.MethodGet, "/admin/inventory/valuation", nil)
	rec := httptest.NewRecorder()
	h.Valuation(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct {
			PotentialProfitCents int64 `json:"potentialProfitCents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, int64(39000), out.Data.PotentialProfitCents)
}

func requestWithID(method string, body *bytes.Buffer) *http.Request {
	req := httptest.NewRequest(method, "/admin/inventory/x/adjust", body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", uuid.NewString())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
