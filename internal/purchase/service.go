package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/desertcandleworks/backend-store/internal/allocation"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// ErrNotFound is returned when a purchase id does not exist.
var ErrNotFound = errors.New("purchase not found")

// Reader captures the read-side database methods used by the service.
type Reader interface {
	GetPurchaseByID(ctx context.Context, id pgtype.UUID) (dbgen.Purchase, error)
	ListPurchaseItems(ctx context.Context, purchaseID pgtype.UUID) ([]dbgen.PurchaseItem, error)
	ListPurchases(ctx context.Context, arg dbgen.ListPurchasesParams) ([]dbgen.Purchase, error)
	CountPurchases(ctx context.Context) (int64, error)
}

// Service manages supply purchases and their derived cost allocations.
type Service struct {
	Q    Reader
	Pool *pgxpool.Pool
	Tx   *dbgen.Queries
}

// ItemInput is one purchase line as submitted by the admin.
type ItemInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	Category      string `json:"category" validate:"required,oneof=wax fragrance containers wicks packaging other"`
	Quantity      int64  `json:"quantity" validate:"min=1"`
	UnitCostCents int64  `json:"unitCostCents" validate:"min=0"`
	Notes         string `json:"notes" validate:"max=500"`
}

// Input is the create/update payload.
type Input struct {
	VendorName      string      `json:"vendorName" validate:"required,max=200"`
	PurchaseDate    string      `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingCents   int64       `json:"shippingCents" validate:"min=0"`
	TaxCents        int64       `json:"taxCents" validate:"min=0"`
	ReceiptImageURL *string     `json:"receiptImageUrl"`
	Notes           *string     `json:"notes"`
}

// Item is the API form of a purchase line.
type Item struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Quantity      int64  `json:"quantity"`
	UnitCostCents int64  `json:"unitCostCents"`
	Notes         string `json:"notes,omitempty"`
}

// Purchase is the API form of a purchase with its computed total.
type Purchase struct {
	ID              string  `json:"id"`
	VendorName      string  `json:"vendorName"`
	PurchaseDate    string  `json:"purchaseDate"`
	Items           []Item  `json:"items"`
	ShippingCents   int64   `json:"shippingCents"`
	TaxCents        int64   `json:"taxCents"`
	TotalCents      int64   `json:"totalCents"`
	ReceiptImageURL *string `json:"receiptImageUrl,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// AllocatedLine is the derived allocation view of a purchase line.
type AllocatedLine struct {
	Item
	TotalCostCents         int64 `json:"totalCostCents"`
	AllocatedShippingCents int64 `json:"allocatedShippingCents"`
	AllocatedTaxCents      int64 `json:"allocatedTaxCents"`
	FullyLoadedCostCents   int64 `json:"fullyLoadedCostCents"`
	CostPerUnitCents       int64 `json:"costPerUnitCents"`
}

// Total computes the invariant total: item costs plus shipping plus tax.
func (in Input) Total() int64 {
	var items int64
	for _, it := range in.Items {
		items += it.Quantity * it.UnitCostCents
	}
	return items + in.ShippingCents + in.TaxCents
}

// Create inserts the purchase and its items in one transaction.
func (s *Service) Create(ctx context.Context, in Input) (Purchase, error) {
	if s == nil || s.Pool == nil || s.Tx == nil {
		return Purchase{}, errors.New("purchase service not configured")
	}
	date, err := parseDate(in.PurchaseDate)
	if err != nil {
		return Purchase{}, err
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Purchase{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Tx.WithTx(tx)
	row, err := qtx.InsertPurchase(ctx, dbgen.InsertPurchaseParams{
		VendorName:      in.VendorName,
		PurchaseDate:    date,
		ShippingCents:   in.ShippingCents,
		TaxCents:        in.TaxCents,
		TotalCents:      in.Total(),
		ReceiptImageUrl: toText(in.ReceiptImageURL),
		Notes:           toText(in.Notes),
	})
	if err != nil {
		return Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}
	if err := insertItems(ctx, qtx, row.ID, in.Items); err != nil {
		return Purchase{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Purchase{}, err
	}
	return toAPI(row, itemModels(row.ID, in.Items)), nil
}

// Update rewrites the purchase header and replaces its items.
func (s *Service) Update(ctx context.Context, id pgtype.UUID, in Input) (Purchase, error) {
	if s == nil || s.Pool == nil || s.Tx == nil {
		return Purchase{}, errors.New("purchase service not configured")
	}
	date, err := parseDate(in.PurchaseDate)
	if err != nil {
		return Purchase{}, err
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Purchase{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Tx.WithTx(tx)
	row, err := qtx.UpdatePurchase(ctx, dbgen.UpdatePurchaseParams{
		ID:              id,
		VendorName:      in.VendorName,
		PurchaseDate:    date,
		ShippingCents:   in.ShippingCents,
		TaxCents:        in.TaxCents,
		TotalCents:      in.Total(),
		ReceiptImageUrl: toText(in.ReceiptImageURL),
		Notes:           toText(in.Notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, fmt.Errorf("update purchase: %w", err)
	}
	if err := qtx.DeletePurchaseItems(ctx, id); err != nil {
		return Purchase{}, err
	}
	if err := insertItems(ctx, qtx, id, in.Items); err != nil {
		return Purchase{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Purchase{}, err
	}
	return toAPI(row, itemModels(id, in.Items)), nil
}

// Delete removes the purchase; items cascade.
func (s *Service) Delete(ctx context.Context, id pgtype.UUID) error {
	if s == nil || s.Tx == nil {
		return errors.New("purchase service not configured")
	}
	return s.Tx.DeletePurchase(ctx, id)
}

// Get loads one purchase with its items.
func (s *Service) Get(ctx context.Context, id pgtype.UUID) (Purchase, error) {
	if s == nil || s.Q == nil {
		return Purchase{}, errors.New("purchase service not configured")
	}
	row, err := s.Q.GetPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	items, err := s.Q.ListPurchaseItems(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	return toAPI(row, items), nil
}

// List returns purchases newest first plus the total row count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Purchase, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("purchase service not configured")
	}
	rows, err := s.Q.ListPurchases(ctx, dbgen.ListPurchasesParams{
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountPurchases(ctx)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Purchase, 0, len(rows))
	for _, row := range rows {
		items, err := s.Q.ListPurchaseItems(ctx, row.ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, toAPI(row, items))
	}
	return out, total, nil
}

// Allocation returns the derived fully-loaded cost view. It is computed on
// read and never persisted.
func (s *Service) Allocation(ctx context.Context, id pgtype.UUID) ([]AllocatedLine, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("purchase service not configured")
	}
	row, err := s.Q.GetPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := s.Q.ListPurchaseItems(ctx, id)
	if err != nil {
		return nil, err
	}
	engineItems := make([]allocation.Item, 0, len(items))
	for _, it := range items {
		engineItems = append(engineItems, allocation.Item{
			Name:          it.Name,
			Category:      it.Category,
			Quantity:      it.Quantity,
			UnitCostCents: it.UnitCostCents,
			Notes:         it.Notes.String,
		})
	}
	allocated := allocation.Allocate(engineItems, row.ShippingCents, row.TaxCents)
	out := make([]AllocatedLine, 0, len(allocated))
	for _, a := range allocated {
		out = append(out, AllocatedLine{
			Item: Item{
				Name:          a.Name,
				Category:      a.Category,
				Quantity:      a.Quantity,
				UnitCostCents: a.UnitCostCents,
				Notes:         a.Notes,
			},
			TotalCostCents:         a.TotalCostCents,
			AllocatedShippingCents: a.AllocatedShippingCents,
			AllocatedTaxCents:      a.AllocatedTaxCents,
			FullyLoadedCostCents:   a.FullyLoadedCostCents,
			CostPerUnitCents:       a.CostPerUnitCents,
		})
	}
	return out, nil
}

func insertItems(ctx context.Context, qtx *dbgen.Queries, purchaseID pgtype.UUID, items []ItemInput) error {
	for i, it := range items {
		if err := qtx.InsertPurchaseItem(ctx, dbgen.InsertPurchaseItemParams{
			PurchaseID:    purchaseID,
			Name:          it.Name,
			Category:      it.Category,
			Quantity:      it.Quantity,
			UnitCostCents: it.UnitCostCents,
			Notes:         toText(nonEmpty(it.Notes)),
			Position:      int32(i),
		}); err != nil {
			return fmt.Errorf("insert purchase item: %w", err)
		}
	}
	return nil
}

func itemModels(purchaseID pgtype.UUID, items []ItemInput) []dbgen.PurchaseItem {
	out := make([]dbgen.PurchaseItem, 0, len(items))
	for i, it := range items {
		out = append(out, dbgen.PurchaseItem{
			PurchaseID:    purchaseID,
			Name:          it.Name,
			Category:      it.Category,
			Quantity:      it.Quantity,
			UnitCostCents: it.UnitCostCents,
			Notes:         toText(nonEmpty(it.Notes)),
			Position:      int32(i),
		})
	}
	return out
}

func toAPI(row dbgen.Purchase, items []dbgen.PurchaseItem) Purchase {
	p := Purchase{
		ID:            uuidString(row.ID),
		VendorName:    row.VendorName,
		PurchaseDate:  dateString(row.PurchaseDate),
		ShippingCents: row.ShippingCents,
		TaxCents:      row.TaxCents,
		TotalCents:    row.TotalCents,
		Items:         make([]Item, 0, len(items)),
	}
	if row.ReceiptImageUrl.Valid {
		v := row.ReceiptImageUrl.String
		p.ReceiptImageURL = &v
	}
	if row.Notes.Valid {
		v := row.Notes.String
		p.Notes = &v
	}
	for _, it := range items {
		p.Items = append(p.Items, Item{
			Name:          it.Name,
			Category:      it.Category,
			Quantity:      it.Quantity,
			UnitCostCents: it.UnitCostCents,
			Notes:         it.Notes.String,
		})
	}
	return p
}

func parseDate(value string) (pgtype.Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("invalid purchaseDate: %w", err)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func dateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

func toText(v *string) pgtype.Text {
	if v == nil || *v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *v, Valid: true}
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
