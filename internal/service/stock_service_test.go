package service

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testConfig() Config {
	return Config{
		LedgerCurrency: model.CurrencyUZS,
		ShopName:       "Test do'kon",
	}
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedStockLine(repo *fakeStockRepo, name string, qty int, sellPrice, currency string) model.StockLine {
	return repo.put(model.StockLine{
		ProductName: name,
		Unit:        model.UnitKg,
		Quantity:    qty,
		UnitCost:    dec("1000"),
		SellPrice:   dec(sellPrice),
		Currency:    currency,
		BatchNumber: 1,
		SupplierID:  uuid.New(),
	})
}

func TestReserveInsufficientStock(t *testing.T) {
	repo := newFakeStockRepo()
	line := seedStockLine(repo, "Guruch", 5, "5000", model.CurrencyUZS)
	svc := NewStockService(repo, testConfig())

	_, err := svc.Reserve(context.Background(), line.ID, 6, nil)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("Reserve() error = %v, want ErrInsufficientStock", err)
	}

	got, _ := repo.FindByID(context.Background(), line.ID)
	if got.Quantity != 5 {
		t.Errorf("quantity changed on failed reserve: got %d, want 5", got.Quantity)
	}
	if len(repo.movements) != 0 {
		t.Errorf("failed reserve recorded %d movements, want 0", len(repo.movements))
	}
}

func TestReserveAndReleaseRoundTrip(t *testing.T) {
	repo := newFakeStockRepo()
	line := seedStockLine(repo, "Shakar", 10, "7000", model.CurrencyUZS)
	svc := NewStockService(repo, testConfig())
	saleID := uuid.New()

	reserved, err := svc.Reserve(context.Background(), line.ID, 4, &saleID)
	if err != nil {
		t.Fatalf("Reserve() unexpected error: %v", err)
	}
	if reserved.Quantity != 6 {
		t.Errorf("reserved line quantity = %d, want 6", reserved.Quantity)
	}

	if err := svc.Release(context.Background(), line.ID, 4, &saleID); err != nil {
		t.Fatalf("Release() unexpected error: %v", err)
	}

	got, _ := repo.FindByID(context.Background(), line.ID)
	if got.Quantity != 10 {
		t.Errorf("quantity after round trip = %d, want 10", got.Quantity)
	}

	if len(repo.movements) != 2 {
		t.Fatalf("recorded %d movements, want 2", len(repo.movements))
	}
	out, in := repo.movements[0], repo.movements[1]
	if out.Type != model.MovementOut || out.Quantity != 4 || out.QuantityAfter != 6 {
		t.Errorf("out movement = %+v, want OUT 4 leaving 6", out)
	}
	if in.Type != model.MovementIn || in.Quantity != 4 || in.QuantityAfter != 10 {
		t.Errorf("in movement = %+v, want IN 4 leaving 10", in)
	}
	if out.SaleID == nil || *out.SaleID != saleID {
		t.Errorf("out movement not linked to sale")
	}
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	repo := newFakeStockRepo()
	line := seedStockLine(repo, "Un", 10, "4000", model.CurrencyUZS)
	svc := NewStockService(repo, testConfig())

	for _, qty := range []int{0, -3} {
		if _, err := svc.Reserve(context.Background(), line.ID, qty, nil); !errors.Is(err, ErrValidation) {
			t.Errorf("Reserve(qty=%d) error = %v, want ErrValidation", qty, err)
		}
	}
}

func TestReceiveBatchAllocatesPayment(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewStockService(repo, testConfig())

	batch := &model.ImportBatch{
		ID:          uuid.New(),
		SupplierID:  uuid.New(),
		BatchNumber: 7,
		PaidAmount:  dec("110000"),
		Lines: []model.ImportLine{
			{Title: "Guruch", Unit: model.UnitKg, Quantity: 100, UnitPrice: dec("1000"), TotalPrice: dec("100000"), Currency: model.CurrencyUZS, SellPrice: dec("1200"), LedgerTotal: dec("100000")},
			{Title: "Yog'", Unit: model.UnitLiter, Quantity: 10, UnitPrice: dec("1"), TotalPrice: dec("10"), Currency: model.CurrencyUSD, SellPrice: dec("1.2"), LedgerTotal: dec("120000")},
		},
	}

	lines, err := svc.ReceiveBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("ReceiveBatch() unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("created %d lines, want 2", len(lines))
	}

	if !lines[0].PaidAmount.Equal(dec("50000")) || !lines[0].RemainingDebt.Equal(dec("50000")) {
		t.Errorf("line 0 paid=%s remaining=%s, want 50000/50000", lines[0].PaidAmount, lines[0].RemainingDebt)
	}
	if !lines[1].PaidAmount.Equal(dec("60000")) || !lines[1].RemainingDebt.Equal(dec("60000")) {
		t.Errorf("line 1 paid=%s remaining=%s, want 60000/60000", lines[1].PaidAmount, lines[1].RemainingDebt)
	}

	if lines[0].BatchNumber != 7 || lines[1].ImportBatchID != batch.ID {
		t.Errorf("lines not linked to their batch")
	}

	if len(repo.movements) != 2 {
		t.Fatalf("recorded %d movements, want 2 receipts", len(repo.movements))
	}
	for i, m := range repo.movements {
		if m.Type != model.MovementIn {
			t.Errorf("movement %d type = %s, want IN", i, m.Type)
		}
		if m.SaleID != nil {
			t.Errorf("receipt movement %d linked to a sale", i)
		}
	}
	if repo.movements[0].QuantityAfter != 100 || repo.movements[1].QuantityAfter != 10 {
		t.Errorf("receipt quantities = %d/%d, want 100/10",
			repo.movements[0].QuantityAfter, repo.movements[1].QuantityAfter)
	}
}

func TestReceiveBatchRejectsEmpty(t *testing.T) {
	svc := NewStockService(newFakeStockRepo(), testConfig())
	_, err := svc.ReceiveBatch(context.Background(), &model.ImportBatch{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ReceiveBatch(empty) error = %v, want ErrValidation", err)
	}
}
