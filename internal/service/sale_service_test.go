package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type saleFixture struct {
	partyRepo *fakePartyRepo
	saleRepo  *fakeSaleRepo
	stockRepo *fakeStockRepo
	agentRepo *fakeAgentRepo
	auditRepo *fakeAuditRepo
	svc       SaleService
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		partyRepo: newFakePartyRepo(),
		saleRepo:  newFakeSaleRepo(),
		stockRepo: newFakeStockRepo(),
		agentRepo: newFakeAgentRepo(),
		auditRepo: &fakeAuditRepo{},
	}
	cfg := testConfig()
	stockSvc := NewStockService(f.stockRepo, cfg)
	debtSvc := NewDebtService(f.partyRepo, f.saleRepo, newFakeImportRepo(), f.auditRepo, fakeTxManager{})
	f.svc = NewSaleService(f.saleRepo, f.partyRepo, f.agentRepo, f.auditRepo, stockSvc, debtSvc, fakeTxManager{}, nil, cfg)
	return f
}

func TestCreateSaleHappyPath(t *testing.T) {
	f := newSaleFixture()
	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	line := seedStockLine(f.stockRepo, "Guruch", 10, "5000", model.CurrencyUZS)

	sale, err := f.svc.CreateSale(context.Background(), uuid.NewString(), CreateSaleRequest{
		Customer:   SaleCustomerRequest{ID: customer.ID.String()},
		Lines:      []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 2}},
		PaidAmount: 4000,
	})
	if err != nil {
		t.Fatalf("CreateSale() unexpected error: %v", err)
	}

	if !sale.TotalAmount.Equal(dec("10000")) {
		t.Errorf("total = %s, want 10000", sale.TotalAmount)
	}
	if !sale.PaidAmount.Equal(dec("4000")) || !sale.RemainingDebt.Equal(dec("6000")) {
		t.Errorf("paid=%s remaining=%s, want 4000/6000", sale.PaidAmount, sale.RemainingDebt)
	}
	if sale.PaymentMethod != model.PaymentMixed {
		t.Errorf("payment method = %s, want mixed", sale.PaymentMethod)
	}

	wantInvoice := fmt.Sprintf("INV-%s-001", time.Now().Format("20060102"))
	if sale.InvoiceNo != wantInvoice {
		t.Errorf("invoice no = %s, want %s", sale.InvoiceNo, wantInvoice)
	}

	if len(sale.Lines) != 1 {
		t.Fatalf("sale has %d lines, want 1", len(sale.Lines))
	}
	snap := sale.Lines[0]
	if snap.Name != "Guruch" || !snap.UnitPrice.Equal(dec("5000")) || snap.Quantity != 2 {
		t.Errorf("line snapshot = %+v", snap)
	}

	gotLine, _ := f.stockRepo.FindByID(context.Background(), line.ID)
	if gotLine.Quantity != 8 {
		t.Errorf("stock quantity = %d, want 8", gotLine.Quantity)
	}

	gotCustomer, _ := f.partyRepo.FindByID(context.Background(), customer.ID)
	if !gotCustomer.TotalOwed.Equal(dec("10000")) || !gotCustomer.TotalPaid.Equal(dec("4000")) || !gotCustomer.TotalDebt.Equal(dec("6000")) {
		t.Errorf("customer owed=%s paid=%s debt=%s, want 10000/4000/6000",
			gotCustomer.TotalOwed, gotCustomer.TotalPaid, gotCustomer.TotalDebt)
	}

	if len(f.partyRepo.payments) != 1 {
		t.Errorf("recorded %d party payments, want 1", len(f.partyRepo.payments))
	}
	if len(f.auditRepo.logs) != 1 || f.auditRepo.logs[0].Action != model.ActionCreateSale {
		t.Errorf("audit trail = %+v, want one CREATE_SALE entry", f.auditRepo.logs)
	}
}

func TestCreateSaleRollsBackOnInsufficientStock(t *testing.T) {
	f := newSaleFixture()
	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	lineA := seedStockLine(f.stockRepo, "Guruch", 10, "5000", model.CurrencyUZS)
	lineB := seedStockLine(f.stockRepo, "Shakar", 3, "7000", model.CurrencyUZS)

	_, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{ID: customer.ID.String()},
		Lines: []SaleLineRequest{
			{StockLineID: lineA.ID.String(), Quantity: 5},
			{StockLineID: lineB.ID.String(), Quantity: 20},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("CreateSale() error = %v, want ErrInsufficientStock", err)
	}

	gotA, _ := f.stockRepo.FindByID(context.Background(), lineA.ID)
	if gotA.Quantity != 10 {
		t.Errorf("line A quantity = %d, want 10 after rollback", gotA.Quantity)
	}
	gotB, _ := f.stockRepo.FindByID(context.Background(), lineB.ID)
	if gotB.Quantity != 3 {
		t.Errorf("line B quantity = %d, want 3", gotB.Quantity)
	}

	if len(f.saleRepo.sales) != 0 {
		t.Errorf("a sale was persisted despite the failure")
	}
	gotCustomer, _ := f.partyRepo.FindByID(context.Background(), customer.ID)
	if !gotCustomer.TotalOwed.Equal(decimal.Zero) {
		t.Errorf("customer was charged despite the failure: owed %s", gotCustomer.TotalOwed)
	}
}

func TestCreateSaleRollsBackWhenAuditFails(t *testing.T) {
	f := newSaleFixture()
	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	line := seedStockLine(f.stockRepo, "Un", 10, "4000", model.CurrencyUZS)
	f.auditRepo.failErr = errors.New("audit store down")

	_, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{ID: customer.ID.String()},
		Lines:    []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 4}},
	})
	if err == nil {
		t.Fatal("CreateSale() succeeded despite audit failure")
	}

	got, _ := f.stockRepo.FindByID(context.Background(), line.ID)
	if got.Quantity != 10 {
		t.Errorf("stock quantity = %d, want 10 after rollback", got.Quantity)
	}
}

func TestCreateSaleCapsOverpayment(t *testing.T) {
	f := newSaleFixture()
	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	line := seedStockLine(f.stockRepo, "Guruch", 10, "5000", model.CurrencyUZS)

	sale, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer:   SaleCustomerRequest{ID: customer.ID.String()},
		Lines:      []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 2}},
		PaidAmount: 25000,
	})
	if err != nil {
		t.Fatalf("CreateSale() unexpected error: %v", err)
	}

	if !sale.PaidAmount.Equal(dec("10000")) || !sale.RemainingDebt.Equal(decimal.Zero) {
		t.Errorf("paid=%s remaining=%s, want 10000/0 (excess is change, not credit)",
			sale.PaidAmount, sale.RemainingDebt)
	}
	if sale.PaymentMethod != model.PaymentCash {
		t.Errorf("payment method = %s, want cash", sale.PaymentMethod)
	}

	gotCustomer, _ := f.partyRepo.FindByID(context.Background(), customer.ID)
	if !gotCustomer.TotalPaid.Equal(dec("10000")) {
		t.Errorf("customer paid = %s, want 10000", gotCustomer.TotalPaid)
	}
}

func TestCreateSaleForeignCurrencyLine(t *testing.T) {
	f := newSaleFixture()
	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	line := seedStockLine(f.stockRepo, "Yog'", 10, "10", model.CurrencyUSD)

	// no rate provided
	_, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{ID: customer.ID.String()},
		Lines:    []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 2}},
	})
	if !errors.Is(err, money.ErrInvalidRate) {
		t.Fatalf("CreateSale() error = %v, want ErrInvalidRate", err)
	}
	got, _ := f.stockRepo.FindByID(context.Background(), line.ID)
	if got.Quantity != 10 {
		t.Errorf("stock quantity = %d, want 10 after rollback", got.Quantity)
	}

	// with rate the line converts into the ledger currency
	sale, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer:     SaleCustomerRequest{ID: customer.ID.String()},
		Lines:        []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 2}},
		ExchangeRate: 12000,
	})
	if err != nil {
		t.Fatalf("CreateSale() unexpected error: %v", err)
	}
	if !sale.TotalAmount.Equal(dec("240000")) {
		t.Errorf("total = %s, want 240000 (2 x 10 USD at 12000)", sale.TotalAmount)
	}
}

func TestCreateSaleFindsOrCreatesCustomerByPhone(t *testing.T) {
	f := newSaleFixture()
	line := seedStockLine(f.stockRepo, "Guruch", 100, "5000", model.CurrencyUZS)

	sale, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{Name: "Yangi mijoz", Phone: "+998901112233"},
		Lines:    []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSale() unexpected error: %v", err)
	}

	created, err := f.partyRepo.FindByPhone(context.Background(), "+998901112233")
	if err != nil {
		t.Fatalf("customer was not created: %v", err)
	}
	if created.Type != model.PartyTypeCustomer || created.ID != sale.CustomerID {
		t.Errorf("created party = %+v", created)
	}

	// selling to a known supplier phone upgrades the party type
	supplier := seedParty(f.partyRepo, model.PartyTypeSupplier, "0", "0")
	_, err = f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{Phone: supplier.Phone},
		Lines:    []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSale() unexpected error: %v", err)
	}
	upgraded, _ := f.partyRepo.FindByID(context.Background(), supplier.ID)
	if upgraded.Type != model.PartyTypeBoth {
		t.Errorf("supplier type = %s, want BOTH", upgraded.Type)
	}
}

func TestCreateSaleRejectsUnknownCustomerAndAgent(t *testing.T) {
	f := newSaleFixture()
	line := seedStockLine(f.stockRepo, "Guruch", 10, "5000", model.CurrencyUZS)

	_, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{ID: uuid.NewString()},
		Lines:    []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown customer error = %v, want ErrValidation", err)
	}

	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	_, err = f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer: SaleCustomerRequest{ID: customer.ID.String()},
		AgentID:  uuid.NewString(),
		Lines:    []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown agent error = %v, want ErrValidation", err)
	}
}

func TestDerivePaymentMethod(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		paid      string
		total     string
		want      string
	}{
		{name: "nothing paid is debt", requested: model.PaymentCash, paid: "0", total: "100", want: model.PaymentDebt},
		{name: "partial is mixed", requested: model.PaymentCash, paid: "40", total: "100", want: model.PaymentMixed},
		{name: "full card stays card", requested: model.PaymentCard, paid: "100", total: "100", want: model.PaymentCard},
		{name: "full cash stays cash", requested: model.PaymentCash, paid: "100", total: "100", want: model.PaymentCash},
		{name: "full without request defaults to cash", requested: "", paid: "100", total: "100", want: model.PaymentCash},
		{name: "requested debt with payment is mixed", requested: model.PaymentDebt, paid: "1", total: "100", want: model.PaymentMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := derivePaymentMethod(tt.requested, dec(tt.paid), dec(tt.total))
			if got != tt.want {
				t.Errorf("derivePaymentMethod(%q, %s, %s) = %s, want %s",
					tt.requested, tt.paid, tt.total, got, tt.want)
			}
		})
	}
}

func TestInvoiceData(t *testing.T) {
	f := newSaleFixture()
	customer := seedParty(f.partyRepo, model.PartyTypeCustomer, "0", "0")
	line := seedStockLine(f.stockRepo, "Guruch", 10, "5000", model.CurrencyUZS)

	sale, err := f.svc.CreateSale(context.Background(), "", CreateSaleRequest{
		Customer:   SaleCustomerRequest{ID: customer.ID.String()},
		Lines:      []SaleLineRequest{{StockLineID: line.ID.String(), Quantity: 3}},
		PaidAmount: 15000,
	})
	if err != nil {
		t.Fatalf("CreateSale() unexpected error: %v", err)
	}

	inv, err := f.svc.Invoice(context.Background(), sale.ID.String())
	if err != nil {
		t.Fatalf("Invoice() unexpected error: %v", err)
	}

	if inv.InvoiceNo != sale.InvoiceNo {
		t.Errorf("invoice no = %s, want %s", inv.InvoiceNo, sale.InvoiceNo)
	}
	if inv.Shop.Name != "Test do'kon" {
		t.Errorf("shop name = %s", inv.Shop.Name)
	}
	if len(inv.Lines) != 1 || inv.Lines[0].Total != "15000.00" {
		t.Errorf("invoice lines = %+v, want one line totalling 15000.00", inv.Lines)
	}
	if inv.Payment.TotalAmount != "15000.00" || inv.Payment.RemainingDebt != "0.00" {
		t.Errorf("payment block = %+v", inv.Payment)
	}
}
