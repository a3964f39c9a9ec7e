package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/money"
	"backoffice/internal/repository"
	ws "backoffice/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SaleCustomerRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type SaleLineRequest struct {
	StockLineID string  `json:"stock_line_id" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price"` // defaults to the line's sell price
}

type CreateSaleRequest struct {
	Customer      SaleCustomerRequest `json:"customer" binding:"required"`
	AgentID       string              `json:"agent_id"`
	Lines         []SaleLineRequest   `json:"lines" binding:"required,min=1,dive"`
	PaidAmount    float64             `json:"paid_amount" binding:"min=0"`
	PaymentMethod string              `json:"payment_method" binding:"omitempty,oneof=cash card debt mixed"`
	ExchangeRate  float64             `json:"exchange_rate"` // required when a sold line is priced in a foreign currency
}

// InvoiceData is the printable view of a sale.
type InvoiceData struct {
	InvoiceNo string    `json:"invoice_no"`
	Date      time.Time `json:"date"`
	Shop      struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
	} `json:"shop"`
	Customer struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	} `json:"customer"`
	Lines []InvoiceLine `json:"lines"`
	Payment struct {
		TotalAmount   string `json:"total_amount"`
		PaidAmount    string `json:"paid_amount"`
		RemainingDebt string `json:"remaining_debt"`
		PaymentMethod string `json:"payment_method"`
	} `json:"payment"`
}

type InvoiceLine struct {
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
	Currency  string `json:"currency"`
}

// SaleService orchestrates customer sales: reserve stock line by line with
// compensating rollback, compute ledger-currency totals, persist the sale and
// post the customer debt as one transaction.
type SaleService interface {
	CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*model.Sale, error)
	GetByID(ctx context.Context, id string) (*model.Sale, error)
	List(ctx context.Context, customerID string, page, limit int) ([]model.Sale, int64, error)
	ListDebtors(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
	Invoice(ctx context.Context, id string) (*InvoiceData, error)
}

type saleService struct {
	saleRepo  repository.SaleRepository
	partyRepo repository.PartyRepository
	agentRepo repository.AgentRepository
	auditRepo repository.AuditRepository
	stock     StockService
	debt      DebtService
	txManager repository.TransactionManager
	hub       *ws.Hub
	cfg       Config
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	partyRepo repository.PartyRepository,
	agentRepo repository.AgentRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	debt DebtService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	cfg Config,
) SaleService {
	return &saleService{
		saleRepo:  saleRepo,
		partyRepo: partyRepo,
		agentRepo: agentRepo,
		auditRepo: auditRepo,
		stock:     stock,
		debt:      debt,
		txManager: txManager,
		hub:       hub,
		cfg:       cfg,
	}
}

// reservedLine tracks a successful reservation for compensating rollback.
type reservedLine struct {
	stockLineID uuid.UUID
	quantity    int
}

func (s *saleService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*model.Sale, error) {
	if req.Customer.ID == "" && strings.TrimSpace(req.Customer.Name) == "" {
		return nil, fmt.Errorf("%w: customer id or name is required", ErrValidation)
	}

	paid := money.Round(decimal.NewFromFloat(req.PaidAmount))
	if paid.IsNegative() {
		return nil, fmt.Errorf("%w: paid amount cannot be negative", ErrValidation)
	}

	var agentID *uuid.UUID
	if req.AgentID != "" {
		parsed, err := uuid.Parse(req.AgentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid agent id", ErrValidation)
		}
		agentID = &parsed
	}

	var created *model.Sale
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.resolveCustomer(txCtx, req.Customer)
		if err != nil {
			return err
		}

		if agentID != nil {
			if _, err := s.agentRepo.FindByID(txCtx, *agentID); err != nil {
				return fmt.Errorf("%w: agent not found", ErrValidation)
			}
		}

		saleID := uuid.New()
		rate := decimal.NewFromFloat(req.ExchangeRate)

		var reserved []reservedLine
		rollback := func() {
			// release in reverse order; partial reservation must never survive
			for i := len(reserved) - 1; i >= 0; i-- {
				_ = s.stock.Release(txCtx, reserved[i].stockLineID, reserved[i].quantity, &saleID)
			}
		}

		total := decimal.Zero
		var lines []model.SaleLine
		for _, lineReq := range req.Lines {
			stockID, parseErr := uuid.Parse(lineReq.StockLineID)
			if parseErr != nil {
				rollback()
				return fmt.Errorf("%w: invalid stock line id", ErrValidation)
			}

			stockLine, reserveErr := s.stock.Reserve(txCtx, stockID, lineReq.Quantity, &saleID)
			if reserveErr != nil {
				rollback()
				return reserveErr
			}
			reserved = append(reserved, reservedLine{stockLineID: stockID, quantity: lineReq.Quantity})

			price := money.Round(decimal.NewFromFloat(lineReq.UnitPrice))
			if price.LessThanOrEqual(decimal.Zero) {
				price = stockLine.SellPrice
			}

			lineTotal := price.Mul(decimal.NewFromInt(int64(lineReq.Quantity)))
			ledgerTotal, convErr := money.ToLedger(lineTotal, stockLine.Currency, s.cfg.LedgerCurrency, rate)
			if convErr != nil {
				rollback()
				return fmt.Errorf("line %q: %w", stockLine.ProductName, convErr)
			}
			total = total.Add(money.Round(ledgerTotal))

			lines = append(lines, model.SaleLine{
				SaleID:        saleID,
				StockLineID:   stockLine.ID,
				Name:          stockLine.ProductName,
				Unit:          stockLine.Unit,
				Quantity:      lineReq.Quantity,
				UnitPrice:     price,
				PurchasePrice: stockLine.UnitCost,
				Currency:      stockLine.Currency,
				BatchNumber:   stockLine.BatchNumber,
			})
		}

		total = money.Round(total)
		// overpayment is change handed back, not stored credit
		if paid.GreaterThan(total) {
			paid = total
		}

		invoiceNo, err := s.nextInvoiceNo(txCtx)
		if err != nil {
			rollback()
			return err
		}

		sale := &model.Sale{
			ID:            saleID,
			InvoiceNo:     invoiceNo,
			CustomerID:    customer.ID,
			AgentID:       agentID,
			Lines:         lines,
			TotalAmount:   total,
			PaidAmount:    paid,
			RemainingDebt: debtOf(total, paid),
			PaymentMethod: derivePaymentMethod(req.PaymentMethod, paid, total),
		}
		if paid.GreaterThan(decimal.Zero) {
			sale.Payments = []model.PaymentEntry{{SaleID: saleID, Amount: paid, Note: "initial payment"}}
		}

		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			rollback()
			return fmt.Errorf("%w: failed to persist sale: %v", ErrStorageUnavailable, err)
		}

		if _, err := s.debt.PostCharge(txCtx, customer.ID, total, paid); err != nil {
			rollback()
			return err
		}

		if paid.GreaterThan(decimal.Zero) {
			payment := &model.Payment{
				PartyID: customer.ID,
				Amount:  paid,
				Note:    fmt.Sprintf("initial payment for %s", invoiceNo),
				SaleID:  &saleID,
			}
			if err := s.partyRepo.AddPayment(txCtx, payment); err != nil {
				rollback()
				return fmt.Errorf("failed to record customer payment: %w", err)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"invoice_no":   invoiceNo,
			"lines":        len(lines),
			"total_amount": total.StringFixed(money.Places),
			"paid_amount":  paid.StringFixed(money.Places),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateSale,
			EntityID:   saleID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			rollback()
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		created = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("sale.created", map[string]interface{}{
		"invoice_no":  created.InvoiceNo,
		"customer_id": created.CustomerID.String(),
	})
	return created, nil
}

func (s *saleService) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sale id", ErrValidation)
	}
	return s.saleRepo.FindByID(ctx, parsed)
}

func (s *saleService) List(ctx context.Context, customerID string, page, limit int) ([]model.Sale, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var cid *uuid.UUID
	if customerID != "" {
		parsed, err := uuid.Parse(customerID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid customer id", ErrValidation)
		}
		cid = &parsed
	}

	return s.saleRepo.List(ctx, cid, page, limit)
}

func (s *saleService) ListDebtors(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.saleRepo.ListDebtors(ctx, page, limit)
}

func (s *saleService) Invoice(ctx context.Context, id string) (*InvoiceData, error) {
	sale, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inv := &InvoiceData{InvoiceNo: sale.InvoiceNo, Date: sale.CreatedAt}
	inv.Shop.Name = s.cfg.ShopName
	inv.Shop.Address = s.cfg.ShopAddress
	inv.Shop.Phone = s.cfg.ShopPhone
	if sale.Customer != nil {
		inv.Customer.Name = sale.Customer.Name
		inv.Customer.Phone = sale.Customer.Phone
		inv.Customer.Address = sale.Customer.Address
	}
	for _, line := range sale.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		inv.Lines = append(inv.Lines, InvoiceLine{
			Name:      line.Name,
			Unit:      line.Unit,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(money.Places),
			Total:     money.Round(lineTotal).StringFixed(money.Places),
			Currency:  line.Currency,
		})
	}
	inv.Payment.TotalAmount = sale.TotalAmount.StringFixed(money.Places)
	inv.Payment.PaidAmount = sale.PaidAmount.StringFixed(money.Places)
	inv.Payment.RemainingDebt = sale.RemainingDebt.StringFixed(money.Places)
	inv.Payment.PaymentMethod = sale.PaymentMethod
	return inv, nil
}

func (s *saleService) resolveCustomer(ctx context.Context, req SaleCustomerRequest) (*model.Party, error) {
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid customer id", ErrValidation)
		}
		customer, err := s.partyRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: customer not found", ErrValidation)
			}
			return nil, fmt.Errorf("failed to look up customer: %w", err)
		}
		return customer, nil
	}

	phone := strings.TrimSpace(req.Phone)
	if phone != "" {
		customer, err := s.partyRepo.FindByPhone(ctx, phone)
		if err == nil {
			if customer.Type == model.PartyTypeSupplier {
				customer.Type = model.PartyTypeBoth
				if err := s.partyRepo.Update(ctx, customer); err != nil {
					return nil, fmt.Errorf("failed to update party type: %w", err)
				}
			}
			return customer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up customer: %w", err)
		}
	}

	customer := &model.Party{
		Name:    strings.TrimSpace(req.Name),
		Type:    model.PartyTypeCustomer,
		Phone:   phone,
		Address: strings.TrimSpace(req.Address),
	}
	if err := s.partyRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

// nextInvoiceNo builds INV-YYYYMMDD-NNN from the day's sale count.
func (s *saleService) nextInvoiceNo(ctx context.Context) (string, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	count, err := s.saleRepo.CountCreatedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return "", fmt.Errorf("failed to count today's sales: %w", err)
	}
	return fmt.Sprintf("INV-%s-%03d", now.Format("20060102"), count+1), nil
}

// derivePaymentMethod keeps the method consistent with the amounts: nothing
// paid is a debt sale, a partial payment is mixed, and a fully paid sale keeps
// the requested cash/card channel.
func derivePaymentMethod(requested string, paid, total decimal.Decimal) string {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return model.PaymentDebt
	case paid.LessThan(total):
		return model.PaymentMixed
	case requested == model.PaymentCard:
		return model.PaymentCard
	default:
		return model.PaymentCash
	}
}

func (s *saleService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}
