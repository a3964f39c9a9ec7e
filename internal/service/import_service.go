package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/model"
	"backoffice/internal/money"
	"backoffice/internal/repository"
	ws "backoffice/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ImportLineRequest struct {
	Title      string  `json:"title" binding:"required"`
	Unit       string  `json:"unit" binding:"required,oneof=kg dona litr"`
	Quantity   int     `json:"quantity" binding:"required,gt=0"`
	TotalPrice float64 `json:"total_price" binding:"required,gt=0"`
	SellPrice  float64 `json:"sell_price"` // defaults to the derived unit price
	Currency   string  `json:"currency" binding:"required,oneof=UZS USD"`
}

type CreateImportRequest struct {
	SupplierName string              `json:"supplier_name" binding:"required"`
	Phone        string              `json:"phone" binding:"required"`
	Address      string              `json:"address"`
	ExchangeRate float64             `json:"exchange_rate"` // USD -> UZS, required when any line is USD
	PaidAmount   float64             `json:"paid_amount" binding:"min=0"`
	Note         string              `json:"note"`
	Lines        []ImportLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PayImportRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Note   string  `json:"note"`
}

type ImportSummary struct {
	BatchNumber   int64  `json:"batch_number"`
	TotalLines    int    `json:"total_lines"`
	TotalAmount   string `json:"total_amount"`
	PaidAmount    string `json:"paid_amount"`
	RemainingDebt string `json:"remaining_debt"`
	SupplierDebt  string `json:"supplier_debt"`
}

type CreateImportResponse struct {
	Batch   *model.ImportBatch `json:"batch"`
	Summary ImportSummary      `json:"summary"`
}

// ImportService orchestrates incoming shipments: convert foreign-currency
// lines, allocate the initial payment, stock the warehouse and post the
// supplier debt, all inside one transaction.
type ImportService interface {
	CreateImportBatch(ctx context.Context, userID string, req CreateImportRequest) (*CreateImportResponse, error)
	PayBatch(ctx context.Context, userID string, batchID string, req PayImportRequest) (*model.ImportBatch, error)
	GetByID(ctx context.Context, id string) (*model.ImportBatch, error)
	List(ctx context.Context, supplierID, status string, page, limit int) ([]model.ImportBatch, int64, error)
	NextBatchNumber(ctx context.Context) (int64, error)
}

type importService struct {
	importRepo repository.ImportRepository
	partyRepo  repository.PartyRepository
	auditRepo  repository.AuditRepository
	stock      StockService
	debt       DebtService
	txManager  repository.TransactionManager
	hub        *ws.Hub
	cfg        Config
}

func NewImportService(
	importRepo repository.ImportRepository,
	partyRepo repository.PartyRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	debt DebtService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	cfg Config,
) ImportService {
	return &importService{
		importRepo: importRepo,
		partyRepo:  partyRepo,
		auditRepo:  auditRepo,
		stock:      stock,
		debt:       debt,
		txManager:  txManager,
		hub:        hub,
		cfg:        cfg,
	}
}

func (s *importService) CreateImportBatch(ctx context.Context, userID string, req CreateImportRequest) (*CreateImportResponse, error) {
	rate := decimal.NewFromFloat(req.ExchangeRate)
	for _, line := range req.Lines {
		if line.Currency != s.cfg.LedgerCurrency && rate.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: %s lines need a positive exchange rate", money.ErrInvalidRate, line.Currency)
		}
	}

	paid := money.Round(decimal.NewFromFloat(req.PaidAmount))
	if paid.IsNegative() {
		return nil, fmt.Errorf("%w: paid amount cannot be negative", ErrValidation)
	}

	var response *CreateImportResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.findOrCreateSupplier(txCtx, req)
		if err != nil {
			return err
		}

		lastNumber, err := s.importRepo.LastBatchNumber(txCtx)
		if err != nil {
			return fmt.Errorf("failed to read last batch number: %w", err)
		}

		batch := &model.ImportBatch{
			SupplierID:   supplier.ID,
			BatchNumber:  lastNumber + 1,
			ExchangeRate: rate,
			Note:         strings.TrimSpace(req.Note),
		}

		totalAmount := decimal.Zero
		for _, line := range req.Lines {
			totalPrice := money.Round(decimal.NewFromFloat(line.TotalPrice))
			unitPrice := money.Round(totalPrice.Div(decimal.NewFromInt(int64(line.Quantity))))
			sellPrice := money.Round(decimal.NewFromFloat(line.SellPrice))
			if sellPrice.LessThanOrEqual(decimal.Zero) {
				sellPrice = unitPrice
			}

			ledgerTotal, err := money.ToLedger(totalPrice, line.Currency, s.cfg.LedgerCurrency, rate)
			if err != nil {
				return fmt.Errorf("line %q: %w", line.Title, err)
			}
			ledgerTotal = money.Round(ledgerTotal)
			totalAmount = totalAmount.Add(ledgerTotal)

			batch.Lines = append(batch.Lines, model.ImportLine{
				Title:       strings.TrimSpace(line.Title),
				Unit:        line.Unit,
				Quantity:    line.Quantity,
				UnitPrice:   unitPrice,
				TotalPrice:  totalPrice,
				Currency:    line.Currency,
				SellPrice:   sellPrice,
				LedgerTotal: ledgerTotal,
			})
		}

		batch.TotalAmount = money.Round(totalAmount)
		// overpayment at creation is change handed back, not stored credit
		if paid.GreaterThan(batch.TotalAmount) {
			paid = batch.TotalAmount
		}
		batch.PaidAmount = paid
		batch.RemainingDebt = debtOf(batch.TotalAmount, paid)
		batch.Status = importStatus(batch.RemainingDebt, paid)

		// split the initial payment across the lines by their ledger share
		weights := make([]decimal.Decimal, len(batch.Lines))
		for i := range batch.Lines {
			weights[i] = batch.Lines[i].LedgerTotal
		}
		shares := money.Allocate(weights, paid)
		for i := range batch.Lines {
			batch.Lines[i].PaidAmount = shares[i]
			batch.Lines[i].RemainingDebt = debtOf(batch.Lines[i].LedgerTotal, shares[i])
		}

		if err := s.importRepo.Create(txCtx, batch); err != nil {
			return fmt.Errorf("%w: failed to persist import batch: %v", ErrStorageUnavailable, err)
		}

		if _, err := s.stock.ReceiveBatch(txCtx, batch); err != nil {
			return err
		}

		supplier, err = s.debt.PostCharge(txCtx, supplier.ID, batch.TotalAmount, paid)
		if err != nil {
			return err
		}

		if paid.GreaterThan(decimal.Zero) {
			payment := &model.Payment{
				PartyID:       supplier.ID,
				Amount:        paid,
				Note:          fmt.Sprintf("initial payment for batch %d", batch.BatchNumber),
				ImportBatchID: &batch.ID,
			}
			if err := s.partyRepo.AddPayment(txCtx, payment); err != nil {
				return fmt.Errorf("failed to record supplier payment: %w", err)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"batch_number": batch.BatchNumber,
			"lines":        len(batch.Lines),
			"total_amount": batch.TotalAmount.StringFixed(money.Places),
			"paid_amount":  paid.StringFixed(money.Places),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateImport,
			EntityID:   batch.ID.String(),
			EntityName: supplier.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		response = &CreateImportResponse{
			Batch: batch,
			Summary: ImportSummary{
				BatchNumber:   batch.BatchNumber,
				TotalLines:    len(batch.Lines),
				TotalAmount:   batch.TotalAmount.StringFixed(money.Places),
				PaidAmount:    paid.StringFixed(money.Places),
				RemainingDebt: batch.RemainingDebt.StringFixed(money.Places),
				SupplierDebt:  supplier.TotalDebt.StringFixed(money.Places),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("import.created", map[string]interface{}{
		"batch_number": response.Batch.BatchNumber,
		"supplier_id":  response.Batch.SupplierID.String(),
	})
	return response, nil
}

// PayBatch applies an additional payment against one specific batch. Unlike
// the party-level settlement it rejects amounts above the batch's remaining
// debt, matching how suppliers are paid per shipment.
func (s *importService) PayBatch(ctx context.Context, userID string, batchID string, req PayImportRequest) (*model.ImportBatch, error) {
	id, err := uuid.Parse(batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid batch id", ErrValidation)
	}
	amount := money.Round(decimal.NewFromFloat(req.Amount))
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}

	var updated *model.ImportBatch
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		batch, err := s.importRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load import batch: %w", err)
		}

		if amount.GreaterThan(batch.RemainingDebt) {
			return fmt.Errorf("%w: amount %s exceeds remaining debt %s",
				ErrInvalidPayment, amount.StringFixed(money.Places), batch.RemainingDebt.StringFixed(money.Places))
		}

		supplier, err := s.partyRepo.FindByIDForUpdate(txCtx, batch.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to lock supplier: %w", err)
		}

		batch.PaidAmount = money.Round(batch.PaidAmount.Add(amount))
		batch.RemainingDebt = debtOf(batch.TotalAmount, batch.PaidAmount)
		batch.Status = importStatus(batch.RemainingDebt, batch.PaidAmount)
		if err := s.importRepo.Update(txCtx, batch); err != nil {
			return fmt.Errorf("failed to update import batch: %w", err)
		}

		// weight by what each line still owes, not its full ledger total, so
		// residuals from earlier payments do not push any line past its total
		weights := make([]decimal.Decimal, len(batch.Lines))
		for i := range batch.Lines {
			weights[i] = batch.Lines[i].RemainingDebt
		}
		shares := money.Allocate(weights, amount)
		for i := range batch.Lines {
			line := &batch.Lines[i]
			line.PaidAmount = money.Round(line.PaidAmount.Add(shares[i]))
			line.RemainingDebt = debtOf(line.LedgerTotal, line.PaidAmount)
			if err := s.importRepo.UpdateLine(txCtx, line); err != nil {
				return fmt.Errorf("failed to update import line: %w", err)
			}
		}

		supplier.TotalPaid = money.Round(supplier.TotalPaid.Add(amount))
		supplier.TotalDebt = debtOf(supplier.TotalOwed, supplier.TotalPaid)
		if err := s.partyRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier balance: %w", err)
		}

		note := req.Note
		if note == "" {
			note = fmt.Sprintf("additional payment for batch %d", batch.BatchNumber)
		}
		payment := &model.Payment{PartyID: supplier.ID, Amount: amount, Note: note, ImportBatchID: &batch.ID}
		if err := s.partyRepo.AddPayment(txCtx, payment); err != nil {
			return fmt.Errorf("failed to record supplier payment: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"batch_number": batch.BatchNumber,
			"amount":       amount.StringFixed(money.Places),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionPayImportBatch,
			EntityID:   batch.ID.String(),
			EntityName: supplier.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		updated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *importService) GetByID(ctx context.Context, id string) (*model.ImportBatch, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid batch id", ErrValidation)
	}
	batch, err := s.importRepo.FindByID(ctx, parsed)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *importService) List(ctx context.Context, supplierID, status string, page, limit int) ([]model.ImportBatch, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var sid *uuid.UUID
	if supplierID != "" {
		parsed, err := uuid.Parse(supplierID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid supplier id", ErrValidation)
		}
		sid = &parsed
	}

	return s.importRepo.List(ctx, sid, status, page, limit)
}

func (s *importService) NextBatchNumber(ctx context.Context) (int64, error) {
	last, err := s.importRepo.LastBatchNumber(ctx)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (s *importService) findOrCreateSupplier(ctx context.Context, req CreateImportRequest) (*model.Party, error) {
	phone := strings.TrimSpace(req.Phone)
	supplier, err := s.partyRepo.FindByPhone(ctx, phone)
	if err == nil {
		if supplier.Type == model.PartyTypeCustomer {
			supplier.Type = model.PartyTypeBoth
			if err := s.partyRepo.Update(ctx, supplier); err != nil {
				return nil, fmt.Errorf("failed to update party type: %w", err)
			}
		}
		return supplier, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up supplier: %w", err)
	}

	supplier = &model.Party{
		Name:    strings.TrimSpace(req.SupplierName),
		Type:    model.PartyTypeSupplier,
		Phone:   phone,
		Address: strings.TrimSpace(req.Address),
	}
	if err := s.partyRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *importService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		return
	}
	// fire and forget; delivery is never required for correctness
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}
