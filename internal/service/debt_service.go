package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/money"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentResult reports how an incoming payment was settled. ExtraUnapplied is
// the part of the payment exceeding the party's total open debt; it is
// returned to the caller, never credited and never dropped.
type PaymentResult struct {
	Paid           string        `json:"paid"`
	ExtraUnapplied string        `json:"extra_unapplied"`
	SettledDocs    int           `json:"settled_docs"`
	Party          PartyResponse `json:"party"`
}

// DebtService maintains per-party debt aggregates. Payments are settled
// oldest-first across the party's open sales and import batches.
type DebtService interface {
	PostCharge(ctx context.Context, partyID uuid.UUID, charge, initialPaid decimal.Decimal) (*model.Party, error)
	ApplyPayment(ctx context.Context, userID string, partyID string, amount decimal.Decimal, note string) (*PaymentResult, error)
	Reconcile(ctx context.Context, userID string, partyID string) (*model.Party, error)
}

type debtService struct {
	partyRepo  repository.PartyRepository
	saleRepo   repository.SaleRepository
	importRepo repository.ImportRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewDebtService(
	partyRepo repository.PartyRepository,
	saleRepo repository.SaleRepository,
	importRepo repository.ImportRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DebtService {
	return &debtService{
		partyRepo:  partyRepo,
		saleRepo:   saleRepo,
		importRepo: importRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// PostCharge adds a new charge (and any payment taken at document creation) to
// the party's aggregates. Must run inside the caller's transaction; the party
// row is locked for the duration.
func (s *debtService) PostCharge(ctx context.Context, partyID uuid.UUID, charge, initialPaid decimal.Decimal) (*model.Party, error) {
	party, err := s.partyRepo.FindByIDForUpdate(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock party: %w", err)
	}

	party.TotalOwed = money.Round(party.TotalOwed.Add(charge))
	party.TotalPaid = money.Round(party.TotalPaid.Add(initialPaid))
	party.TotalDebt = debtOf(party.TotalOwed, party.TotalPaid)

	if err := s.partyRepo.Update(ctx, party); err != nil {
		return nil, fmt.Errorf("failed to update party balance: %w", err)
	}
	return party, nil
}

// openDoc is one outstanding document in settlement order.
type openDoc struct {
	createdAt time.Time
	sale      *model.Sale
	batch     *model.ImportBatch
}

func (d *openDoc) remaining() decimal.Decimal {
	if d.sale != nil {
		return d.sale.RemainingDebt
	}
	return d.batch.RemainingDebt
}

// ApplyPayment settles amount against the party's open documents oldest-first.
// Each settled document gets a payment-history entry; the party aggregates are
// updated incrementally and then cross-checked against the totals recomputed
// from the documents. The whole settlement is one transaction.
func (s *debtService) ApplyPayment(ctx context.Context, userID string, partyID string, amount decimal.Decimal, note string) (*PaymentResult, error) {
	pid, err := uuid.Parse(partyID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid party id", ErrValidation)
	}

	amount = money.Round(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}

	var result *PaymentResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		party, err := s.partyRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return fmt.Errorf("failed to lock party: %w", err)
		}

		docs, err := s.openDocs(txCtx, party)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("%w: party %s has nothing outstanding", ErrNoOpenDebt, party.Name)
		}

		left := amount
		settled := 0
		for i := range docs {
			if left.LessThanOrEqual(decimal.Zero) {
				break
			}
			pay := decimal.Min(left, docs[i].remaining())
			if pay.LessThanOrEqual(decimal.Zero) {
				continue
			}
			if err := s.settleDoc(txCtx, party, &docs[i], pay, note); err != nil {
				return err
			}
			left = left.Sub(pay)
			settled++
		}

		applied := amount.Sub(left)
		party.TotalPaid = money.Round(party.TotalPaid.Add(applied))
		party.TotalDebt = debtOf(party.TotalOwed, party.TotalPaid)
		if err := s.partyRepo.Update(txCtx, party); err != nil {
			return fmt.Errorf("failed to update party balance: %w", err)
		}

		// both maintenance paths must agree before the transaction commits
		if err := s.crossCheck(txCtx, party); err != nil {
			return err
		}

		if err := s.logPayment(txCtx, userID, party, applied, left); err != nil {
			return err
		}

		result = &PaymentResult{
			Paid:           applied.StringFixed(money.Places),
			ExtraUnapplied: left.StringFixed(money.Places),
			SettledDocs:    settled,
			Party:          toPartyResponse(party),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// openDocs loads the party's outstanding sales and import batches and merges
// them into one oldest-first settlement queue.
func (s *debtService) openDocs(ctx context.Context, party *model.Party) ([]openDoc, error) {
	var docs []openDoc

	if party.Type == model.PartyTypeCustomer || party.Type == model.PartyTypeBoth {
		sales, err := s.saleRepo.FindOpenByCustomer(ctx, party.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load open sales: %w", err)
		}
		for i := range sales {
			docs = append(docs, openDoc{createdAt: sales[i].CreatedAt, sale: &sales[i]})
		}
	}

	if party.Type == model.PartyTypeSupplier || party.Type == model.PartyTypeBoth {
		batches, err := s.importRepo.FindOpenBySupplier(ctx, party.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load open import batches: %w", err)
		}
		for i := range batches {
			docs = append(docs, openDoc{createdAt: batches[i].CreatedAt, batch: &batches[i]})
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].createdAt.Before(docs[j].createdAt)
	})
	return docs, nil
}

func (s *debtService) settleDoc(ctx context.Context, party *model.Party, doc *openDoc, pay decimal.Decimal, note string) error {
	if doc.sale != nil {
		return s.settleSale(ctx, party, doc.sale, pay, note)
	}
	return s.settleBatch(ctx, party, doc.batch, pay, note)
}

func (s *debtService) settleSale(ctx context.Context, party *model.Party, sale *model.Sale, pay decimal.Decimal, note string) error {
	sale.PaidAmount = money.Round(sale.PaidAmount.Add(pay))
	sale.RemainingDebt = debtOf(sale.TotalAmount, sale.PaidAmount)
	// the method tracks paid vs total, so settlement has to re-derive it
	sale.PaymentMethod = derivePaymentMethod(sale.PaymentMethod, sale.PaidAmount, sale.TotalAmount)
	if err := s.saleRepo.Update(ctx, sale); err != nil {
		return fmt.Errorf("failed to update sale %s: %w", sale.InvoiceNo, err)
	}

	entry := &model.PaymentEntry{SaleID: sale.ID, Amount: pay, Note: note}
	if err := s.saleRepo.AddPaymentEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record sale payment entry: %w", err)
	}

	payment := &model.Payment{PartyID: party.ID, Amount: pay, Note: note, SaleID: &sale.ID}
	if err := s.partyRepo.AddPayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to record party payment: %w", err)
	}
	return nil
}

// settleBatch pays part of an import batch and spreads the paid amount across
// the batch lines proportionally to what each line still owes, so repeated
// payments converge on every line exactly.
func (s *debtService) settleBatch(ctx context.Context, party *model.Party, batch *model.ImportBatch, pay decimal.Decimal, note string) error {
	batch.PaidAmount = money.Round(batch.PaidAmount.Add(pay))
	batch.RemainingDebt = debtOf(batch.TotalAmount, batch.PaidAmount)
	batch.Status = importStatus(batch.RemainingDebt, batch.PaidAmount)
	if err := s.importRepo.Update(ctx, batch); err != nil {
		return fmt.Errorf("failed to update import batch %d: %w", batch.BatchNumber, err)
	}

	weights := make([]decimal.Decimal, len(batch.Lines))
	for i := range batch.Lines {
		weights[i] = batch.Lines[i].RemainingDebt
	}
	shares := money.Allocate(weights, pay)
	for i := range batch.Lines {
		line := &batch.Lines[i]
		line.PaidAmount = money.Round(line.PaidAmount.Add(shares[i]))
		line.RemainingDebt = debtOf(line.LedgerTotal, line.PaidAmount)
		if err := s.importRepo.UpdateLine(ctx, line); err != nil {
			return fmt.Errorf("failed to update import line: %w", err)
		}
	}

	payment := &model.Payment{PartyID: party.ID, Amount: pay, Note: note, ImportBatchID: &batch.ID}
	if err := s.partyRepo.AddPayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to record party payment: %w", err)
	}
	return nil
}

// crossCheck recomputes the party aggregates from the underlying documents and
// compares them with the incrementally maintained values.
func (s *debtService) crossCheck(ctx context.Context, party *model.Party) error {
	owed, paid, err := s.recompute(ctx, party)
	if err != nil {
		return err
	}
	if !owed.Equal(party.TotalOwed) || !paid.Equal(party.TotalPaid) {
		return fmt.Errorf("%w: incremental owed=%s paid=%s, recomputed owed=%s paid=%s",
			ErrReconciliationMismatch,
			party.TotalOwed.StringFixed(money.Places), party.TotalPaid.StringFixed(money.Places),
			owed.StringFixed(money.Places), paid.StringFixed(money.Places))
	}
	return nil
}

func (s *debtService) recompute(ctx context.Context, party *model.Party) (owed, paid decimal.Decimal, err error) {
	owed, paid = decimal.Zero, decimal.Zero

	if party.Type == model.PartyTypeCustomer || party.Type == model.PartyTypeBoth {
		total, p, err := s.saleRepo.SumByCustomer(ctx, party.ID)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
		}
		owed = owed.Add(total)
		paid = paid.Add(p)
	}

	if party.Type == model.PartyTypeSupplier || party.Type == model.PartyTypeBoth {
		total, p, err := s.importRepo.SumBySupplier(ctx, party.ID)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum import batches: %w", err)
		}
		owed = owed.Add(total)
		paid = paid.Add(p)
	}

	return money.Round(owed), money.Round(paid), nil
}

// Reconcile rebuilds the party aggregates from the documents and persists
// them. Running it twice without intervening mutation yields identical totals.
func (s *debtService) Reconcile(ctx context.Context, userID string, partyID string) (*model.Party, error) {
	pid, err := uuid.Parse(partyID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid party id", ErrValidation)
	}

	var reconciled *model.Party
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		party, err := s.partyRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return fmt.Errorf("failed to lock party: %w", err)
		}

		owed, paid, err := s.recompute(txCtx, party)
		if err != nil {
			return err
		}

		party.TotalOwed = owed
		party.TotalPaid = paid
		party.TotalDebt = debtOf(owed, paid)
		if err := s.partyRepo.Update(txCtx, party); err != nil {
			return fmt.Errorf("failed to persist reconciled totals: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"total_owed": owed.StringFixed(money.Places),
			"total_paid": paid.StringFixed(money.Places),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionReconcileParty,
			EntityID:   party.ID.String(),
			EntityName: party.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		reconciled = party
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reconciled, nil
}

func (s *debtService) logPayment(ctx context.Context, userID string, party *model.Party, applied, extra decimal.Decimal) error {
	details, _ := json.Marshal(map[string]interface{}{
		"applied":         applied.StringFixed(money.Places),
		"extra_unapplied": extra.StringFixed(money.Places),
	})
	audit := &model.AuditLog{
		UserID:     parseUserID(userID),
		Action:     model.ActionApplyPayment,
		EntityID:   party.ID.String(),
		EntityName: party.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// debtOf floors the owed-minus-paid difference at zero.
func debtOf(owed, paid decimal.Decimal) decimal.Decimal {
	debt := money.Round(owed.Sub(paid))
	if debt.IsNegative() {
		return decimal.Zero
	}
	return debt
}

func importStatus(remaining, paid decimal.Decimal) string {
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return model.ImportStatusPaid
	case paid.GreaterThan(decimal.Zero):
		return model.ImportStatusPartial
	default:
		return model.ImportStatusUnpaid
	}
}

func parseUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
