package service

import (
	"context"
	"sort"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. Find methods hand out copies
// and Update writes back, mirroring how a row read inside a transaction only
// becomes visible to others once saved.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- parties ---

type fakePartyRepo struct {
	parties  map[uuid.UUID]model.Party
	payments []model.Payment
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{parties: make(map[uuid.UUID]model.Party)}
}

func (r *fakePartyRepo) put(p model.Party) model.Party {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.parties[p.ID] = p
	return p
}

func (r *fakePartyRepo) Create(_ context.Context, party *model.Party) error {
	*party = r.put(*party)
	return nil
}

func (r *fakePartyRepo) Update(_ context.Context, party *model.Party) error {
	if _, ok := r.parties[party.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.parties[party.ID] = *party
	return nil
}

func (r *fakePartyRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.parties, id)
	return nil
}

func (r *fakePartyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Party, error) {
	p, ok := r.parties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakePartyRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePartyRepo) FindByPhone(_ context.Context, phone string) (*model.Party, error) {
	for _, p := range r.parties {
		if p.Phone == phone {
			found := p
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePartyRepo) List(_ context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error) {
	var out []model.Party
	for _, p := range r.parties {
		if partyType != "" && p.Type != partyType {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePartyRepo) AddPayment(_ context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *fakePartyRepo) ListPayments(_ context.Context, partyID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.PartyID == partyID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- stock ---

type fakeStockRepo struct {
	lines     map[uuid.UUID]model.StockLine
	movements []model.StockMovement
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{lines: make(map[uuid.UUID]model.StockLine)}
}

func (r *fakeStockRepo) put(l model.StockLine) model.StockLine {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.lines[l.ID] = l
	return l
}

func (r *fakeStockRepo) CreateLines(_ context.Context, lines []model.StockLine) error {
	for i := range lines {
		lines[i] = r.put(lines[i])
	}
	return nil
}

func (r *fakeStockRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockLine, error) {
	l, ok := r.lines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *fakeStockRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockLine, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeStockRepo) UpdateQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	l, ok := r.lines[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Quantity = quantity
	r.lines[id] = l
	return nil
}

func (r *fakeStockRepo) List(_ context.Context, search string, page, limit int) ([]model.StockLine, int64, error) {
	var out []model.StockLine
	for _, l := range r.lines {
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) ListByImportBatch(_ context.Context, importBatchID uuid.UUID) ([]model.StockLine, error) {
	var out []model.StockLine
	for _, l := range r.lines {
		if l.ImportBatchID == importBatchID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) GroupedByProduct(_ context.Context) ([]repository.ProductSummary, error) {
	return nil, nil
}

func (r *fakeStockRepo) RecordMovement(_ context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeStockRepo) ListMovements(_ context.Context, stockLineID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.StockLineID == stockLineID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

// --- sales ---

type fakeSaleRepo struct {
	sales   map[uuid.UUID]model.Sale
	entries []model.PaymentEntry
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]model.Sale)}
}

func (r *fakeSaleRepo) put(s model.Sale) model.Sale {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.sales[s.ID] = s
	return s
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	*sale = r.put(*sale)
	return nil
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *model.Sale) error {
	if _, ok := r.sales[sale.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.sales[sale.ID] = *sale
	return nil
}

func (r *fakeSaleRepo) AddPaymentEntry(_ context.Context, entry *model.PaymentEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeSaleRepo) List(_ context.Context, customerID *uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if customerID != nil && s.CustomerID != *customerID {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) ListDebtors(_ context.Context, page, limit int) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.RemainingDebt.GreaterThan(decimal.Zero) {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, s := range r.sales {
		if !s.CreatedAt.Before(from) && s.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeSaleRepo) FindOpenByCustomer(_ context.Context, customerID uuid.UUID) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.CustomerID == customerID && s.RemainingDebt.GreaterThan(decimal.Zero) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeSaleRepo) SumByCustomer(_ context.Context, customerID uuid.UUID) (total, paid decimal.Decimal, err error) {
	total, paid = decimal.Zero, decimal.Zero
	for _, s := range r.sales {
		if s.CustomerID == customerID {
			total = total.Add(s.TotalAmount)
			paid = paid.Add(s.PaidAmount)
		}
	}
	return total, paid, nil
}

// --- imports ---

type fakeImportRepo struct {
	batches map[uuid.UUID]model.ImportBatch
}

func newFakeImportRepo() *fakeImportRepo {
	return &fakeImportRepo{batches: make(map[uuid.UUID]model.ImportBatch)}
}

func cloneBatch(b model.ImportBatch) model.ImportBatch {
	b.Lines = append([]model.ImportLine(nil), b.Lines...)
	return b
}

func (r *fakeImportRepo) put(b model.ImportBatch) model.ImportBatch {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	for i := range b.Lines {
		if b.Lines[i].ID == uuid.Nil {
			b.Lines[i].ID = uuid.New()
		}
		b.Lines[i].ImportBatchID = b.ID
	}
	r.batches[b.ID] = cloneBatch(b)
	return b
}

func (r *fakeImportRepo) Create(_ context.Context, batch *model.ImportBatch) error {
	*batch = r.put(*batch)
	return nil
}

func (r *fakeImportRepo) Update(_ context.Context, batch *model.ImportBatch) error {
	if _, ok := r.batches[batch.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.batches[batch.ID] = cloneBatch(*batch)
	return nil
}

func (r *fakeImportRepo) UpdateLine(_ context.Context, line *model.ImportLine) error {
	b, ok := r.batches[line.ImportBatchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range b.Lines {
		if b.Lines[i].ID == line.ID {
			b.Lines[i] = *line
			r.batches[b.ID] = b
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeImportRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ImportBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneBatch(b)
	return &c, nil
}

func (r *fakeImportRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ImportBatch, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeImportRepo) List(_ context.Context, supplierID *uuid.UUID, status string, page, limit int) ([]model.ImportBatch, int64, error) {
	var out []model.ImportBatch
	for _, b := range r.batches {
		if supplierID != nil && b.SupplierID != *supplierID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, cloneBatch(b))
	}
	return out, int64(len(out)), nil
}

func (r *fakeImportRepo) LastBatchNumber(_ context.Context) (int64, error) {
	var last int64
	for _, b := range r.batches {
		if b.BatchNumber > last {
			last = b.BatchNumber
		}
	}
	return last, nil
}

func (r *fakeImportRepo) FindOpenBySupplier(_ context.Context, supplierID uuid.UUID) ([]model.ImportBatch, error) {
	var out []model.ImportBatch
	for _, b := range r.batches {
		if b.SupplierID == supplierID && b.RemainingDebt.GreaterThan(decimal.Zero) {
			out = append(out, cloneBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeImportRepo) SumBySupplier(_ context.Context, supplierID uuid.UUID) (total, paid decimal.Decimal, err error) {
	total, paid = decimal.Zero, decimal.Zero
	for _, b := range r.batches {
		if b.SupplierID == supplierID {
			total = total.Add(b.TotalAmount)
			paid = paid.Add(b.PaidAmount)
		}
	}
	return total, paid, nil
}

// --- agents ---

type fakeAgentRepo struct {
	agents map[uuid.UUID]model.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[uuid.UUID]model.Agent)}
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *model.Agent) error {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	r.agents[agent.ID] = *agent
	return nil
}

func (r *fakeAgentRepo) Update(_ context.Context, agent *model.Agent) error {
	if _, ok := r.agents[agent.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.agents[agent.ID] = *agent
	return nil
}

func (r *fakeAgentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.agents, id)
	return nil
}

func (r *fakeAgentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *fakeAgentRepo) List(_ context.Context, page, limit int) ([]model.Agent, int64, error) {
	var out []model.Agent
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	logs    []model.AuditLog
	failErr error
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, l := range r.logs {
		if action != "" && l.Action != action {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			match := u
			return &match, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, int64(len(out)), nil
}

// --- expenses ---

type fakeExpenseRepo struct {
	expenses map[uuid.UUID]model.Expense
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[uuid.UUID]model.Expense)}
}

func (r *fakeExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	r.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, expense *model.Expense) error {
	if _, ok := r.expenses[expense.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.expenses, id)
	return nil
}

func (r *fakeExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *fakeExpenseRepo) List(_ context.Context, category string, page, limit int) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, e := range r.expenses {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpentAt.After(out[j].SpentAt) })
	return out, int64(len(out)), nil
}
