package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"procurement-backend/internal/model"
	"procurement-backend/internal/repository"
	"procurement-backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// testEnv wires the real services against the in-memory fakes.
type testEnv struct {
	store        *memStore
	budgets      service.BudgetService
	procurements service.ProcurementService
	printNumbers service.PrintNumberService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	tx := &fakeTxManager{store: store}
	budgetRepo := &fakeBudgetRepo{store: store}
	procurementRepo := &fakeProcurementRepo{store: store}
	itemRepo := &fakeItemRepo{store: store}
	printNumberRepo := &fakePrintNumberRepo{store: store}
	auditRepo := &fakeAuditRepo{store: store}

	budgets := service.NewBudgetService(budgetRepo, auditRepo, tx)
	return &testEnv{
		store:        store,
		budgets:      budgets,
		procurements: service.NewProcurementService(procurementRepo, itemRepo, auditRepo, budgets, tx, nil),
		printNumbers: service.NewPrintNumberService(printNumberRepo, procurementRepo, auditRepo, tx),
	}
}

func (e *testEnv) seedBudget(organizationID uint, year int, total, remaining string) {
	e.store.nextBudgetID++
	e.store.budgets[budgetKey{organizationID, year}] = model.Budget{
		ID:              e.store.nextBudgetID,
		OrganizationID:  organizationID,
		Year:            year,
		TotalBudget:     mustDecimal(total),
		RemainingBudget: mustDecimal(remaining),
	}
}

func (e *testEnv) seedProcurement(status model.ProcurementStatus) uint {
	e.store.nextProcurementID++
	id := e.store.nextProcurementID
	e.store.procurements[id] = model.Procurement{
		ID:             id,
		RequesterID:    uuid.New(),
		OrganizationID: 1,
		Status:         status,
		Reference:      fmt.Sprintf("REQ-%d", id),
		Quantity:       1,
		CreatedAt:      time.Now(),
	}
	return id
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func requireNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// memStore backs the fake repositories with plain maps so service logic can
// be exercised without a database. The fake transaction manager snapshots the
// whole store before each scope and restores it on error, giving the tests
// real rollback semantics.
type budgetKey struct {
	org  uint
	year int
}

type linkKey struct {
	printNumberID uint
	procurementID uint
}

type memStore struct {
	procurements map[uint]model.Procurement
	budgets      map[budgetKey]model.Budget
	items        map[uint]model.Item
	printNumbers map[uint]model.PrintNumber
	codes        map[string]uint
	links        map[linkKey]model.ProcurementPrintNumber
	audits       []model.AuditLog

	nextProcurementID uint
	nextBudgetID      uint
	nextItemID        uint
	nextPrintNumberID uint
}

func newMemStore() *memStore {
	return &memStore{
		procurements: make(map[uint]model.Procurement),
		budgets:      make(map[budgetKey]model.Budget),
		items:        make(map[uint]model.Item),
		printNumbers: make(map[uint]model.PrintNumber),
		codes:        make(map[string]uint),
		links:        make(map[linkKey]model.ProcurementPrintNumber),
	}
}

func (m *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range m.procurements {
		c.procurements[k] = v
	}
	for k, v := range m.budgets {
		c.budgets[k] = v
	}
	for k, v := range m.items {
		c.items[k] = v
	}
	for k, v := range m.printNumbers {
		c.printNumbers[k] = v
	}
	for k, v := range m.codes {
		c.codes[k] = v
	}
	for k, v := range m.links {
		c.links[k] = v
	}
	c.audits = append(c.audits, m.audits...)
	c.nextProcurementID = m.nextProcurementID
	c.nextBudgetID = m.nextBudgetID
	c.nextItemID = m.nextItemID
	c.nextPrintNumberID = m.nextPrintNumberID
	return c
}

func (m *memStore) restore(from *memStore) {
	m.procurements = from.procurements
	m.budgets = from.budgets
	m.items = from.items
	m.printNumbers = from.printNumbers
	m.codes = from.codes
	m.links = from.links
	m.audits = from.audits
	m.nextProcurementID = from.nextProcurementID
	m.nextBudgetID = from.nextBudgetID
	m.nextItemID = from.nextItemID
	m.nextPrintNumberID = from.nextPrintNumberID
}

// --- transaction manager ---

type fakeTxManager struct {
	store *memStore
}

func (t *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	before := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(before)
		return err
	}
	return nil
}

// --- procurement repository ---

type fakeProcurementRepo struct {
	store *memStore
}

func (r *fakeProcurementRepo) Create(ctx context.Context, p *model.Procurement) error {
	r.store.nextProcurementID++
	p.ID = r.store.nextProcurementID
	p.CreatedAt = time.Now()
	r.store.procurements[p.ID] = *p
	return nil
}

func (r *fakeProcurementRepo) FindByID(ctx context.Context, id uint) (*model.Procurement, error) {
	p, ok := r.store.procurements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProcurementRepo) FindByIDForUpdate(ctx context.Context, id uint) (*model.Procurement, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeProcurementRepo) UpdateTransition(ctx context.Context, id uint, expected model.ProcurementStatus, fields map[string]interface{}) (int64, error) {
	p, ok := r.store.procurements[id]
	if !ok || p.Status != expected {
		return 0, nil
	}
	applyProcurementFields(&p, fields)
	r.store.procurements[id] = p
	return 1, nil
}

func (r *fakeProcurementRepo) BulkTransition(ctx context.Context, ids []uint, expected, next model.ProcurementStatus) (int64, error) {
	var rows int64
	for _, id := range ids {
		p, ok := r.store.procurements[id]
		if !ok || p.Status != expected {
			continue
		}
		p.Status = next
		r.store.procurements[id] = p
		rows++
	}
	return rows, nil
}

func (r *fakeProcurementRepo) List(ctx context.Context, filter repository.ProcurementFilter, page, limit int) ([]model.Procurement, int64, error) {
	var result []model.Procurement
	for _, p := range r.store.procurements {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.OrganizationID != 0 && p.OrganizationID != filter.OrganizationID {
			continue
		}
		result = append(result, p)
	}
	return result, int64(len(result)), nil
}

func applyProcurementFields(p *model.Procurement, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			p.Status = v.(model.ProcurementStatus)
		case "verification_note":
			p.VerificationNote = v.(string)
		case "item_id":
			id := v.(uint)
			p.ItemID = &id
		case "estimated_price":
			p.EstimatedPrice = v.(decimal.Decimal)
		case "po_document":
			s := v.(string)
			p.PODocument = &s
		case "po_date":
			t := v.(time.Time)
			p.PODate = &t
		case "time_estimation":
			s := v.(string)
			p.TimeEstimation = &s
		case "time_estimation_date":
			t := v.(time.Time)
			p.TimeEstimationDate = &t
		case "bast_document":
			s := v.(string)
			p.BASTDocument = &s
		case "bast_date":
			t := v.(time.Time)
			p.BASTDate = &t
		case "final_note":
			p.FinalNote = v.(string)
		}
	}
}

// --- budget repository ---

type fakeBudgetRepo struct {
	store *memStore
}

func (r *fakeBudgetRepo) GetOrCreate(ctx context.Context, organizationID uint, year int) (*model.Budget, error) {
	key := budgetKey{organizationID, year}
	if b, ok := r.store.budgets[key]; ok {
		return &b, nil
	}
	r.store.nextBudgetID++
	b := model.Budget{
		ID:              r.store.nextBudgetID,
		OrganizationID:  organizationID,
		Year:            year,
		TotalBudget:     decimal.Zero,
		RemainingBudget: decimal.Zero,
	}
	r.store.budgets[key] = b
	return &b, nil
}

func (r *fakeBudgetRepo) Find(ctx context.Context, organizationID uint, year int) (*model.Budget, error) {
	if b, ok := r.store.budgets[budgetKey{organizationID, year}]; ok {
		return &b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBudgetRepo) FindForUpdate(ctx context.Context, organizationID uint, year int) (*model.Budget, error) {
	return r.Find(ctx, organizationID, year)
}

func (r *fakeBudgetRepo) UpdateAmounts(ctx context.Context, id uint, total, remaining decimal.Decimal) error {
	for key, b := range r.store.budgets {
		if b.ID == id {
			b.TotalBudget = total
			b.RemainingBudget = remaining
			r.store.budgets[key] = b
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeBudgetRepo) ListByOrganization(ctx context.Context, organizationID uint) ([]model.Budget, error) {
	var result []model.Budget
	for _, b := range r.store.budgets {
		if b.OrganizationID == organizationID {
			result = append(result, b)
		}
	}
	return result, nil
}

// --- item repository ---

type fakeItemRepo struct {
	store *memStore
}

func (r *fakeItemRepo) Create(ctx context.Context, item *model.Item) error {
	r.store.nextItemID++
	item.ID = r.store.nextItemID
	r.store.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) FindByID(ctx context.Context, id uint) (*model.Item, error) {
	item, ok := r.store.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *fakeItemRepo) List(ctx context.Context, page, limit int) ([]model.Item, int64, error) {
	var result []model.Item
	for _, item := range r.store.items {
		result = append(result, item)
	}
	return result, int64(len(result)), nil
}

// --- print number repository ---

type fakePrintNumberRepo struct {
	store *memStore
}

func (r *fakePrintNumberRepo) FindByCode(ctx context.Context, code string) (*model.PrintNumber, error) {
	id, ok := r.store.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	pn := r.store.printNumbers[id]
	return &pn, nil
}

func (r *fakePrintNumberRepo) FindByID(ctx context.Context, id uint) (*model.PrintNumber, error) {
	pn, ok := r.store.printNumbers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &pn, nil
}

func (r *fakePrintNumberRepo) Create(ctx context.Context, pn *model.PrintNumber) error {
	r.store.nextPrintNumberID++
	pn.ID = r.store.nextPrintNumberID
	pn.CreatedAt = time.Now()
	r.store.printNumbers[pn.ID] = *pn
	r.store.codes[pn.Code] = pn.ID
	return nil
}

func (r *fakePrintNumberRepo) UpdatePersonInCharge(ctx context.Context, id uint, personInChargeID uuid.UUID) error {
	pn, ok := r.store.printNumbers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	pn.PersonInChargeID = personInChargeID
	r.store.printNumbers[id] = pn
	return nil
}

func (r *fakePrintNumberRepo) CountLinks(ctx context.Context, printNumberID uint, procurementIDs []uint) (int64, error) {
	var count int64
	for _, id := range procurementIDs {
		if _, ok := r.store.links[linkKey{printNumberID, id}]; ok {
			count++
		}
	}
	return count, nil
}

func (r *fakePrintNumberRepo) CreateLinks(ctx context.Context, links []model.ProcurementPrintNumber) error {
	for _, link := range links {
		r.store.links[linkKey{link.PrintNumberID, link.ProcurementID}] = link
	}
	return nil
}

func (r *fakePrintNumberRepo) ListLinks(ctx context.Context, printNumberID uint) ([]model.ProcurementPrintNumber, error) {
	var result []model.ProcurementPrintNumber
	for key, link := range r.store.links {
		if key.printNumberID == printNumberID {
			result = append(result, link)
		}
	}
	return result, nil
}

func (r *fakePrintNumberRepo) UpdateReceipt(ctx context.Context, id uint, proofPhoto string, receiveDate time.Time) error {
	pn, ok := r.store.printNumbers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	pn.ProofPhoto = &proofPhoto
	pn.ReceiveDate = &receiveDate
	pn.IsActive = false
	r.store.printNumbers[id] = pn
	return nil
}

func (r *fakePrintNumberRepo) List(ctx context.Context, page, limit int) ([]model.PrintNumber, int64, error) {
	var result []model.PrintNumber
	for _, pn := range r.store.printNumbers {
		result = append(result, pn)
	}
	return result, int64(len(result)), nil
}

// --- audit repository ---

type fakeAuditRepo struct {
	store *memStore
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	r.store.audits = append(r.store.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return r.store.audits, int64(len(r.store.audits)), nil
}
