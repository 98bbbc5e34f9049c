package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/internal/models"
	"relief_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// fakeDB implements every repository interface over in-memory maps.
type fakeDB struct {
	nextID        int64
	roles         []models.Role
	users         map[int64]models.User
	hashes        map[int64]string
	beneficiaries map[int64]models.Beneficiary
	itemTypes     map[int64]models.ItemType
	requests      map[int64]models.BeneficiaryRequest
	inventory     map[int64]models.InventoryItem
	movements     []models.InventoryMovement
	plans         map[int64]models.DistributionPlan
	overrides     map[string]models.ThresholdOverride
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		nextID:        1000,
		roles:         []models.Role{{ID: 1, Name: models.RoleAdmin}, {ID: 2, Name: models.RoleStaff}},
		users:         map[int64]models.User{},
		hashes:        map[int64]string{},
		beneficiaries: map[int64]models.Beneficiary{},
		itemTypes:     map[int64]models.ItemType{},
		requests:      map[int64]models.BeneficiaryRequest{},
		inventory:     map[int64]models.InventoryItem{},
		plans:         map[int64]models.DistributionPlan{},
		overrides:     map[string]models.ThresholdOverride{},
	}
}

func (f *fakeDB) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeDB) clone() fakeDB {
	c := *f
	c.roles = append([]models.Role(nil), f.roles...)
	c.users = copyMap(f.users)
	c.hashes = copyMap(f.hashes)
	c.beneficiaries = copyMap(f.beneficiaries)
	c.itemTypes = copyMap(f.itemTypes)
	c.requests = make(map[int64]models.BeneficiaryRequest, len(f.requests))
	for k, v := range f.requests {
		v.Items = append([]models.RequestItem{}, v.Items...)
		c.requests[k] = v
	}
	c.inventory = copyMap(f.inventory)
	c.movements = append([]models.InventoryMovement(nil), f.movements...)
	c.plans = make(map[int64]models.DistributionPlan, len(f.plans))
	for k, v := range f.plans {
		v.Items = append([]models.DistributionPlanItem{}, v.Items...)
		c.plans[k] = v
	}
	c.overrides = copyMap(f.overrides)
	return c
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func pageOf[T any](list []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return list
	}
	if page < 1 {
		page = 1
	}
	start := min((page-1)*pageSize, len(list))
	end := min(start+pageSize, len(list))
	return list[start:end]
}

// fakeTx restores the fake database when fn fails.
type fakeTx struct {
	db        *fakeDB
	commits   int
	rollbacks int
}

func (t *fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snapshot := t.db.clone()
	if err := fn(nil); err != nil {
		*t.db = snapshot
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

func (t *fakeTx) Executor() repositories.SQLExecutor { return nil }

// fakeThresholds stands in for the threshold cache.
type fakeThresholds struct {
	base          allocation.ThresholdTable
	table         allocation.ThresholdTable
	invalidations int
}

func newFakeThresholds() *fakeThresholds {
	base := allocation.DefaultThresholds()
	return &fakeThresholds{base: base, table: base}
}

func (f *fakeThresholds) Get(context.Context) (allocation.ThresholdTable, error) { return f.table, nil }
func (f *fakeThresholds) Invalidate(context.Context)                             { f.invalidations++ }
func (f *fakeThresholds) Base() allocation.ThresholdTable                        { return f.base }

// --- auth ---

func (f *fakeDB) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User, hash string) (int64, error) {
	for _, u := range f.users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("%w: duplicate (constraint: users_username_key)", repositories.ErrDuplicateKey)
		}
		if u.Email != nil && user.Email != nil && *u.Email == *user.Email {
			return 0, fmt.Errorf("%w: duplicate (constraint: users_email_key)", repositories.ErrDuplicateKey)
		}
	}
	u := *user
	u.ID = f.id()
	u.IsActive = true
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	f.hashes[u.ID] = hash
	return u.ID, nil
}

func (f *fakeDB) withRole(u models.User) *models.User {
	if u.RoleID != nil {
		for _, r := range f.roles {
			if r.ID == *u.RoleID {
				role := r
				u.Role = &role
			}
		}
	}
	return &u
}

func (f *fakeDB) FindUserByUsername(_ context.Context, username string) (*models.User, string, error) {
	for id, u := range f.users {
		if u.Username == username {
			return f.withRole(u), f.hashes[id], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (f *fakeDB) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.withRole(u), nil
}

func (f *fakeDB) FindRoleByName(_ context.Context, name string) (*models.Role, error) {
	for _, r := range f.roles {
		if strings.EqualFold(r.Name, name) {
			role := r
			return &role, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// --- beneficiaries ---

func (f *fakeDB) CreateBeneficiary(_ context.Context, _ repositories.SQLExecutor, b *models.Beneficiary) (int64, error) {
	b.ID = f.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.beneficiaries[b.ID] = *b
	return b.ID, nil
}

func (f *fakeDB) GetBeneficiaryByID(_ context.Context, id int64) (*models.Beneficiary, error) {
	b, ok := f.beneficiaries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (f *fakeDB) GetBeneficiaries(_ context.Context, filters models.BeneficiaryFilters) ([]models.Beneficiary, int, error) {
	list := []models.Beneficiary{}
	for _, id := range sortedIDs(f.beneficiaries) {
		b := f.beneficiaries[id]
		if filters.Type != nil && string(b.BeneficiaryType) != *filters.Type {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(*filters.Search)) {
			continue
		}
		list = append(list, b)
	}
	return pageOf(list, filters.Page, filters.PageSize), len(list), nil
}

func (f *fakeDB) UpdateBeneficiary(_ context.Context, _ repositories.SQLExecutor, b *models.Beneficiary) error {
	old, ok := f.beneficiaries[b.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = time.Now()
	f.beneficiaries[b.ID] = *b
	return nil
}

func (f *fakeDB) DeleteBeneficiary(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := f.beneficiaries[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, r := range f.requests {
		if r.BeneficiaryID == id {
			return fmt.Errorf("%w: beneficiary_requests_beneficiary_id_fkey", repositories.ErrForeignKey)
		}
	}
	delete(f.beneficiaries, id)
	return nil
}

// --- requests ---

func (f *fakeDB) CreateRequest(_ context.Context, _ repositories.SQLExecutor, req *models.BeneficiaryRequest) (int64, error) {
	b, ok := f.beneficiaries[req.BeneficiaryID]
	if !ok {
		return 0, fmt.Errorf("%w: beneficiary_requests_beneficiary_id_fkey", repositories.ErrForeignKey)
	}
	req.ID = f.id()
	req.BeneficiaryName = b.Name
	if req.RequestDate.IsZero() {
		req.RequestDate = time.Now()
	}
	req.Items = []models.RequestItem{}
	f.requests[req.ID] = *req
	return req.ID, nil
}

func (f *fakeDB) CreateRequestItem(_ context.Context, _ repositories.SQLExecutor, item *models.RequestItem) (int64, error) {
	t, ok := f.itemTypes[item.ItemTypeID]
	if !ok {
		return 0, fmt.Errorf("%w: request_items_itemtype_id_fkey", repositories.ErrForeignKey)
	}
	req := f.requests[item.RequestID]
	item.ID = f.id()
	item.ItemTypeName = t.Name
	req.Items = append(req.Items, *item)
	f.requests[item.RequestID] = req
	return item.ID, nil
}

func (f *fakeDB) GetRequestByID(_ context.Context, id int64) (*models.BeneficiaryRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	r.Items = append([]models.RequestItem{}, r.Items...)
	return &r, nil
}

func (f *fakeDB) GetRequestsByIDs(ctx context.Context, ids []int64) ([]models.BeneficiaryRequest, error) {
	list := []models.BeneficiaryRequest{}
	for _, id := range ids {
		if r, err := f.GetRequestByID(ctx, id); err == nil {
			list = append(list, *r)
		}
	}
	return list, nil
}

func (f *fakeDB) GetRequests(_ context.Context, filters models.RequestFilters) ([]models.BeneficiaryRequest, int, error) {
	list := []models.BeneficiaryRequest{}
	for _, id := range sortedIDs(f.requests) {
		r := f.requests[id]
		if filters.Status != nil && string(r.Status) != *filters.Status {
			continue
		}
		if filters.Urgency != nil && string(r.Urgency) != *filters.Urgency {
			continue
		}
		if filters.BeneficiaryID != nil && r.BeneficiaryID != *filters.BeneficiaryID {
			continue
		}
		list = append(list, r)
	}
	return pageOf(list, filters.Page, filters.PageSize), len(list), nil
}

func (f *fakeDB) UpdateRequestStatus(_ context.Context, _ repositories.SQLExecutor, id int64, from, to models.RequestStatus) error {
	r, ok := f.requests[id]
	if !ok || r.Status != from {
		return fmt.Errorf("%w: request %d is no longer %s", repositories.ErrConflict, id, from)
	}
	r.Status = to
	f.requests[id] = r
	return nil
}

func (f *fakeDB) DeleteRequest(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := f.requests[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, p := range f.plans {
		if p.RequestID == id {
			return fmt.Errorf("%w: distribution_plans_request_id_fkey", repositories.ErrForeignKey)
		}
	}
	delete(f.requests, id)
	return nil
}

// --- inventory ---

func (f *fakeDB) GetCategories(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Food"}}, nil
}

func (f *fakeDB) GetItemTypes(_ context.Context, categoryID *int64) ([]models.ItemType, error) {
	list := []models.ItemType{}
	for _, id := range sortedIDs(f.itemTypes) {
		t := f.itemTypes[id]
		if categoryID != nil && (t.CategoryID == nil || *t.CategoryID != *categoryID) {
			continue
		}
		list = append(list, t)
	}
	return list, nil
}

func (f *fakeDB) GetItemTypeByID(_ context.Context, id int64) (*models.ItemType, error) {
	t, ok := f.itemTypes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (f *fakeDB) CreateItem(_ context.Context, _ repositories.SQLExecutor, item *models.InventoryItem) (int64, error) {
	t, ok := f.itemTypes[item.ItemTypeID]
	if !ok {
		return 0, fmt.Errorf("%w: inventory_itemtype_id_fkey", repositories.ErrForeignKey)
	}
	item.ID = f.id()
	item.ItemTypeName = t.Name
	item.CategoryID = t.CategoryID
	item.Category = t.CategoryName
	f.inventory[item.ID] = *item
	return item.ID, nil
}

func (f *fakeDB) GetItemByID(_ context.Context, id int64) (*models.InventoryItem, error) {
	it, ok := f.inventory[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &it, nil
}

func (f *fakeDB) GetItems(_ context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	list := []models.InventoryItem{}
	for _, id := range sortedIDs(f.inventory) {
		it := f.inventory[id]
		if filters.ItemTypeID != nil && it.ItemTypeID != *filters.ItemTypeID {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(it.ItemTypeName), strings.ToLower(*filters.Search)) {
			continue
		}
		list = append(list, it)
	}
	return pageOf(list, filters.Page, filters.PageSize), len(list), nil
}

func (f *fakeDB) GetSnapshot(context.Context) ([]models.InventoryItem, error) {
	list := []models.InventoryItem{}
	for _, id := range sortedIDs(f.inventory) {
		list = append(list, f.inventory[id])
	}
	return list, nil
}

func (f *fakeDB) UpdateItem(_ context.Context, _ repositories.SQLExecutor, item *models.InventoryItem) error {
	if _, ok := f.inventory[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	t, ok := f.itemTypes[item.ItemTypeID]
	if !ok {
		return fmt.Errorf("%w: inventory_itemtype_id_fkey", repositories.ErrForeignKey)
	}
	item.ItemTypeName = t.Name
	item.Category = t.CategoryName
	f.inventory[item.ID] = *item
	return nil
}

func (f *fakeDB) DeleteItem(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := f.inventory[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, p := range f.plans {
		for _, it := range p.Items {
			if it.InventoryID == id {
				return fmt.Errorf("%w: distribution_plan_items_inventory_id_fkey", repositories.ErrForeignKey)
			}
		}
	}
	delete(f.inventory, id)
	return nil
}

func (f *fakeDB) LockQuantity(_ context.Context, _ repositories.SQLExecutor, id int64) (int, error) {
	it, ok := f.inventory[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return it.QuantityAvailable, nil
}

func (f *fakeDB) DecrementStock(_ context.Context, _ repositories.SQLExecutor, id int64, quantity int) (int, error) {
	it, ok := f.inventory[id]
	if !ok || it.QuantityAvailable < quantity {
		return 0, fmt.Errorf("%w: inventory item %d holds less than %d", repositories.ErrConflict, id, quantity)
	}
	it.QuantityAvailable -= quantity
	f.inventory[id] = it
	return it.QuantityAvailable, nil
}

// --- movements ---

func (f *fakeDB) CreateMovement(_ context.Context, _ repositories.SQLExecutor, m *models.InventoryMovement) (int64, error) {
	m.ID = f.id()
	m.CreatedAt = time.Now()
	f.movements = append(f.movements, *m)
	return m.ID, nil
}

func (f *fakeDB) GetMovements(_ context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	list := []models.InventoryMovement{}
	for _, m := range f.movements {
		if filters.InventoryID != nil && m.InventoryID != *filters.InventoryID {
			continue
		}
		if filters.MovementType != nil && m.MovementType != *filters.MovementType {
			continue
		}
		list = append(list, m)
	}
	return pageOf(list, filters.Page, filters.PageSize), len(list), nil
}

// --- plans ---

func (f *fakeDB) CreatePlan(_ context.Context, _ repositories.SQLExecutor, plan *models.DistributionPlan) (int64, error) {
	req, ok := f.requests[plan.RequestID]
	if !ok {
		return 0, fmt.Errorf("%w: distribution_plans_request_id_fkey", repositories.ErrForeignKey)
	}
	plan.ID = f.id()
	plan.BeneficiaryName = req.BeneficiaryName
	plan.Items = []models.DistributionPlanItem{}
	f.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (f *fakeDB) CreatePlanItem(_ context.Context, _ repositories.SQLExecutor, item *models.DistributionPlanItem) (int64, error) {
	plan := f.plans[item.PlanID]
	item.ID = f.id()
	item.ItemTypeName = f.inventory[item.InventoryID].ItemTypeName
	plan.Items = append(plan.Items, *item)
	f.plans[item.PlanID] = plan
	return item.ID, nil
}

func (f *fakeDB) GetPlanByID(_ context.Context, id int64) (*models.DistributionPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Items = append([]models.DistributionPlanItem{}, p.Items...)
	return &p, nil
}

func (f *fakeDB) GetPlans(_ context.Context, filters models.PlanFilters) ([]models.DistributionPlan, int, error) {
	list := []models.DistributionPlan{}
	for _, id := range sortedIDs(f.plans) {
		p := f.plans[id]
		if filters.Status != nil && string(p.Status) != *filters.Status {
			continue
		}
		if filters.RequestID != nil && p.RequestID != *filters.RequestID {
			continue
		}
		list = append(list, p)
	}
	return pageOf(list, filters.Page, filters.PageSize), len(list), nil
}

func (f *fakeDB) UpdatePlanStatus(_ context.Context, _ repositories.SQLExecutor, change repositories.PlanStatusChange) error {
	p, ok := f.plans[change.PlanID]
	if !ok || p.Status != change.From {
		return fmt.Errorf("%w: plan %d is no longer %s", repositories.ErrConflict, change.PlanID, change.From)
	}
	at := change.At
	p.Status = change.To
	switch change.To {
	case allocation.PlanApproved:
		p.ApprovedBy, p.ApprovedAt = change.ActorID, &at
	case allocation.PlanOngoing:
		p.ExecutedBy, p.ExecutedAt = change.ActorID, &at
	case allocation.PlanCompleted:
		p.CompletedAt = &at
	}
	f.plans[change.PlanID] = p
	return nil
}

func (f *fakeDB) DeletePlan(_ context.Context, _ repositories.SQLExecutor, id int64, allowed []allocation.PlanStatus) error {
	p, ok := f.plans[id]
	if ok {
		for _, st := range allowed {
			if p.Status == st {
				delete(f.plans, id)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: plan %d missing or not deletable", repositories.ErrConflict, id)
}

// --- thresholds ---

func (f *fakeDB) GetOverrides(context.Context) ([]models.ThresholdOverride, error) {
	list := []models.ThresholdOverride{}
	for _, o := range f.overrides {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ItemTypeName < list[j].ItemTypeName })
	return list, nil
}

func (f *fakeDB) UpsertOverride(_ context.Context, _ repositories.SQLExecutor, o *models.ThresholdOverride) error {
	if existing, ok := f.overrides[o.ItemTypeName]; ok {
		o.ID = existing.ID
	} else {
		o.ID = f.id()
	}
	o.UpdatedAt = time.Now()
	f.overrides[o.ItemTypeName] = *o
	return nil
}

func (f *fakeDB) DeleteOverride(_ context.Context, _ repositories.SQLExecutor, name string) error {
	if _, ok := f.overrides[name]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.overrides, name)
	return nil
}

// --- seed helpers ---

func (f *fakeDB) seedItemType(name string) int64 {
	id := f.id()
	category := int64(1)
	categoryName := "Food"
	f.itemTypes[id] = models.ItemType{ID: id, Name: name, CategoryID: &category, CategoryName: &categoryName}
	return id
}

func (f *fakeDB) seedBeneficiary(name string) int64 {
	id := f.id()
	f.beneficiaries[id] = models.Beneficiary{ID: id, Name: name, BeneficiaryType: models.BeneficiaryFamily}
	return id
}

func (f *fakeDB) seedRequest(beneficiaryID int64, status models.RequestStatus, urgency allocation.Urgency, individuals int, items ...models.RequestItem) int64 {
	id := f.id()
	for i := range items {
		items[i].RequestID = id
		items[i].ItemTypeName = f.itemTypes[items[i].ItemTypeID].Name
	}
	f.requests[id] = models.BeneficiaryRequest{
		ID: id, BeneficiaryID: beneficiaryID, BeneficiaryName: f.beneficiaries[beneficiaryID].Name,
		Urgency: urgency, IndividualsServed: individuals, Status: status, Items: items,
	}
	return id
}

func (f *fakeDB) seedInventory(itemTypeID int64, qty int, unit string) int64 {
	id := f.id()
	item := models.InventoryItem{ID: id, ItemTypeID: itemTypeID, ItemTypeName: f.itemTypes[itemTypeID].Name, QuantityAvailable: qty}
	item.UnitValue = mustDecimal(unit)
	item.Category = f.itemTypes[itemTypeID].CategoryName
	f.inventory[id] = item
	return id
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }
