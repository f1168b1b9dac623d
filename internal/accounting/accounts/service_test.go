package accounts

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type memoryRepo struct {
	accounts map[int64]Account
	activity map[int64]bool
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]Account), activity: make(map[int64]bool)}
}

func (r *memoryRepo) List(ctx context.Context, orgID int64) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) CodeExists(ctx context.Context, orgID int64, code string) (bool, error) {
	for _, a := range r.accounts {
		if a.OrgID == orgID && a.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(ctx context.Context, in RegisterInput, level int) (Account, error) {
	r.nextID++
	a := Account{
		ID:               r.nextID,
		OrgID:            in.OrgID,
		Code:             in.Code,
		Name:             in.Name,
		Type:             in.Type,
		ParentID:         in.ParentID,
		Level:            level,
		IsGroup:          in.IsGroup,
		IsActive:         true,
		AllowManualEntry: in.AllowManualEntry,
		Currency:         in.Currency,
		OpeningBalance:   in.OpeningBalance,
		CurrentBalance:   in.OpeningBalance,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryRepo) Update(ctx context.Context, in UpdateInput) (Account, error) {
	a, ok := r.accounts[in.ID]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	a.Name = in.Name
	a.AllowManualEntry = in.AllowManualEntry
	a.Currency = in.Currency
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	a, ok := r.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.IsActive = active
	r.accounts[id] = a
	return nil
}

func (r *memoryRepo) ListChildren(ctx context.Context, id int64) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) HasActivity(ctx context.Context, id int64) (bool, error) {
	return r.activity[id], nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(r.accounts, id)
	return nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) ListForUpdate(ctx context.Context, orgID int64) ([]Account, error) {
	return r.List(ctx, orgID)
}

func (r *memoryRepo) SetParent(ctx context.Context, id int64, parentID *int64, level int) error {
	a := r.accounts[id]
	a.ParentID = parentID
	a.Level = level
	r.accounts[id] = a
	return nil
}

func (r *memoryRepo) SetLevel(ctx context.Context, id int64, level int) error {
	a := r.accounts[id]
	a.Level = level
	r.accounts[id] = a
	return nil
}

func register(t *testing.T, svc *Service, org int64, code string, parent *int64, group bool) Account {
	t.Helper()
	a, err := svc.Register(context.Background(), RegisterInput{
		OrgID:            org,
		Code:             code,
		Name:             "Account " + code,
		Type:             AccountTypeAsset,
		ParentID:         parent,
		IsGroup:          group,
		AllowManualEntry: !group,
	})
	require.NoError(t, err)
	return a
}

func TestRegisterAssignsLevels(t *testing.T) {
	svc := NewService(newMemoryRepo())
	root := register(t, svc, 1, "1000", nil, true)
	child := register(t, svc, 1, "1100", &root.ID, false)

	require.Equal(t, 1, root.Level)
	require.Equal(t, 2, child.Level)
	require.True(t, child.Postable())
	require.False(t, root.Postable())
}

func TestRegisterRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	register(t, svc, 1, "1000", nil, false)

	_, err := svc.Register(context.Background(), RegisterInput{OrgID: 1, Code: "1000", Name: "Dup", Type: AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrDuplicateCode)

	// same code in another organisation is fine
	register(t, svc, 2, "1000", nil, false)
}

func TestRegisterRejectsInvalidParent(t *testing.T) {
	svc := NewService(newMemoryRepo())
	foreign := register(t, svc, 2, "1000", nil, true)
	missing := int64(99)

	_, err := svc.Register(context.Background(), RegisterInput{OrgID: 1, Code: "1100", Name: "x", Type: AccountTypeAsset, ParentID: &missing})
	require.ErrorIs(t, err, shared.ErrInvalidParent)

	_, err = svc.Register(context.Background(), RegisterInput{OrgID: 1, Code: "1100", Name: "x", Type: AccountTypeAsset, ParentID: &foreign.ID})
	require.ErrorIs(t, err, shared.ErrInvalidParent)
}

func TestRegisterRejectsDepthBeyondLimit(t *testing.T) {
	svc := NewService(newMemoryRepo())
	var parent *int64
	for i := 0; i < MaxDepth; i++ {
		a := register(t, svc, 1, string(rune('A'+i)), parent, true)
		id := a.ID
		parent = &id
	}
	_, err := svc.Register(context.Background(), RegisterInput{OrgID: 1, Code: "TOO-DEEP", Name: "x", Type: AccountTypeAsset, ParentID: parent})
	require.ErrorIs(t, err, shared.ErrInvalidParent)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Register(context.Background(), RegisterInput{OrgID: 1, Code: "1000", Name: "x", Type: "CASH"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Register(context.Background(), RegisterInput{OrgID: 1, Code: "1000", Name: "x", Type: AccountTypeAsset, OpeningBalance: decimal.RequireFromString("1.00001")})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReparentRejectsCycles(t *testing.T) {
	svc := NewService(newMemoryRepo())
	root := register(t, svc, 1, "1000", nil, true)
	mid := register(t, svc, 1, "1100", &root.ID, true)
	leaf := register(t, svc, 1, "1110", &mid.ID, false)

	_, err := svc.Reparent(context.Background(), root.ID, &leaf.ID)
	require.ErrorIs(t, err, shared.ErrInvalidParent)

	_, err = svc.Reparent(context.Background(), mid.ID, &mid.ID)
	require.ErrorIs(t, err, shared.ErrInvalidParent)
}

func TestReparentRecomputesSubtreeLevels(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	a := register(t, svc, 1, "1000", nil, true)
	b := register(t, svc, 1, "2000", nil, true)
	bChild := register(t, svc, 1, "2100", &b.ID, true)
	bLeaf := register(t, svc, 1, "2110", &bChild.ID, false)

	moved, err := svc.Reparent(context.Background(), b.ID, &a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, moved.Level)
	require.Equal(t, 3, repo.accounts[bChild.ID].Level)
	require.Equal(t, 4, repo.accounts[bLeaf.ID].Level)

	moved, err = svc.Reparent(context.Background(), b.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, moved.Level)
	require.Equal(t, 3, repo.accounts[bLeaf.ID].Level)
}

func TestDeactivateRefusesActivePostableChildren(t *testing.T) {
	svc := NewService(newMemoryRepo())
	root := register(t, svc, 1, "1000", nil, true)
	child := register(t, svc, 1, "1100", &root.ID, false)

	_, err := svc.Deactivate(context.Background(), root.ID)
	require.ErrorIs(t, err, shared.ErrHasActiveChildren)

	deactivated, err := svc.Deactivate(context.Background(), child.ID)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)

	deactivated, err = svc.Deactivate(context.Background(), root.ID)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)

	postable, err := svc.Postable(context.Background(), child.ID)
	require.NoError(t, err)
	require.False(t, postable)
}

func TestDeleteOnlyWithoutActivity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	root := register(t, svc, 1, "1000", nil, true)
	used := register(t, svc, 1, "1100", &root.ID, false)
	repo.activity[used.ID] = true

	require.ErrorIs(t, svc.Delete(context.Background(), root.ID), shared.ErrAccountInUse)
	require.ErrorIs(t, svc.Delete(context.Background(), used.ID), shared.ErrAccountInUse)

	fresh := register(t, svc, 1, "1200", &root.ID, false)
	require.NoError(t, svc.Delete(context.Background(), fresh.ID))
	_, err := svc.Resolve(context.Background(), fresh.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetAccountScopesByOrganisation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	a := register(t, svc, 1, "1000", nil, false)

	_, err := svc.GetAccount(context.Background(), 2, a.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.GetAccount(context.Background(), 1, a.ID)
	require.NoError(t, err)
	require.Equal(t, "1000", got.Code)
}

func TestChartMutationsNotifyChangeHook(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	var orgs []int64
	svc.OnChange(func(_ context.Context, orgID int64) { orgs = append(orgs, orgID) })

	root := register(t, svc, 3, "1000", nil, true)
	leaf := register(t, svc, 3, "1100", &root.ID, false)
	other := register(t, svc, 3, "2000", nil, true)
	require.Equal(t, []int64{3, 3, 3}, orgs)

	_, err := svc.Update(context.Background(), UpdateInput{ID: leaf.ID, Name: "Petty cash", AllowManualEntry: true})
	require.NoError(t, err)
	_, err = svc.Reparent(context.Background(), leaf.ID, &other.ID)
	require.NoError(t, err)
	_, err = svc.Deactivate(context.Background(), leaf.ID)
	require.NoError(t, err)
	_, err = svc.Activate(context.Background(), leaf.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), leaf.ID))
	require.Len(t, orgs, 8)

	_, err = svc.Register(context.Background(), RegisterInput{OrgID: 3, Code: "1000", Name: "Dup", Type: AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrDuplicateCode)
	require.Len(t, orgs, 8)
}
