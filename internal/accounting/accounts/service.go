package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Directory resolves accounts for posting validation.
type Directory interface {
	GetAccount(ctx context.Context, orgID, accountID int64) (Account, error)
}

// Service owns the chart of accounts.
type Service struct {
	repo     Repository
	onChange ChangeHook
}

// ChangeHook is called after a committed change to an organisation's chart.
type ChangeHook func(ctx context.Context, orgID int64)

// NewService constructs the registry service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// OnChange registers the hook run after every chart mutation.
func (s *Service) OnChange(hook ChangeHook) {
	s.onChange = hook
}

func (s *Service) changed(ctx context.Context, orgID int64) {
	if s.onChange != nil {
		s.onChange(ctx, orgID)
	}
}

// List returns every account of the organisation ordered by code.
func (s *Service) List(ctx context.Context, orgID int64) ([]Account, error) {
	return s.repo.List(ctx, orgID)
}

// Chart returns the organisation's accounts as an arena.
func (s *Service) Chart(ctx context.Context, orgID int64) (*Chart, error) {
	accounts, err := s.repo.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return NewChart(accounts), nil
}

// Register validates and stores a new account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := shared.ValidateStruct(in); err != nil {
		return Account{}, err
	}
	if !shared.FitsScale(in.OpeningBalance) {
		return Account{}, fmt.Errorf("%w: opening balance exceeds %d decimals", shared.ErrInvalidInput, shared.AmountScale)
	}
	exists, err := s.repo.CodeExists(ctx, in.OrgID, in.Code)
	if err != nil {
		return Account{}, err
	}
	if exists {
		return Account{}, fmt.Errorf("%w: %s", shared.ErrDuplicateCode, in.Code)
	}
	level := 1
	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return Account{}, fmt.Errorf("%w: parent %d missing", shared.ErrInvalidParent, *in.ParentID)
			}
			return Account{}, err
		}
		if parent.OrgID != in.OrgID {
			return Account{}, fmt.Errorf("%w: parent belongs to another organisation", shared.ErrInvalidParent)
		}
		level = parent.Level + 1
		if level > MaxDepth {
			return Account{}, fmt.Errorf("%w: depth %d exceeds %d", shared.ErrInvalidParent, level, MaxDepth)
		}
	}
	created, err := s.repo.Insert(ctx, in, level)
	if err != nil {
		return Account{}, err
	}
	s.changed(ctx, created.OrgID)
	return created, nil
}

// Resolve returns the account or ErrNotFound.
func (s *Service) Resolve(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// GetAccount resolves an account scoped to an organisation.
func (s *Service) GetAccount(ctx context.Context, orgID, accountID int64) (Account, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if a.OrgID != orgID {
		return Account{}, fmt.Errorf("%w: account %d", shared.ErrNotFound, accountID)
	}
	return a, nil
}

// Postable reports whether the account may receive journal lines.
func (s *Service) Postable(ctx context.Context, id int64) (bool, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return a.Postable(), nil
}

// Update changes the descriptive attributes of an account.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := shared.ValidateStruct(in); err != nil {
		return Account{}, err
	}
	updated, err := s.repo.Update(ctx, in)
	if err != nil {
		return Account{}, err
	}
	s.changed(ctx, updated.OrgID)
	return updated, nil
}

// Deactivate clears is_active without cascading to children.
func (s *Service) Deactivate(ctx context.Context, id int64) (Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return Account{}, err
	}
	for _, child := range children {
		if child.Postable() {
			return Account{}, fmt.Errorf("%w: %s", shared.ErrHasActiveChildren, child.Code)
		}
	}
	if !a.IsActive {
		return a, nil
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return Account{}, err
	}
	a.IsActive = false
	s.changed(ctx, a.OrgID)
	return a, nil
}

// Activate restores a deactivated account.
func (s *Service) Activate(ctx context.Context, id int64) (Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if a.IsActive {
		return a, nil
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return Account{}, err
	}
	a.IsActive = true
	s.changed(ctx, a.OrgID)
	return a, nil
}

// Delete removes an account that has neither children nor journal lines.
// Accounts with activity can only be deactivated.
func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: account has children", shared.ErrAccountInUse)
	}
	active, err := s.repo.HasActivity(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return shared.ErrAccountInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, a.OrgID)
	return nil
}

// Reparent moves an account (with its subtree) under a new parent, or to the
// root when parentID is nil.
func (s *Service) Reparent(ctx context.Context, id int64, parentID *int64) (Account, error) {
	var moved Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		target, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		all, err := tx.ListForUpdate(ctx, target.OrgID)
		if err != nil {
			return err
		}
		chart := NewChart(all)
		level := 1
		if parentID != nil {
			if *parentID == id {
				return fmt.Errorf("%w: account cannot be its own parent", shared.ErrInvalidParent)
			}
			parent, ok := chart.Get(*parentID)
			if !ok {
				return fmt.Errorf("%w: parent %d missing", shared.ErrInvalidParent, *parentID)
			}
			if chart.IsDescendant(*parentID, id) {
				return fmt.Errorf("%w: parent %s is a descendant", shared.ErrInvalidParent, parent.Code)
			}
			depth, err := chart.Depth(*parentID)
			if err != nil {
				return err
			}
			level = depth + 1
		}
		if level+chart.Height(id)-1 > MaxDepth {
			return fmt.Errorf("%w: subtree would exceed depth %d", shared.ErrInvalidParent, MaxDepth)
		}
		if err := tx.SetParent(ctx, id, parentID, level); err != nil {
			return err
		}
		for _, childID := range chart.Subtree(id)[1:] {
			depthBelow, err := relativeDepth(chart, childID, id)
			if err != nil {
				return err
			}
			if err := tx.SetLevel(ctx, childID, level+depthBelow); err != nil {
				return err
			}
		}
		moved = target
		moved.ParentID = parentID
		moved.Level = level
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.changed(ctx, moved.OrgID)
	return moved, nil
}

func relativeDepth(chart *Chart, id, root int64) (int, error) {
	ancestors, err := chart.Ancestors(id)
	if err != nil {
		return 0, err
	}
	for idx, a := range ancestors {
		if a == root {
			return idx + 1, nil
		}
	}
	return 0, shared.ErrInvalidParent
}
