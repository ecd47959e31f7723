package service

import (
	"context"
	"errors"
	"time"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PlantParams struct {
	CustomerID    string
	FarmerID      string
	TypeID        string
	PaymentMethod model.LedgerUnit
}

// TreeView is the read model: the record plus derived countdown state.
type TreeView struct {
	Tree          model.Tree
	TimeRemaining time.Duration
	Ready         bool
}

type PayoutResult struct {
	TreeID  uint64
	Payout  decimal.Decimal
	Balance decimal.Decimal
}

// AdvanceResult carries either the advanced tree or, when the tree was
// already mature, the payout of the claim the advance collapsed into.
type AdvanceResult struct {
	Tree   *model.Tree
	Payout *PayoutResult
}

// TreeService drives the tree lifecycle. Every mutation runs in one
// transaction and touches records in a fixed order (tree, device, ledger);
// state-dependent writes are conditional updates, so concurrent calls on the
// same tree serialize and the loser observes the committed state.
type TreeService interface {
	Plant(ctx context.Context, p PlantParams) (*model.Tree, error)
	Get(ctx context.Context, customerID string, id uint64) (*TreeView, error)
	ListByCustomer(ctx context.Context, customerID string) ([]TreeView, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]TreeView, error)
	Water(ctx context.Context, customerID string, id uint64) (*model.Tree, error)
	Fertilize(ctx context.Context, customerID string, id uint64) (*model.Tree, error)
	Advance(ctx context.Context, customerID string, id uint64) (*AdvanceResult, error)
	Claim(ctx context.Context, customerID string, id uint64) (*PayoutResult, error)
	Kill(ctx context.Context, farmerID string, id uint64, reason string) (*model.Tree, error)
	Delete(ctx context.Context, customerID string, id uint64) error
	MoveDevice(ctx context.Context, farmerID string, id uint64) (*model.Tree, error)
}

type treeService struct {
	repos repository.Repos
	txm   repository.TxManager
	cfg   GrowthConfig
	now   func() time.Time
}

func NewTreeService(repos repository.Repos, txm repository.TxManager, cfg GrowthConfig) TreeService {
	return &treeService{repos: repos, txm: txm, cfg: cfg, now: time.Now}
}

func (s *treeService) Plant(ctx context.Context, p PlantParams) (*model.Tree, error) {
	if p.PaymentMethod != model.UnitBalance && p.PaymentMethod != model.UnitPoints {
		return nil, errors.New("invalid payment method")
	}
	var created *model.Tree
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		tt, err := r.TreeTypes.Get(ctx, p.TypeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if _, err := r.Users.Get(ctx, p.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		dev, err := r.Devices.FindFree(ctx, p.FarmerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoAvailableDevice
			}
			return err
		}
		rows, err := r.Devices.Assign(ctx, dev.ID, p.CustomerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNoAvailableDevice
		}
		if p.PaymentMethod == model.UnitBalance {
			if err := debitBalance(ctx, r, p.CustomerID, tt.Price, "plant "+tt.Name); err != nil {
				return err
			}
		} else {
			pts := PointsPrice(tt.Price, s.cfg.PointsRate)
			if err := debitPoints(ctx, r, p.CustomerID, pts, "plant "+tt.Name); err != nil {
				return err
			}
		}
		deviceID := dev.ID
		t := &model.Tree{
			TypeID:     tt.ID,
			CustomerID: p.CustomerID,
			FarmerID:   p.FarmerID,
			DeviceID:   &deviceID,
			Phase:      model.PhaseSeedling,
			Health:     s.cfg.InitialHealth,
			PlantedOn:  s.now(),
		}
		if err := r.Trees.Create(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("tree planted",
		zap.Uint64("tree_id", created.ID),
		zap.String("type", created.TypeID),
		zap.String("customer_id", created.CustomerID),
		zap.String("farmer_id", created.FarmerID))
	return created, nil
}

func (s *treeService) Get(ctx context.Context, customerID string, id uint64) (*TreeView, error) {
	var view *TreeView
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.CustomerID != customerID {
			return ErrForbidden
		}
		v, err := s.refresh(ctx, r, t, true)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	return view, err
}

func (s *treeService) ListByCustomer(ctx context.Context, customerID string) ([]TreeView, error) {
	return s.list(ctx, customerID, true)
}

func (s *treeService) ListByFarmer(ctx context.Context, farmerID string) ([]TreeView, error) {
	return s.list(ctx, farmerID, false)
}

func (s *treeService) list(ctx context.Context, ownerID string, asCustomer bool) ([]TreeView, error) {
	var views []TreeView
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		var trees []model.Tree
		var err error
		if asCustomer {
			trees, err = r.Trees.ListByCustomer(ctx, ownerID)
		} else {
			trees, err = r.Trees.ListByFarmer(ctx, ownerID)
		}
		if err != nil {
			return err
		}
		views = make([]TreeView, 0, len(trees))
		for i := range trees {
			v, err := s.refresh(ctx, r, &trees[i], asCustomer)
			if err != nil {
				return err
			}
			views = append(views, *v)
		}
		return nil
	})
	return views, err
}

// refresh applies the lazy tick to one tree and persists its effects. On the
// first customer-facing read of a killed tree the notified flag flips so the
// kill reason is surfaced exactly once as news.
func (s *treeService) refresh(ctx context.Context, r repository.Repos, t *model.Tree, asCustomer bool) (*TreeView, error) {
	now := s.now()
	seenPlantedOn := t.PlantedOn
	out := Tick(t, now, s.cfg.PhaseDuration)
	if out.Decayed {
		rows, err := r.Trees.ApplyDecay(ctx, t.ID, seenPlantedOn, t.Health, t.Phase, t.PlantedOn)
		if err != nil {
			return nil, err
		}
		if rows > 0 && out.Died && t.DeviceID != nil {
			if err := r.Devices.Release(ctx, *t.DeviceID); err != nil {
				return nil, err
			}
			t.DeviceID = nil
			zap.L().Info("tree died of neglect", zap.Uint64("tree_id", t.ID))
		}
	}
	wasNotified := t.Notified
	if asCustomer && t.Phase == model.PhaseDead && t.KillReason != "" && !t.Notified {
		if err := r.Trees.MarkNotified(ctx, t.ID); err != nil {
			return nil, err
		}
		t.Notified = true
	}
	view := &TreeView{
		Tree:          *t,
		TimeRemaining: t.TimeRemaining(now, s.cfg.PhaseDuration),
		Ready:         out.Ready,
	}
	// Report the pre-read value so the caller sees the kill exactly once.
	view.Tree.Notified = wasNotified
	return view, nil
}

func (s *treeService) Water(ctx context.Context, customerID string, id uint64) (*model.Tree, error) {
	return s.tend(ctx, customerID, id, false)
}

func (s *treeService) Fertilize(ctx context.Context, customerID string, id uint64) (*model.Tree, error) {
	return s.tend(ctx, customerID, id, true)
}

func (s *treeService) tend(ctx context.Context, customerID string, id uint64, fertilize bool) (*model.Tree, error) {
	var out *model.Tree
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.CustomerID != customerID {
			return ErrForbidden
		}
		if t.Phase == model.PhaseDead {
			return ErrInvalidPhase
		}
		var rows int64
		if fertilize {
			rows, err = r.Trees.MarkFertilized(ctx, id)
		} else {
			rows, err = r.Trees.MarkWatered(ctx, id)
		}
		if err != nil {
			return err
		}
		if rows == 0 {
			// The guard excludes dead trees too; re-read to tell a lost
			// race against a kill apart from a duplicate tending.
			cur, err := findTree(ctx, r, id)
			if err != nil {
				return err
			}
			if cur.Phase == model.PhaseDead {
				return ErrInvalidPhase
			}
			return ErrAlreadyDone
		}
		cost := s.cfg.WaterCost
		memo := "water tree"
		if fertilize {
			cost = s.cfg.FertilizeCost
			memo = "fertilize tree"
		}
		if err := debitBalance(ctx, r, customerID, cost, memo); err != nil {
			return err
		}
		if fertilize {
			t.Fertilized = true
		} else {
			t.Watered = true
		}
		out = t
		return nil
	})
	return out, err
}

func (s *treeService) Advance(ctx context.Context, customerID string, id uint64) (*AdvanceResult, error) {
	var result *AdvanceResult
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.CustomerID != customerID {
			return ErrForbidden
		}
		if t.Phase == model.PhaseDead {
			return ErrInvalidPhase
		}
		if !t.Watered || !t.Fertilized {
			return ErrNotReady
		}
		if t.Phase == model.PhaseMatureTree {
			payout, err := s.claimLocked(ctx, r, t)
			if err != nil {
				return err
			}
			result = &AdvanceResult{Payout: payout}
			return nil
		}
		next, ok := model.NextPhase(t.Phase)
		if !ok {
			return ErrInvalidPhase
		}
		now := s.now()
		rows, err := r.Trees.AdvancePhase(ctx, id, t.Phase, next, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotReady
		}
		t.Phase = next
		t.Watered = false
		t.Fertilized = false
		t.PlantedOn = now
		result = &AdvanceResult{Tree: t}
		return nil
	})
	return result, err
}

func (s *treeService) Claim(ctx context.Context, customerID string, id uint64) (*PayoutResult, error) {
	var payout *PayoutResult
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.CustomerID != customerID {
			return ErrForbidden
		}
		if t.Phase != model.PhaseMatureTree || !t.Watered || !t.Fertilized {
			return ErrNotReady
		}
		p, err := s.claimLocked(ctx, r, t)
		if err != nil {
			return err
		}
		payout = p
		return nil
	})
	return payout, err
}

// claimLocked converts a mature tree into a payout: delete the record, free
// the device, credit the customer. Runs inside the caller's transaction.
func (s *treeService) claimLocked(ctx context.Context, r repository.Repos, t *model.Tree) (*PayoutResult, error) {
	tt, err := r.TreeTypes.Get(ctx, t.TypeID)
	if err != nil {
		return nil, err
	}
	rows, err := r.Trees.DeleteClaimed(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotReady
	}
	if t.DeviceID != nil {
		if err := r.Devices.Release(ctx, *t.DeviceID); err != nil {
			return nil, err
		}
	}
	payout := tt.InvestmentReturn.Mul(decimal.NewFromInt(s.cfg.PayoutMultiplier))
	if err := creditBalance(ctx, r, t.CustomerID, payout, "maturity payout: "+tt.Name); err != nil {
		return nil, err
	}
	u, err := r.Users.Get(ctx, t.CustomerID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("tree claimed",
		zap.Uint64("tree_id", t.ID),
		zap.String("customer_id", t.CustomerID),
		zap.String("payout", payout.String()))
	return &PayoutResult{TreeID: t.ID, Payout: payout, Balance: u.Balance}, nil
}

func (s *treeService) Kill(ctx context.Context, farmerID string, id uint64, reason string) (*model.Tree, error) {
	var out *model.Tree
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.FarmerID != farmerID {
			return ErrForbidden
		}
		rows, err := r.Trees.SetKilled(ctx, id, reason)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyDone
		}
		// Terminal transitions always release capacity. The row's device
		// reference is cleared by SetKilled in the same update.
		if t.DeviceID != nil {
			if err := r.Devices.Release(ctx, *t.DeviceID); err != nil {
				return err
			}
		}
		t.Phase = model.PhaseDead
		t.KillReason = reason
		t.Notified = false
		t.DeviceID = nil
		out = t
		return nil
	})
	if err == nil {
		zap.L().Info("tree killed by farmer",
			zap.Uint64("tree_id", id),
			zap.String("farmer_id", farmerID),
			zap.String("reason", reason))
	}
	return out, err
}

func (s *treeService) Delete(ctx context.Context, customerID string, id uint64) error {
	return s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.CustomerID != customerID {
			return ErrForbidden
		}
		if err := r.Trees.Delete(ctx, id); err != nil {
			return err
		}
		if t.DeviceID != nil {
			return r.Devices.Release(ctx, *t.DeviceID)
		}
		return nil
	})
}

func (s *treeService) MoveDevice(ctx context.Context, farmerID string, id uint64) (*model.Tree, error) {
	var out *model.Tree
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		t, err := findTree(ctx, r, id)
		if err != nil {
			return err
		}
		if t.FarmerID != farmerID {
			return ErrForbidden
		}
		if t.Terminal() {
			return ErrInvalidPhase
		}
		dev, err := r.Devices.FindFree(ctx, farmerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoAvailableDevice
			}
			return err
		}
		rows, err := r.Devices.Assign(ctx, dev.ID, t.CustomerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNoAvailableDevice
		}
		if t.DeviceID != nil {
			if err := r.Devices.Release(ctx, *t.DeviceID); err != nil {
				return err
			}
		}
		deviceID := dev.ID
		if err := r.Trees.SetDevice(ctx, id, &deviceID); err != nil {
			return err
		}
		t.DeviceID = &deviceID
		out = t
		return nil
	})
	if err == nil {
		zap.L().Info("tree moved to new device",
			zap.Uint64("tree_id", id),
			zap.String("device_id", *out.DeviceID))
	}
	return out, err
}

func findTree(ctx context.Context, r repository.Repos, id uint64) (*model.Tree, error) {
	t, err := r.Trees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}
