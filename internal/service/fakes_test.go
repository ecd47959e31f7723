package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the gorm repositories. Conditional
// updates mirror the SQL guards, and the transaction manager snapshots state
// so a failed composite operation rolls back, like the real thing.
type memStore struct {
	mu         sync.Mutex
	users      map[string]model.User
	trees      map[uint64]model.Tree
	nextTree   uint64
	devices    map[string]model.Device
	failures   []model.DeviceFailure
	treeTypes  map[string]model.TreeType
	rewards    map[uint64]model.RewardProduct
	nextReward uint64
	ledger     []model.LedgerEntry
	nextEntry  uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]model.User{},
		trees:     map[uint64]model.Tree{},
		devices:   map[string]model.Device{},
		treeTypes: map[string]model.TreeType{},
		rewards:   map[uint64]model.RewardProduct{},
	}
}

func (s *memStore) repos() repository.Repos {
	return repository.Repos{
		Users:     &memUserRepo{s},
		Trees:     &memTreeRepo{s},
		Devices:   &memDeviceRepo{s},
		TreeTypes: &memTreeTypeRepo{s},
		Rewards:   &memRewardRepo{s},
		Ledger:    &memLedgerRepo{s},
	}
}

type memState struct {
	users      map[string]model.User
	trees      map[uint64]model.Tree
	nextTree   uint64
	devices    map[string]model.Device
	failures   []model.DeviceFailure
	treeTypes  map[string]model.TreeType
	rewards    map[uint64]model.RewardProduct
	nextReward uint64
	ledger     []model.LedgerEntry
	nextEntry  uint64
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memState {
	return memState{
		users:      copyMap(s.users),
		trees:      copyMap(s.trees),
		nextTree:   s.nextTree,
		devices:    copyMap(s.devices),
		failures:   append([]model.DeviceFailure(nil), s.failures...),
		treeTypes:  copyMap(s.treeTypes),
		rewards:    copyMap(s.rewards),
		nextReward: s.nextReward,
		ledger:     append([]model.LedgerEntry(nil), s.ledger...),
		nextEntry:  s.nextEntry,
	}
}

func (s *memStore) restore(st memState) {
	s.users = st.users
	s.trees = st.trees
	s.nextTree = st.nextTree
	s.devices = st.devices
	s.failures = st.failures
	s.treeTypes = st.treeTypes
	s.rewards = st.rewards
	s.nextReward = st.nextReward
	s.ledger = st.ledger
	s.nextEntry = st.nextEntry
}

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) Do(ctx context.Context, fn func(repository.Repos) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	before := m.store.snapshot()
	if err := fn(m.store.repos()); err != nil {
		m.store.restore(before)
		return err
	}
	return nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Get(_ context.Context, uid string) (*model.User, error) {
	u, ok := r.s.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	if _, ok := r.s.users[u.UID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.s.users[u.UID] = *u
	return nil
}

func (r *memUserRepo) AddBalance(_ context.Context, uid string, delta decimal.Decimal) (int64, error) {
	u, ok := r.s.users[uid]
	if !ok {
		return 0, nil
	}
	nb := u.Balance.Add(delta)
	if nb.IsNegative() {
		return 0, nil
	}
	u.Balance = nb
	r.s.users[uid] = u
	return 1, nil
}

func (r *memUserRepo) AddPoints(_ context.Context, uid string, delta int64) (int64, error) {
	u, ok := r.s.users[uid]
	if !ok {
		return 0, nil
	}
	if u.Points+delta < 0 {
		return 0, nil
	}
	u.Points += delta
	r.s.users[uid] = u
	return 1, nil
}

type memTreeRepo struct{ s *memStore }

func (r *memTreeRepo) Create(_ context.Context, t *model.Tree) error {
	r.s.nextTree++
	t.ID = r.s.nextTree
	r.s.trees[t.ID] = *t
	return nil
}

func (r *memTreeRepo) FindByID(_ context.Context, id uint64) (*model.Tree, error) {
	t, ok := r.s.trees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r *memTreeRepo) listWhere(match func(model.Tree) bool) []model.Tree {
	var out []model.Tree
	for _, t := range r.s.trees {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memTreeRepo) ListByCustomer(_ context.Context, customerID string) ([]model.Tree, error) {
	return r.listWhere(func(t model.Tree) bool { return t.CustomerID == customerID }), nil
}

func (r *memTreeRepo) ListByFarmer(_ context.Context, farmerID string) ([]model.Tree, error) {
	return r.listWhere(func(t model.Tree) bool { return t.FarmerID == farmerID }), nil
}

func (r *memTreeRepo) MarkWatered(_ context.Context, id uint64) (int64, error) {
	t, ok := r.s.trees[id]
	if !ok || t.Watered || t.Phase == model.PhaseDead {
		return 0, nil
	}
	t.Watered = true
	r.s.trees[id] = t
	return 1, nil
}

func (r *memTreeRepo) MarkFertilized(_ context.Context, id uint64) (int64, error) {
	t, ok := r.s.trees[id]
	if !ok || t.Fertilized || t.Phase == model.PhaseDead {
		return 0, nil
	}
	t.Fertilized = true
	r.s.trees[id] = t
	return 1, nil
}

func (r *memTreeRepo) AdvancePhase(_ context.Context, id uint64, from, to model.TreePhase, now time.Time) (int64, error) {
	t, ok := r.s.trees[id]
	if !ok || t.Phase != from || !t.Watered || !t.Fertilized {
		return 0, nil
	}
	t.Phase = to
	t.Watered = false
	t.Fertilized = false
	t.PlantedOn = now
	r.s.trees[id] = t
	return 1, nil
}

func (r *memTreeRepo) ApplyDecay(_ context.Context, id uint64, seenPlantedOn time.Time, health int, phase model.TreePhase, now time.Time) (int64, error) {
	t, ok := r.s.trees[id]
	if !ok || !t.PlantedOn.Equal(seenPlantedOn) || t.Phase == model.PhaseDead {
		return 0, nil
	}
	t.Health = health
	t.Phase = phase
	t.PlantedOn = now
	if phase == model.PhaseDead {
		t.DeviceID = nil
	}
	r.s.trees[id] = t
	return 1, nil
}

func (r *memTreeRepo) SetKilled(_ context.Context, id uint64, reason string) (int64, error) {
	t, ok := r.s.trees[id]
	if !ok || t.Phase == model.PhaseDead {
		return 0, nil
	}
	t.Phase = model.PhaseDead
	t.KillReason = reason
	t.Notified = false
	t.DeviceID = nil
	r.s.trees[id] = t
	return 1, nil
}

func (r *memTreeRepo) MarkNotified(_ context.Context, id uint64) error {
	t, ok := r.s.trees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Notified = true
	r.s.trees[id] = t
	return nil
}

func (r *memTreeRepo) SetDevice(_ context.Context, id uint64, deviceID *string) error {
	t, ok := r.s.trees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.DeviceID = deviceID
	r.s.trees[id] = t
	return nil
}

func (r *memTreeRepo) DeleteClaimed(_ context.Context, id uint64) (int64, error) {
	t, ok := r.s.trees[id]
	if !ok || t.Phase != model.PhaseMatureTree || !t.Watered || !t.Fertilized {
		return 0, nil
	}
	delete(r.s.trees, id)
	return 1, nil
}

func (r *memTreeRepo) Delete(_ context.Context, id uint64) error {
	delete(r.s.trees, id)
	return nil
}

type memDeviceRepo struct{ s *memStore }

func (r *memDeviceRepo) Create(_ context.Context, d *model.Device) error {
	r.s.devices[d.ID] = *d
	return nil
}

func (r *memDeviceRepo) Get(_ context.Context, id string) (*model.Device, error) {
	d, ok := r.s.devices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *memDeviceRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.s.devices[id]
	return ok, nil
}

func (r *memDeviceRepo) ListByFarmer(_ context.Context, farmerID string) ([]model.Device, error) {
	var out []model.Device
	for _, d := range r.s.devices {
		if d.FarmerID == farmerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memDeviceRepo) FindFree(ctx context.Context, farmerID string) (*model.Device, error) {
	list, _ := r.ListByFarmer(ctx, farmerID)
	for i := range list {
		if list[i].Status == model.DeviceActive && list[i].AssignedUser == nil {
			d := list[i]
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDeviceRepo) Assign(_ context.Context, id, customerID string) (int64, error) {
	d, ok := r.s.devices[id]
	if !ok || d.Status != model.DeviceActive || d.AssignedUser != nil {
		return 0, nil
	}
	d.AssignedUser = &customerID
	r.s.devices[id] = d
	return 1, nil
}

func (r *memDeviceRepo) Release(_ context.Context, id string) error {
	d, ok := r.s.devices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.AssignedUser = nil
	r.s.devices[id] = d
	return nil
}

func (r *memDeviceRepo) SetStatus(_ context.Context, id string, status model.DeviceStatus) (int64, error) {
	d, ok := r.s.devices[id]
	if !ok {
		return 0, nil
	}
	d.Status = status
	r.s.devices[id] = d
	return 1, nil
}

func (r *memDeviceRepo) LogFailure(_ context.Context, f *model.DeviceFailure) error {
	r.s.failures = append(r.s.failures, *f)
	return nil
}

func (r *memDeviceRepo) ListFailures(_ context.Context, deviceID string) ([]model.DeviceFailure, error) {
	var out []model.DeviceFailure
	for i := len(r.s.failures) - 1; i >= 0; i-- {
		if r.s.failures[i].DeviceID == deviceID {
			out = append(out, r.s.failures[i])
		}
	}
	return out, nil
}

type memTreeTypeRepo struct{ s *memStore }

func (r *memTreeTypeRepo) Get(_ context.Context, id string) (*model.TreeType, error) {
	tt, ok := r.s.treeTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &tt, nil
}

func (r *memTreeTypeRepo) List(_ context.Context) ([]model.TreeType, error) {
	var out []model.TreeType
	for _, tt := range r.s.treeTypes {
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTreeTypeRepo) Upsert(_ context.Context, tt *model.TreeType) error {
	r.s.treeTypes[tt.ID] = *tt
	return nil
}

type memRewardRepo struct{ s *memStore }

func (r *memRewardRepo) Create(_ context.Context, p *model.RewardProduct) error {
	r.s.nextReward++
	p.ID = r.s.nextReward
	r.s.rewards[p.ID] = *p
	return nil
}

func (r *memRewardRepo) FindByID(_ context.Context, id uint64) (*model.RewardProduct, error) {
	p, ok := r.s.rewards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memRewardRepo) List(_ context.Context) ([]model.RewardProduct, error) {
	var out []model.RewardProduct
	for _, p := range r.s.rewards {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRewardRepo) DecrementStock(_ context.Context, id uint64, qty int) (int64, error) {
	p, ok := r.s.rewards[id]
	if !ok || p.Quantity < qty {
		return 0, nil
	}
	p.Quantity -= qty
	r.s.rewards[id] = p
	return 1, nil
}

type memLedgerRepo struct{ s *memStore }

func (r *memLedgerRepo) Create(_ context.Context, e *model.LedgerEntry) error {
	r.s.nextEntry++
	e.ID = r.s.nextEntry
	r.s.ledger = append(r.s.ledger, *e)
	return nil
}

func (r *memLedgerRepo) ListByUser(_ context.Context, uid string, limit int) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for i := len(r.s.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.ledger[i].UserID == uid {
			out = append(out, r.s.ledger[i])
		}
	}
	return out, nil
}

// fixture wires the services over the in-memory store with a controllable
// clock, the same way server.New wires them over gorm.
type fixture struct {
	store   *memStore
	repos   repository.Repos
	txm     repository.TxManager
	cfg     GrowthConfig
	nowAt   time.Time
	trees   *treeService
	ledger  LedgerService
	users   UserService
	devices DeviceService
	rewards RewardService
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{
		store: store,
		repos: store.repos(),
		txm:   &memTxManager{store: store},
		cfg: GrowthConfig{
			PhaseDuration:    30 * time.Second,
			WaterCost:        dec("5.00"),
			FertilizeCost:    dec("10.00"),
			PointsRate:       100,
			PayoutMultiplier: 2,
			InitialHealth:    2,
			SignupPoints:     100,
		},
		nowAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.trees = NewTreeService(f.repos, f.txm, f.cfg).(*treeService)
	f.trees.now = func() time.Time { return f.nowAt }
	f.ledger = NewLedgerService(f.repos, f.txm, f.cfg)
	f.users = NewUserService(f.repos, f.txm, f.cfg)
	f.devices = NewDeviceService(f.repos, f.txm)
	f.rewards = NewRewardService(f.repos, f.txm)
	return f
}

func (f *fixture) tick(d time.Duration) {
	f.nowAt = f.nowAt.Add(d)
}

func (f *fixture) addUser(uid string, role model.UserRole, balance string, points int64) {
	f.store.users[uid] = model.User{UID: uid, Name: uid, Role: role, Balance: dec(balance), Points: points}
}

func (f *fixture) addDevice(id, farmerID string) {
	f.store.devices[id] = model.Device{ID: id, FarmerID: farmerID, Status: model.DeviceActive}
}

func (f *fixture) addTreeType(id, name, price, investmentReturn string) {
	f.store.treeTypes[id] = model.TreeType{ID: id, Name: name, Price: dec(price), InvestmentReturn: dec(investmentReturn)}
}

func (f *fixture) user(uid string) model.User {
	return f.store.users[uid]
}

func (f *fixture) device(id string) model.Device {
	return f.store.devices[id]
}

func (f *fixture) tree(id uint64) (model.Tree, bool) {
	t, ok := f.store.trees[id]
	return t, ok
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
