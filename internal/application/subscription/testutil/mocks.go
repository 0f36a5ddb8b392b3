// Package testutil provides in-memory implementations of the subscription
// repositories and collaborators for use-case tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
)

// MockTransactor runs fn directly. Repositories here are not transactional, so
// tests assert "no write" through the use case rejecting before Update.
type MockTransactor struct {
	Calls int
	Err   error
}

func (m *MockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// LockLog records row locks in the order they were taken, as "user:<id>",
// "subscription:<id>", "plan:<id>" or "plan-share:<id>". A nil LockLog records nothing.
type LockLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *LockLog) add(entry string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *LockLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// MockSubscriptionRepository stores copies, so changes made to a loaded
// subscription are only visible after Update.
type MockSubscriptionRepository struct {
	mu     sync.RWMutex
	subs   map[string]*subscription.Subscription
	nextID int

	LockLog      *LockLog
	UpdateCalls  int
	createError  error
	getError     error
	updateError  error
	updateErrorN int
	updateByID   map[string]error
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{subs: make(map[string]*subscription.Subscription)}
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	if sub.ID() == "" {
		m.nextID++
		if err := sub.SetID(fmt.Sprintf("sub-%d", m.nextID)); err != nil {
			return err
		}
	}
	m.subs[sub.ID()] = CloneSubscription(sub)
	return nil
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	if sub, ok := m.subs[id]; ok {
		return CloneSubscription(sub), nil
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) GetByIDForUpdate(ctx context.Context, id string) (*subscription.Subscription, error) {
	m.LockLog.add("subscription:" + id)
	return m.GetByID(ctx, id)
}

func (m *MockSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, sub := range m.subs {
		if sub.StripeSubscriptionID() == stripeSubscriptionID {
			return CloneSubscription(sub), nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) GetEntitledByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, sub := range m.sorted() {
		if sub.UserID() == userID && sub.IsEntitled() {
			return CloneSubscription(sub), nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if err, ok := m.updateByID[sub.ID()]; ok {
		return err
	}
	if m.updateError != nil {
		if m.updateErrorN == 0 || m.UpdateCalls >= m.updateErrorN {
			return m.updateError
		}
	}
	if _, ok := m.subs[sub.ID()]; !ok {
		return subscription.ErrSubscriptionNotFound
	}
	m.subs[sub.ID()] = CloneSubscription(sub)
	return nil
}

func (m *MockSubscriptionRepository) ExistsByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subs {
		if sub.StripeSubscriptionID() == stripeSubscriptionID && sub.ID() != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSubscriptionRepository) List(ctx context.Context, filter subscription.SubscriptionFilter) ([]*subscription.Subscription, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*subscription.Subscription
	for _, sub := range m.sorted() {
		if filter.UserID != nil && sub.UserID() != *filter.UserID {
			continue
		}
		if filter.PlanID != nil && sub.PlanID() != *filter.PlanID {
			continue
		}
		if filter.Status != nil && sub.Status().String() != *filter.Status {
			continue
		}
		matched = append(matched, CloneSubscription(sub))
	}
	if filter.SortDesc {
		slices.Reverse(matched)
	}

	total := int64(len(matched))
	if filter.PageSize > 0 {
		start := (max(filter.Page, 1) - 1) * filter.PageSize
		if start >= len(matched) {
			return []*subscription.Subscription{}, total, nil
		}
		end := min(start+filter.PageSize, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (m *MockSubscriptionRepository) CountEntitledByPlanID(ctx context.Context, planID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, sub := range m.subs {
		if sub.PlanID() == planID && sub.IsEntitled() {
			count++
		}
	}
	return count, nil
}

func (m *MockSubscriptionRepository) CountByPlanID(ctx context.Context, planID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, sub := range m.subs {
		if sub.PlanID() == planID {
			count++
		}
	}
	return count, nil
}

func (m *MockSubscriptionRepository) FindDueScheduledCancellations(ctx context.Context, now time.Time, afterID string, limit int) ([]*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []*subscription.Subscription
	for _, sub := range m.sorted() {
		if sub.ID() <= afterID {
			continue
		}
		if sub.IsScheduledForCancellation() && !sub.EndDate().After(now) {
			due = append(due, CloneSubscription(sub))
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (m *MockSubscriptionRepository) ListAfterID(ctx context.Context, afterID string, limit int) ([]*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*subscription.Subscription
	for _, sub := range m.sorted() {
		if sub.ID() <= afterID {
			continue
		}
		out = append(out, CloneSubscription(sub))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// sorted returns stored subscriptions ordered by id. Callers hold the lock.
func (m *MockSubscriptionRepository) sorted() []*subscription.Subscription {
	out := make([]*subscription.Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Add stores sub without going through Create.
func (m *MockSubscriptionRepository) Add(sub *subscription.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID()] = CloneSubscription(sub)
}

// Stored returns the persisted copy of a subscription, or nil.
func (m *MockSubscriptionRepository) Stored(id string) *subscription.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sub, ok := m.subs[id]; ok {
		return CloneSubscription(sub)
	}
	return nil
}

func (m *MockSubscriptionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *MockSubscriptionRepository) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createError = err
}

func (m *MockSubscriptionRepository) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// SetUpdateError fails Update. A positive fromCall lets the first fromCall-1 updates succeed.
func (m *MockSubscriptionRepository) SetUpdateError(err error, fromCall int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
	m.updateErrorN = fromCall
}

// FailUpdatesFor makes every Update of the given subscription return err.
func (m *MockSubscriptionRepository) FailUpdatesFor(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateByID == nil {
		m.updateByID = make(map[string]error)
	}
	m.updateByID[id] = err
}

// MockPlanRepository is an in-memory subscription.PlanRepository and PlanReader.
type MockPlanRepository struct {
	mu     sync.RWMutex
	plans  map[string]*subscription.Plan
	nextID int

	LockLog     *LockLog
	GetCalls    int
	DeleteCalls int
	createError error
	getError    error
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{plans: make(map[string]*subscription.Plan)}
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *subscription.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	for _, p := range m.plans {
		if p.Name() == plan.Name() {
			return fmt.Errorf("UNIQUE constraint failed: plans.name")
		}
	}
	if plan.ID() == "" {
		m.nextID++
		if err := plan.SetID(fmt.Sprintf("plan-%d", m.nextID)); err != nil {
			return err
		}
	}
	m.plans[plan.ID()] = ClonePlan(plan)
	return nil
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id string) (*subscription.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if plan, ok := m.plans[id]; ok {
		return ClonePlan(plan), nil
	}
	return nil, nil
}

func (m *MockPlanRepository) GetByIDForUpdate(ctx context.Context, id string) (*subscription.Plan, error) {
	m.LockLog.add("plan:" + id)
	return m.GetByID(ctx, id)
}

func (m *MockPlanRepository) GetByIDForShare(ctx context.Context, id string) (*subscription.Plan, error) {
	m.LockLog.add("plan-share:" + id)
	return m.GetByID(ctx, id)
}

func (m *MockPlanRepository) GetByName(ctx context.Context, name string) (*subscription.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, plan := range m.plans {
		if plan.Name() == name {
			return ClonePlan(plan), nil
		}
	}
	return nil, nil
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *subscription.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[plan.ID()]; !ok {
		return subscription.ErrPlanNotFound
	}
	m.plans[plan.ID()] = ClonePlan(plan)
	return nil
}

func (m *MockPlanRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	delete(m.plans, id)
	return nil
}

func (m *MockPlanRepository) List(ctx context.Context, filter subscription.PlanFilter) ([]*subscription.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	var out []*subscription.Plan
	for _, plan := range m.plans {
		if filter.PublicOnly && (!plan.IsPublic() || !plan.IsActive()) {
			continue
		}
		if !filter.IncludeInactive && !plan.IsActive() {
			continue
		}
		out = append(out, ClonePlan(plan))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriceMonthly() != out[j].PriceMonthly() {
			return out[i].PriceMonthly() < out[j].PriceMonthly()
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

func (m *MockPlanRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	plan, err := m.GetByName(ctx, name)
	return plan != nil, err
}

// Add stores plan without going through Create.
func (m *MockPlanRepository) Add(plan *subscription.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID()] = ClonePlan(plan)
}

func (m *MockPlanRepository) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createError = err
}

func (m *MockPlanRepository) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// MockUserRepository is an in-memory user.Repository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*user.User

	LockLog         *LockLog
	UpdateTierCalls int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*user.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID()] = cloneUser(u)
	return nil
}

// Add stores u without going through Create.
func (m *MockUserRepository) Add(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID()] = cloneUser(u)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*user.User, error) {
	m.LockLog.add("user:" + id)
	return m.GetByID(ctx, id)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m *MockUserRepository) UpdateTier(ctx context.Context, id string, tier vo.PlanType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateTierCalls++
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.SetTier(tier, time.Now().UTC())
	return nil
}

// Tier returns the persisted tier of a user.
func (m *MockUserRepository) Tier(id string) vo.PlanType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return u.Tier()
	}
	return ""
}

// ProvisionerCall is one recorded call on MockProvisioner.
type ProvisionerCall struct {
	Op           string
	CredentialID string
	Spec         subscription.CredentialSpec
	// ContextErr is the call context's error at call time.
	ContextErr error
}

// MockProvisioner records calls and delegates to the optional function fields.
// Without a CreateFunc, Create issues "key-<user id>".
type MockProvisioner struct {
	mu    sync.Mutex
	calls []ProvisionerCall

	CreateFunc  func(ctx context.Context, spec subscription.CredentialSpec) (string, error)
	UpdateFunc  func(ctx context.Context, credentialID string, spec subscription.CredentialSpec) error
	DisableFunc func(ctx context.Context, credentialID string) error
	InfoFunc    func(ctx context.Context, credentialID string) (*subscription.CredentialInfo, error)
}

func (m *MockProvisioner) record(ctx context.Context, op, credentialID string, spec subscription.CredentialSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ProvisionerCall{Op: op, CredentialID: credentialID, Spec: spec, ContextErr: ctx.Err()})
}

func (m *MockProvisioner) Create(ctx context.Context, spec subscription.CredentialSpec) (string, error) {
	m.record(ctx, "create", "", spec)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, spec)
	}
	return "key-" + spec.UserID, nil
}

func (m *MockProvisioner) Update(ctx context.Context, credentialID string, spec subscription.CredentialSpec) error {
	m.record(ctx, "update", credentialID, spec)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, credentialID, spec)
	}
	return nil
}

func (m *MockProvisioner) Disable(ctx context.Context, credentialID string) error {
	m.record(ctx, "disable", credentialID, subscription.CredentialSpec{})
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, credentialID)
	}
	return nil
}

func (m *MockProvisioner) Info(ctx context.Context, credentialID string) (*subscription.CredentialInfo, error) {
	m.record(ctx, "info", credentialID, subscription.CredentialSpec{})
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx, credentialID)
	}
	return nil, nil
}

func (m *MockProvisioner) Calls() []ProvisionerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Ops returns the operation names of all recorded calls, in order.
func (m *MockProvisioner) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// MockRecorder counts recorded transitions and billing events as "a/b" keys.
type MockRecorder struct {
	mu     sync.Mutex
	Counts map[string]int
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{Counts: make(map[string]int)}
}

func (m *MockRecorder) RecordTransition(operation, outcome string) {
	m.inc(operation + "/" + outcome)
}

func (m *MockRecorder) RecordBillingEvent(eventType, result string) {
	m.inc(eventType + "/" + result)
}

func (m *MockRecorder) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counts[key]
}

func (m *MockRecorder) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counts[key]++
}

// MockPlanCache records invalidated plan ids.
type MockPlanCache struct {
	mu          sync.Mutex
	Invalidated []string
}

func (m *MockPlanCache) Invalidate(ctx context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, planID)
	return nil
}
