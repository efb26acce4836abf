package application

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/booking"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/internal/domain/membership"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/internal/domain/quota"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/martinsuhendra/manta/pkg/kafka"
	"github.com/stretchr/testify/require"
)

// passThroughTx runs fn directly; the fakes below have no isolation to provide.
type passThroughTx struct{ calls int }

func (t *passThroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ce)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ce := range p.events {
		out[i] = ce.Type
	}
	return out
}

// --- catalog ---

type fakeItems struct{ byID map[uuid.UUID]*catalog.Item }

func (f *fakeItems) Save(_ context.Context, item *catalog.Item) error {
	f.byID[item.ID] = item
	return nil
}

func (f *fakeItems) FindByID(_ context.Context, id uuid.UUID) (*catalog.Item, error) {
	if item, ok := f.byID[id]; ok {
		return item, nil
	}
	return nil, domain.NewNotFoundError("Item", id.String())
}

func (f *fakeItems) List(context.Context) ([]*catalog.Item, error) {
	out := make([]*catalog.Item, 0, len(f.byID))
	for _, item := range f.byID {
		out = append(out, item)
	}
	return out, nil
}

type fakePools struct {
	byID     map[uuid.UUID]*catalog.QuotaPool
	usages   *fakeUsages
	products *fakeProducts
}

func (f *fakePools) Save(_ context.Context, pool *catalog.QuotaPool) error {
	f.byID[pool.ID] = pool
	return nil
}

func (f *fakePools) FindByID(_ context.Context, id uuid.UUID) (*catalog.QuotaPool, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, domain.NewNotFoundError("QuotaPool", id.String())
}

func (f *fakePools) List(context.Context) ([]*catalog.QuotaPool, error) {
	out := make([]*catalog.QuotaPool, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePools) References(_ context.Context, id uuid.UUID) (int64, int64, error) {
	var usageRows, productItems int64
	key := quota.PoolScope(id).Key()
	for _, rows := range f.usages.rows {
		if _, ok := rows[key]; ok {
			usageRows++
		}
	}
	for _, p := range f.products.byID {
		for _, pi := range p.Items {
			if s, ok := pi.Entitlement.(catalog.Shared); ok && s.PoolID == id {
				productItems++
			}
		}
	}
	return usageRows, productItems, nil
}

func (f *fakePools) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeProducts struct{ byID map[uuid.UUID]*catalog.Product }

func (f *fakeProducts) Save(_ context.Context, p *catalog.Product) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, domain.NewNotFoundError("Product", id.String())
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeProducts) List(_ context.Context, activeOnly bool) ([]*catalog.Product, error) {
	var out []*catalog.Product
	for _, p := range f.byID {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// --- quota ---

type fakeUsages struct {
	rows map[uuid.UUID]map[string]*quota.Usage
}

func (f *fakeUsages) Increment(_ context.Context, membershipID uuid.UUID, scope quota.Scope) error {
	rows, ok := f.rows[membershipID]
	if !ok {
		rows = make(map[string]*quota.Usage)
		f.rows[membershipID] = rows
	}
	u, ok := rows[scope.Key()]
	if !ok {
		u = &quota.Usage{ID: uuid.New(), MembershipID: membershipID, Scope: scope}
		rows[scope.Key()] = u
	}
	u.UsedCount++
	return nil
}

func (f *fakeUsages) Decrement(_ context.Context, membershipID uuid.UUID, scope quota.Scope) error {
	if u, ok := f.rows[membershipID][scope.Key()]; ok && u.UsedCount > 0 {
		u.UsedCount--
	}
	return nil
}

func (f *fakeUsages) FindByMembership(_ context.Context, membershipID uuid.UUID) ([]quota.Usage, error) {
	var out []quota.Usage
	for _, u := range f.rows[membershipID] {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsages) FindByMemberships(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]quota.Usage, error) {
	out := make(map[uuid.UUID][]quota.Usage, len(ids))
	for _, id := range ids {
		rows, _ := f.FindByMembership(ctx, id)
		out[id] = rows
	}
	return out, nil
}

func (f *fakeUsages) used(membershipID uuid.UUID, scope quota.Scope) int {
	if u, ok := f.rows[membershipID][scope.Key()]; ok {
		return u.UsedCount
	}
	return 0
}

// --- memberships ---

type fakeMemberships struct {
	byID   map[uuid.UUID]*membership.Membership
	locked []uuid.UUID
}

func (f *fakeMemberships) FindByID(_ context.Context, id uuid.UUID) (*membership.Membership, error) {
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, domain.NewNotFoundError("Membership", id.String())
}

func (f *fakeMemberships) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	f.locked = append(f.locked, id)
	return f.FindByID(ctx, id)
}

func (f *fakeMemberships) FindByUser(_ context.Context, userID uuid.UUID) ([]*membership.Membership, error) {
	var out []*membership.Membership
	for _, m := range f.byID {
		if m.UserID() == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemberships) FindBookableByUser(_ context.Context, userID uuid.UUID, now time.Time) ([]*membership.Membership, error) {
	var out []*membership.Membership
	for _, m := range f.byID {
		if m.UserID() == userID && m.IsBookable(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemberships) Save(_ context.Context, m *membership.Membership) error {
	f.byID[m.ID()] = m
	return nil
}

func (f *fakeMemberships) Update(_ context.Context, m *membership.Membership) error {
	if _, ok := f.byID[m.ID()]; !ok {
		return domain.NewNotFoundError("Membership", m.ID().String())
	}
	f.byID[m.ID()] = m
	return nil
}

// --- schedule ---

type fakeSessions struct{ byID map[uuid.UUID]*schedule.ClassSession }

func (f *fakeSessions) FindByID(_ context.Context, id uuid.UUID) (*schedule.ClassSession, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, domain.NewNotFoundError("ClassSession", id.String())
}

func (f *fakeSessions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*schedule.ClassSession, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeSessions) List(_ context.Context, from, to time.Time) ([]*schedule.ClassSession, error) {
	var out []*schedule.ClassSession
	for _, s := range f.byID {
		if !s.Date().Before(from) && !s.Date().After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) Save(_ context.Context, s *schedule.ClassSession) error {
	for _, existing := range f.byID {
		if existing.ItemID() == s.ItemID() && existing.Date().Equal(s.Date()) && existing.StartTime() == s.StartTime() {
			return domain.NewConflictError("ClassSession already exists")
		}
	}
	f.byID[s.ID()] = s
	return nil
}

func (f *fakeSessions) Update(_ context.Context, s *schedule.ClassSession) error {
	f.byID[s.ID()] = s
	return nil
}

// --- bookings ---

type fakeBookings struct{ list []*booking.Booking }

func (f *fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	for _, b := range f.list {
		if b.ID() == id {
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", id.String())
}

func (f *fakeBookings) FindActive(_ context.Context, sessionID, userID uuid.UUID) (*booking.Booking, error) {
	for _, b := range f.list {
		if b.ClassSessionID() == sessionID && b.UserID() == userID && b.Status() != booking.StatusCancelled {
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", sessionID.String())
}

func (f *fakeBookings) CountConfirmed(_ context.Context, sessionID uuid.UUID) (int, error) {
	n := 0
	for _, b := range f.list {
		if b.ClassSessionID() == sessionID && b.IsConfirmed() {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookings) FindWaitlisted(_ context.Context, sessionID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range f.list {
		if b.ClassSessionID() == sessionID && b.Status() == booking.StatusWaitlisted {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, booking.WaitlistOrder)
	return out, nil
}

func (f *fakeBookings) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range f.list {
		if b.ClassSessionID() == sessionID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range f.list {
		if b.UserID() == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) Save(ctx context.Context, b *booking.Booking) error {
	if _, err := f.FindActive(ctx, b.ClassSessionID(), b.UserID()); err == nil {
		return domain.NewConflictError("Booking already exists")
	}
	f.list = append(f.list, b)
	return nil
}

func (f *fakeBookings) Update(context.Context, *booking.Booking) error { return nil }

func (f *fakeBookings) Delete(_ context.Context, id uuid.UUID) error {
	f.list = slices.DeleteFunc(f.list, func(b *booking.Booking) bool { return b.ID() == id })
	return nil
}

// --- freeze ---

type fakeFreezeRequests struct{ byID map[uuid.UUID]*freeze.Request }

func (f *fakeFreezeRequests) FindByID(_ context.Context, id uuid.UUID) (*freeze.Request, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, domain.NewNotFoundError("FreezeRequest", id.String())
}

func (f *fakeFreezeRequests) List(_ context.Context, status *freeze.Status) ([]*freeze.Request, error) {
	var out []*freeze.Request
	for _, r := range f.byID {
		if status == nil || r.Status() == *status {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b *freeze.Request) int { return b.CreatedAt().Compare(a.CreatedAt()) })
	return out, nil
}

func (f *fakeFreezeRequests) FindDue(_ context.Context, now time.Time) ([]*freeze.Request, error) {
	var out []*freeze.Request
	for _, r := range f.byID {
		if r.IsDue(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFreezeRequests) HasPending(_ context.Context, membershipID uuid.UUID) (bool, error) {
	for _, r := range f.byID {
		if r.MembershipID() == membershipID && r.Status() == freeze.StatusPendingApproval {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFreezeRequests) Save(_ context.Context, r *freeze.Request) error {
	f.byID[r.ID()] = r
	return nil
}

func (f *fakeFreezeRequests) Update(_ context.Context, r *freeze.Request) error {
	f.byID[r.ID()] = r
	return nil
}

// --- payments ---

type fakePayments struct {
	byID      map[uuid.UUID]*payment.Transaction
	updateErr error
}

func (f *fakePayments) FindByID(_ context.Context, id uuid.UUID) (*payment.Transaction, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.NewNotFoundError("PaymentTransaction", id.String())
}

func (f *fakePayments) FindByOrderID(_ context.Context, orderID string) (*payment.Transaction, error) {
	for _, t := range f.byID {
		if t.OrderID() == orderID {
			return t, nil
		}
	}
	return nil, domain.NewNotFoundError("PaymentTransaction", orderID)
}

func (f *fakePayments) Save(_ context.Context, t *payment.Transaction) error {
	f.byID[t.ID()] = t
	return nil
}

func (f *fakePayments) Update(_ context.Context, t *payment.Transaction) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.byID[t.ID()] = t
	return nil
}

// store bundles every fake so services share one in-memory state.
type store struct {
	tx          *passThroughTx
	publisher   *recordingPublisher
	items       *fakeItems
	pools       *fakePools
	products    *fakeProducts
	usages      *fakeUsages
	memberships *fakeMemberships
	sessions    *fakeSessions
	bookings    *fakeBookings
	freezes     *fakeFreezeRequests
	payments    *fakePayments
}

func newStore() *store {
	s := &store{
		tx:          &passThroughTx{},
		publisher:   &recordingPublisher{},
		items:       &fakeItems{byID: map[uuid.UUID]*catalog.Item{}},
		products:    &fakeProducts{byID: map[uuid.UUID]*catalog.Product{}},
		usages:      &fakeUsages{rows: map[uuid.UUID]map[string]*quota.Usage{}},
		memberships: &fakeMemberships{byID: map[uuid.UUID]*membership.Membership{}},
		sessions:    &fakeSessions{byID: map[uuid.UUID]*schedule.ClassSession{}},
		bookings:    &fakeBookings{},
		freezes:     &fakeFreezeRequests{byID: map[uuid.UUID]*freeze.Request{}},
		payments:    &fakePayments{byID: map[uuid.UUID]*payment.Transaction{}},
	}
	s.pools = &fakePools{byID: map[uuid.UUID]*catalog.QuotaPool{}, usages: s.usages, products: s.products}
	return s
}

func (s *store) seedItem(t *testing.T, capacity int) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem("Reformer Pilates", capacity)
	require.NoError(t, err)
	s.items.byID[item.ID] = item
	return item
}

func (s *store) seedPool(t *testing.T, total int) *catalog.QuotaPool {
	t.Helper()
	pool, err := catalog.NewQuotaPool("Studio classes", total)
	require.NoError(t, err)
	s.pools.byID[pool.ID] = pool
	return pool
}

func (s *store) seedProduct(t *testing.T, grants ...catalog.ItemGrant) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Monthly Unlimited", 150_000_00, 30, grants)
	require.NoError(t, err)
	s.products.byID[p.ID] = p
	return p
}

func (s *store) seedActiveMembership(t *testing.T, userID, productID uuid.UUID, expiredAt time.Time) *membership.Membership {
	t.Helper()
	created := expiredAt.AddDate(0, 0, -30)
	m := membership.Reconstitute(uuid.New(), userID, productID, membership.StatusActive, &created, &expiredAt, created, created)
	s.memberships.byID[m.ID()] = m
	return m
}

func (s *store) seedSession(t *testing.T, itemID uuid.UUID) *schedule.ClassSession {
	t.Helper()
	session, err := schedule.NewClassSession(itemID, time.Now().UTC().AddDate(0, 0, 1), "07:00", "08:00")
	require.NoError(t, err)
	s.sessions.byID[session.ID()] = session
	return session
}

// seedWaitlisted stores a waitlisted booking with an explicit creation time.
func (s *store) seedWaitlisted(sessionID, userID, membershipID uuid.UUID, createdAt time.Time) *booking.Booking {
	b := booking.Reconstitute(uuid.New(), sessionID, userID, membershipID, booking.StatusWaitlisted, createdAt, createdAt)
	s.bookings.list = append(s.bookings.list, b)
	return b
}

func intPtr(v int) *int { return &v }
