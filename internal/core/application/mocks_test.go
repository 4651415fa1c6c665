package application_test

import (
	"context"
	"sort"
	"sync"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockRepoManager struct {
	accounts    *mockAccountRepository
	providers   *mockProviderRepository
	withdrawals *mockWithdrawalRepository
	consumed    *mockConsumedTxRepository
	events      *mockEventRepository
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		accounts:    &mockAccountRepository{accounts: make(map[string]domain.Account)},
		providers:   &mockProviderRepository{},
		withdrawals: &mockWithdrawalRepository{withdrawals: make(map[string]domain.Withdrawal)},
		consumed:    &mockConsumedTxRepository{txs: make(map[string]domain.ConsumedTx)},
		events:      &mockEventRepository{events: make(map[string][]domain.Event)},
	}
}

func (m *mockRepoManager) Events() domain.EventRepository           { return m.events }
func (m *mockRepoManager) Accounts() domain.AccountRepository       { return m.accounts }
func (m *mockRepoManager) Providers() domain.ProviderRepository     { return m.providers }
func (m *mockRepoManager) Withdrawals() domain.WithdrawalRepository { return m.withdrawals }
func (m *mockRepoManager) ConsumedTxs() domain.ConsumedTxRepository { return m.consumed }
func (m *mockRepoManager) Close()                                   {}

type mockAccountRepository struct {
	lock     sync.Mutex
	accounts map[string]domain.Account
}

func (r *mockAccountRepository) Add(_ context.Context, account domain.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.accounts[account.Id]; ok {
		return domain.ErrAccountExists
	}
	r.accounts[account.Id] = account
	return nil
}

func (r *mockAccountRepository) Get(_ context.Context, id string) (*domain.Account, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (r *mockAccountRepository) Update(
	_ context.Context, id string, updateFn func(a *domain.Account) error,
) (*domain.Account, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if err := updateFn(&account); err != nil {
		return nil, err
	}
	r.accounts[id] = account
	return &account, nil
}

func (r *mockAccountRepository) List(_ context.Context) ([]domain.Account, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	accounts := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (r *mockAccountRepository) Close() {}

type mockProviderRepository struct {
	lock      sync.Mutex
	providers []domain.Provider
}

func (r *mockProviderRepository) Add(
	_ context.Context, provider domain.Provider,
) (*domain.Provider, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, p := range r.providers {
		if p.Id == provider.Id {
			return nil, domain.ErrProviderExists
		}
	}
	provider.Index = len(r.providers)
	r.providers = append(r.providers, provider)
	return &provider, nil
}

func (r *mockProviderRepository) Get(_ context.Context, id string) (*domain.Provider, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, p := range r.providers {
		if p.Id == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProviderNotFound
}

func (r *mockProviderRepository) List(_ context.Context) ([]domain.Provider, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]domain.Provider{}, r.providers...), nil
}

func (r *mockProviderRepository) Close() {}

type mockWithdrawalRepository struct {
	lock        sync.Mutex
	withdrawals map[string]domain.Withdrawal
	addErr      error
}

func (r *mockWithdrawalRepository) Add(_ context.Context, w domain.Withdrawal) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	r.withdrawals[w.Id] = w
	return nil
}

func (r *mockWithdrawalRepository) failAdd(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.addErr = err
}

func (r *mockWithdrawalRepository) Get(_ context.Context, id string) (*domain.Withdrawal, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (r *mockWithdrawalRepository) Update(
	_ context.Context, id string, updateFn func(w *domain.Withdrawal) error,
) (*domain.Withdrawal, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	w.RequestIds = append([]string{}, w.RequestIds...)
	w.Failed = append([]string{}, w.Failed...)
	if err := updateFn(&w); err != nil {
		return nil, err
	}
	r.withdrawals[id] = w
	return &w, nil
}

func (r *mockWithdrawalRepository) List(
	_ context.Context, status ...domain.WithdrawalStatus,
) ([]domain.Withdrawal, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	list := make([]domain.Withdrawal, 0)
	for _, w := range r.withdrawals {
		if len(status) > 0 && w.Status != status[0] {
			continue
		}
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Id < list[j].Id })
	return list, nil
}

func (r *mockWithdrawalRepository) ListByOwner(
	ctx context.Context, owner string,
) ([]domain.Withdrawal, error) {
	all, _ := r.List(ctx)
	list := make([]domain.Withdrawal, 0)
	for _, w := range all {
		if w.Owner == owner {
			list = append(list, w)
		}
	}
	return list, nil
}

func (r *mockWithdrawalRepository) Close() {}

type mockConsumedTxRepository struct {
	lock       sync.Mutex
	txs        map[string]domain.ConsumedTx
	consumeErr error
}

func (r *mockConsumedTxRepository) Consume(_ context.Context, tx domain.ConsumedTx) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.consumeErr != nil {
		return false, r.consumeErr
	}
	if _, ok := r.txs[tx.Txid]; ok {
		return false, nil
	}
	r.txs[tx.Txid] = tx
	return true, nil
}

func (r *mockConsumedTxRepository) IsConsumed(_ context.Context, txid string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.txs[txid]
	return ok, nil
}

func (r *mockConsumedTxRepository) failConsume(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.consumeErr = err
}

func (r *mockConsumedTxRepository) Close() {}

type mockEventRepository struct {
	lock     sync.Mutex
	events   map[string][]domain.Event
	handlers []func([]domain.Event)
}

func (r *mockEventRepository) Save(
	_ context.Context, _, id string, events []domain.Event,
) error {
	r.lock.Lock()
	r.events[id] = append(r.events[id], events...)
	history := append([]domain.Event{}, r.events[id]...)
	handlers := append([]func([]domain.Event){}, r.handlers...)
	r.lock.Unlock()

	for _, h := range handlers {
		h(history)
	}
	return nil
}

func (r *mockEventRepository) GetEvents(
	_ context.Context, _, id string,
) ([]domain.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]domain.Event{}, r.events[id]...), nil
}

func (r *mockEventRepository) RegisterEventsHandler(_ string, handler func([]domain.Event)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers = append(r.handlers, handler)
}

func (r *mockEventRepository) Close() {}

func (r *mockEventRepository) types(id string) []domain.EventType {
	r.lock.Lock()
	defer r.lock.Unlock()
	types := make([]domain.EventType, 0, len(r.events[id]))
	for _, e := range r.events[id] {
		types = append(types, e.GetType())
	}
	return types
}

type mockLiveStore struct {
	requests *mockPendingRequestStore
}

func newMockLiveStore() *mockLiveStore {
	return &mockLiveStore{
		requests: &mockPendingRequestStore{requests: make(map[string]domain.PendingRequest)},
	}
}

func (m *mockLiveStore) PendingRequests() ports.PendingRequestStore { return m.requests }
func (m *mockLiveStore) Close()                                    {}

type mockPendingRequestStore struct {
	lock     sync.Mutex
	requests map[string]domain.PendingRequest
}

func (s *mockPendingRequestStore) Add(_ context.Context, r domain.PendingRequest) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.requests[r.Id]; ok {
		return ports.ErrRequestExists
	}
	s.requests[r.Id] = r
	return nil
}

func (s *mockPendingRequestStore) Resolve(
	_ context.Context, id, providerId string,
) (*domain.PendingRequest, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ports.ErrRequestNotFound
	}
	if r.ProviderId != providerId {
		return nil, ports.ErrProviderMismatch
	}
	delete(s.requests, id)
	return &r, nil
}

func (s *mockPendingRequestStore) Expire(
	_ context.Context, id string,
) (*domain.PendingRequest, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ports.ErrRequestNotFound
	}
	delete(s.requests, id)
	return &r, nil
}

func (s *mockPendingRequestStore) Get(
	_ context.Context, id string,
) (*domain.PendingRequest, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ports.ErrRequestNotFound
	}
	return &r, nil
}

func (s *mockPendingRequestStore) List(_ context.Context) ([]domain.PendingRequest, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	list := make([]domain.PendingRequest, 0, len(s.requests))
	for _, r := range s.requests {
		list = append(list, r)
	}
	return list, nil
}

func (s *mockPendingRequestStore) Len(_ context.Context) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return int64(len(s.requests)), nil
}

// mockScheduler keeps the scheduled tasks until the test fires them.
type mockScheduler struct {
	lock  sync.Mutex
	now   int64
	tasks map[int64][]func()
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{now: 1000, tasks: make(map[int64][]func())}
}

func (s *mockScheduler) Start()               {}
func (s *mockScheduler) Stop()                {}
func (s *mockScheduler) Unit() ports.TimeUnit { return ports.UnixTime }

func (s *mockScheduler) Now() (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.now, nil
}

func (s *mockScheduler) AfterNow(expiry int64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return expiry > s.now
}

func (s *mockScheduler) ScheduleTaskOnce(at int64, task func()) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tasks[at] = append(s.tasks[at], task)
	return nil
}

// advance moves the clock and runs the tasks that became due.
func (s *mockScheduler) advance(delta int64) {
	s.lock.Lock()
	s.now += delta
	due := make([]func(), 0)
	for at, tasks := range s.tasks {
		if at <= s.now {
			due = append(due, tasks...)
			delete(s.tasks, at)
		}
	}
	s.lock.Unlock()

	for _, task := range due {
		task()
	}
}

type sentRequest struct {
	provider domain.Provider
	request  domain.PendingRequest
}

type mockProviderClient struct {
	lock sync.Mutex
	sent []sentRequest
	err  error
	// providers whose sends hang until the context is done
	hanging map[string]bool
}

func (c *mockProviderClient) Send(
	ctx context.Context, provider domain.Provider, request domain.PendingRequest,
) error {
	c.lock.Lock()
	hang := c.hanging[provider.Id]
	c.lock.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.sent = append(c.sent, sentRequest{provider, request})
	return c.err
}

func (c *mockProviderClient) hang(providerId string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.hanging == nil {
		c.hanging = make(map[string]bool)
	}
	c.hanging[providerId] = true
}

func (c *mockProviderClient) requests() []sentRequest {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]sentRequest{}, c.sent...)
}

type mockAlerts struct {
	mock.Mock
}

func (m *mockAlerts) Publish(ctx context.Context, topic ports.Topic, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}
