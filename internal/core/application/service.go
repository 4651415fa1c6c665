package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/hill399/linkedBtc/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const inboxSize = 64

type inboxReply struct {
	result any
	err    errors.Error
}

// inboxMsg is a bridge mutation. The event loop runs messages one at a time,
// reply is nil for fire-and-forget messages like scheduled expiries.
type inboxMsg struct {
	name  string
	run   func(ctx context.Context) (any, errors.Error)
	reply chan inboxReply
}

type service struct {
	// services
	repoManager ports.RepoManager
	liveStore   ports.LiveStore
	scheduler   ports.SchedulerService
	alerts      ports.Alerts
	custody     ports.TokenCustody

	ledger     *ledger
	guard      *replayGuard
	correlator *correlator

	// config
	network        *chaincfg.Params
	minWithdraw    uint64
	challengeFloor uint64
	requestTTL     int64

	// channels
	inbox    chan inboxMsg
	eventsCh chan domain.Event

	started atomic.Bool

	// stop and event loop go routine handlers
	stop func()
	ctx  context.Context
	wg   *sync.WaitGroup
}

func NewService(
	repoManager ports.RepoManager,
	liveStore ports.LiveStore,
	scheduler ports.SchedulerService,
	providerClient ports.ProviderClient,
	custody ports.TokenCustody,
	alerts ports.Alerts,
	network string,
	minWithdraw, challengeFloor, challengeRange uint64,
	requestTTL int64,
	providerTimeout time.Duration,
) (Service, error) {
	params, err := ChainParams(network)
	if err != nil {
		return nil, err
	}
	if challengeFloor < MinChallengeFloor {
		return nil, fmt.Errorf("challenge floor must be at least %d", MinChallengeFloor)
	}
	if challengeRange == 0 {
		return nil, fmt.Errorf("challenge range must be greater than zero")
	}
	if requestTTL < 0 {
		return nil, fmt.Errorf("request ttl must not be negative")
	}
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	svc := &service{
		repoManager: repoManager,
		liveStore:   liveStore,
		scheduler:   scheduler,
		alerts:      alerts,
		custody:     custody,
		ledger: newLedger(
			repoManager.Accounts(), custody, minWithdraw, challengeFloor, challengeRange,
		),
		guard: newReplayGuard(repoManager.ConsumedTxs()),
		correlator: newCorrelator(
			liveStore.PendingRequests(), providerClient, scheduler, alerts,
			requestTTL, providerTimeout,
		),
		network:        params,
		minWithdraw:    minWithdraw,
		challengeFloor: challengeFloor,
		requestTTL:     requestTTL,
		inbox:          make(chan inboxMsg, inboxSize),
		eventsCh:       make(chan domain.Event, 64),
		stop:           cancel,
		ctx:            ctx,
		wg:             &sync.WaitGroup{},
	}
	svc.correlator.onExpiry = svc.enqueueExpiry

	repoManager.Events().RegisterEventsHandler(
		domain.AccountTopic, func(events []domain.Event) {
			if len(events) <= 0 {
				return
			}
			svc.propagateEvent(events[len(events)-1])
		},
	)

	return svc, nil
}

func (s *service) Start() errors.Error {
	log.Debug("starting scheduler service...")
	s.scheduler.Start()

	log.Debug("starting app service...")
	s.wg.Add(1)
	go s.loop()
	s.correlator.start(s.ctx)
	s.started.Store(true)

	count, err := s.correlator.restore(s.ctx)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to restore pending requests: %w", err))
	}
	if count > 0 {
		log.Infof("restored %d pending requests", count)
	}
	return nil
}

func (s *service) Stop() {
	s.started.Store(false)
	s.stop()
	s.wg.Wait()
	s.correlator.stop()
	s.scheduler.Stop()
	log.Debug("stopped scheduler")
	s.liveStore.Close()
	log.Debug("closed connection to live store")
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) GetAccount(ctx context.Context, caller string) (*domain.Account, errors.Error) {
	return s.ledger.getAccount(ctx, caller)
}

func (s *service) GetWithdrawal(
	ctx context.Context, caller, id string,
) (*domain.Withdrawal, errors.Error) {
	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return nil, withdrawalError(err, id, domain.WithdrawalPending)
	}
	if len(caller) > 0 && withdrawal.Owner != caller {
		return nil, withdrawalError(domain.ErrWithdrawalNotFound, id, withdrawal.Status)
	}
	return withdrawal, nil
}

func (s *service) GetEventsChannel(_ context.Context) <-chan domain.Event {
	return s.eventsCh
}

func (s *service) GetInfo(ctx context.Context) (*ServiceInfo, errors.Error) {
	providers, err := s.repoManager.Providers().List(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	pending, err := s.liveStore.PendingRequests().Len(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	info := &ServiceInfo{
		Network:          s.network.Name,
		MinWithdraw:      s.minWithdraw,
		ChallengeFloor:   s.challengeFloor,
		RequestTTL:       s.requestTTL,
		TimeUnit:         s.scheduler.Unit().String(),
		Providers:        len(providers),
		PendingRequests:  pending,
		CustodyEnabled:   s.custody != nil,
		BridgeIdentifier: BridgeSpender,
	}
	if s.custody != nil {
		info.CustodyTreasury = s.custody.Treasury()
	}
	return info, nil
}

func (s *service) SubmitVerdict(ctx context.Context, callback VerdictCallback) errors.Error {
	provider, err := s.repoManager.Providers().Get(ctx, callback.ProviderId)
	if err != nil {
		if stderrors.Is(err, domain.ErrProviderNotFound) {
			return errors.UNKNOWN_PROVIDER.New("provider %s is not registered", callback.ProviderId).
				WithMetadata(errors.ProviderMetadata{ProviderId: callback.ProviderId})
		}
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if len(provider.Pubkey) > 0 {
		if err := verifyVerdictSignature(*provider, callback); err != nil {
			return errors.INVALID_SIGNATURE.New("%s", err).
				WithMetadata(errors.ProviderMetadata{ProviderId: callback.ProviderId})
		}
	}
	if callback.Verdict == nil {
		log.Debugf("ignoring empty verdict for request %s", callback.CorrelationId)
		return nil
	}

	_, verr := exec(ctx, s, "verdict", func(ctx context.Context) (struct{}, errors.Error) {
		return struct{}{}, s.handleVerdict(ctx, callback)
	})
	return verr
}

// handleVerdict applies one provider callback. Stale, duplicate and mismatched
// callbacks are no-ops.
func (s *service) handleVerdict(ctx context.Context, callback VerdictCallback) errors.Error {
	request, err := s.correlator.resolve(
		ctx, callback.CorrelationId, callback.ProviderId, callback.Verdict,
	)
	if err != nil {
		if stderrors.Is(err, ports.ErrRequestNotFound) ||
			stderrors.Is(err, ports.ErrProviderMismatch) {
			verdictsIgnored.Add(ctx, 1)
			log.WithError(err).Debugf("ignoring verdict for request %s", callback.CorrelationId)
			return nil
		}
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	switch verdict := callback.Verdict.(type) {
	case domain.ValidationVerdict:
		s.onValidationVerdict(ctx, *request, verdict)
	case domain.SettlementVerdict:
		s.onSettlementVerdict(ctx, *request, verdict)
	}
	return nil
}

func (s *service) ExpireRequests(ctx context.Context, ids []string) ([]string, errors.Error) {
	return exec(ctx, s, "expire", func(ctx context.Context) ([]string, errors.Error) {
		if len(ids) <= 0 {
			requests, err := s.liveStore.PendingRequests().List(ctx)
			if err != nil {
				return nil, errors.INTERNAL_ERROR.Wrap(err)
			}
			now, err := s.scheduler.Now()
			if err != nil {
				return nil, errors.INTERNAL_ERROR.Wrap(err)
			}
			for _, r := range requests {
				if r.IsExpired(now) {
					ids = append(ids, r.Id)
				}
			}
		}

		expired := make([]string, 0, len(ids))
		for _, id := range ids {
			ok, err := s.expireRequest(ctx, id)
			if err != nil {
				return expired, errors.INTERNAL_ERROR.Wrap(err)
			}
			if ok {
				expired = append(expired, id)
			}
		}
		return expired, nil
	})
}

func (s *service) enqueueExpiry(id string) {
	msg := inboxMsg{
		name: "expire",
		run: func(ctx context.Context) (any, errors.Error) {
			if _, err := s.expireRequest(ctx, id); err != nil {
				log.WithError(err).Warnf("failed to expire request %s", id)
			}
			return nil, nil
		},
	}
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
	}
}

func (s *service) expireRequest(ctx context.Context, id string) (bool, error) {
	request, err := s.correlator.expire(ctx, id)
	if err != nil {
		if stderrors.Is(err, ports.ErrRequestNotFound) {
			return false, nil
		}
		return false, err
	}

	requestsExpired.Add(ctx, 1, purposeAttr(request.Purpose))
	log.Infof("%s request %s of %s expired", request.Purpose, request.Id, request.Owner)

	s.saveEvent(ctx, domain.RequestExpired{
		AccountEvent:  newAccountEvent(request.Owner, domain.EventTypeRequestExpired),
		CorrelationId: request.Id,
		Purpose:       request.Purpose,
	})
	if request.Purpose == domain.PurposeSettle {
		s.failSettlement(ctx, *request)
	}
	return true, nil
}

func (s *service) loop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.inbox:
			result, err := msg.run(s.ctx)
			if err != nil {
				err.Log().Debugf("%s failed", msg.name)
			}
			if msg.reply != nil {
				msg.reply <- inboxReply{result, err}
			}
		}
	}
}

// exec runs fn on the event loop and waits for its result.
func exec[T any](
	ctx context.Context, s *service, name string,
	fn func(ctx context.Context) (T, errors.Error),
) (T, errors.Error) {
	var zero T
	if !s.started.Load() {
		return zero, errors.INTERNAL_ERROR.New("service not started")
	}

	reply := make(chan inboxReply, 1)
	msg := inboxMsg{
		name: name,
		run: func(ctx context.Context) (any, errors.Error) {
			result, err := fn(ctx)
			return result, err
		},
		reply: reply,
	}

	select {
	case s.inbox <- msg:
	case <-ctx.Done():
		return zero, errors.INTERNAL_ERROR.Wrap(ctx.Err())
	case <-s.ctx.Done():
		return zero, errors.INTERNAL_ERROR.New("service stopped")
	}

	select {
	case r := <-reply:
		if r.err != nil {
			return zero, r.err
		}
		result, _ := r.result.(T)
		return result, nil
	case <-ctx.Done():
		return zero, errors.INTERNAL_ERROR.Wrap(ctx.Err())
	case <-s.ctx.Done():
		return zero, errors.INTERNAL_ERROR.New("service stopped")
	}
}

func (s *service) firstProvider(ctx context.Context) (*domain.Provider, errors.Error) {
	providers, err := s.listProviders(ctx)
	if err != nil {
		return nil, err
	}
	return &providers[0], nil
}

func (s *service) listProviders(ctx context.Context) ([]domain.Provider, errors.Error) {
	providers, err := s.repoManager.Providers().List(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if len(providers) <= 0 {
		return nil, errors.NO_PROVIDERS.New("no providers registered")
	}
	return providers, nil
}

func (s *service) saveEvent(ctx context.Context, event domain.Event) {
	if err := s.repoManager.Events().Save(
		ctx, domain.AccountTopic, event.GetId(), []domain.Event{event},
	); err != nil {
		log.WithError(err).Warnf("failed to save %s event", event.GetType())
	}
}

func (s *service) propagateEvent(event domain.Event) {
	select {
	case s.eventsCh <- event:
	default:
		log.Warnf("events channel full, dropping %s event", event.GetType())
	}
}

func newAccountEvent(id string, eventType domain.EventType) domain.AccountEvent {
	return domain.AccountEvent{Id: id, Type: eventType, Timestamp: time.Now().Unix()}
}
