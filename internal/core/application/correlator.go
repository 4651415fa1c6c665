package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	laneSize        = 256
	laneConcurrency = 4
)

type outboundRequest struct {
	provider domain.Provider
	request  domain.PendingRequest
}

// correlator matches provider callbacks to the requests they answer.
// Each provider gets its own send lane, so a slow or dead provider only delays
// its own requests and dispatch never waits on the network.
type correlator struct {
	store     ports.PendingRequestStore
	client    ports.ProviderClient
	scheduler ports.SchedulerService
	alerts    ports.Alerts

	ttl         int64
	sendTimeout time.Duration
	onExpiry    func(id string)

	ctx   context.Context
	lanes map[string]chan outboundRequest
	lock  *sync.Mutex
	wg    *sync.WaitGroup
}

func newCorrelator(
	store ports.PendingRequestStore, client ports.ProviderClient,
	scheduler ports.SchedulerService, alerts ports.Alerts,
	ttl int64, sendTimeout time.Duration,
) *correlator {
	return &correlator{
		store:       store,
		client:      client,
		scheduler:   scheduler,
		alerts:      alerts,
		ttl:         ttl,
		sendTimeout: sendTimeout,
		lanes:       make(map[string]chan outboundRequest),
		lock:        &sync.Mutex{},
		wg:          &sync.WaitGroup{},
	}
}

func (c *correlator) start(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ctx = ctx
}

func (c *correlator) stop() {
	c.wg.Wait()
}

// newRequest mints a pending request for provider without storing it.
func (c *correlator) newRequest(
	provider domain.Provider, purpose domain.Purpose,
	owner string, payload domain.RequestPayload, withdrawalId string,
) (domain.PendingRequest, error) {
	now, err := c.scheduler.Now()
	if err != nil {
		return domain.PendingRequest{}, fmt.Errorf("failed to get scheduler time: %w", err)
	}

	request := domain.PendingRequest{
		Id:           uuid.New().String(),
		Purpose:      purpose,
		Owner:        owner,
		ProviderId:   provider.Id,
		WithdrawalId: withdrawalId,
		Payload:      payload,
		IssuedAt:     now,
	}
	if c.ttl > 0 {
		request.ExpiresAt = now + c.ttl
	}
	return request, nil
}

// register stores the request so that a callback can resolve it. Nothing is
// sent until submit.
func (c *correlator) register(ctx context.Context, request domain.PendingRequest) error {
	if err := c.store.Add(ctx, request); err != nil {
		return fmt.Errorf("failed to store pending request: %w", err)
	}
	return nil
}

// discard drops a registered request that was never submitted.
func (c *correlator) discard(ctx context.Context, id string) {
	if _, err := c.store.Expire(ctx, id); err != nil && !errors.Is(err, ports.ErrRequestNotFound) {
		log.WithError(err).Warnf("failed to discard pending request %s", id)
	}
}

// submit schedules the expiry of a registered request and queues it on the
// lane of its provider.
func (c *correlator) submit(provider domain.Provider, request domain.PendingRequest) {
	c.scheduleExpiry(request)

	lane := c.laneOf(provider.Id)
	if lane == nil {
		log.Warnf("correlator not started, request %s to %s not sent", request.Id, provider.Id)
		c.publishDispatchFailure(request, fmt.Errorf("correlator not started"))
		return
	}

	select {
	case lane <- outboundRequest{provider, request}:
	default:
		// lane full, the request stays pending until it expires
		log.Warnf("send lane of %s full, request %s not sent", provider.Id, request.Id)
		c.publishDispatchFailure(request, fmt.Errorf("send lane full"))
	}
}

func (c *correlator) laneOf(providerId string) chan outboundRequest {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.ctx == nil || c.ctx.Err() != nil {
		return nil
	}
	lane, ok := c.lanes[providerId]
	if !ok {
		lane = make(chan outboundRequest, laneSize)
		c.lanes[providerId] = lane
		c.wg.Add(1)
		go c.runLane(c.ctx, lane)
	}
	return lane
}

// match looks up the pending request a verdict answers without removing it.
// It returns ErrRequestNotFound for unknown ids and for verdicts whose type
// does not match the request purpose.
func (c *correlator) match(
	ctx context.Context, id, providerId string, verdict domain.Verdict,
) (*domain.PendingRequest, error) {
	request, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.ProviderId != providerId {
		return nil, ports.ErrProviderMismatch
	}
	if !request.Accepts(verdict) {
		return nil, fmt.Errorf(
			"%w: %T does not answer a %s request", ports.ErrRequestNotFound, verdict, request.Purpose,
		)
	}
	return request, nil
}

// resolve atomically removes the request answered by the callback. At most
// one resolve or expire ever gets a given request.
func (c *correlator) resolve(
	ctx context.Context, id, providerId string, verdict domain.Verdict,
) (*domain.PendingRequest, error) {
	if _, err := c.match(ctx, id, providerId, verdict); err != nil {
		return nil, err
	}
	return c.store.Resolve(ctx, id, providerId)
}

func (c *correlator) expire(ctx context.Context, id string) (*domain.PendingRequest, error) {
	return c.store.Expire(ctx, id)
}

func (c *correlator) scheduleExpiry(request domain.PendingRequest) {
	if request.ExpiresAt <= 0 || c.onExpiry == nil {
		return
	}
	id := request.Id
	if err := c.scheduler.ScheduleTaskOnce(request.ExpiresAt, func() {
		c.onExpiry(id)
	}); err != nil {
		log.WithError(err).Warnf("failed to schedule expiry of request %s", id)
	}
}

// restore schedules the expiry of the requests found in the store on start.
func (c *correlator) restore(ctx context.Context) (int, error) {
	requests, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, request := range requests {
		if request.ExpiresAt <= 0 {
			continue
		}
		if !c.scheduler.AfterNow(request.ExpiresAt) && c.onExpiry != nil {
			id := request.Id
			go c.onExpiry(id)
			continue
		}
		c.scheduleExpiry(request)
	}
	return len(requests), nil
}

// runLane sends the requests of one provider, at most laneConcurrency at a
// time.
func (c *correlator) runLane(ctx context.Context, lane <-chan outboundRequest) {
	defer c.wg.Done()

	g := &errgroup.Group{}
	g.SetLimit(laneConcurrency)
	for {
		select {
		case <-ctx.Done():
			//nolint:errcheck
			g.Wait()
			return
		case out := <-lane:
			g.Go(func() error {
				c.send(ctx, out)
				return nil
			})
		}
	}
}

func (c *correlator) send(ctx context.Context, out outboundRequest) {
	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	if err := c.client.Send(ctx, out.provider, out.request); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.WithError(err).Warnf(
			"failed to send %s request %s to provider %s",
			out.request.Purpose, out.request.Id, out.provider.Id,
		)
		c.publishDispatchFailure(out.request, err)
		return
	}
	requestsSent.Add(context.Background(), 1, purposeAttr(out.request.Purpose))
	log.Debugf("sent %s request %s to provider %s", out.request.Purpose, out.request.Id, out.provider.Id)
}

func (c *correlator) publishDispatchFailure(request domain.PendingRequest, err error) {
	publishAlert(c.alerts, ports.DispatchFailed, ports.DispatchFailedAlert{
		CorrelationId: request.Id,
		ProviderId:    request.ProviderId,
		Purpose:       request.Purpose.String(),
		Owner:         request.Owner,
		Error:         err.Error(),
	})
}
