package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hill399/linkedBtc/internal/core/domain"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "events"

type eventDTO struct {
	Topic     string
	Id        string
	Seq       uint64
	Type      domain.EventType
	Payload   []byte
	CreatedAt int64
}

type eventRepository struct {
	store    *badgerhold.Store
	lock     *sync.Mutex
	handlers map[string][]func(events []domain.Event)
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	store, err := openStore(eventStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	return &eventRepository{
		store:    store,
		lock:     &sync.Mutex{},
		handlers: make(map[string][]func(events []domain.Event)),
	}, nil
}

func (r *eventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	if len(events) <= 0 {
		return nil
	}

	dtos := make([]eventDTO, 0, len(events))
	now := time.Now().UnixMilli()
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event %s: %w", event.GetType(), err)
		}
		dtos = append(dtos, eventDTO{
			Topic:     topic,
			Id:        id,
			Type:      event.GetType(),
			Payload:   payload,
			CreatedAt: now,
		})
	}

	if err := withRetry(r.store, func(tx *badger.Txn) error {
		query := badgerhold.Where("Topic").Eq(topic).And("Id").Eq(id)
		count, err := r.store.TxCount(tx, &eventDTO{}, query)
		if err != nil {
			return err
		}
		for i, dto := range dtos {
			dto.Seq = count + uint64(i)
			if err := r.store.TxInsert(tx, eventKey(topic, id, dto.Seq), dto); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to save events of %s: %w", id, err)
	}

	r.dispatch(ctx, topic, id)
	return nil
}

func (r *eventRepository) GetEvents(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	dtos := make([]eventDTO, 0)
	query := badgerhold.Where("Topic").Eq(topic).And("Id").Eq(id).SortBy("Seq")
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, fmt.Errorf("failed to get events of %s: %w", id, err)
	}

	events := make([]domain.Event, 0, len(dtos))
	for _, dto := range dtos {
		event, err := domain.DeserializeEvent(dto.Payload)
		if err != nil {
			log.WithError(err).Warnf("failed to deserialize event %s of %s", dto.Type, id)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers[topic] = append(r.handlers[topic], handler)
}

func (r *eventRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *eventRepository) dispatch(ctx context.Context, topic, id string) {
	events, err := r.GetEvents(ctx, topic, id)
	if err != nil {
		log.WithError(err).Error("failed to dispatch saved events")
		return
	}
	if len(events) <= 0 {
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	for _, handler := range r.handlers[topic] {
		go handler(events)
	}
}

func eventKey(topic, id string, seq uint64) string {
	return fmt.Sprintf("%s:%s:%020d", topic, id, seq)
}
