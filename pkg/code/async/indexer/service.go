package async_indexer

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/charity-server/pkg/code/async"
	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/event"
	"github.com/code-payments/charity-server/pkg/metrics"
	code_sync "github.com/code-payments/charity-server/pkg/sync"
)

// Service keeps the charity and donation indexes in sync with the ledger
type Service interface {
	async.Service

	// Reconcile rebuilds the indexes from the current ledger state
	Reconcile(ctx context.Context) error
}

type service struct {
	log        *logrus.Entry
	data       code_data.Provider
	subscriber event.Subscriber
	conf       *conf

	updates *code_sync.StripedChannel[*event.AccountUpdate]
	handler event.AccountUpdateHandler

	// Serializes reconciliation with the update workers so an update can't be
	// applied against a half reconciled index
	reconcileMu sync.RWMutex
}

func New(data code_data.Provider, subscriber event.Subscriber, configProvider ConfigProvider) Service {
	conf := configProvider()

	s := &service{
		log:        logrus.StandardLogger().WithField("service", "indexer"),
		data:       data,
		subscriber: subscriber,
		conf:       conf,
		updates: code_sync.NewStripedChannel[*event.AccountUpdate](
			uint(conf.updateWorkerCount.Get(context.Background())),
			uint(conf.updateQueueSize.Get(context.Background())),
		),
	}
	s.handler = s.onAccountUpdate
	return s
}

func (s *service) Start(ctx context.Context) error {
	if err := s.subscriber.SubscribeAccountUpdates(s.handler); err != nil {
		return errors.Wrap(err, "error subscribing to account updates")
	}

	// Catch up on anything committed before the subscription existed
	if err := s.Reconcile(ctx); err != nil {
		s.log.WithError(err).Warn("failure running initial reconciliation")
	}

	var wg sync.WaitGroup
	for i, channel := range s.updates.GetChannels() {
		wg.Add(1)
		go func(id int, channel <-chan *event.AccountUpdate) {
			defer wg.Done()
			s.updateWorker(ctx, id, channel)
		}(i, channel)
	}

	go func() {
		err := s.reconcileWorker(ctx, s.conf.reconcileWorkerInterval.Get(ctx))
		if err != nil && err != context.Canceled {
			s.log.WithError(err).Warn("reconcile worker terminated unexpectedly")
		}
	}()

	<-ctx.Done()

	if err := s.subscriber.UnsubscribeAccountUpdates(s.handler); err != nil {
		s.log.WithError(err).Warn("failure unsubscribing from account updates")
	}
	s.updates.Close()
	wg.Wait()

	return ctx.Err()
}

// onAccountUpdate runs on the publishing goroutine, so it must never block
func (s *service) onAccountUpdate(ctx context.Context, update *event.AccountUpdate) {
	if ok := s.updates.Send([]byte(update.Address), update); !ok {
		s.log.WithFields(logrus.Fields{
			"method":  "onAccountUpdate",
			"account": update.Address,
			"version": update.Version,
		}).Warn("update queue is full, dropping update until the next reconciliation")
		recordDroppedUpdateEvent(ctx, update.Address)
	}
}

func (s *service) updateWorker(ctx context.Context, id int, channel <-chan *event.AccountUpdate) {
	log := s.log.WithFields(logrus.Fields{
		"method": "updateWorker",
		"worker": id,
	})

	for update := range channel {
		func() {
			nr, m := metrics.StartTransaction(ctx, "indexer__account_update")
			if m != nil {
				defer m.End()
			}

			s.reconcileMu.RLock()
			defer s.reconcileMu.RUnlock()

			if err := s.handleWithRetry(nr, update); err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"account": update.Address,
					"version": update.Version,
				}).Warn("failure indexing account update")
				if m != nil {
					m.NoticeError(err)
				}
			}
		}()
	}
}

func (s *service) reconcileWorker(ctx context.Context, interval time.Duration) error {
	delay := interval

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			start := time.Now()

			err := s.Reconcile(ctx)
			if err != nil && err != context.Canceled {
				s.log.WithError(err).Warn("failure reconciling indexes")
			}

			delay = interval - time.Since(start)
			if delay < 0 {
				delay = 0
			}
		}
	}
}
