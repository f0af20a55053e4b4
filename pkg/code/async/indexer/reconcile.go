package async_indexer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/database/query"
	"github.com/code-payments/charity-server/pkg/metrics"
)

type reconcileStats struct {
	charities int
	donations int
	pruned    int
	failures  int
}

// Reconcile implements Service.Reconcile
//
// Every program owned account in the ledger is indexed, and indexed charities
// that no longer exist in the ledger are removed.
func (s *service) Reconcile(ctx context.Context) error {
	log := s.log.WithField("method", "Reconcile")

	nr, m := metrics.StartTransaction(ctx, "indexer__reconcile")
	if m != nil {
		defer m.End()
	}

	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	start := time.Now()
	batchSize := s.conf.reconcileBatchSize.Get(nr)

	var stats reconcileStats
	live := make(map[string]struct{})

	var cursor query.Cursor
	for {
		records, err := s.data.GetAllLedgerAccountsByOwner(
			nr,
			programAddress,
			query.WithCursor(cursor),
			query.WithLimit(batchSize),
			query.WithDirection(query.Ascending),
		)
		if err == ledger.ErrAccountNotFound {
			break
		} else if err != nil {
			return err
		}

		for _, record := range records {
			kind, err := s.indexAccount(nr, record.Address, record.Id, record.Version, record.Data)
			switch kind {
			case accountKindCharity:
				live[record.Address] = struct{}{}
				stats.charities++
			case accountKindDonation:
				stats.donations++
			}

			if err == context.Canceled {
				return err
			} else if err != nil {
				log.WithError(err).WithField("account", record.Address).Warn("failure indexing account")
				stats.failures++
			}
		}

		if uint64(len(records)) < batchSize {
			break
		}
		cursor = query.ToCursor(records[len(records)-1].Id)
	}

	var stale []string
	cursor = nil
	for {
		records, err := s.data.GetAllCharities(
			nr,
			query.WithCursor(cursor),
			query.WithLimit(batchSize),
			query.WithDirection(query.Ascending),
		)
		if err == charity.ErrCharityNotFound {
			break
		} else if err != nil {
			return err
		}

		for _, record := range records {
			if _, ok := live[record.Address]; !ok {
				stale = append(stale, record.Address)
			}
		}

		if uint64(len(records)) < batchSize {
			break
		}
		cursor = query.ToCursor(records[len(records)-1].Id)
	}

	for _, address := range stale {
		if err := s.data.DeleteCharity(nr, address); err != nil {
			return err
		}
		stats.pruned++
	}

	log.WithFields(logrus.Fields{
		"charities": stats.charities,
		"donations": stats.donations,
		"pruned":    stats.pruned,
		"failures":  stats.failures,
	}).Debug("reconciled indexes")
	recordReconcileEvent(nr, stats, time.Since(start))

	return nil
}
