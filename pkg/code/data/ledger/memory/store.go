package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/database/query"
)

type store struct {
	mu        sync.Mutex
	byAddress map[string]*ledger.Record
	last      uint64
}

type ById []*ledger.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		byAddress: make(map[string]*ledger.Record),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.byAddress = make(map[string]*ledger.Record)
	s.last = 0
	s.mu.Unlock()
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byAddress[address]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*ledger.Record
	for _, item := range s.byAddress {
		if item.Owner == owner {
			items = append(items, item)
		}
	}
	sort.Sort(ById(items))

	res := s.filter(items, cursor, limit, direction)
	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}

	cloned := make([]*ledger.Record, len(res))
	for i, item := range res {
		c := item.Clone()
		cloned[i] = &c
	}
	return cloned, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(_ context.Context, changes ...*ledger.Change) error {
	if err := ledger.ValidateChanges(changes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check everything up front so nothing is applied on failure
	for _, change := range changes {
		existing, ok := s.byAddress[change.Record.Address]

		switch change.Type {
		case ledger.ChangeTypeCreate:
			if ok {
				return ledger.ErrAccountExists
			}
		case ledger.ChangeTypeUpdate, ledger.ChangeTypeClose:
			if !ok {
				return ledger.ErrAccountNotFound
			}
			if existing.Version != change.Record.Version {
				return ledger.ErrStaleVersion
			}
		}
	}

	now := time.Now()
	for _, change := range changes {
		record := change.Record

		switch change.Type {
		case ledger.ChangeTypeCreate:
			s.last++
			record.Id = s.last
			record.Version = 1
			record.CreatedAt = now
			record.UpdatedAt = now

			c := record.Clone()
			s.byAddress[record.Address] = &c
		case ledger.ChangeTypeUpdate:
			existing := s.byAddress[record.Address]

			record.Id = existing.Id
			record.Version = existing.Version + 1
			record.CreatedAt = existing.CreatedAt
			record.UpdatedAt = now

			record.CopyTo(existing)
		case ledger.ChangeTypeClose:
			delete(s.byAddress, record.Address)
		}
	}

	return nil
}

func (s *store) filter(items []*ledger.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*ledger.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*ledger.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}
