package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/database/query"
)

type store struct {
	mu      sync.Mutex
	records []*charity.Record
	last    uint64
}

type ById []*charity.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory charity.Store
func New() charity.Store {
	return &store{}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = nil
	s.last = 0
	s.mu.Unlock()
}

// Save implements charity.Store.Save
func (s *store) Save(_ context.Context, data *charity.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.findByAddress(data.Address); item != nil {
		if data.AccountId != item.AccountId || data.Version <= item.Version {
			return charity.ErrStaleVersion
		}

		id := item.Id
		data.CopyTo(item)
		item.Id = id
		data.Id = id
		return nil
	}

	data.Id = s.last
	c := data.Clone()
	s.records = append(s.records, &c)
	return nil
}

// GetByAddress implements charity.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*charity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, charity.ErrCharityNotFound
}

// GetAllByAuthority implements charity.Store.GetAllByAuthority
func (s *store) GetAllByAuthority(_ context.Context, authority string) ([]*charity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*charity.Record
	for _, item := range s.records {
		if item.Authority == authority {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, charity.ErrCharityNotFound
	}

	sort.Sort(ById(res))
	return res, nil
}

// GetAll implements charity.Store.GetAll
func (s *store) GetAll(_ context.Context, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*charity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.filter(s.records, cursor, limit, direction)
	if len(res) == 0 {
		return nil, charity.ErrCharityNotFound
	}

	cloned := make([]*charity.Record, len(res))
	for i, item := range res {
		c := item.Clone()
		cloned[i] = &c
	}
	return cloned, nil
}

// Delete implements charity.Store.Delete
func (s *store) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.records {
		if item.Address == address {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *store) findByAddress(address string) *charity.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) filter(items []*charity.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*charity.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*charity.Record
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
	} else {
		sort.Sort(ById(res))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}
