package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/code-payments/charity-server/pkg/code/data/donation"
	"github.com/code-payments/charity-server/pkg/database/query"
)

type store struct {
	mu      sync.Mutex
	records []*donation.Record
	last    uint64
}

type ById []*donation.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory donation.Store
func New() donation.Store {
	return &store{}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = nil
	s.last = 0
	s.mu.Unlock()
}

// Put implements donation.Store.Put
func (s *store) Put(_ context.Context, data *donation.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(data.Address); item != nil {
		return donation.ErrDonationExists
	}

	s.last++
	data.Id = s.last
	c := data.Clone()
	s.records = append(s.records, &c)
	return nil
}

// GetByAddress implements donation.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*donation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, donation.ErrDonationNotFound
}

// GetAllByCharity implements donation.Store.GetAllByCharity
func (s *store) GetAllByCharity(_ context.Context, charity string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*donation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.query(func(item *donation.Record) bool { return item.Charity == charity }, cursor, limit, direction)
}

// GetAllByDonor implements donation.Store.GetAllByDonor
func (s *store) GetAllByDonor(_ context.Context, donor string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*donation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.query(func(item *donation.Record) bool { return item.Donor == donor }, cursor, limit, direction)
}

// GetTotalByCharity implements donation.Store.GetTotalByCharity
func (s *store) GetTotalByCharity(_ context.Context, charity string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total uint64
	for _, item := range s.records {
		if item.Charity == charity {
			total += item.Amount
		}
	}
	return total, nil
}

// GetTotalByDonor implements donation.Store.GetTotalByDonor
func (s *store) GetTotalByDonor(_ context.Context, donor string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total uint64
	for _, item := range s.records {
		if item.Donor == donor {
			total += item.Amount
		}
	}
	return total, nil
}

// CountByCharity implements donation.Store.CountByCharity
func (s *store) CountByCharity(_ context.Context, charity string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count uint64
	for _, item := range s.records {
		if item.Charity == charity {
			count++
		}
	}
	return count, nil
}

func (s *store) findByAddress(address string) *donation.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) query(match func(*donation.Record) bool, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*donation.Record, error) {
	var items []*donation.Record
	for _, item := range s.records {
		if match(item) {
			items = append(items, item)
		}
	}

	res := s.filter(items, cursor, limit, direction)
	if len(res) == 0 {
		return nil, donation.ErrDonationNotFound
	}

	cloned := make([]*donation.Record, len(res))
	for i, item := range res {
		c := item.Clone()
		cloned[i] = &c
	}
	return cloned, nil
}

func (s *store) filter(items []*donation.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*donation.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*donation.Record
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
