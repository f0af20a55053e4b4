package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/code/data/donation"
	"github.com/code-payments/charity-server/pkg/database/query"
)

func RunTests(t *testing.T, s donation.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s donation.Store){
		testRoundTrip,
		testPaging,
		testAggregates,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s donation.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		actual, err := s.GetByAddress(ctx, "donation")
		assert.Equal(t, donation.ErrDonationNotFound, err)
		assert.Nil(t, actual)

		expected := &donation.Record{
			Address:     "donation",
			Donor:       "donor",
			Charity:     "charity",
			CharityName: "helping-hands",
			Amount:      10_000_000,
			CreatedAt:   time.Now(),
		}
		require.NoError(t, s.Put(ctx, expected))
		assert.True(t, expected.Id > 0)

		actual, err = s.GetByAddress(ctx, "donation")
		require.NoError(t, err)
		assert.Equal(t, expected.Id, actual.Id)
		assert.Equal(t, expected.Address, actual.Address)
		assert.Equal(t, expected.Donor, actual.Donor)
		assert.Equal(t, expected.Charity, actual.Charity)
		assert.Equal(t, expected.CharityName, actual.CharityName)
		assert.Equal(t, expected.Amount, actual.Amount)
		assert.Equal(t, expected.CreatedAt.Unix(), actual.CreatedAt.Unix())

		duplicate := expected.Clone()
		duplicate.Amount = 1
		assert.Equal(t, donation.ErrDonationExists, s.Put(ctx, &duplicate))

		invalid := expected.Clone()
		invalid.Address = "other"
		invalid.Amount = 0
		assert.Error(t, s.Put(ctx, &invalid))
	})
}

func testPaging(t *testing.T, s donation.Store) {
	t.Run("testPaging", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByCharity(ctx, "charity1", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, donation.ErrDonationNotFound, err)
		_, err = s.GetAllByDonor(ctx, "donor1", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, donation.ErrDonationNotFound, err)

		var records []*donation.Record
		for i := 0; i < 6; i++ {
			record := &donation.Record{
				Address:   fmt.Sprintf("donation%d", i),
				Donor:     fmt.Sprintf("donor%d", i%2),
				Charity:   fmt.Sprintf("charity%d", i%3),
				Amount:    uint64(i + 1),
				CreatedAt: time.Now(),
			}
			require.NoError(t, s.Put(ctx, record))
			records = append(records, record)
		}

		actual, err := s.GetAllByCharity(ctx, "charity0", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "donation0", actual[0].Address)
		assert.Equal(t, "donation3", actual[1].Address)

		actual, err = s.GetAllByDonor(ctx, "donor1", query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "donation5", actual[0].Address)
		assert.Equal(t, "donation3", actual[1].Address)
		assert.Equal(t, "donation1", actual[2].Address)

		actual, err = s.GetAllByDonor(ctx, "donor1", query.ToCursor(records[3].Id), 1, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "donation1", actual[0].Address)

		actual, err = s.GetAllByDonor(ctx, "donor0", query.ToCursor(records[0].Id), 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "donation2", actual[0].Address)
	})
}

func testAggregates(t *testing.T, s donation.Store) {
	t.Run("testAggregates", func(t *testing.T) {
		ctx := context.Background()

		total, err := s.GetTotalByCharity(ctx, "charity")
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)

		count, err := s.CountByCharity(ctx, "charity")
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		for i, amount := range []uint64{100, 250, 1000} {
			require.NoError(t, s.Put(ctx, &donation.Record{
				Address:   fmt.Sprintf("donation%d", i),
				Donor:     fmt.Sprintf("donor%d", i%2),
				Charity:   "charity",
				Amount:    amount,
				CreatedAt: time.Now(),
			}))
		}
		require.NoError(t, s.Put(ctx, &donation.Record{
			Address:   "elsewhere",
			Donor:     "donor0",
			Charity:   "other",
			Amount:    5,
			CreatedAt: time.Now(),
		}))

		total, err = s.GetTotalByCharity(ctx, "charity")
		require.NoError(t, err)
		assert.EqualValues(t, 1350, total)

		count, err = s.CountByCharity(ctx, "charity")
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		total, err = s.GetTotalByDonor(ctx, "donor0")
		require.NoError(t, err)
		assert.EqualValues(t, 1105, total)

		total, err = s.GetTotalByDonor(ctx, "donor1")
		require.NoError(t, err)
		assert.EqualValues(t, 250, total)
	})
}
