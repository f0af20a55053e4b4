package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/database/query"
	"github.com/code-payments/charity-server/pkg/pointer"
)

func RunTests(t *testing.T, s charity.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s charity.Store){
		testRoundTrip,
		testVersioning,
		testGetAllByAuthority,
		testGetAll,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s charity.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		actual, err := s.GetByAddress(ctx, "charity")
		assert.Equal(t, charity.ErrCharityNotFound, err)
		assert.Nil(t, actual)

		expected := newRecord("charity", "authority", "helping-hands")
		expected.PayoutRecipient = pointer.String("recipient")
		expected.WithdrawnAt = pointer.Time(time.Now())

		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)

		actual, err = s.GetByAddress(ctx, "charity")
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)

		require.NoError(t, s.Delete(ctx, "charity"))
		_, err = s.GetByAddress(ctx, "charity")
		assert.Equal(t, charity.ErrCharityNotFound, err)

		// Deleting again is a no-op
		require.NoError(t, s.Delete(ctx, "charity"))

		// Invalid records are rejected
		invalid := newRecord("charity", "authority", "")
		assert.Error(t, s.Save(ctx, invalid))
	})
}

func testVersioning(t *testing.T, s charity.Store) {
	t.Run("testVersioning", func(t *testing.T) {
		ctx := context.Background()

		record := newRecord("charity", "authority", "helping-hands")
		require.NoError(t, s.Save(ctx, record))
		id := record.Id

		updated := record.Clone()
		updated.Version = 3
		updated.TotalDonated = 100
		updated.DonationCount = 1
		updated.Paused = true
		updated.Description = "updated"
		updated.PayoutRecipient = pointer.String("recipient")
		require.NoError(t, s.Save(ctx, &updated))
		assert.Equal(t, id, updated.Id)

		// Older and equal versions are rejected
		stale := record.Clone()
		stale.Version = 2
		assert.Equal(t, charity.ErrStaleVersion, s.Save(ctx, &stale))
		assert.Equal(t, charity.ErrStaleVersion, s.Save(ctx, &updated))

		// So are records for another account at the same address
		reallocated := updated.Clone()
		reallocated.AccountId++
		reallocated.Version = 10
		assert.Equal(t, charity.ErrStaleVersion, s.Save(ctx, &reallocated))

		actual, err := s.GetByAddress(ctx, "charity")
		require.NoError(t, err)
		assertEquivalentRecords(t, &updated, actual)
	})
}

func testGetAllByAuthority(t *testing.T, s charity.Store) {
	t.Run("testGetAllByAuthority", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByAuthority(ctx, "authority1")
		assert.Equal(t, charity.ErrCharityNotFound, err)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Save(ctx, newRecord(fmt.Sprintf("charity%d", i), "authority1", fmt.Sprintf("name%d", i))))
		}
		require.NoError(t, s.Save(ctx, newRecord("charity3", "authority2", "name0")))

		actual, err := s.GetAllByAuthority(ctx, "authority1")
		require.NoError(t, err)
		require.Len(t, actual, 3)
		for i, record := range actual {
			assert.Equal(t, fmt.Sprintf("charity%d", i), record.Address)
		}

		actual, err = s.GetAllByAuthority(ctx, "authority2")
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "charity3", actual[0].Address)
	})
}

func testGetAll(t *testing.T, s charity.Store) {
	t.Run("testGetAll", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAll(ctx, query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, charity.ErrCharityNotFound, err)

		var expected []*charity.Record
		for i := 0; i < 5; i++ {
			record := newRecord(fmt.Sprintf("charity%d", i), "authority", fmt.Sprintf("name%d", i))
			require.NoError(t, s.Save(ctx, record))
			expected = append(expected, record)
		}

		actual, err := s.GetAll(ctx, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 5)

		actual, err = s.GetAll(ctx, query.EmptyCursor, 2, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "charity4", actual[0].Address)
		assert.Equal(t, "charity3", actual[1].Address)

		actual, err = s.GetAll(ctx, query.ToCursor(expected[1].Id), 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "charity2", actual[0].Address)

		actual, err = s.GetAll(ctx, query.ToCursor(expected[4].Id), 10, query.Ascending)
		assert.Equal(t, charity.ErrCharityNotFound, err)
		assert.Nil(t, actual)
	})
}

func newRecord(address, authority, name string) *charity.Record {
	now := time.Now()
	return &charity.Record{
		Address:     address,
		Vault:       "vault-" + address,
		Authority:   authority,
		Name:        name,
		Description: "description",
		AccountId:   1,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *charity.Record) {
	assert.Equal(t, obj1.Id, obj2.Id)
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Vault, obj2.Vault)
	assert.Equal(t, obj1.Authority, obj2.Authority)
	assert.Equal(t, obj1.Name, obj2.Name)
	assert.Equal(t, obj1.Description, obj2.Description)
	assert.Equal(t, obj1.TotalDonated, obj2.TotalDonated)
	assert.Equal(t, obj1.DonationCount, obj2.DonationCount)
	assert.Equal(t, obj1.Paused, obj2.Paused)
	assert.EqualValues(t, obj1.PayoutRecipient, obj2.PayoutRecipient)
	assert.Equal(t, obj1.AccountId, obj2.AccountId)
	assert.Equal(t, obj1.Version, obj2.Version)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
	assert.Equal(t, obj1.UpdatedAt.Unix(), obj2.UpdatedAt.Unix())
	if obj1.WithdrawnAt == nil {
		assert.Nil(t, obj2.WithdrawnAt)
	} else {
		require.NotNil(t, obj2.WithdrawnAt)
		assert.Equal(t, obj1.WithdrawnAt.Unix(), obj2.WithdrawnAt.Unix())
	}
}
