package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/database/query"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testRoundTrip,
		testUpdateAndClose,
		testAtomicCommit,
		testGetAllByOwner,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		actual, err := s.Get(ctx, "charity")
		assert.Equal(t, ledger.ErrAccountNotFound, err)
		assert.Nil(t, actual)

		expected := &ledger.Record{
			Address:  "charity",
			Owner:    "program",
			Lamports: 2_000_000,
			Data:     []byte{1, 2, 3},
		}
		require.NoError(t, s.Commit(ctx, ledger.NewCreate(expected)))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 1, expected.Version)
		assert.False(t, expected.CreatedAt.IsZero())
		assert.False(t, expected.UpdatedAt.IsZero())

		actual, err = s.Get(ctx, "charity")
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)

		// Mutating the returned record doesn't affect the store
		actual.Data[0] = 0xff
		actual, err = s.Get(ctx, "charity")
		require.NoError(t, err)
		assert.EqualValues(t, 1, actual.Data[0])

		// Duplicate allocation fails
		duplicate := &ledger.Record{
			Address: "charity",
			Owner:   "program",
		}
		assert.Equal(t, ledger.ErrAccountExists, s.Commit(ctx, ledger.NewCreate(duplicate)))

		// Accounts without data are supported
		wallet := &ledger.Record{
			Address:  "wallet",
			Owner:    "system",
			Lamports: 1,
		}
		require.NoError(t, s.Commit(ctx, ledger.NewCreate(wallet)))

		actual, err = s.Get(ctx, "wallet")
		require.NoError(t, err)
		assert.Empty(t, actual.Data)
		assert.EqualValues(t, 1, actual.Lamports)
	})
}

func testUpdateAndClose(t *testing.T, s ledger.Store) {
	t.Run("testUpdateAndClose", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address:  "charity",
			Owner:    "program",
			Lamports: 100,
			Data:     []byte{1},
		}

		missing := record.Clone()
		missing.Version = 1
		assert.Equal(t, ledger.ErrAccountNotFound, s.Commit(ctx, ledger.NewUpdate(&missing)))
		assert.Equal(t, ledger.ErrAccountNotFound, s.Commit(ctx, ledger.NewClose(&missing)))

		require.NoError(t, s.Commit(ctx, ledger.NewCreate(record)))
		createdAt := record.CreatedAt

		stale := record.Clone()

		record.Lamports = 200
		record.Data = []byte{2, 2}
		require.NoError(t, s.Commit(ctx, ledger.NewUpdate(record)))
		assert.EqualValues(t, 2, record.Version)
		assert.Equal(t, createdAt.Unix(), record.CreatedAt.Unix())

		actual, err := s.Get(ctx, "charity")
		require.NoError(t, err)
		assertEquivalentRecords(t, record, actual)

		// Writing with an outdated version fails
		stale.Lamports = 1
		assert.Equal(t, ledger.ErrStaleVersion, s.Commit(ctx, ledger.NewUpdate(&stale)))
		assert.Equal(t, ledger.ErrStaleVersion, s.Commit(ctx, ledger.NewClose(&stale)))

		actual, err = s.Get(ctx, "charity")
		require.NoError(t, err)
		assert.EqualValues(t, 200, actual.Lamports)

		require.NoError(t, s.Commit(ctx, ledger.NewClose(record)))

		_, err = s.Get(ctx, "charity")
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		// The address can be reused after closing
		reused := &ledger.Record{
			Address: "charity",
			Owner:   "program",
		}
		require.NoError(t, s.Commit(ctx, ledger.NewCreate(reused)))
		assert.EqualValues(t, 1, reused.Version)
	})
}

func testAtomicCommit(t *testing.T, s ledger.Store) {
	t.Run("testAtomicCommit", func(t *testing.T) {
		ctx := context.Background()

		source := &ledger.Record{Address: "source", Owner: "system", Lamports: 100}
		destination := &ledger.Record{Address: "destination", Owner: "system", Lamports: 0}
		require.NoError(t, s.Commit(ctx, ledger.NewCreate(source), ledger.NewCreate(destination)))

		// The second change fails, so the first must not be applied
		source.Lamports = 50
		conflicting := &ledger.Record{Address: "destination", Owner: "system"}
		assert.Equal(t, ledger.ErrAccountExists, s.Commit(ctx, ledger.NewUpdate(source), ledger.NewCreate(conflicting)))

		actual, err := s.Get(ctx, "source")
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.Lamports)
		assert.EqualValues(t, 1, actual.Version)

		// Duplicate addresses within a batch are rejected
		assert.Error(t, s.Commit(ctx, ledger.NewUpdate(actual), ledger.NewClose(actual)))

		// Invalid change sets are rejected
		assert.Error(t, s.Commit(ctx))
		assert.Error(t, s.Commit(ctx, &ledger.Change{Type: ledger.ChangeTypeUnknown, Record: actual}))
		assert.Error(t, s.Commit(ctx, ledger.NewCreate(&ledger.Record{Address: "a"})))

		// A valid multi-account transfer applies together
		source, err = s.Get(ctx, "source")
		require.NoError(t, err)
		destination, err = s.Get(ctx, "destination")
		require.NoError(t, err)

		source.Lamports -= 40
		destination.Lamports += 40
		require.NoError(t, s.Commit(ctx, ledger.NewUpdate(source), ledger.NewUpdate(destination)))

		actual, err = s.Get(ctx, "source")
		require.NoError(t, err)
		assert.EqualValues(t, 60, actual.Lamports)

		actual, err = s.Get(ctx, "destination")
		require.NoError(t, err)
		assert.EqualValues(t, 40, actual.Lamports)
	})
}

func testGetAllByOwner(t *testing.T, s ledger.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByOwner(ctx, "program", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		var expected []*ledger.Record
		for i := 0; i < 5; i++ {
			record := &ledger.Record{
				Address: fmt.Sprintf("account%d", i),
				Owner:   "program",
			}
			require.NoError(t, s.Commit(ctx, ledger.NewCreate(record)))
			expected = append(expected, record)
		}
		require.NoError(t, s.Commit(ctx, ledger.NewCreate(&ledger.Record{Address: "other", Owner: "system"})))

		actual, err := s.GetAllByOwner(ctx, "program", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		for i := range actual {
			assert.Equal(t, expected[i].Address, actual[i].Address)
		}

		actual, err = s.GetAllByOwner(ctx, "program", query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 5)
		for i := range actual {
			assert.Equal(t, expected[4-i].Address, actual[i].Address)
		}

		actual, err = s.GetAllByOwner(ctx, "program", query.EmptyCursor, 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "account0", actual[0].Address)
		assert.Equal(t, "account1", actual[1].Address)

		actual, err = s.GetAllByOwner(ctx, "program", query.ToCursor(actual[1].Id), 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "account2", actual[0].Address)

		actual, err = s.GetAllByOwner(ctx, "program", query.ToCursor(expected[2].Id), 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "account1", actual[0].Address)
		assert.Equal(t, "account0", actual[1].Address)

		// Closed accounts drop out of the owner listing
		require.NoError(t, s.Commit(ctx, ledger.NewClose(expected[0])))
		actual, err = s.GetAllByOwner(ctx, "program", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 4)
		assert.Equal(t, "account1", actual[0].Address)

		// Ownership changes move accounts between listings
		expected[1].Owner = "system"
		require.NoError(t, s.Commit(ctx, ledger.NewUpdate(expected[1])))
		actual, err = s.GetAllByOwner(ctx, "system", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *ledger.Record) {
	assert.Equal(t, obj1.Id, obj2.Id)
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, obj1.Data, obj2.Data)
	assert.Equal(t, obj1.Version, obj2.Version)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
	assert.Equal(t, obj1.UpdatedAt.Unix(), obj2.UpdatedAt.Unix())
}
