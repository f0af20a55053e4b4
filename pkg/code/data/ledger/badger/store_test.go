package badger

import (
	"testing"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/code/data/ledger/tests"
)

func TestLedgerBadgerStore(t *testing.T) {
	db, err := badgerdb.Open(badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	testStore, err := New(db)
	require.NoError(t, err)
	defer testStore.(*store).Close()

	teardown := func() {
		require.NoError(t, testStore.(*store).reset())
	}
	tests.RunTests(t, testStore, teardown)
}
