package app

import (
	"context"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
	"github.com/code-payments/charity-server/pkg/testutil"
)

func newTestApp(t *testing.T, configure func(config *BaseConfig)) *App {
	config := defaultConfig
	config.ShutdownGracePeriod = 5 * time.Second
	if configure != nil {
		configure(&config)
	}

	a, err := New(context.Background(), &config, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestApp_RunIndexesCharities(t *testing.T) {
	a := newTestApp(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- a.Run(ctx)
	}()

	address := createCharity(t, a, "Alpha")
	require.Eventually(t, func() bool {
		_, err := a.Data.GetCharityByAddress(context.Background(), base58.Encode(address))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app didn't stop")
	}
}

func TestApp_ScheduledReconcile(t *testing.T) {
	a := newTestApp(t, func(config *BaseConfig) {
		config.ReconcileSchedule = ""
	})

	// Nothing is subscribed, so only reconciliation can index it
	address := createCharity(t, a, "Alpha")
	_, err := a.Data.GetCharityByAddress(context.Background(), base58.Encode(address))
	require.Equal(t, charity.ErrCharityNotFound, err)

	a.scheduledReconcile(context.Background())

	record, err := a.Data.GetCharityByAddress(context.Background(), base58.Encode(address))
	require.NoError(t, err)
	assert.Equal(t, "Alpha", record.Name)
}

func TestApp_BadgerStorage(t *testing.T) {
	path := t.TempDir()

	a := newTestApp(t, func(config *BaseConfig) {
		config.Storage = StorageBadger
		config.BadgerPath = path
	})
	address := createCharity(t, a, "Alpha")
	a.Close()

	// The ledger survives a restart, and the indexes are rebuilt from it
	restarted := newTestApp(t, func(config *BaseConfig) {
		config.Storage = StorageBadger
		config.BadgerPath = path
	})

	_, err := restarted.Data.GetLedgerAccount(context.Background(), base58.Encode(address))
	require.NoError(t, err)

	require.NoError(t, restarted.Indexer.Reconcile(context.Background()))
	_, err = restarted.Data.GetCharityByAddress(context.Background(), base58.Encode(address))
	assert.NoError(t, err)
}

func createCharity(t *testing.T, a *App, name string) ed25519.PublicKey {
	ctx := context.Background()

	wallet := testutil.NewFundedWallet(t, a.Data, 10_000_000_000)
	authority, authorityPrivate := wallet.Public, wallet.Private

	address, _, err := charity_program.GetCharityAddress(&charity_program.GetCharityAddressArgs{
		Authority: authority,
		Name:      name,
	})
	require.NoError(t, err)

	vault, _, err := charity_program.GetVaultAddress(&charity_program.GetVaultAddressArgs{
		Charity: address,
	})
	require.NoError(t, err)

	txn := solana.NewTransaction(authority, charity_program.NewCreateCharityInstruction(
		&charity_program.CreateCharityInstructionAccounts{
			Authority: authority,
			Charity:   address,
			Vault:     vault,
		},
		&charity_program.CreateCharityInstructionArgs{
			Name:        name,
			Description: "description",
		},
	))
	require.NoError(t, txn.Sign(authorityPrivate))

	_, err = a.Processor.SubmitTransaction(ctx, txn)
	require.NoError(t, err)

	return address
}

func TestMain_RunsUntilCancelled(t *testing.T) {
	logger := logrus.StandardLogger()
	out, formatter, level := logger.Out, logger.Formatter, logger.Level
	t.Cleanup(func() {
		logrus.SetOutput(out)
		logrus.SetFormatter(formatter)
		logrus.SetLevel(level)
	})

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage: badger
badger_path: `+filepath.Join(t.TempDir(), "ledger")+`
log_level: error
reconcile_schedule: "@every 1s"
`), 0600))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, Main(ctx, path))
	assert.Equal(t, logrus.ErrorLevel, logger.Level)
}

func TestMain_InvalidConfig(t *testing.T) {
	t.Setenv("STORAGE", "floppy")
	assert.Error(t, Main(context.Background(), ""))
}
