package charity

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
)

// account is the in flight state of a ledger account while a transaction is
// being applied
type account struct {
	address ed25519.PublicKey
	key     string

	owner    ed25519.PublicKey
	lamports uint64
	data     []byte

	// record is the committed state the account was loaded from, or nil when
	// the account did not exist
	record *ledger.Record
}

func (a *account) isOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.owner, program)
}

func (a *account) isSystemAccount() bool {
	return a.isOwnedBy(charity_program.SYSTEM_PROGRAM_ID) && len(a.data) == 0
}

func (a *account) isInitialized() bool {
	return a.lamports > 0 || len(a.data) > 0
}

func (a *account) close() {
	a.lamports = 0
	a.data = nil
	a.owner = charity_program.SYSTEM_PROGRAM_ID
}

type accountState struct {
	owner    ed25519.PublicKey
	lamports uint64
	data     []byte
}

func (a *account) state() accountState {
	var data []byte
	if a.data != nil {
		data = make([]byte, len(a.data))
		copy(data, a.data)
	}

	return accountState{
		owner:    a.owner,
		lamports: a.lamports,
		data:     data,
	}
}

func (s accountState) matches(a *account) bool {
	return bytes.Equal(s.owner, a.owner) && s.lamports == a.lamports && bytes.Equal(s.data, a.data)
}

// workingSet holds every account referenced by a transaction. Nothing is
// written back to the ledger until the whole transaction has succeeded.
type workingSet struct {
	byKey map[string]*account
	keys  []string
}

func loadWorkingSet(ctx context.Context, data code_data.DatabaseData, keys []string) (*workingSet, error) {
	ws := &workingSet{
		byKey: make(map[string]*account, len(keys)),
	}

	for _, key := range uniqueSorted(keys) {
		address, err := base58.Decode(key)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid account address %s", key)
		}

		loaded := &account{
			address: address,
			key:     key,
			owner:   charity_program.SYSTEM_PROGRAM_ID,
		}

		record, err := data.GetLedgerAccount(ctx, key)
		switch err {
		case nil:
			owner, err := base58.Decode(record.Owner)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid owner for account %s", key)
			}

			loaded.owner = owner
			loaded.lamports = record.Lamports
			loaded.data = record.Data
			loaded.record = record
		case ledger.ErrAccountNotFound:
		default:
			return nil, errors.Wrapf(err, "error loading account %s", key)
		}

		ws.byKey[key] = loaded
		ws.keys = append(ws.keys, key)
	}

	return ws, nil
}

func (ws *workingSet) get(address ed25519.PublicKey) (*account, error) {
	a, ok := ws.byKey[base58.Encode(address)]
	if !ok {
		return nil, charity_program.ErrNotEnoughAccountKeys
	}
	return a, nil
}

func (ws *workingSet) snapshot() map[string]accountState {
	res := make(map[string]accountState, len(ws.keys))
	for _, key := range ws.keys {
		res[key] = ws.byKey[key].state()
	}
	return res
}

// modifiedSince returns accounts whose state differs from the snapshot, in
// address order
func (ws *workingSet) modifiedSince(snapshot map[string]accountState) []*account {
	var res []*account
	for _, key := range ws.keys {
		a := ws.byKey[key]
		if !snapshot[key].matches(a) {
			res = append(res, a)
		}
	}
	return res
}

// changes converts every account modified since the snapshot into a ledger
// change. Accounts left without lamports are closed.
func (ws *workingSet) changes(snapshot map[string]accountState) []*ledger.Change {
	var res []*ledger.Change
	for _, a := range ws.modifiedSince(snapshot) {
		closed := a.lamports == 0

		switch {
		case a.record == nil && closed:
			continue
		case a.record == nil:
			res = append(res, ledger.NewCreate(&ledger.Record{
				Address:  a.key,
				Owner:    base58.Encode(a.owner),
				Lamports: a.lamports,
				Data:     a.data,
			}))
		case closed:
			record := a.record.Clone()
			record.Owner = base58.Encode(charity_program.SYSTEM_PROGRAM_ID)
			record.Lamports = 0
			record.Data = nil
			res = append(res, ledger.NewClose(&record))
		default:
			record := a.record.Clone()
			record.Owner = base58.Encode(a.owner)
			record.Lamports = a.lamports
			record.Data = a.data
			res = append(res, ledger.NewUpdate(&record))
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Record.Address < res[j].Record.Address
	})
	return res
}

func transferLamports(from, to *account, amount uint64) error {
	if from == to {
		return nil
	}
	if from.lamports < amount {
		return ErrInsufficientLamports
	}
	if to.lamports > math.MaxUint64-amount {
		return ErrArithmeticOverflowInTransfer
	}

	from.lamports -= amount
	to.lamports += amount
	return nil
}
