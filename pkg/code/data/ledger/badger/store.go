package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/database/query"
)

var (
	accountPrefix  = []byte("ledger/account/")
	ownerPrefix    = []byte("ledger/owner/")
	sequenceKey    = []byte("ledger/sequence")
	sequenceLeases = uint64(100)
)

type store struct {
	db  *badgerdb.DB
	seq *badgerdb.Sequence
}

type value struct {
	Id        uint64    `json:"id"`
	Owner     string    `json:"owner"`
	Lamports  uint64    `json:"lamports"`
	Data      []byte    `json:"data"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a new badger ledger.Store. Closing the provided DB is the
// responsibility of the caller, after calling Close on the store.
func New(db *badgerdb.DB) (ledger.Store, error) {
	seq, err := db.GetSequence(sequenceKey, sequenceLeases)
	if err != nil {
		return nil, errors.Wrap(err, "error getting id sequence")
	}

	return &store{
		db:  db,
		seq: seq,
	}, nil
}

// Close releases the leased id range
func (s *store) Close() error {
	return s.seq.Release()
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Record, error) {
	var res *ledger.Record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		res, err = getRecord(txn, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Record, error) {
	var res []*ledger.Record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		prefix := ownerIndexPrefix(owner)

		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = direction == query.Descending

		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if opts.Reverse {
			seek = append(append([]byte{}, prefix...), 0xff)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && uint64(len(res)) >= limit {
				break
			}

			key := it.Item().Key()
			id := binary.BigEndian.Uint64(key[len(prefix):])
			if len(cursor) > 0 {
				if direction == query.Ascending && id <= cursor.ToUint64() {
					continue
				}
				if direction == query.Descending && id >= cursor.ToUint64() {
					continue
				}
			}

			address, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			record, err := getRecord(txn, string(address))
			if err != nil {
				return err
			}
			res = append(res, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(_ context.Context, changes ...*ledger.Change) error {
	if err := ledger.ValidateChanges(changes); err != nil {
		return err
	}

	now := time.Now()
	updated := make([]ledger.Record, len(changes))

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		for i, change := range changes {
			record := change.Record.Clone()

			existing, err := getRecord(txn, record.Address)
			switch {
			case err == ledger.ErrAccountNotFound && change.Type == ledger.ChangeTypeCreate:
			case err == nil && change.Type == ledger.ChangeTypeCreate:
				return ledger.ErrAccountExists
			case err != nil:
				return err
			case existing.Version != record.Version:
				return ledger.ErrStaleVersion
			}

			switch change.Type {
			case ledger.ChangeTypeCreate:
				id, err := s.seq.Next()
				if err != nil {
					return errors.Wrap(err, "error allocating id")
				}

				record.Id = id + 1
				record.Version = 1
				record.CreatedAt = now
				record.UpdatedAt = now

				if err := putRecord(txn, &record); err != nil {
					return err
				}
				if err := txn.Set(ownerIndexKey(record.Owner, record.Id), []byte(record.Address)); err != nil {
					return err
				}
			case ledger.ChangeTypeUpdate:
				record.Id = existing.Id
				record.Version = existing.Version + 1
				record.CreatedAt = existing.CreatedAt
				record.UpdatedAt = now

				if existing.Owner != record.Owner {
					if err := txn.Delete(ownerIndexKey(existing.Owner, existing.Id)); err != nil {
						return err
					}
					if err := txn.Set(ownerIndexKey(record.Owner, record.Id), []byte(record.Address)); err != nil {
						return err
					}
				}

				if err := putRecord(txn, &record); err != nil {
					return err
				}
			case ledger.ChangeTypeClose:
				if err := txn.Delete(accountKey(record.Address)); err != nil {
					return err
				}
				if err := txn.Delete(ownerIndexKey(existing.Owner, existing.Id)); err != nil {
					return err
				}
			}

			updated[i] = record
		}
		return nil
	})
	if err == badgerdb.ErrConflict {
		return ledger.ErrStaleVersion
	} else if err != nil {
		return err
	}

	for i, change := range changes {
		if change.Type == ledger.ChangeTypeClose {
			continue
		}
		updated[i].CopyTo(change.Record)
	}
	return nil
}

func (s *store) reset() error {
	return s.db.DropPrefix(accountPrefix, ownerPrefix)
}

func getRecord(txn *badgerdb.Txn, address string) (*ledger.Record, error) {
	item, err := txn.Get(accountKey(address))
	if err == badgerdb.ErrKeyNotFound {
		return nil, ledger.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	var v value
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(err, "error decoding account")
	}

	return &ledger.Record{
		Id:        v.Id,
		Address:   address,
		Owner:     v.Owner,
		Lamports:  v.Lamports,
		Data:      v.Data,
		Version:   v.Version,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}, nil
}

func putRecord(txn *badgerdb.Txn, record *ledger.Record) error {
	raw, err := json.Marshal(&value{
		Id:        record.Id,
		Owner:     record.Owner,
		Lamports:  record.Lamports,
		Data:      record.Data,
		Version:   record.Version,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "error encoding account")
	}
	return txn.Set(accountKey(record.Address), raw)
}

func accountKey(address string) []byte {
	return append(append([]byte{}, accountPrefix...), address...)
}

func ownerIndexPrefix(owner string) []byte {
	var b bytes.Buffer
	b.Write(ownerPrefix)
	b.WriteString(owner)
	b.WriteByte('/')
	return b.Bytes()
}

func ownerIndexKey(owner string, id uint64) []byte {
	key := ownerIndexPrefix(owner)
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], id)
	return append(key, idBytes[:]...)
}
