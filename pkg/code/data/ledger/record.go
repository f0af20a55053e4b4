package ledger

import (
	"errors"
	"time"
)

// Record is the durable state of a single account
type Record struct {
	Id uint64

	Address  string
	Owner    string
	Lamports uint64
	Data     []byte

	// Version is incremented on every committed write and is used for
	// optimistic concurrency checks.
	Version uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	var data []byte
	if r.Data != nil {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Record{
		Id: r.Id,

		Address:  r.Address,
		Owner:    r.Owner,
		Lamports: r.Lamports,
		Data:     data,

		Version: r.Version,

		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Owner = r.Owner
	dst.Lamports = r.Lamports
	dst.Data = nil
	if r.Data != nil {
		dst.Data = make([]byte, len(r.Data))
		copy(dst.Data, r.Data)
	}

	dst.Version = r.Version

	dst.CreatedAt = r.CreatedAt
	dst.UpdatedAt = r.UpdatedAt
}

type ChangeType uint8

const (
	ChangeTypeUnknown ChangeType = iota
	ChangeTypeCreate
	ChangeTypeUpdate
	ChangeTypeClose
)

// Change is a single write applied as part of a Commit
type Change struct {
	Type   ChangeType
	Record *Record
}

func NewCreate(record *Record) *Change {
	return &Change{Type: ChangeTypeCreate, Record: record}
}

func NewUpdate(record *Record) *Change {
	return &Change{Type: ChangeTypeUpdate, Record: record}
}

func NewClose(record *Record) *Change {
	return &Change{Type: ChangeTypeClose, Record: record}
}

func (c *Change) Validate() error {
	if c.Record == nil {
		return errors.New("record is required")
	}

	switch c.Type {
	case ChangeTypeCreate:
		if c.Record.Version != 0 {
			return errors.New("created records cannot have a version")
		}
	case ChangeTypeUpdate, ChangeTypeClose:
		if c.Record.Version == 0 {
			return errors.New("version is required")
		}
	default:
		return errors.New("invalid change type")
	}

	return c.Record.Validate()
}

// ValidateChanges checks every change and rejects batches that touch the same
// address more than once.
func ValidateChanges(changes []*Change) error {
	if len(changes) == 0 {
		return errors.New("at least one change is required")
	}

	seen := make(map[string]struct{})
	for _, change := range changes {
		if err := change.Validate(); err != nil {
			return err
		}

		if _, ok := seen[change.Record.Address]; ok {
			return errors.New("duplicate address in change set")
		}
		seen[change.Record.Address] = struct{}{}
	}

	return nil
}

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeCreate:
		return "create"
	case ChangeTypeUpdate:
		return "update"
	case ChangeTypeClose:
		return "close"
	}
	return "unknown"
}
