package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
)

// ProgramEvent wraps an event emitted by a successfully applied charity
// instruction.
type ProgramEvent struct {
	Id uuid.UUID

	// Signature is the base58 encoded transaction signature, when the
	// instruction arrived as part of a signed transaction.
	Signature string

	// Index is the position of the emitting instruction in its transaction
	Index int

	Event charity_program.Event

	PublishedAt time.Time
}

// AccountUpdate describes the committed state of a single account after a
// transaction has been applied.
type AccountUpdate struct {
	Id uuid.UUID

	Address  string
	Owner    string
	Lamports uint64
	Data     []byte

	// AccountId is the ledger id of the account. It changes when an address
	// is closed and allocated again, while Version restarts.
	AccountId uint64
	Version   uint64

	// Closed is set when the account was deallocated. Lamports and Data are
	// zero valued in that case.
	Closed bool

	PublishedAt time.Time
}

type ProgramEventHandler func(ctx context.Context, event *ProgramEvent)

type AccountUpdateHandler func(ctx context.Context, update *AccountUpdate)

// Publisher publishes program events and account updates. Updates for a
// given account are published in commit order.
type Publisher interface {
	PublishProgramEvent(ctx context.Context, event *ProgramEvent) error
	PublishAccountUpdate(ctx context.Context, update *AccountUpdate) error
}

// Subscriber registers handlers for program events and account updates.
// Handlers are invoked synchronously by the publishing goroutine and should
// hand off any blocking work. A handler must not publish or subscribe.
type Subscriber interface {
	SubscribeProgramEvents(handler ProgramEventHandler) error
	UnsubscribeProgramEvents(handler ProgramEventHandler) error

	SubscribeAccountUpdates(handler AccountUpdateHandler) error
	UnsubscribeAccountUpdates(handler AccountUpdateHandler) error
}
