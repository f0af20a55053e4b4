package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"slices"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// MaxTransactionSize is the largest serialized transaction a validator will
// accept, bounded by the network packet size.
const MaxTransactionSize = 1232

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

// Header partitions the message account list into signed and unsigned
// regions, each with a trailing read-only section.
type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

func (h *Header) count(meta AccountMeta) {
	switch {
	case meta.IsSigner:
		h.NumSignatures++
		if !meta.IsWritable {
			h.NumReadonlySigned++
		}
	case !meta.IsWritable:
		h.NumReadOnly++
	}
}

type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into an unsigned legacy
// transaction paid for by payer.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	set := newAccountSet()
	set.add(AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true, isPayer: true})
	for _, ix := range instructions {
		set.add(AccountMeta{PublicKey: ix.Program, isProgram: true})
		for _, account := range ix.Accounts {
			set.add(account)
		}
	}

	metas := set.metas
	slices.SortFunc(metas, compareAccountMeta)

	var m Message
	positions := make(map[string]byte, len(metas))
	for i, meta := range metas {
		key := meta.PublicKey
		if len(key) == 0 {
			key = make(ed25519.PublicKey, ed25519.PublicKeySize)
		}

		m.Accounts = append(m.Accounts, key)
		m.Header.count(meta)
		positions[string(meta.PublicKey)] = byte(i)
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: positions[string(ix.Program)],
			Data:         ix.Data,
		}
		for _, account := range ix.Accounts {
			compiled.Accounts = append(compiled.Accounts, positions[string(account.PublicKey)])
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature is the fee payer signature, which identifies the transaction.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

// FeePayer is the first static account of the message.
func (t *Transaction) FeePayer() ed25519.PublicKey {
	if len(t.Message.Accounts) == 0 {
		return nil
	}
	return t.Message.Accounts[0]
}

// Signers returns the accounts required to sign the message, in order.
func (t *Transaction) Signers() []ed25519.PublicKey {
	n := min(int(t.Message.Header.NumSignatures), len(t.Message.Accounts))
	return t.Message.Accounts[:n]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign places a signature from each key into the slot of its account. Keys
// may be supplied in any order.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	message := t.Message.Marshal()

	for _, key := range signers {
		pub := key.Public().(ed25519.PublicKey)

		slot := slices.IndexFunc(t.Message.Accounts, func(account ed25519.PublicKey) bool {
			return bytes.Equal(account, pub)
		})
		switch {
		case slot < 0:
			return errors.Errorf("%s is not an account of the transaction", base58.Encode(pub))
		case slot >= len(t.Signatures):
			return errors.Errorf("%s is not a signer of the transaction", base58.Encode(pub))
		}

		copy(t.Signatures[slot][:], ed25519.Sign(key, message))
	}

	return nil
}

// VerifySignatures checks that every required signer has produced a valid
// signature over the message.
func (t *Transaction) VerifySignatures() error {
	signers := t.Signers()
	if len(t.Signatures) != len(signers) {
		return errors.Wrapf(ErrMissingSignature, "expected %d signatures, got %d", len(signers), len(t.Signatures))
	}

	message := t.Message.Marshal()
	for i, signer := range signers {
		if t.Signatures[i] == (Signature{}) {
			return errors.Wrapf(ErrMissingSignature, "signer %s", base58.Encode(signer))
		}
		if !ed25519.Verify(signer, message, t.Signatures[i][:]) {
			return errors.Wrapf(ErrInvalidSignature, "signer %s", base58.Encode(signer))
		}
	}

	return nil
}

// DecompileInstructions expands the compiled instructions back into their
// account-keyed form, restoring signer and writable flags from the header.
func (m Message) DecompileInstructions() ([]Instruction, error) {
	instructions := make([]Instruction, 0, len(m.Instructions))
	for i, compiled := range m.Instructions {
		program, err := m.account(compiled.ProgramIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d program", i)
		}

		ix := Instruction{Program: program, Data: compiled.Data}
		for _, index := range compiled.Accounts {
			key, err := m.account(index)
			if err != nil {
				return nil, errors.Wrapf(err, "instruction %d account", i)
			}

			ix.Accounts = append(ix.Accounts, AccountMeta{
				PublicKey:  key,
				IsSigner:   m.IsSigner(int(index)),
				IsWritable: m.IsWritable(int(index)),
			})
		}

		instructions = append(instructions, ix)
	}

	return instructions, nil
}

func (m Message) account(index byte) (ed25519.PublicKey, error) {
	if int(index) >= len(m.Accounts) {
		return nil, errors.Errorf("index %d out of range for %d accounts", index, len(m.Accounts))
	}
	return m.Accounts[index], nil
}

// IsSigner reports whether the account at the given index must sign.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at the given index is writable.
func (m Message) IsWritable(index int) bool {
	signed := int(m.Header.NumSignatures)
	if index < signed {
		return index < signed-int(m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}
