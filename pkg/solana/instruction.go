package solana

import (
	"bytes"
	"cmp"
	"crypto/ed25519"
	"errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta describes how an instruction touches an account.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta returns a writable account reference.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns a read-only account reference.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner}
}

// merge widens m to cover the privileges requested by other. Privileges are
// never narrowed.
func (m *AccountMeta) merge(other AccountMeta) {
	m.IsSigner = m.IsSigner || other.IsSigner
	m.IsWritable = m.IsWritable || other.IsWritable
	m.isPayer = m.isPayer || other.isPayer
}

// rank places the fee payer first and invoked programs last. In between,
// signers precede non-signers and writable accounts precede read-only ones.
//
// Reference: https://docs.solana.com/developing/programming-model/transactions#account-addresses-format
func (m AccountMeta) rank() int {
	if m.isPayer {
		return 0
	}

	r := 1
	if m.isProgram {
		r += 4
	}
	if !m.IsSigner {
		r += 2
	}
	if !m.IsWritable {
		r++
	}
	return r
}

func compareAccountMeta(a, b AccountMeta) int {
	if c := cmp.Compare(a.rank(), b.rank()); c != 0 {
		return c
	}
	return bytes.Compare(a.PublicKey, b.PublicKey)
}

// accountSet collects account references in first-seen order, merging
// privileges for keys that appear more than once.
type accountSet struct {
	metas []AccountMeta
	index map[string]int
}

func newAccountSet() *accountSet {
	return &accountSet{index: make(map[string]int)}
}

func (s *accountSet) add(meta AccountMeta) {
	if i, ok := s.index[string(meta.PublicKey)]; ok {
		s.metas[i].merge(meta)
		return
	}

	s.index[string(meta.PublicKey)] = len(s.metas)
	s.metas = append(s.metas, meta)
}

// Instruction is a single program invocation with its account references
// resolved to public keys.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction references its program and accounts by their index in
// the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
