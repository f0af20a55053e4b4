package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/charity-server/pkg/solana/shortvec"
)

// Marshal returns the wire encoding of the transaction. Lengths beyond the
// shortvec range are not representable on the wire and are not expected here.
func (t Transaction) Marshal() []byte {
	message := t.Message.Marshal()

	out := make([]byte, 0, shortvec.MaxLen+len(t.Signatures)*ed25519.SignatureSize+len(message))
	out, _ = shortvec.AppendLen(out, len(t.Signatures))
	for _, sig := range t.Signatures {
		out = append(out, sig[:]...)
	}
	return append(out, message...)
}

// ToBase64 is the wire encoding wallets expect for an unsigned transaction
// handed over for approval.
func (t Transaction) ToBase64() string {
	return base64.StdEncoding.EncodeToString(t.Marshal())
}

func (t *Transaction) Unmarshal(b []byte) error {
	d := &decoder{b: b}

	t.Signatures = make([]Signature, d.readLen("signature count"))
	for i := range t.Signatures {
		d.read(t.Signatures[i][:], "signature")
	}
	if d.err != nil {
		return d.err
	}

	return t.Message.Unmarshal(d.b)
}

func (m Message) Marshal() []byte {
	out := []byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly}

	out, _ = shortvec.AppendLen(out, len(m.Accounts))
	for _, account := range m.Accounts {
		out = append(out, account...)
	}

	out = append(out, m.RecentBlockhash[:]...)

	out, _ = shortvec.AppendLen(out, len(m.Instructions))
	for _, ix := range m.Instructions {
		out = append(out, ix.ProgramIndex)
		out, _ = shortvec.AppendLen(out, len(ix.Accounts))
		out = append(out, ix.Accounts...)
		out, _ = shortvec.AppendLen(out, len(ix.Data))
		out = append(out, ix.Data...)
	}

	return out
}

// Unmarshal decodes a legacy message. Versioned messages are rejected.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	d := &decoder{b: b}
	m.Header = Header{
		NumSignatures:     d.readByte("header"),
		NumReadonlySigned: d.readByte("header"),
		NumReadOnly:       d.readByte("header"),
	}

	m.Accounts = make([]ed25519.PublicKey, d.readLen("account count"))
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		d.read(m.Accounts[i], "account")
	}

	d.read(m.RecentBlockhash[:], "recent blockhash")

	m.Instructions = make([]CompiledInstruction, d.readLen("instruction count"))
	for i := range m.Instructions {
		ix := &m.Instructions[i]
		ix.ProgramIndex = d.readByte("program index")
		ix.Accounts = d.readSlice(d.readLen("instruction account count"), "instruction accounts")
		ix.Data = d.readSlice(d.readLen("instruction data length"), "instruction data")
		if d.err != nil {
			return errors.Wrapf(d.err, "instruction %d", i)
		}

		if _, err := m.account(ix.ProgramIndex); err != nil {
			return errors.Wrapf(err, "instruction %d program", i)
		}
		for _, index := range ix.Accounts {
			if _, err := m.account(index); err != nil {
				return errors.Wrapf(err, "instruction %d account", i)
			}
		}
	}

	return d.err
}

// decoder walks a wire buffer. The first failure sticks and later reads
// return zero values.
type decoder struct {
	b   []byte
	err error
}

func (d *decoder) fail(what string) {
	if d.err == nil {
		d.err = errors.Wrapf(io.ErrUnexpectedEOF, "failed to read %s", what)
	}
}

func (d *decoder) readByte(what string) byte {
	if d.err != nil || len(d.b) < 1 {
		d.fail(what)
		return 0
	}

	v := d.b[0]
	d.b = d.b[1:]
	return v
}

func (d *decoder) readLen(what string) int {
	if d.err != nil {
		return 0
	}

	n, size, err := shortvec.ConsumeLen(d.b)
	if err != nil {
		d.err = errors.Wrapf(err, "failed to read %s", what)
		return 0
	}

	d.b = d.b[size:]
	return n
}

func (d *decoder) read(dst []byte, what string) {
	if d.err != nil || len(d.b) < len(dst) {
		d.fail(what)
		return
	}

	copy(dst, d.b)
	d.b = d.b[len(dst):]
}

func (d *decoder) readSlice(n int, what string) []byte {
	out := make([]byte, n)
	d.read(out, what)
	return out
}
