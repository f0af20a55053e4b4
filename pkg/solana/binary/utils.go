package binary

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// Borsh style little endian helpers. Every function advances offset by the
// number of bytes it consumed or produced.

var (
	ErrUnexpectedEOF  = errors.New("unexpected end of data")
	ErrInvalidOption  = errors.New("invalid option tag")
	ErrInvalidBool    = errors.New("invalid bool value")
	ErrInvalidUTF8    = errors.New("invalid utf-8 string")
	ErrStringTooLarge = errors.New("string exceeds maximum length")
)

const (
	OptionSize = 1

	optionNone uint8 = 0
	optionSome uint8 = 1
)

// StringSize is the encoded size of a string with the provided maximum length.
func StringSize(maxLen int) int {
	return 4 + maxLen
}

func PutDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += len(v)
}
func GetDiscriminator(src []byte, dst *[]byte, offset *int) error {
	if err := ensure(src, *offset, 8); err != nil {
		return err
	}
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
	return nil
}

func PutKey(dst []byte, v ed25519.PublicKey, offset *int) {
	copy(dst[*offset:], v)
	*offset += ed25519.PublicKeySize
}
func GetKey(src []byte, dst *ed25519.PublicKey, offset *int) error {
	if err := ensure(src, *offset, ed25519.PublicKeySize); err != nil {
		return err
	}
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
	return nil
}

func PutOptionalKey(dst []byte, v ed25519.PublicKey, offset *int) {
	if len(v) == 0 {
		PutUint8(dst, optionNone, offset)
		return
	}
	PutUint8(dst, optionSome, offset)
	PutKey(dst, v, offset)
}
func GetOptionalKey(src []byte, dst *ed25519.PublicKey, offset *int) error {
	var tag uint8
	if err := GetUint8(src, &tag, offset); err != nil {
		return err
	}
	switch tag {
	case optionNone:
		*dst = nil
		return nil
	case optionSome:
		return GetKey(src, dst, offset)
	}
	return ErrInvalidOption
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}
func GetUint8(src []byte, dst *uint8, offset *int) error {
	if err := ensure(src, *offset, 1); err != nil {
		return err
	}
	*dst = src[*offset]
	*offset += 1
	return nil
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		PutUint8(dst, 1, offset)
	} else {
		PutUint8(dst, 0, offset)
	}
}
func GetBool(src []byte, dst *bool, offset *int) error {
	var v uint8
	if err := GetUint8(src, &v, offset); err != nil {
		return err
	}
	switch v {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		return ErrInvalidBool
	}
	return nil
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}
func GetUint32(src []byte, dst *uint32, offset *int) error {
	if err := ensure(src, *offset, 4); err != nil {
		return err
	}
	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
	return nil
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}
func GetUint64(src []byte, dst *uint64, offset *int) error {
	if err := ensure(src, *offset, 8); err != nil {
		return err
	}
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
	return nil
}

func PutInt64(dst []byte, v int64, offset *int) {
	PutUint64(dst, uint64(v), offset)
}
func GetInt64(src []byte, dst *int64, offset *int) error {
	var v uint64
	if err := GetUint64(src, &v, offset); err != nil {
		return err
	}
	*dst = int64(v)
	return nil
}

func PutOptionalInt64(dst []byte, v *int64, offset *int) {
	if v == nil {
		PutUint8(dst, optionNone, offset)
		return
	}
	PutUint8(dst, optionSome, offset)
	PutInt64(dst, *v, offset)
}
func GetOptionalInt64(src []byte, dst **int64, offset *int) error {
	var tag uint8
	if err := GetUint8(src, &tag, offset); err != nil {
		return err
	}
	switch tag {
	case optionNone:
		*dst = nil
		return nil
	case optionSome:
		var v int64
		if err := GetInt64(src, &v, offset); err != nil {
			return err
		}
		*dst = &v
		return nil
	}
	return ErrInvalidOption
}

// PutString writes a u32 length prefixed string.
func PutString(dst []byte, v string, offset *int) {
	PutUint32(dst, uint32(len(v)), offset)
	copy(dst[*offset:], v)
	*offset += len(v)
}

// GetString reads a u32 length prefixed string of at most maxLen bytes.
func GetString(src []byte, dst *string, maxLen int, offset *int) error {
	var length uint32
	if err := GetUint32(src, &length, offset); err != nil {
		return err
	}
	if int(length) > maxLen {
		return ErrStringTooLarge
	}
	if err := ensure(src, *offset, int(length)); err != nil {
		return err
	}

	raw := src[*offset : *offset+int(length)]
	if !utf8.Valid(raw) {
		return ErrInvalidUTF8
	}

	*dst = string(raw)
	*offset += int(length)
	return nil
}

// GetBytes reads a u32 length prefixed byte string of at most maxLen bytes
// without interpreting its encoding.
func GetBytes(src []byte, dst *[]byte, maxLen int, offset *int) error {
	var length uint32
	if err := GetUint32(src, &length, offset); err != nil {
		return err
	}
	if int(length) > maxLen {
		return ErrStringTooLarge
	}
	if err := ensure(src, *offset, int(length)); err != nil {
		return err
	}

	*dst = make([]byte, length)
	copy(*dst, src[*offset:])
	*offset += int(length)
	return nil
}

func ensure(src []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > len(src) {
		return ErrUnexpectedEOF
	}
	return nil
}
