package charity_program

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/solana"
)

func TestDiscriminators(t *testing.T) {
	for instructionType, discriminator := range instructionDiscriminators {
		h := sha256.Sum256([]byte("global:" + instructionType.String()))
		assert.Equal(t, h[:8], discriminator, instructionType.String())
	}

	for name, discriminator := range map[string][]byte{
		"Charity":  CharityAccountDiscriminator,
		"Donation": DonationAccountDiscriminator,
	} {
		h := sha256.Sum256([]byte("account:" + name))
		assert.Equal(t, h[:8], discriminator, name)
	}

	for name, discriminator := range eventDiscriminators {
		h := sha256.Sum256([]byte("event:" + name))
		assert.Equal(t, h[:8], discriminator, name)
	}
}

func TestCreateCharityInstruction(t *testing.T) {
	accounts := &CreateCharityInstructionAccounts{
		Authority: testAuthority,
		Charity:   mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG"),
		Vault:     mustBase58Decode("2464ZjoeEKDLd6v7P1H1JkyC9SeQbnxouz7LwRV5R9UR"),
	}
	args := &CreateCharityInstructionArgs{
		Name:        "helping-hands",
		Description: "Meals for the shelter",
	}

	ixn := NewCreateCharityInstruction(accounts, args)
	assert.EqualValues(t, PROGRAM_ID, ixn.Program)
	require.Len(t, ixn.Accounts, CreateCharityInstructionAccountsCount)
	assert.True(t, ixn.Accounts[0].IsSigner)
	assert.EqualValues(t, SYSTEM_PROGRAM_ID, ixn.Accounts[3].PublicKey)

	instructionType, err := GetInstructionType(ixn.Data)
	require.NoError(t, err)
	assert.Equal(t, CreateCharityInstruction, instructionType)

	actualArgs, actualAccounts, err := DecompileCreateCharityInstruction(ixn)
	require.NoError(t, err)
	assert.Equal(t, args, actualArgs)
	assert.Equal(t, accounts, actualAccounts)

	// Descriptions are decoded as raw bytes so the program can reject them
	// with its own error.
	ixn.Data[len(ixn.Data)-1] = 0xff
	actualArgs, _, err = DecompileCreateCharityInstruction(ixn)
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), actualArgs.Description[len(actualArgs.Description)-1])
}

func TestUpdateCharityInstruction(t *testing.T) {
	accounts := &UpdateCharityInstructionAccounts{
		Authority: testAuthority,
		Charity:   testDonor,
	}
	args := &UpdateCharityInstructionArgs{Description: "new"}

	actualArgs, actualAccounts, err := DecompileUpdateCharityInstruction(NewUpdateCharityInstruction(accounts, args))
	require.NoError(t, err)
	assert.Equal(t, args, actualArgs)
	assert.Equal(t, accounts, actualAccounts)
}

func TestPauseDonationsInstruction(t *testing.T) {
	accounts := &PauseDonationsInstructionAccounts{
		Authority: testAuthority,
		Charity:   testDonor,
	}

	for _, paused := range []bool{true, false} {
		args := &PauseDonationsInstructionArgs{Paused: paused}
		actualArgs, actualAccounts, err := DecompilePauseDonationsInstruction(NewPauseDonationsInstruction(accounts, args))
		require.NoError(t, err)
		assert.Equal(t, args, actualArgs)
		assert.Equal(t, accounts, actualAccounts)
	}
}

func TestDonateSolInstruction(t *testing.T) {
	accounts := &DonateSolInstructionAccounts{
		Donor:    testDonor,
		Charity:  mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG"),
		Vault:    mustBase58Decode("2464ZjoeEKDLd6v7P1H1JkyC9SeQbnxouz7LwRV5R9UR"),
		Donation: mustBase58Decode("DLnDAX2v89QMgEpkamtdLfft5K8RY1zQqJaE3AThaxwN"),
	}
	args := &DonateSolInstructionArgs{Amount: 10_000_000}

	ixn := NewDonateSolInstruction(accounts, args)
	assert.Len(t, ixn.Data, 8+DonateSolInstructionArgsSize)

	actualArgs, actualAccounts, err := DecompileDonateSolInstruction(ixn)
	require.NoError(t, err)
	assert.Equal(t, args, actualArgs)
	assert.Equal(t, accounts, actualAccounts)
}

func TestSetWithdrawalRecipientInstruction(t *testing.T) {
	accounts := &SetWithdrawalRecipientInstructionAccounts{
		Authority: testAuthority,
		Charity:   testDonor,
	}

	for _, args := range []*SetWithdrawalRecipientInstructionArgs{
		{Recipient: testDonor},
		{Recipient: nil},
	} {
		actualArgs, actualAccounts, err := DecompileSetWithdrawalRecipientInstruction(NewSetWithdrawalRecipientInstruction(accounts, args))
		require.NoError(t, err)
		assert.EqualValues(t, args.Recipient, actualArgs.Recipient)
		assert.Equal(t, accounts, actualAccounts)
	}
}

func TestWithdrawDonationsInstruction(t *testing.T) {
	accounts := &WithdrawDonationsInstructionAccounts{
		Authority: testAuthority,
		Charity:   mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG"),
		Vault:     mustBase58Decode("2464ZjoeEKDLd6v7P1H1JkyC9SeQbnxouz7LwRV5R9UR"),
		Recipient: testDonor,
	}
	args := &WithdrawDonationsInstructionArgs{Amount: 5}

	actualArgs, actualAccounts, err := DecompileWithdrawDonationsInstruction(NewWithdrawDonationsInstruction(accounts, args))
	require.NoError(t, err)
	assert.Equal(t, args, actualArgs)
	assert.Equal(t, accounts, actualAccounts)
}

func TestDeleteCharityInstruction(t *testing.T) {
	accounts := &DeleteCharityInstructionAccounts{
		Authority: testAuthority,
		Charity:   mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG"),
		Vault:     mustBase58Decode("2464ZjoeEKDLd6v7P1H1JkyC9SeQbnxouz7LwRV5R9UR"),
		Recipient: testDonor,
	}

	actualAccounts, err := DecompileDeleteCharityInstruction(NewDeleteCharityInstruction(accounts))
	require.NoError(t, err)
	assert.Equal(t, accounts, actualAccounts)
}

func TestDecompile_Invalid(t *testing.T) {
	valid := NewDonateSolInstruction(&DonateSolInstructionAccounts{
		Donor:    testDonor,
		Charity:  testAuthority,
		Vault:    testAuthority,
		Donation: testAuthority,
	}, &DonateSolInstructionArgs{Amount: 1})

	wrongProgram := valid
	wrongProgram.Program = SYSTEM_PROGRAM_ID
	_, _, err := DecompileDonateSolInstruction(wrongProgram)
	assert.Equal(t, ErrInvalidProgram, err)

	missingAccounts := valid
	missingAccounts.Accounts = valid.Accounts[:2]
	_, _, err = DecompileDonateSolInstruction(missingAccounts)
	assert.Equal(t, ErrNotEnoughAccountKeys, err)

	truncated := valid
	truncated.Data = valid.Data[:10]
	_, _, err = DecompileDonateSolInstruction(truncated)
	assert.Equal(t, ErrInvalidInstructionData, err)

	// A donate payload is not a withdraw payload
	_, _, err = DecompileWithdrawDonationsInstruction(solana.Instruction{
		Program:  PROGRAM_ID,
		Accounts: valid.Accounts,
		Data:     valid.Data,
	})
	assert.Equal(t, ErrInvalidInstructionData, err)

	_, err = GetInstructionType([]byte{1, 2, 3})
	assert.Equal(t, ErrInvalidInstructionData, err)
	_, err = GetInstructionType(make([]byte, 8))
	assert.Equal(t, ErrInvalidInstructionData, err)
}

func TestCreateCharityInstructionArgsFromBinary_Unvalidated(t *testing.T) {
	args := &CreateCharityInstructionArgs{
		Name:        string([]byte{'A', 0xff}),
		Description: string([]byte{0xfe}),
	}
	instruction := NewCreateCharityInstruction(&CreateCharityInstructionAccounts{
		Authority: testAuthority,
		Charity:   testAuthority,
		Vault:     testAuthority,
	}, args)

	actual, err := CreateCharityInstructionArgsFromBinary(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, args, actual)
}

func TestEvents(t *testing.T) {
	charity := mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG")

	for _, event := range []Event{
		&CreateCharityEvent{CharityKey: charity, CharityName: "a", Description: "b", CreatedAt: 1},
		&UpdateCharityEvent{CharityKey: charity, CharityName: "a", Description: "c", UpdatedAt: 2},
		&PauseDonationsEvent{CharityKey: charity, CharityName: "a", Paused: true, UpdatedAt: 3},
		&MakeDonationEvent{DonorKey: testDonor, CharityKey: charity, CharityName: "a", Amount: 4, CreatedAt: 4},
		&SetWithdrawalRecipientEvent{CharityKey: charity, CharityName: "a", RecipientKey: testDonor, UpdatedAt: 5},
		&SetWithdrawalRecipientEvent{CharityKey: charity, CharityName: "a", UpdatedAt: 5},
		&WithdrawCharitySolEvent{CharityKey: charity, CharityName: "a", TotalDonated: 6, DonationCount: 1, WithdrawnAt: 6},
		&DeleteCharityEvent{CharityKey: charity, CharityName: "a", DeletedAt: 7, WithdrawnToRecipient: true},
	} {
		data := event.Marshal()

		name, ok := GetEventName(data)
		require.True(t, ok)
		assert.Equal(t, event.Name(), name)
		assert.EqualValues(t, charity, event.Charity())
		assert.True(t, len(data) > 8+32)
	}

	_, ok := GetEventName([]byte{1})
	assert.False(t, ok)
}
