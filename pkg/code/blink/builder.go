package blink

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/code-payments/charity-server/pkg/metrics"
	code_rate "github.com/code-payments/charity-server/pkg/rate"
	"github.com/code-payments/charity-server/pkg/sol"
	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
)

const (
	metricsStructName = "blink.builder"
)

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrCharityNotFound = errors.New("charity not found")
	ErrRateLimited     = errors.New("rate limited")
)

// DonateTransaction is an unsigned donate_sol transaction awaiting the donor's
// signature
type DonateTransaction struct {
	Transaction solana.Transaction

	// Encoded is the base64 wire encoding handed to wallets
	Encoded string

	Charity  ed25519.PublicKey
	Vault    ed25519.PublicKey
	Donation ed25519.PublicKey
	Amount   uint64

	// Ordinal is the charity's donation count the donation address was
	// derived from. Another donation landing first invalidates the request.
	Ordinal uint64
}

// Builder constructs donation requests for donors to sign
type Builder struct {
	log     *logrus.Entry
	conf    *conf
	reader  AccountReader
	limiter code_rate.Limiter
	deriver charity_program.AddressDeriver
}

func NewBuilder(reader AccountReader, configProvider ConfigProvider) *Builder {
	conf := configProvider()

	return &Builder{
		log:     logrus.StandardLogger().WithField("type", "blink/Builder"),
		conf:    conf,
		reader:  reader,
		limiter: code_rate.NewLocalRateLimiter(rate.Limit(conf.donorRateLimit.Get(context.Background()))),
		deriver: charity_program.NewAddressDeriver(charity_program.PROGRAM_ID),
	}
}

// BuildDonateSolTransaction builds an unsigned transaction donating amount SOL
// from donor to charity, with the donor paying fees. Addresses are base58
// encoded and amount is a decimal SOL value, such as "0.05".
func (b *Builder) BuildDonateSolTransaction(ctx context.Context, donor, charity, amount string) (*DonateTransaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "BuildDonateSolTransaction")
	defer tracer.End()

	log := b.log.WithFields(logrus.Fields{
		"method":  "BuildDonateSolTransaction",
		"donor":   donor,
		"charity": charity,
		"amount":  amount,
	})

	donorKey, err := decodeKey(donor)
	if err != nil {
		return nil, errors.Wrap(err, "invalid donor")
	}
	charityKey, err := decodeKey(charity)
	if err != nil {
		return nil, errors.Wrap(err, "invalid charity")
	}

	lamports, err := b.parseAmount(ctx, amount)
	if err != nil {
		return nil, err
	}

	allowed, err := b.limiter.Allow(donor)
	if err != nil {
		log.WithError(err).Warn("failure checking rate limit")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	account, err := b.reader.GetAccount(ctx, charityKey)
	if err == ErrAccountNotFound {
		return nil, ErrCharityNotFound
	} else if err != nil {
		log.WithError(err).Warn("failure reading charity account")
		tracer.OnError(err)
		return nil, err
	}

	if !bytes.Equal(account.Owner, charity_program.PROGRAM_ID) || !charity_program.IsCharityAccount(account.Data) {
		return nil, ErrCharityNotFound
	}

	ordinal, err := charity_program.GetDonationCountFromData(account.Data)
	if err != nil {
		log.WithError(err).Warn("failure decoding charity account")
		return nil, ErrCharityNotFound
	}

	vault, _, err := b.deriver.VaultAddress(charityKey)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving vault address")
	}
	donationAddress, _, err := b.deriver.DonationAddress(donorKey, charityKey, ordinal)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving donation address")
	}

	blockhash, err := b.reader.GetLatestBlockhash(ctx)
	if err != nil {
		log.WithError(err).Warn("failure getting latest blockhash")
		tracer.OnError(err)
		return nil, err
	}

	txn := solana.NewTransaction(
		donorKey,
		charity_program.NewDonateSolInstruction(
			&charity_program.DonateSolInstructionAccounts{
				Donor:    donorKey,
				Charity:  charityKey,
				Vault:    vault,
				Donation: donationAddress,
			},
			&charity_program.DonateSolInstructionArgs{
				Amount: lamports,
			},
		),
	)
	txn.SetBlockhash(blockhash)

	log.WithFields(logrus.Fields{
		"donation": base58.Encode(donationAddress),
		"ordinal":  ordinal,
		"lamports": lamports,
	}).Debug("built donate transaction")

	return &DonateTransaction{
		Transaction: txn,
		Encoded:     txn.ToBase64(),

		Charity:  charityKey,
		Vault:    vault,
		Donation: donationAddress,
		Amount:   lamports,
		Ordinal:  ordinal,
	}, nil
}

func (b *Builder) parseAmount(ctx context.Context, amount string) (uint64, error) {
	lamports, err := sol.StrToLamports(amount)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidAmount, err.Error())
	}

	minimum, err := sol.StrToLamports(b.conf.minDonation.Get(ctx))
	if err != nil {
		b.log.WithError(err).Warn("invalid minimum donation config")
		minimum = 1
	}
	if minimum == 0 {
		minimum = 1
	}

	if lamports < minimum {
		return 0, ErrInvalidAmount
	}
	return lamports, nil
}

func decodeKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	return decoded, nil
}
