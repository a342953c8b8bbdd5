package config

import "time"

// Wire-level and fee constants (spec-mandated, not user-tunable).
const (
	DustLimitSats      = 546
	DefaultFeeRate     = 1.2 // satoshis per byte
	DefaultMemoPrefix  = "6d02"
	OpReturnMaxBytes   = 220
	SatsPerXEC         = 100
	P2PKHInputVBytes   = 148
	P2PKHOutputVBytes  = 34
	BaseTxVBytes       = 10
	SighashFlag        = 0x41 // SIGHASH_ALL | SIGHASH_FORKID
)

// Token engine constants. SLP's transaction-type field is the canonical
// ASCII marker per the SLP spec; ALP's section-type field is a single byte
// folded into one flat section buffer, where no small-int pushdata
// ambiguity can arise.
const (
	SLPLokadID     = "SLP\x00"
	ALPLokadID     = "SLP2"
	EMPPPushPrefix = 0x50
	SLPSendType    = "SEND"
	SLPBurnType    = "BURN"
	ALPSendType    = 0x00
	ALPBurnType    = 0x02
)

// Consolidation planner defaults (overridable via caller-supplied options).
const (
	DefaultConsolidationThresholdSats = 100_000
	DefaultMaxConsolidationInputs     = 200
	MinUTXOsToConsider                = 5
	MinUTXOsBelowThreshold            = 5
	ExpectedFutureTxCount             = 2
)

// Distribution size bands used by the consolidation analyzer, in satoshis.
const (
	DustBandMaxSats   = DustLimitSats
	SmallBandMaxSats  = 10_000
	MediumBandMaxSats = 100_000
)

// Indexer client defaults.
const (
	DefaultCacheTTL          = 30 * time.Second
	DefaultRequestTimeout    = 15 * time.Second
	DefaultAddressBatchSize  = 20
	DefaultTxBatchSize       = 20
	CircuitBreakerThreshold  = 3
	CircuitBreakerCooldown   = 30 * time.Second
	DefaultEndpointRPS       = 10
	SafeIntegerBits          = 53 // above this, satoshi/atom values must stay big.Int
)

// DefaultChronikEndpoints is the ordered list of public Chronik instances
// probed when the caller does not supply its own.
var DefaultChronikEndpoints = []string{
	"https://chronik.e.cash",
	"https://chronik1.alitayin.com",
	"https://chronik2.alitayin.com",
	"https://chronik-native1.fabien.cash",
	"https://chronik-native2.fabien.cash",
	"https://chronik.pay2stay.com/xec",
	"https://chronik.be.cash/xec",
}
