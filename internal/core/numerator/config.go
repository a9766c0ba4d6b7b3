// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict bumps the sequence row for every number.
	// Numbers are gapless; each call is one round trip.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory.
	// A restart may leave gaps in the sequence.
	StrategyCached
)

// Document prefixes.
const (
	PrefixPurchase = "PO"
	PrefixSale     = "SO"
	PrefixProduct  = "PR"
	PrefixParty    = "CP"
	PrefixInvoice  = "INV"
)

// Reset periods.
const (
	ResetYear  = "year"
	ResetMonth = "month"
	ResetNever = "never"
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached (default 50).
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PO", "SO")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod is one of ResetYear, ResetMonth, ResetNever
	ResetPeriod string
}

// DefaultConfig returns the PREFIX-YYYY-NNNNN layout restarting every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYear,
	}
}

// SequentialConfig returns the PREFIX-NNNNN layout that never restarts.
func SequentialConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		PadWidth:    5,
		ResetPeriod: ResetNever,
	}
}
