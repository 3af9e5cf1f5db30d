package combine

// MaxClipIterations bounds the sigma-clipping loop per pixel.
const MaxClipIterations = 5

// Config holds the combination settings.
type Config struct {
	Method Method

	// Saturation is the level at or above which a value counts as
	// saturated. Zero or negative disables saturation handling.
	Saturation float64
	SatPolicy  SaturationPolicy

	// SigmaLow and SigmaHigh are the clip thresholds in units of the
	// population standard deviation. Zero disables that side.
	SigmaLow  float64
	SigmaHigh float64

	// NLow and NHigh extremes are dropped per pixel before clipping.
	NLow  int
	NHigh int

	Replace  ReplacePolicy
	Sentinel float64

	// Weights holds one weight per frame for MethodWeightMean and
	// ReplaceWeightMean. Nil means equal weights.
	Weights []float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings used when no options are given.
func DefaultConfig() Config {
	return Config{
		Method:    MethodWeightMean,
		SatPolicy: SatReject,
		SigmaLow:  3,
		SigmaHigh: 3,
		Replace:   ReplaceMaxNonSat,
	}
}

// WithMethod sets the combination statistic.
func WithMethod(m Method) Option {
	return func(cfg *Config) { cfg.Method = m }
}

// WithSaturation sets the saturation level and how saturated values are treated.
func WithSaturation(level float64, policy SaturationPolicy) Option {
	return func(cfg *Config) {
		cfg.Saturation = level
		cfg.SatPolicy = policy
	}
}

// WithSigma sets the low and high clip thresholds.
func WithSigma(low, high float64) Option {
	return func(cfg *Config) {
		cfg.SigmaLow = low
		cfg.SigmaHigh = high
	}
}

// WithNLoHi sets the number of lowest and highest values dropped per pixel.
func WithNLoHi(low, high int) Option {
	return func(cfg *Config) {
		cfg.NLow = low
		cfg.NHigh = high
	}
}

// WithReplace sets the policy for fully rejected pixels.
func WithReplace(p ReplacePolicy) Option {
	return func(cfg *Config) { cfg.Replace = p }
}

// WithSentinel selects ReplaceSentinel with the given fill value.
func WithSentinel(v float64) Option {
	return func(cfg *Config) {
		cfg.Replace = ReplaceSentinel
		cfg.Sentinel = v
	}
}

// WithWeights sets per-frame weights.
func WithWeights(w []float64) Option {
	return func(cfg *Config) { cfg.Weights = w }
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
