// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: SVGP_LIKELIHOOD_VARIANCE overrides
// likelihood.variance.
const EnvPrefix = "SVGP"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Kernel types.
const (
	KernelRBF      = "rbf"
	KernelMatern32 = "matern32"
	KernelMatern52 = "matern52"
	KernelSum      = "sum"
)

// Likelihood types.
const (
	LikelihoodGaussian  = "gaussian"
	LikelihoodBernoulli = "bernoulli"
	LikelihoodPoisson   = "poisson"
)

// Variational initializations.
const (
	InitPrior    = "prior"
	InitIdentity = "identity"
)

// Config describes one inference problem.
type Config struct {
	Kernel      KernelConfig      `mapstructure:"kernel" yaml:"kernel"`
	Likelihood  LikelihoodConfig  `mapstructure:"likelihood" yaml:"likelihood"`
	Data        DataConfig        `mapstructure:"data" yaml:"data"`
	Inducing    InducingConfig    `mapstructure:"inducing" yaml:"inducing"`
	Variational VariationalConfig `mapstructure:"variational" yaml:"variational"`
	Jitter      JitterConfig      `mapstructure:"jitter" yaml:"jitter"`
	Predict     PredictConfig     `mapstructure:"predict" yaml:"predict"`
}

// KernelConfig selects a kernel. Parts is used only by "sum".
type KernelConfig struct {
	Type        string         `mapstructure:"type" yaml:"type"`
	Variance    float64        `mapstructure:"variance" yaml:"variance"`
	Lengthscale float64        `mapstructure:"lengthscale" yaml:"lengthscale"`
	Parts       []KernelConfig `mapstructure:"parts" yaml:"parts,omitempty"`
}

// LikelihoodConfig selects a likelihood. Variance applies to "gaussian";
// Points sets the quadrature order of the others (0 = default).
type LikelihoodConfig struct {
	Type     string  `mapstructure:"type" yaml:"type"`
	Variance float64 `mapstructure:"variance" yaml:"variance"`
	Points   int     `mapstructure:"points" yaml:"points"`
}

// DataConfig holds the training set inline, or points to a CSV file whose last
// column is the target.
type DataConfig struct {
	Path   string      `mapstructure:"path" yaml:"path,omitempty"`
	Header bool        `mapstructure:"header" yaml:"header,omitempty"`
	X      [][]float64 `mapstructure:"x" yaml:"x,omitempty"`
	Y      []float64   `mapstructure:"y" yaml:"y,omitempty"`
}

// InducingConfig gives Z explicitly or asks for Count rows picked evenly from X.
type InducingConfig struct {
	Z     [][]float64 `mapstructure:"z" yaml:"z,omitempty"`
	Count int         `mapstructure:"count" yaml:"count,omitempty"`
}

// VariationalConfig sets q(u). Chol, when given, is the packed lower factor;
// otherwise Init selects "prior" (S = Kmm) or "identity" (S = I).
type VariationalConfig struct {
	Init string    `mapstructure:"init" yaml:"init"`
	Mean []float64 `mapstructure:"mean" yaml:"mean,omitempty"`
	Chol []float64 `mapstructure:"chol" yaml:"chol,omitempty"`
}

// JitterConfig tunes the jittered Cholesky of Kmm.
type JitterConfig struct {
	MaxTries int     `mapstructure:"max_tries" yaml:"max_tries"`
	Scale    float64 `mapstructure:"scale" yaml:"scale"`
	Growth   float64 `mapstructure:"growth" yaml:"growth"`
}

// PredictConfig lists the test inputs for the predict command.
type PredictConfig struct {
	X [][]float64 `mapstructure:"x" yaml:"x,omitempty"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("kernel.type", KernelRBF)
	v.SetDefault("kernel.variance", 1.0)
	v.SetDefault("kernel.lengthscale", 1.0)
	v.SetDefault("likelihood.type", LikelihoodGaussian)
	v.SetDefault("likelihood.variance", 1.0)
	v.SetDefault("likelihood.points", 0)
	v.SetDefault("data.path", "")
	v.SetDefault("data.header", false)
	v.SetDefault("inducing.count", 0)
	v.SetDefault("variational.init", InitPrior)
	v.SetDefault("jitter.max_tries", 5)
	v.SetDefault("jitter.scale", 1e-6)
	v.SetDefault("jitter.growth", 10.0)
}

// Load reads the YAML file at path, applies defaults and SVGP_* environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return FromViper(v)
}

// FromViper unmarshals and validates a prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every section for out-of-range or inconsistent values.
func (c *Config) Validate() error {
	if err := c.Kernel.Validate(); err != nil {
		return err
	}
	if err := c.Likelihood.Validate(); err != nil {
		return err
	}
	if c.Data.Path == "" {
		if len(c.Data.X) == 0 {
			return invalid("data: either path or inline x/y is required")
		}
		if len(c.Data.X) != len(c.Data.Y) {
			return invalid("data: %d inputs but %d targets", len(c.Data.X), len(c.Data.Y))
		}
		if err := rectangular("data.x", c.Data.X); err != nil {
			return err
		}
	}
	if len(c.Inducing.Z) == 0 && c.Inducing.Count <= 0 {
		return invalid("inducing: z or a positive count is required")
	}
	if err := rectangular("inducing.z", c.Inducing.Z); err != nil {
		return err
	}
	switch c.Variational.Init {
	case InitPrior, InitIdentity:
	default:
		return invalid("variational.init %q: want %q or %q", c.Variational.Init, InitPrior, InitIdentity)
	}
	if c.Jitter.MaxTries < 0 {
		return invalid("jitter.max_tries must be >= 0")
	}
	if !finitePositive(c.Jitter.Scale) {
		return invalid("jitter.scale must be finite and > 0")
	}
	if !(c.Jitter.Growth > 1) || math.IsInf(c.Jitter.Growth, 0) {
		return invalid("jitter.growth must be finite and > 1")
	}

	return rectangular("predict.x", c.Predict.X)
}

// Validate checks the kernel type and hyperparameters, recursing into parts.
func (k *KernelConfig) Validate() error {
	switch k.Type {
	case KernelRBF, KernelMatern32, KernelMatern52:
		if !finitePositive(k.Variance) || !finitePositive(k.Lengthscale) {
			return invalid("kernel %s: variance and lengthscale must be finite and > 0", k.Type)
		}
	case KernelSum:
		if len(k.Parts) == 0 {
			return invalid("kernel sum: parts are required")
		}
		for i := range k.Parts {
			if err := k.Parts[i].Validate(); err != nil {
				return fmt.Errorf("kernel part %d: %w", i, err)
			}
		}
	default:
		return invalid("kernel.type %q is not supported", k.Type)
	}

	return nil
}

// Validate checks the likelihood type and its parameters.
func (l *LikelihoodConfig) Validate() error {
	switch l.Type {
	case LikelihoodGaussian:
		if !finitePositive(l.Variance) {
			return invalid("likelihood.variance must be finite and > 0")
		}
	case LikelihoodBernoulli, LikelihoodPoisson:
		if l.Points < 0 {
			return invalid("likelihood.points must be >= 0")
		}
	default:
		return invalid("likelihood.type %q is not supported", l.Type)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidConfig)...)
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// rectangular reports rows of different widths.
func rectangular(name string, rows [][]float64) error {
	for i := range rows {
		if len(rows[i]) == 0 || len(rows[i]) != len(rows[0]) {
			return invalid("%s: row %d has %d columns, want %d", name, i, len(rows[i]), len(rows[0]))
		}
	}

	return nil
}
