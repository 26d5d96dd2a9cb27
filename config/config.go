// Package config loads the resource caps and reasoner settings spec.md §5
// names as "configurable per session" from environment variables and an
// optional file, via spf13/viper — generalized from the teacher's
// internal/config.Config (a stdlib-JSON struct with a private json-tag
// mirror type) onto viper, matching the teacher's own cmd/cayley/command
// package, which reads every one of its settings through viper.GetString
// et al. against dotted keys like store.backend.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quiverdb/quiver/exec"
	"github.com/quiverdb/quiver/path"
	"github.com/quiverdb/quiver/reason"
)

// Dotted viper keys, grounded on the teacher's KeyBackend/KeyAddress/
// KeyPath/KeyReadOnly/KeyOptions/KeyLoadBatch constants
// (cmd/cayley/command/database.go).
const (
	KeyStoreBackend  = "store.backend"
	KeyStorePath     = "store.path"
	KeyStoreReadOnly = "store.read_only"

	KeyJoinMemoryCap      = "exec.join_memory_cap"
	KeyAggregateMemoryCap = "exec.aggregate_memory_cap"

	KeyReasonerMaxRounds        = "reasoner.max_rounds"
	KeyReasonerMaxIterations    = "reasoner.max_iterations"
	KeyReasonerMaxSubstitutions = "reasoner.max_substitutions"

	KeyPathMaxDepth = "path.max_depth"

	KeyQueryTimeout = "query.timeout"
)

// ReasonerConfig carries the RDFS/OWL 2 RL materializer and general
// Datalog evaluator's safety caps (spec.md §4.6, §5).
type ReasonerConfig struct {
	// MaxRounds bounds reason.Materializer's fixpoint loop; 0 is unbounded.
	MaxRounds int
	// MaxIterations bounds reason.Evaluate's per-stratum fixpoint loop.
	MaxIterations int
	// MaxSubstitutions bounds the live environment set any single rule
	// body evaluation may grow to within reason.Evaluate.
	MaxSubstitutions int
}

// Config is the resolved, typed configuration a Session is built from.
// Every field defaults to spec.md §5's "conservative limits chosen for
// mobile devices (≤ 64 MiB intermediate)".
type Config struct {
	StoreBackend  string
	StorePath     string
	StoreReadOnly bool

	Exec     exec.Config
	Reasoner ReasonerConfig
	// PathMaxDepth is path.Evaluator.MaxDepth's per-session value.
	PathMaxDepth int

	// QueryTimeout is loaded with the rest of the configuration, but
	// Session does not read it: a query or update has no wall-clock limit
	// unless the caller passes a CancellationToken created with a timeout.
	QueryTimeout time.Duration
}

// Defaults matches exec.DefaultConfig, reason.DefaultMaxIterations/
// DefaultMaxSubstitutions, and path.DefaultMaxDepth — the same
// conservative numbers used when no config source overrides them, so a
// Session built without ever touching this package behaves identically to
// one built through it.
func Defaults() Config {
	return Config{
		StoreBackend: "memory",
		Exec:         exec.DefaultConfig,
		Reasoner: ReasonerConfig{
			MaxRounds:        0,
			MaxIterations:    reason.DefaultMaxIterations,
			MaxSubstitutions: reason.DefaultMaxSubstitutions,
		},
		PathMaxDepth: path.DefaultMaxDepth,
		QueryTimeout: 30 * time.Second,
	}
}

// Load builds a viper instance seeded with Defaults(), reads environment
// variables (prefixed QUIVER_, dots replaced by underscores — e.g.
// QUIVER_STORE_BACKEND) and, if file is non-empty, a config file at that
// path, then decodes the result into a Config. An empty file behaves like
// the teacher's Load(""): environment and defaults only, no read attempt.
func Load(file string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("quiver")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	def := Defaults()
	v.SetDefault(KeyStoreBackend, def.StoreBackend)
	v.SetDefault(KeyStorePath, def.StorePath)
	v.SetDefault(KeyStoreReadOnly, def.StoreReadOnly)
	v.SetDefault(KeyJoinMemoryCap, def.Exec.JoinMemoryCap)
	v.SetDefault(KeyAggregateMemoryCap, def.Exec.AggregateMemoryCap)
	v.SetDefault(KeyReasonerMaxRounds, def.Reasoner.MaxRounds)
	v.SetDefault(KeyReasonerMaxIterations, def.Reasoner.MaxIterations)
	v.SetDefault(KeyReasonerMaxSubstitutions, def.Reasoner.MaxSubstitutions)
	v.SetDefault(KeyPathMaxDepth, def.PathMaxDepth)
	v.SetDefault(KeyQueryTimeout, def.QueryTimeout)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file %q: %w", file, err)
		}
	}

	return Config{
		StoreBackend:  v.GetString(KeyStoreBackend),
		StorePath:     v.GetString(KeyStorePath),
		StoreReadOnly: v.GetBool(KeyStoreReadOnly),
		Exec: exec.Config{
			JoinMemoryCap:      v.GetInt(KeyJoinMemoryCap),
			AggregateMemoryCap: v.GetInt(KeyAggregateMemoryCap),
		},
		Reasoner: ReasonerConfig{
			MaxRounds:        v.GetInt(KeyReasonerMaxRounds),
			MaxIterations:    v.GetInt(KeyReasonerMaxIterations),
			MaxSubstitutions: v.GetInt(KeyReasonerMaxSubstitutions),
		},
		PathMaxDepth: v.GetInt(KeyPathMaxDepth),
		QueryTimeout: v.GetDuration(KeyQueryTimeout),
	}, nil
}
