// Package config plumbs every configuration knob the substrate core
// accepts through a single validated struct, following the teacher's
// env-var-with-defaults loading pattern (internal/config/config.go in the
// reference repo).
package config

import (
	"os"
	"strconv"

	"github.com/phagocyte/substrate/internal/perrors"
)

// Config holds every tunable named in the specification's configuration
// table, all with defaults, all validated on Load.
type Config struct {
	SignalDecayRate        float64
	SignalRemovalThreshold float64
	TraceDecayRate         float64
	TraceRemovalThreshold  float64
	EdgeDecayRate          float64
	EdgePruneThreshold     float64
	StalenessFactor        float64
	MaturationTicks        uint64
	MaxEdgeDegree          int

	DigesterMaxIdle     uint64
	DigesterSenseRadius float64

	HybridDefaultAlpha        float64
	HybridMaxResults          int
	HybridCandidateMultiplier int

	// Reinforcement knobs, named by the spec but not collected into the
	// table explicitly; kept here so every magic number in §4 has a home.
	TentativeWeight       float64
	ReinforcementBoost    float64
	QueryReinforceDelta   float64
	SentinelMaturityCount int
	SentinelJaccard       float64
	SynthesizerQuorum     float64
	SynthesizerRadius     float64
	SynthesizerCooldown   uint64
	KeywordBoost          float64

	// Infrastructure, carried from the teacher so the optional boundary
	// adapters (internal/boundary) and Redis session store have somewhere
	// to read connection settings from.
	RedisAddr        string
	RedisDB          int
	KafkaBrokers     []string
	KafkaTopicPrefix string
}

// Default returns the specification's documented defaults.
func Default() *Config {
	return &Config{
		SignalDecayRate:        0.1,
		SignalRemovalThreshold: 0.01,
		TraceDecayRate:         0.05,
		TraceRemovalThreshold:  0.01,
		EdgeDecayRate:          0.01,
		EdgePruneThreshold:     0.05,
		StalenessFactor:        1.0,
		MaturationTicks:        50,
		MaxEdgeDegree:          30,

		DigesterMaxIdle:     30,
		DigesterSenseRadius: 5.0,

		HybridDefaultAlpha:        0.5,
		HybridMaxResults:          10,
		HybridCandidateMultiplier: 3,

		TentativeWeight:       0.1,
		ReinforcementBoost:    0.1,
		QueryReinforceDelta:   0.05,
		SentinelMaturityCount: 20,
		SentinelJaccard:       0.4,
		SynthesizerQuorum:     3,
		SynthesizerRadius:     5.0,
		SynthesizerCooldown:   10,
		KeywordBoost:          3.0,

		RedisAddr:        "localhost:6379",
		RedisDB:          0,
		KafkaBrokers:     []string{"localhost:9092"},
		KafkaTopicPrefix: "substrate",
	}
}

// Load builds a Config from environment variables, falling back to
// Default()'s values, then validates it.
func Load() (*Config, error) {
	c := Default()
	c.SignalDecayRate = getEnvFloat("SIGNAL_DECAY_RATE", c.SignalDecayRate)
	c.SignalRemovalThreshold = getEnvFloat("SIGNAL_REMOVAL_THRESHOLD", c.SignalRemovalThreshold)
	c.TraceDecayRate = getEnvFloat("TRACE_DECAY_RATE", c.TraceDecayRate)
	c.TraceRemovalThreshold = getEnvFloat("TRACE_REMOVAL_THRESHOLD", c.TraceRemovalThreshold)
	c.EdgeDecayRate = getEnvFloat("EDGE_DECAY_RATE", c.EdgeDecayRate)
	c.EdgePruneThreshold = getEnvFloat("EDGE_PRUNE_THRESHOLD", c.EdgePruneThreshold)
	c.StalenessFactor = getEnvFloat("STALENESS_FACTOR", c.StalenessFactor)
	c.MaturationTicks = getEnvUint("MATURATION_TICKS", c.MaturationTicks)
	c.MaxEdgeDegree = getEnvInt("MAX_EDGE_DEGREE", c.MaxEdgeDegree)

	c.DigesterMaxIdle = getEnvUint("DIGESTER_MAX_IDLE", c.DigesterMaxIdle)
	c.DigesterSenseRadius = getEnvFloat("DIGESTER_SENSE_RADIUS", c.DigesterSenseRadius)

	c.HybridDefaultAlpha = getEnvFloat("HYBRID_DEFAULT_ALPHA", c.HybridDefaultAlpha)
	c.HybridMaxResults = getEnvInt("HYBRID_MAX_RESULTS", c.HybridMaxResults)
	c.HybridCandidateMultiplier = getEnvInt("HYBRID_CANDIDATE_MULTIPLIER", c.HybridCandidateMultiplier)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.KafkaTopicPrefix = getEnv("KAFKA_TOPIC_PREFIX", c.KafkaTopicPrefix)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the rate, threshold, weight, boost, alpha and Jaccard knobs
// against [0,1] and requires HybridMaxResults, HybridCandidateMultiplier
// and MaxEdgeDegree to be positive, returning a ConfigError on the first
// violation. The remaining knobs are not checked.
func (c *Config) Validate() error {
	checks := []struct {
		field    string
		value    float64
		min, max float64
	}{
		{"signal_decay_rate", c.SignalDecayRate, 0, 1},
		{"signal_removal_threshold", c.SignalRemovalThreshold, 0, 1},
		{"trace_decay_rate", c.TraceDecayRate, 0, 1},
		{"trace_removal_threshold", c.TraceRemovalThreshold, 0, 1},
		{"edge_decay_rate", c.EdgeDecayRate, 0, 1},
		{"edge_prune_threshold", c.EdgePruneThreshold, 0, 1},
		{"hybrid.default_alpha", c.HybridDefaultAlpha, 0, 1},
		{"tentative_weight", c.TentativeWeight, 0, 1},
		{"reinforcement_boost", c.ReinforcementBoost, 0, 1},
		{"sentinel_jaccard", c.SentinelJaccard, 0, 1},
	}
	for _, chk := range checks {
		if chk.value < chk.min || chk.value > chk.max {
			return perrors.OutOfRangeErr(chk.field, chk.value, chk.min, chk.max)
		}
	}
	if c.HybridMaxResults <= 0 {
		return perrors.InvalidConfigErr("hybrid.max_results", strconv.Itoa(c.HybridMaxResults), "must be positive")
	}
	if c.HybridCandidateMultiplier <= 0 {
		return perrors.InvalidConfigErr("hybrid.candidate_multiplier", strconv.Itoa(c.HybridCandidateMultiplier), "must be positive")
	}
	if c.MaxEdgeDegree <= 0 {
		return perrors.InvalidConfigErr("max_edge_degree", strconv.Itoa(c.MaxEdgeDegree), "must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
