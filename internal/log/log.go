// Package log provides the structured logger every package above it takes
// as a constructor dependency, rather than reaching for a global.
package log

import "go.uber.org/zap"

// Logger is the subset of zap's SugaredLogger this module calls through.
// Kept as an interface so tests can swap in a no-op or observed logger
// without pulling in zap's test harness everywhere.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// New builds a production zap logger at the given level ("debug", "info",
// "warn", "error"). An unrecognized level falls back to "info".
func New(level string) (Logger, error) {
	var atom zap.AtomicLevel
	if err := atom.UnmarshalText([]byte(level)); err != nil {
		atom = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atom
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}

// Nop returns a Logger that discards everything, for tests.
func Nop() Logger {
	return zap.NewNop().Sugar()
}
