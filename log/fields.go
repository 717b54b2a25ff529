package log

import "go.uber.org/zap"

//nolint:gochecknoglobals // field constructors
var (
	Bool       = zap.Bool
	Int        = zap.Int
	Uint64     = zap.Uint64
	Float64    = zap.Float64
	String     = zap.String
	Strings    = zap.Strings
	Stringer   = zap.Stringer
	Duration   = zap.Duration
	Any        = zap.Any
	ErrorField = zap.Error
)
