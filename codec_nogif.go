//go:build nogif

package gifn

// The built-in engine is compiled out; decoding needs Options.NewEngine.
var builtinEngine func() Engine
