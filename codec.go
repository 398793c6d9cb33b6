//go:build !nogif

package gifn

// builtinEngine creates the engine used when Options.NewEngine is not set.
var builtinEngine = newGifEngine
