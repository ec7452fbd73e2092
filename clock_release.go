//go:build !clockpro_debug

package clockpro

// debugging is false in ordinary builds; see clock_debug.go.
const debugging = false

// assert is a no-op outside of -tags clockpro_debug builds.
func assert(bool, string) {}
