//go:build !ocrlens_debug

package coordmap

const debugChecks = false
