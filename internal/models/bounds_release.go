//go:build !volraycast_debug

package models

func checkBounds(*Grid, int, int, int) {}

// DebugBounds reports whether bounds assertions are compiled in.
const DebugBounds = false
