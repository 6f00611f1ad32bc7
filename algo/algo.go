// Package algo implements the spatial-analysis kernels this library is
// built around: cluster labeling, distance transforms, local-drain-
// direction hydrology, buffer aggregation via summed-area tables, and
// zonal/weighted-distribution mapping. Every kernel is eager: it
// consumes one or more *gdx.Raster inputs plus a parameter struct and
// returns a freshly allocated result, per spec §2 and §5 — no kernel
// mutates an input, and no kernel retains state across calls beyond the
// FiLo work-queue it allocates for its own duration.
package algo

import "math"

// DiagPolicy selects whether diagonal neighbours count as connected,
// shared by every cluster and distance kernel that takes one (spec
// §4.4, §4.5).
type DiagPolicy uint8

const (
	// Exclude restricts connectivity to the four orthogonal neighbours.
	Exclude DiagPolicy = iota
	// Include additionally connects the four diagonal neighbours.
	Include
)

// sqrt2 is the diagonal step cost used throughout the distance and LDD
// kernels (spec §4.5, §4.6): a straight step costs 1, a diagonal step
// costs sqrt2.
const sqrt2 = math.Sqrt2
