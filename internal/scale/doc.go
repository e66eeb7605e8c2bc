// Package scale converts decoded RGBA frames to panel-sized, panel-format
// pixels using precomputed nearest-neighbor lookup tables.
//
// Per-axis tables map every destination coordinate to its source
// coordinate, so the per-frame work is pure table lookups and pixel
// packing. An Engine splits each frame between two worker goroutines pinned
// to OS threads, one per half of the destination rows.
package scale
