// Package player runs the playback pipeline: a loader goroutine that
// prepares the next asset into a back buffer, and a render loop that
// decodes, upscales, paces, and presents frames from the front buffer.
//
// The two buffers swap under a single mutex. Cycle requests are
// single-flight: while a load or a pending swap is in progress, further
// requests are dropped rather than queued, so a button held down cannot
// build a backlog of work.
package player
