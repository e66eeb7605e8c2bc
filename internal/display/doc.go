// Package display abstracts the output panel behind a small Panel
// interface: a set of presentable byte buffers in a fixed pixel format.
//
// Two implementations exist. The fbdev panel maps a Linux framebuffer
// device and flips between its buffers by panning. The memory panel backs
// the same interface with plain byte slices for development machines and
// tests.
package display
