// Package settings persists small playback facts, such as the last played
// asset and the pause state, in a SQLite database under the state
// directory. Values survive daemon restarts and power loss.
package settings
