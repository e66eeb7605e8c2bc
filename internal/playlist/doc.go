// Package playlist discovers animation assets on disk and tracks the
// playback position within the discovered set.
//
// Discovery walks the assets root depth first and settles on the first
// directory that holds at least one supported file, the root itself
// included. Entries are ordered bytewise by filename so playback order is
// stable across restarts and rescans.
package playlist
