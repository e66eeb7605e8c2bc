// Package daemon wires the playback pipeline together and exposes it over
// a small HTTP control API.
//
// The daemon acquires a file lock so only one instance drives the panel,
// opens the display and the settings store, scans the assets directory into
// a playlist, and runs the player. The API mirrors the playback controls:
// status, config inspection, and next/previous/random/pause actions.
package daemon
