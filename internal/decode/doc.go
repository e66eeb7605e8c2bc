// Package decode turns animation assets on disk into sequences of RGBA
// frames behind a single Decoder interface.
//
// Four containers are supported: animated and still WebP, GIF, PNG, and
// JPEG. Still images present as one-frame sequences with a nominal delay so
// the player treats every asset identically. Decoders validate signatures
// and canvas dimensions up front and expose per-frame delays already
// clamped to the minimum the render loop can pace.
package decode
