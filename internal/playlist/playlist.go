package playlist

import (
	"math/rand"
	"path/filepath"
	"sync"
)

// Playlist is the ordered set of assets in the active directory plus the
// current playback position. Methods are safe for concurrent use; the
// player and the control API both consult it.
type Playlist struct {
	mu      sync.Mutex
	dir     string
	entries []string
	index   int
	rng     *rand.Rand
}

// New builds a playlist from a scanned directory. The entries are assumed
// sorted, as Scan returns them.
func New(dir string, entries []string) *Playlist {
	return &Playlist{
		dir:     dir,
		entries: append([]string{}, entries...),
	}
}

// Dir reports the directory the playlist was built from.
func (p *Playlist) Dir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

// Len reports the number of entries.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Current returns the asset at the playback position.
func (p *Playlist) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return ""
	}
	return p.entries[p.index]
}

// Index reports the playback position.
func (p *Playlist) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Entries returns a copy of the ordered asset paths.
func (p *Playlist) Entries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.entries...)
}

// Advance moves the position forward (+1) or backward (-1) with wraparound
// and returns the asset at the new position.
func (p *Playlist) Advance(step int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.entries)
	if n == 0 {
		return ""
	}
	p.index = ((p.index+step)%n + n) % n
	return p.entries[p.index]
}

// JumpRandom moves to a uniformly random position, avoiding the current one
// whenever more than one entry exists, and returns the selected asset.
func (p *Playlist) JumpRandom() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.entries)
	if n == 0 {
		return ""
	}
	if n == 1 {
		p.index = 0
		return p.entries[0]
	}
	next := p.randInt(n - 1)
	if next >= p.index {
		next++
	}
	p.index = next
	return p.entries[p.index]
}

// SetIndex clamps and sets the playback position, returning the asset there.
func (p *Playlist) SetIndex(index int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.entries)
	if n == 0 {
		return ""
	}
	if index < 0 || index >= n {
		index = 0
	}
	p.index = index
	return p.entries[p.index]
}

// FindByName positions the playlist at the entry whose base name matches,
// reporting whether it was found.
func (p *Playlist) FindByName(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, entry := range p.entries {
		if filepath.Base(entry) == name {
			p.index = i
			return true
		}
	}
	return false
}

func (p *Playlist) randInt(n int) int {
	if p.rng != nil {
		return p.rng.Intn(n)
	}
	return rand.Intn(n)
}
