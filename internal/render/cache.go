package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// A TermRenderer keeps per-render state, so a reply being redrawn on every
// fragment borrows its own renderer from the pool for its option set.
type renderers struct {
	mu    sync.RWMutex
	pools map[Options]*sync.Pool
}

var shared = &renderers{pools: make(map[Options]*sync.Pool)}

// normalize maps equivalent option sets to one pool key
func normalize(opts Options) Options {
	if opts.Style == "" {
		opts.Style = ThemeEmber
	}
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	return opts
}

func (r *renderers) pool(opts Options) *sync.Pool {
	r.mu.RLock()
	p, ok := r.pools[opts]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[opts]; ok {
		return p
	}
	p = &sync.Pool{New: func() any {
		tr, err := newTermRenderer(opts)
		if err != nil {
			return nil
		}
		return tr
	}}
	r.pools[opts] = p
	return p
}

// borrow hands out a renderer for opts. When the pool cannot build one the
// construction is retried here so the caller sees the error.
func (r *renderers) borrow(opts Options) (*glamour.TermRenderer, error) {
	if tr, ok := r.pool(opts).Get().(*glamour.TermRenderer); ok && tr != nil {
		return tr, nil
	}
	return newTermRenderer(opts)
}

func (r *renderers) release(opts Options, tr *glamour.TermRenderer) {
	if tr != nil {
		r.pool(opts).Put(tr)
	}
}

func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		styleOption(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ropts...)
}

// styleOption resolves built-in style configs before falling back to
// glamour's standard style names and JSON style files.
func styleOption(style string) glamour.TermRendererOption {
	if cfg, ok := builtinStyle(style); ok {
		return glamour.WithStyles(cfg)
	}
	return glamour.WithStylePath(style)
}

// ClearCache drops every pooled renderer
func ClearCache() {
	shared.mu.Lock()
	shared.pools = make(map[Options]*sync.Pool)
	shared.mu.Unlock()
}

// CacheSize reports how many distinct option sets have a pool
func CacheSize() int {
	shared.mu.RLock()
	defer shared.mu.RUnlock()
	return len(shared.pools)
}
