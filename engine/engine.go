// Package engine drives attachment and snapshot building on two
// independent tickers and publishes the latest snapshot.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ra2ob/attach"
	"ra2ob/catalog"
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/resolver"
	"ra2ob/snapshot"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	DefaultAttachInterval = 1000 * time.Millisecond
	DefaultFetchInterval  = 500 * time.Millisecond
)

// Attacher is what the engine needs from attach.Manager.
type Attacher interface {
	Attach() (*attach.Result, error)
	Alive() bool
	Detach() error
}

// Config is the engine's immutable configuration.
type Config struct {
	AttachInterval time.Duration
	FetchInterval  time.Duration
	Layout         layout.Layout
	Catalog        *catalog.Catalog
	Countries      catalog.Countries

	// OnPublish, when set, is called with every published snapshot in the
	// order they are stored. It must not block for long or call back into
	// the engine other than through Snapshot.
	OnPublish func(*snapshot.GameSnapshot)
}

// state is one attach generation. It is replaced, never modified.
type state struct {
	gen     uint64
	res     *attach.Result
	mem     *memory.Reader
	catalog *catalog.Catalog
	roots   resolver.GlobalRoots
	rootsOK bool
}

type Engine struct {
	cfg      Config
	attacher Attacher
	resolver *resolver.Resolver
	builder  *snapshot.Builder

	generation atomic.Uint64

	// mu guards state. The fetch loop holds the read lock for a whole
	// cycle so a detach never closes the handle under it.
	mu    sync.RWMutex
	state *state

	pubMu     sync.Mutex
	published atomic.Pointer[snapshot.GameSnapshot]

	// afterBuild runs between build and publish; tests use it to race a detach.
	afterBuild func()

	log *logger.Logger
}

// New validates cfg and returns an engine that has published an invalid
// snapshot and is not yet running.
func New(cfg Config, attacher Attacher) (*Engine, error) {
	if attacher == nil {
		return nil, errors.New("engine: attacher required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("engine: catalog required")
	}
	if cfg.AttachInterval <= 0 || cfg.FetchInterval <= 0 {
		return nil, errors.New("engine: intervals must be > 0")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if cfg.Countries == nil {
		cfg.Countries = catalog.DefaultCountries()
	}

	e := &Engine{
		cfg:      cfg,
		attacher: attacher,
		resolver: resolver.New(cfg.Layout),
		builder:  snapshot.NewBuilder(cfg.Layout),
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorOrange, coloransi.Red, "engine")),
	}
	e.published.Store(snapshot.Invalid(0))
	return e, nil
}

// Snapshot returns the last published snapshot. It is never nil and must
// not be modified.
func (e *Engine) Snapshot() *snapshot.GameSnapshot {
	return e.published.Load()
}

// Run drives both loops until ctx is done, then releases the handle.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.loop(ctx, e.cfg.AttachInterval, e.attachTick)
	}()
	go func() {
		defer wg.Done()
		e.loop(ctx, e.cfg.FetchInterval, e.fetchTick)
	}()
	wg.Wait()

	e.detach("shutdown")
}

// loop runs tick once immediately and then on every interval. An iteration
// always completes before ctx is checked again.
func (e *Engine) loop(ctx context.Context, interval time.Duration, tick func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

func (e *Engine) attachTick() {
	e.mu.RLock()
	st := e.state
	e.mu.RUnlock()

	if st != nil {
		if !e.attacher.Alive() {
			e.detach("process exited")
			return
		}
		roots, err := e.resolver.ResolveRoots(st.mem)
		ok := err == nil
		if ok != st.rootsOK || roots != st.roots {
			if !ok {
				e.log.Debugln("roots lost:", err)
			}
			next := *st
			next.roots, next.rootsOK = roots, ok
			e.mu.Lock()
			if e.state == st {
				e.state = &next
			}
			e.mu.Unlock()
		}
		return
	}

	res, err := e.attacher.Attach()
	if err != nil {
		e.log.Debugln(err)
		return
	}

	next := &state{
		res:     res,
		mem:     memory.New(res.Process),
		catalog: e.cfg.Catalog.ForVersion(res.Settings.Version),
	}
	roots, err := e.resolver.ResolveRoots(next.mem)
	next.roots, next.rootsOK = roots, err == nil

	e.mu.Lock()
	next.gen = e.generation.Add(1)
	e.builder.Purge()
	e.state = next
	e.mu.Unlock()

	e.log.Infoln("generation", next.gen, "pid", res.Info.PID, "roots", next.rootsOK)
}

// detach releases the handle, moves to a new generation and publishes an
// invalid snapshot. It does nothing when already detached.
func (e *Engine) detach(reason string) {
	e.mu.Lock()
	if e.state == nil {
		e.mu.Unlock()
		return
	}
	e.state = nil
	gen := e.generation.Add(1)
	err := e.attacher.Detach()
	e.builder.Purge()
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("detach:", err)
	}
	e.log.Infoln("detached:", reason)
	e.publish(snapshot.Invalid(gen))
}

func (e *Engine) fetchTick() {
	e.mu.RLock()
	st := e.state
	if st == nil {
		e.mu.RUnlock()
		return
	}

	var snap *snapshot.GameSnapshot
	if !st.rootsOK {
		snap = snapshot.Invalid(st.gen)
		snap.Version = st.res.Settings.Version
		snap.MapName = st.res.Settings.MapName
		snap.Screen = st.res.Settings.Screen
	} else {
		slots, resolved := e.resolver.ResolveSlots(st.mem, st.roots)
		snap = e.builder.Build(snapshot.Input{
			Generation: st.gen,
			Mem:        st.mem,
			Catalog:    st.catalog,
			Countries:  e.cfg.Countries,
			Settings:   st.res.Settings,
			Slots:      slots,
			Resolved:   resolved,
		})
	}
	e.mu.RUnlock()

	if e.afterBuild != nil {
		e.afterBuild()
	}
	e.publish(snap)
}

// publish stores snap unless a newer generation has started since it was
// built.
func (e *Engine) publish(snap *snapshot.GameSnapshot) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()

	if cur := e.generation.Load(); snap.Generation != cur {
		e.log.Debugln("discarding snapshot of generation", snap.Generation, "current", cur)
		return
	}
	e.published.Store(snap)

	// under pubMu so the hook sees snapshots in store order and the last
	// one it receives is the one Snapshot returns
	if e.cfg.OnPublish != nil {
		e.cfg.OnPublish(snap)
	}
}
