package scm

import (
	"sync"

	"github.com/scmalloc/scm/clock"
	"github.com/scmalloc/scm/descbuf"
	"github.com/scmalloc/scm/header"
	"github.com/scmalloc/scm/pagepool"
	"github.com/scmalloc/scm/region"
)

// Library is one independent allocator instance: its own configuration,
// its own global clock, and its own free-list of terminated descriptor
// roots available for recycling. Most embedders construct exactly one
// and share it across every thread that calls RegisterThread.
//
// Per the spec's design notes, the two locks this type touches (the
// clock's global_time_lock, held inside clock.Global, and freeMu below)
// are never held at the same time by any call path.
type Library struct {
	cfg   *Config
	clock *clock.Global

	freeMu   sync.Mutex
	freeList *Root
}

// New constructs a Library from DefaultConfig plus opts.
func New(opts ...Option) *Library {
	return &Library{
		cfg:   NewConfig(opts...),
		clock: clock.New(),
	}
}

// Root is the descriptor root a single registered thread owns (spec
// component F): its local descriptor buffers and expired lists, its
// regions, and its position in the global clock protocol. A Root must
// never be used from more than one goroutine at a time, and must never
// be used after UnregisterThread until a later RegisterThread hands it
// (or an equivalent) back out.
type Root struct {
	lib *Library

	currentTime uint64
	globalPhase uint64
	blocked     bool

	roundRobin     int
	nextClockIndex int

	descPerPage int

	objPagePool *pagepool.Pool[*descbuf.Page[*header.Header]]
	regPagePool *pagepool.Pool[*descbuf.Page[*region.Region]]

	expiredObjs descbuf.ExpiredList[*header.Header]
	expiredRegs descbuf.ExpiredList[*region.Region]

	globalObjBuf descbuf.Buffer[*header.Header]
	globalRegBuf descbuf.Buffer[*region.Region]

	localObjBuf []descbuf.Buffer[*header.Header]
	localRegBuf []descbuf.Buffer[*region.Region]

	regions      []region.Region
	nextRegIndex int
	regionAlloc  *region.Allocator

	next *Root // terminated-roots free-list link; owned by Library.freeMu
}

func newRoot(lib *Library) *Root {
	cfg := lib.cfg

	maxClocks := cfg.MaxClocks
	if maxClocks < 1 {
		maxClocks = 1
	}

	maxRegions := cfg.MaxRegions
	if maxRegions < 0 {
		maxRegions = 0
	}

	return &Root{
		lib:            lib,
		roundRobin:     1,
		nextClockIndex: 1,
		descPerPage:    descbuf.DescriptorsPerPage(cfg.DescriptorPageSize),
		objPagePool:    pagepool.New[*descbuf.Page[*header.Header]](cfg.DescriptorPageFreelistSize),
		regPagePool:    pagepool.New[*descbuf.Page[*region.Region]](cfg.DescriptorPageFreelistSize),
		localObjBuf:    make([]descbuf.Buffer[*header.Header], maxClocks),
		localRegBuf:    make([]descbuf.Buffer[*region.Region], maxClocks),
		regions:        make([]region.Region, maxRegions),
		regionAlloc:    region.NewAllocator(cfg.Mem, cfg.RegionPageSize, cfg.RegionPageFreelistSize, cfg.NUMAHinter),
	}
}

// RegisterThread hands the calling thread a descriptor root: a
// recycled one from the terminated-roots free-list if one is waiting,
// or a freshly allocated one otherwise (spec: register_thread).
// current_time is incremented, the base local clock (slot 0) and both
// global buffers are (re)stamped at the new age, and the root joins
// the global clock protocol via resume_thread. Every other local clock
// slot carried over from the root's previous life (if recycled)
// becomes a zombie: still holding live descriptors, but pending
// cleanup via the round-robin scan every Tick performs. Every region
// carried over becomes reusable by CreateRegion once its descriptor
// counter is zero.
func (lib *Library) RegisterThread() *Root {
	lib.freeMu.Lock()
	root := lib.freeList
	if root != nil {
		lib.freeList = root.next
		root.next = nil
	}
	lib.freeMu.Unlock()

	if root == nil {
		root = newRoot(lib)
	}

	root.currentTime++
	root.roundRobin = 1
	root.nextClockIndex = 1

	lLocal := lib.cfg.MaxExpirationExtension + 1
	lGlobal := lib.cfg.MaxExpirationExtension + 2

	root.localObjBuf[0].Reset(lLocal, root.currentTime)
	root.localRegBuf[0].Reset(lLocal, root.currentTime)
	root.globalObjBuf.Reset(lGlobal, root.currentTime)
	root.globalRegBuf.Reset(lGlobal, root.currentTime)

	root.ResumeThread()

	return root
}

// UnregisterThread blocks root out of the global clock protocol and
// pushes it onto the terminated-roots free-list for RegisterThread to
// recycle (spec: unregister_thread). root must not be used again after
// this call returns.
func (lib *Library) UnregisterThread(root *Root) {
	root.BlockThread()

	lib.freeMu.Lock()
	root.next = lib.freeList
	lib.freeList = root
	lib.freeMu.Unlock()
}

// BlockThread removes root from the global clock protocol's
// participant count without terminating it: the thread may still call
// ResumeThread later to rejoin without losing its descriptor buffers
// or regions (spec: block_thread). Use this for a thread that is about
// to sleep or wait on I/O and should not be waited on by global_tick.
func (r *Root) BlockThread() {
	r.lib.clock.Block(r.globalPhase)
	r.blocked = true
}

// ResumeThread rejoins root to the global clock protocol (spec:
// resume_thread), recording the global_phase it must next observe.
func (r *Root) ResumeThread() {
	r.globalPhase = r.lib.clock.Resume()
	r.blocked = false
}
