package abi

/*
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/rs/zerolog"
)

// Allocator hands out the NUL-terminated strings returned to the host and
// takes them back through free_string.
type Allocator interface {
	// CString copies s into C memory. The result is never nil.
	CString(s string) unsafe.Pointer

	// Free releases p. A nil p is ignored.
	Free(p unsafe.Pointer)
}

// mallocAllocator is the production allocator.
type mallocAllocator struct{}

func (mallocAllocator) CString(s string) unsafe.Pointer {
	return unsafe.Pointer(C.CString(s))
}

func (mallocAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	C.free(p)
}

const (
	// poisonByte fills released strings, so reads after free_string show up
	// as 0xDB garbage instead of plausible JSON.
	poisonByte = 0xDB

	// defaultQuarantine is how many released blocks stay poisoned before
	// they are returned to malloc.
	defaultQuarantine = 64
)

// PoisoningAllocator tracks every string it hands out. Released strings are
// overwritten with poisonByte and kept in a bounded quarantine. Double frees
// and frees of unknown pointers are logged and counted, never crash.
type PoisoningAllocator struct {
	mu         sync.Mutex
	live       map[unsafe.Pointer]int
	quarantine []unsafe.Pointer
	capacity   int
	log        zerolog.Logger

	doubleFrees  int
	foreignFrees int
}

// NewPoisoningAllocator returns an allocator quarantining up to capacity
// released blocks; capacity <= 0 uses a default.
func NewPoisoningAllocator(capacity int, log zerolog.Logger) *PoisoningAllocator {
	if capacity <= 0 {
		capacity = defaultQuarantine
	}
	return &PoisoningAllocator{
		live:     make(map[unsafe.Pointer]int),
		capacity: capacity,
		log:      log.With().Str("allocator", "poisoning").Logger(),
	}
}

func (a *PoisoningAllocator) CString(s string) unsafe.Pointer {
	size := len(s) + 1
	p := C.malloc(C.size_t(size))
	if p == nil {
		panic("abi: out of memory")
	}
	buf := unsafe.Slice((*byte)(p), size)
	copy(buf, s)
	buf[len(s)] = 0

	a.mu.Lock()
	a.live[p] = size
	a.mu.Unlock()
	return p
}

func (a *PoisoningAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.live[p]
	if !ok {
		if a.quarantined(p) {
			a.doubleFrees++
			a.log.Error().Uint64("ptr", uint64(uintptr(p))).Msg("double free of plugin string")
		} else {
			a.foreignFrees++
			a.log.Error().Uint64("ptr", uint64(uintptr(p))).Msg("free of pointer not allocated by plugin")
		}
		return
	}

	delete(a.live, p)
	C.memset(p, C.int(poisonByte), C.size_t(size))
	a.quarantine = append(a.quarantine, p)
	if len(a.quarantine) > a.capacity {
		C.free(a.quarantine[0])
		a.quarantine = a.quarantine[1:]
	}
}

func (a *PoisoningAllocator) quarantined(p unsafe.Pointer) bool {
	for _, q := range a.quarantine {
		if q == p {
			return true
		}
	}
	return false
}

// Live returns the number of strings handed out and not yet freed.
func (a *PoisoningAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// DoubleFrees returns how many frees hit an already released string.
func (a *PoisoningAllocator) DoubleFrees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doubleFrees
}

// ForeignFrees returns how many frees hit a pointer this allocator never
// returned.
func (a *PoisoningAllocator) ForeignFrees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.foreignFrees
}

// LogLeaks reports every unreleased string at warn level and returns their
// count.
func (a *PoisoningAllocator) LogLeaks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for p, size := range a.live {
		a.log.Warn().Uint64("ptr", uint64(uintptr(p))).Int("size", size).Msg("plugin string never freed")
	}
	return len(a.live)
}
