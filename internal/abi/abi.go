// Package abi adapts plugin.Context to the C function table exported by the
// shared library. Every exported C function in cmd/visionplugin forwards to
// one of the functions here.
//
// Contexts cross the boundary as a malloc'd vp_context holding a
// runtime/cgo.Handle, so the host never sees a Go pointer. Strings returned
// to the host come from the process-wide Allocator and must be released
// with FreeString.
package abi

/*
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	uintptr_t handle;
} vp_context;
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-plugin/internal/codec"
	"github.com/ironsheep/vision-tools-plugin/internal/config"
	"github.com/ironsheep/vision-tools-plugin/internal/logging"
	"github.com/ironsheep/vision-tools-plugin/internal/plugin"
)

var (
	bootOnce  sync.Once
	settings  config.Config
	rootLog   *logging.Logger
	allocator Allocator
)

// bootstrap loads configuration and picks the logger and allocator the
// first time any entry point runs.
func bootstrap() {
	bootOnce.Do(func() {
		cfg, cfgErr := config.FromEnvironment()
		log, logErr := logging.New(cfg)
		if logErr != nil {
			var err error
			if log, err = logging.New(config.Default()); err != nil {
				log = logging.Nop()
			}
			log.Warn().Err(logErr).Msg("falling back to stderr logging")
		}
		if cfgErr != nil {
			log.Warn().Err(cfgErr).Msg("configuration ignored, using defaults")
		}
		install(cfg, log)
	})
}

func install(cfg config.Config, log *logging.Logger) {
	settings = cfg
	rootLog = log
	if cfg.DebugAllocator {
		allocator = NewPoisoningAllocator(defaultQuarantine, log.Logger)
		log.Info().Msg("debug string allocator enabled")
	} else {
		allocator = mallocAllocator{}
	}
}

func logger() *zerolog.Logger {
	return &rootLog.Logger
}

// Init creates a plugin context and returns its handle. It never returns
// nil.
func Init() unsafe.Pointer {
	bootstrap()

	ctx := plugin.Open(settings, *logger())
	p := (*C.vp_context)(C.malloc(C.size_t(unsafe.Sizeof(C.vp_context{}))))
	if p == nil {
		panic("abi: out of memory")
	}
	p.handle = C.uintptr_t(cgo.NewHandle(ctx))
	return unsafe.Pointer(p)
}

// contextOf returns the Context behind a handle from Init.
func contextOf(p unsafe.Pointer) *plugin.Context {
	h := cgo.Handle((*C.vp_context)(p).handle)
	return h.Value().(*plugin.Context)
}

// Destroy closes the context and frees its handle. A nil handle is a no-op.
func Destroy(p unsafe.Pointer) {
	if p == nil {
		return
	}
	bootstrap()

	c := (*C.vp_context)(p)
	h := cgo.Handle(c.handle)
	ctx := h.Value().(*plugin.Context)
	if err := ctx.Close(); err != nil {
		logger().Warn().Err(err).Str("context_id", ctx.ID()).Msg("context close failed")
	}
	h.Delete()
	c.handle = 0
	C.free(p)
}

// Manifest returns a newly allocated copy of the manifest. The handle is
// not consulted and may be nil.
func Manifest(_ unsafe.Pointer) unsafe.Pointer {
	bootstrap()

	text, err := plugin.ManifestJSON()
	if err != nil {
		logger().Error().Err(err).Msg("manifest invalid")
		text = codec.ErrorResult("Internal error")
	}
	return allocator.CString(text)
}

// Invoke dispatches one call and returns a newly allocated JSON string. It
// returns nil, allocating nothing, when any argument is nil.
func Invoke(ctx, kind, id, payload unsafe.Pointer) unsafe.Pointer {
	if ctx == nil || kind == nil || id == nil || payload == nil {
		return nil
	}
	bootstrap()

	out := contextOf(ctx).Invoke(
		C.GoString((*C.char)(kind)),
		C.GoString((*C.char)(id)),
		C.GoString((*C.char)(payload)),
	)
	return allocator.CString(out)
}

// FreeString releases a string returned by Manifest or Invoke. Nil is a
// no-op.
func FreeString(s unsafe.Pointer) {
	if s == nil {
		return
	}
	bootstrap()
	allocator.Free(s)
}
