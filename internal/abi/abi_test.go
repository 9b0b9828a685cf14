package abi

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/vision-tools-plugin/internal/logging"
	"github.com/ironsheep/vision-tools-plugin/internal/plugin"
)

// cstr returns a NUL-terminated copy of s in Go memory.
func cstr(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

// goString reads a NUL-terminated string.
func goString(p unsafe.Pointer) string {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// useAllocator swaps the process allocator for the duration of the test.
func useAllocator(t *testing.T, a Allocator) {
	t.Helper()
	bootstrap()
	prev := allocator
	allocator = a
	t.Cleanup(func() { allocator = prev })
}

func TestLogger_WritesToRootLogger(t *testing.T) {
	bootstrap()
	var buf bytes.Buffer
	prev := rootLog
	rootLog = &logging.Logger{Logger: zerolog.New(&buf)}
	t.Cleanup(func() { rootLog = prev })

	logger().Warn().Str("context_id", "abc").Msg("context close failed")
	logger().Error().Msg("manifest invalid")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"context_id":"abc"`)
	assert.Contains(t, out, `"level":"error"`)
}

func TestLifecycle(t *testing.T) {
	ctx := Init()
	require.NotNil(t, ctx)
	defer Destroy(ctx)

	out := Invoke(ctx, cstr("tool"), cstr("no_such_tool"), cstr("{}"))
	require.NotNil(t, out)
	assert.Equal(t, `{"error":"Unknown tool: no_such_tool"}`, goString(out))
	FreeString(out)

	out = Invoke(ctx, cstr("resource"), cstr("image_info"), cstr("{}"))
	assert.Equal(t, `{"error":"Unknown capability type"}`, goString(out))
	FreeString(out)

	out = Invoke(ctx, cstr("tool"), cstr("image_info"), cstr("not json"))
	assert.Equal(t, `{"error":"Invalid arguments"}`, goString(out))
	FreeString(out)
}

func TestContextsAreIndependent(t *testing.T) {
	a, b := Init(), Init()
	require.NotEqual(t, a, b)
	assert.NotEqual(t, contextOf(a).ID(), contextOf(b).ID())

	Destroy(a)
	out := Invoke(b, cstr("tool"), cstr("x"), cstr("{}"))
	assert.Equal(t, `{"error":"Unknown tool: x"}`, goString(out))
	FreeString(out)
	Destroy(b)
}

func TestInvoke_NilArguments(t *testing.T) {
	ctx := Init()
	defer Destroy(ctx)

	kind, id, payload := cstr("tool"), cstr("image_info"), cstr("{}")
	assert.Nil(t, Invoke(nil, kind, id, payload))
	assert.Nil(t, Invoke(ctx, nil, id, payload))
	assert.Nil(t, Invoke(ctx, kind, nil, payload))
	assert.Nil(t, Invoke(ctx, kind, id, nil))
}

func TestNilIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		Destroy(nil)
		FreeString(nil)
	})
}

func TestManifest(t *testing.T) {
	ctx := Init()
	defer Destroy(ctx)

	first := Manifest(ctx)
	second := Manifest(nil)
	defer FreeString(first)
	defer FreeString(second)

	text := goString(first)
	assert.Equal(t, text, goString(second))
	require.NoError(t, plugin.ValidateManifest([]byte(text)))

	var m plugin.Manifest
	require.NoError(t, json.Unmarshal([]byte(text), &m))
	assert.Equal(t, plugin.PluginID, m.PluginID)
	assert.Len(t, m.Capabilities.Tools, len(plugin.Descriptors()))
}

func TestNoLeaks(t *testing.T) {
	a := NewPoisoningAllocator(4, zerolog.Nop())
	useAllocator(t, a)

	ctx := Init()
	defer Destroy(ctx)

	for i := 0; i < 10; i++ {
		FreeString(Invoke(ctx, cstr("tool"), cstr("nope"), cstr("{}")))
		FreeString(Manifest(ctx))
	}
	assert.Zero(t, a.Live())
	assert.Zero(t, a.LogLeaks())
	assert.Zero(t, a.DoubleFrees())
	assert.Zero(t, a.ForeignFrees())

	leaked := Manifest(ctx)
	assert.Equal(t, 1, a.LogLeaks())
	FreeString(leaked)
}

func TestConcurrentInvoke(t *testing.T) {
	a := NewPoisoningAllocator(0, zerolog.Nop())
	useAllocator(t, a)

	ctx := Init()
	defer Destroy(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				out := Invoke(ctx, cstr("tool"), cstr("nope"), cstr("{}"))
				if goString(out) != `{"error":"Unknown tool: nope"}` {
					t.Errorf("unexpected result %q", goString(out))
				}
				FreeString(out)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, a.Live())
	assert.Zero(t, a.DoubleFrees())
}

func TestPoisoningAllocator(t *testing.T) {
	a := NewPoisoningAllocator(2, zerolog.Nop())

	p := a.CString("hello")
	assert.Equal(t, "hello", goString(p))
	assert.Equal(t, 1, a.Live())

	a.Free(p)
	assert.Zero(t, a.Live())
	for i, b := range unsafe.Slice((*byte)(p), len("hello")+1) {
		assert.Equal(t, byte(poisonByte), b, "byte %d", i)
	}

	a.Free(p)
	assert.Equal(t, 1, a.DoubleFrees())

	a.Free(cstr("not ours"))
	assert.Equal(t, 1, a.ForeignFrees())

	a.Free(nil)
	assert.Equal(t, 1, a.DoubleFrees())
	assert.Equal(t, 1, a.ForeignFrees())
}

func TestPoisoningAllocator_QuarantineIsBounded(t *testing.T) {
	a := NewPoisoningAllocator(2, zerolog.Nop())
	for i := 0; i < 5; i++ {
		a.Free(a.CString("x"))
	}
	assert.Len(t, a.quarantine, 2)
	assert.Zero(t, a.Live())
}

func TestPoisoningAllocator_EmptyString(t *testing.T) {
	a := NewPoisoningAllocator(0, zerolog.Nop())
	p := a.CString("")
	require.NotNil(t, p)
	assert.Equal(t, "", goString(p))
	a.Free(p)
	assert.Equal(t, byte(poisonByte), *(*byte)(p))
}
