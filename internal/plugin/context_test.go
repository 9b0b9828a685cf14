package plugin

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/vision-tools-plugin/internal/config"
)

func TestInvoke_UnknownCapabilityType(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})

	for _, kind := range []string{"resource", "", "TOOL", "tools"} {
		assert.Equal(t, `{"error":"Unknown capability type"}`, c.Invoke(kind, "image_info", `{}`), kind)
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})

	assert.Equal(t, `{"error":"Unknown tool: no_such_tool"}`, c.Invoke(CapabilityTool, "no_such_tool", `{}`))
	assert.Equal(t, `{"error":"Unknown tool: "}`, c.Invoke(CapabilityTool, "", `{}`))
	assert.Equal(t, `{"error":"Unknown tool: a\"b<c>"}`, c.Invoke(CapabilityTool, `a"b<c>`, `{}`))
}

func TestInvoke_KindCheckedBeforeTool(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})
	assert.Equal(t, `{"error":"Unknown capability type"}`, c.Invoke("prompt", "no_such_tool", `{}`))
}

func TestInvoke_InvalidArguments(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})

	tests := []struct {
		tool    string
		payload string
	}{
		{"image_info", ``},
		{"image_info", `not json`},
		{"image_info", `["a.png"]`},
		{"image_info", `null`},
		{"image_info", `{}`},
		{"image_info", `{"image_path":5}`},
		{"dominant_colors", `{"image_path":"a.png","count":0}`},
		{"dominant_colors", `{"image_path":"a.png","count":33}`},
		{"detect_barcodes", `{"image_path":"a.png","symbologies":["aztec"]}`},
		{"detect_rectangles", `{"image_path":"a.png","min_confidence":"high"}`},
		{"remove_background", `{"image_path":"a.png"}`},
		{"crop_image", `{"image_path":"a.png","output_path":"b.png","x":-1,"y":0,"width":1,"height":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.payload, func(t *testing.T) {
			assert.Equal(t, `{"error":"Invalid arguments"}`, c.Invoke(CapabilityTool, tt.tool, tt.payload))
		})
	}
}

func TestInvoke_PanicIsRecovered(t *testing.T) {
	c := newTestContext(t, &fakeProvider{panicMsg: "boom"})
	img := writeTestImage(t, t.TempDir(), "a.png", 10, 10)

	out := c.Invoke(CapabilityTool, "dominant_colors", payload(t, map[string]interface{}{"image_path": img}))
	assert.Equal(t, `{"error":"Internal error"}`, out)

	// The context stays usable.
	assert.Equal(t, `{"error":"Unknown tool: x"}`, c.Invoke(CapabilityTool, "x", `{}`))
}

func TestInvoke_Concurrent(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})
	dir := t.TempDir()
	img := writeTestImage(t, dir, "a.png", 32, 16)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Invoke(CapabilityTool, "image_info", payload(t, map[string]interface{}{"image_path": img}))
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Contains(t, results[0], `"width":32`)
}

func TestNewContext_NilProvider(t *testing.T) {
	_, err := NewContext(Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestContext_Close(t *testing.T) {
	p := &fakeProvider{}
	c, err := NewContext(Options{Provider: p, Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, p.closed)
}

func TestContext_IDsAreUnique(t *testing.T) {
	a := newTestContext(t, &fakeProvider{})
	b := newTestContext(t, &fakeProvider{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	c := Open(cfg, zerolog.Nop())
	defer c.Close()

	assert.Equal(t, len(Descriptors()), c.Registry().Len())
	assert.Equal(t, `{"error":"Unknown tool: nope"}`, c.Invoke(CapabilityTool, "nope", `{}`))
}

func TestContext_InitErrorReportsInternal(t *testing.T) {
	c := &Context{log: zerolog.Nop(), initErr: fmt.Errorf("broken")}
	assert.Equal(t, `{"error":"Internal error"}`, c.Invoke(CapabilityTool, "image_info", `{}`))
	assert.NoError(t, c.Close())
}

func TestRegistry(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})
	r := c.Registry()

	seen := map[string]bool{}
	for _, d := range r.Descriptors() {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true

		tool, ok := r.Lookup(d.ID)
		require.True(t, ok)
		assert.Equal(t, d.ID, tool.ID)
	}
	assert.Len(t, seen, 13)

	_, ok := r.Lookup("missing")
	assert.False(t, ok)
}

func TestNewRegistry_Errors(t *testing.T) {
	noop := bind(imageInfoArgs{}, func(*imageInfoArgs) (interface{}, error) { return nil, nil })
	desc := func(id string) Descriptor {
		return Descriptor{ID: id, Parameters: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}}
	}

	_, err := newRegistry([]Descriptor{desc("a"), desc("a")}, map[string]binder{"a": noop})
	assert.ErrorContains(t, err, "duplicate")

	_, err = newRegistry([]Descriptor{desc("a"), desc("b")}, map[string]binder{"a": noop})
	assert.ErrorContains(t, err, "no handler")

	_, err = newRegistry([]Descriptor{desc("a")}, map[string]binder{"a": noop, "b": noop})
	assert.ErrorContains(t, err, "no descriptor")

	bad := Descriptor{ID: "a", Parameters: map[string]interface{}{"type": 7}}
	_, err = newRegistry([]Descriptor{bad}, map[string]binder{"a": noop})
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	c := newTestContext(t, &fakeProvider{})
	text := c.Manifest()

	require.NoError(t, ValidateManifest([]byte(text)))
	assert.Equal(t, text, c.Manifest(), "stable across calls")
	assert.Equal(t, text, newTestContext(t, &fakeProvider{}).Manifest(), "independent of the context")

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(text), &m))
	assert.Equal(t, PluginID, m.PluginID)
	assert.Equal(t, PluginVersion, m.Version)
	assert.Equal(t, MinHostVersion, m.MinHost)
	assert.NotNil(t, m.Secrets)

	descriptors := c.Registry().Descriptors()
	require.Len(t, m.Capabilities.Tools, len(descriptors))
	for i, tool := range m.Capabilities.Tools {
		assert.Equal(t, descriptors[i].ID, tool.ID)
		assert.Equal(t, descriptors[i].Permission, tool.Permission)
		assert.Contains(t, tool.Requirements, RequirementFilesystemRead)
		assert.Equal(t, "object", tool.Parameters["type"])
		assert.Contains(t, tool.Parameters["required"], "image_path")
	}
}

func TestManifest_Permissions(t *testing.T) {
	ask := map[string]bool{
		"detect_faces":      true,
		"remove_background": true,
		"blur_faces":        true,
		"blur_image":        true,
		"crop_image":        true,
	}
	for _, d := range Descriptors() {
		want := PermissionAuto
		if ask[d.ID] {
			want = PermissionAsk
		}
		assert.Equal(t, want, d.Permission, d.ID)

		props := d.Parameters["properties"].(map[string]interface{})
		if _, writes := props["output_path"]; writes {
			assert.Contains(t, d.Requirements, RequirementFilesystemWrite, d.ID)
		}
	}
}

func TestManifest_DetectFacesIsReadOnly(t *testing.T) {
	for _, d := range Descriptors() {
		if d.ID != "detect_faces" {
			continue
		}
		assert.Equal(t, PermissionAsk, d.Permission)
		assert.Equal(t, []string{RequirementFilesystemRead}, d.Requirements)
		return
	}
	t.Fatal("detect_faces not registered")
}

func TestValidateManifest_Rejects(t *testing.T) {
	tests := map[string]string{
		"not an object":  `[]`,
		"missing fields": `{"plugin_id":"com.example.x"}`,
		"bad version": `{"plugin_id":"com.example.x","name":"X","version":"1.0","min_host":"1.0.0",
			"capabilities":{"tools":[]}}`,
		"bad permission": `{"plugin_id":"com.example.x","name":"X","version":"1.0.0","min_host":"1.0.0",
			"capabilities":{"tools":[{"id":"t","description":"d","parameters":{"type":"object","properties":{}},
			"requirements":[],"permission":"maybe"}]}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateManifest([]byte(doc)))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindInternal, classify(fmt.Errorf("plain")).Kind)
	assert.Equal(t, KindSaveFailure, classify(fmt.Errorf("wrapped: %w", saveFailure(nil))).Kind)
	assert.Equal(t, "Failed to save image", classify(saveFailure(fmt.Errorf("disk full"))).Message)
	assert.Equal(t, "processing_failure", KindProcessingFailure.String())
}
