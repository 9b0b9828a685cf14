// Package plugin is the runtime behind the C ABI: the tool registry, the
// per-tool handlers, the manifest and invocation dispatch.
//
// A Context owns one registry and one vision.Provider. Invoke takes the raw
// strings handed over by the host and always returns JSON text, either the
// tool's result object or {"error": "<message>"}:
//
//	ctx, err := plugin.NewContext(plugin.Options{Provider: p, Logger: log})
//	out := ctx.Invoke("tool", "image_info", `{"image_path":"/tmp/a.png"}`)
//
// Handlers decode their arguments with the codec package, resolve paths
// against the injected folder context and map failures onto the error kinds
// declared in errors.go. No Go error text crosses the boundary.
package plugin
