// Command visionplugin is built as a C shared library that hosts load to
// get the vision tools:
//
//	go build -buildmode=c-shared -o libvisionplugin.dylib ./cmd/visionplugin
//
// The library exports a single symbol, vision_plugin_get_api, declared in
// vision_plugin.h. Add -tags gocv to enable face detection through OpenCV.
//
// Configuration comes from VISION_PLUGIN_* environment variables, or from the
// file named by VISION_PLUGIN_CONFIG, read once when the first context is
// created.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/ironsheep/vision-tools-plugin/internal/abi"
)

//export vpInit
func vpInit() unsafe.Pointer {
	return abi.Init()
}

//export vpDestroy
func vpDestroy(ctx unsafe.Pointer) {
	abi.Destroy(ctx)
}

//export vpGetManifest
func vpGetManifest(ctx unsafe.Pointer) *C.char {
	return (*C.char)(abi.Manifest(ctx))
}

//export vpInvoke
func vpInvoke(ctx unsafe.Pointer, kind, id, payload *C.char) *C.char {
	return (*C.char)(abi.Invoke(ctx, unsafe.Pointer(kind), unsafe.Pointer(id), unsafe.Pointer(payload)))
}

//export vpFreeString
func vpFreeString(s *C.char) {
	abi.FreeString(unsafe.Pointer(s))
}

// main is required by -buildmode=c-shared and never runs.
func main() {}
