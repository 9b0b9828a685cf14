package plugin

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Plugin identity published in the manifest.
const (
	PluginID          = "com.ironsheep.vision-tools"
	PluginName        = "Vision Tools"
	PluginVersion     = "1.0.0"
	PluginDescription = "On-device image analysis: text recognition, barcode, face, rectangle, horizon and saliency detection, color analysis, background removal, blurring and cropping."
	PluginLicense     = "MIT"
	MinHostVersion    = "1.0.0"
	MinMacOSVersion   = "12.0"
)

// Manifest describes the plugin and its tools to the host.
type Manifest struct {
	PluginID     string       `json:"plugin_id"`
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	License      string       `json:"license"`
	Authors      []string     `json:"authors"`
	MinHost      string       `json:"min_host"`
	MinMacOS     string       `json:"min_macos"`
	Secrets      []SecretSpec `json:"secrets"`
	Capabilities Capabilities `json:"capabilities"`
}

// SecretSpec declares a secret the host injects under "_secrets".
type SecretSpec struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	URL         string `json:"url,omitempty"`
}

// Capabilities lists what the plugin offers.
type Capabilities struct {
	Tools []ToolManifest `json:"tools"`
}

// ToolManifest is one tool entry of the manifest.
type ToolManifest struct {
	ID           string                 `json:"id"`
	Description  string                 `json:"description"`
	Parameters   map[string]interface{} `json:"parameters"`
	Requirements []string               `json:"requirements"`
	Permission   Permission             `json:"permission"`
}

// BuildManifest assembles the manifest for the given tools, in order.
func BuildManifest(descriptors []Descriptor) Manifest {
	tools := make([]ToolManifest, 0, len(descriptors))
	for _, d := range descriptors {
		reqs := d.Requirements
		if reqs == nil {
			reqs = []string{}
		}
		tools = append(tools, ToolManifest{
			ID:           d.ID,
			Description:  d.Description,
			Parameters:   d.Parameters,
			Requirements: reqs,
			Permission:   d.Permission,
		})
	}
	return Manifest{
		PluginID:     PluginID,
		Name:         PluginName,
		Version:      PluginVersion,
		Description:  PluginDescription,
		License:      PluginLicense,
		Authors:      []string{"Iron Sheep Productions"},
		MinHost:      MinHostVersion,
		MinMacOS:     MinMacOSVersion,
		Secrets:      []SecretSpec{},
		Capabilities: Capabilities{Tools: tools},
	}
}

// ValidateManifest checks manifest JSON against ManifestSchema.
func ValidateManifest(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(ManifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var errMsg string
		for i, e := range result.Errors() {
			if i > 0 {
				errMsg += "; "
			}
			errMsg += e.String()
		}
		return fmt.Errorf("schema validation errors: %s", errMsg)
	}
	return nil
}

func renderManifest(descriptors []Descriptor) (string, error) {
	data, err := json.Marshal(BuildManifest(descriptors))
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := ValidateManifest(data); err != nil {
		return "", err
	}
	return string(data), nil
}

var (
	manifestOnce sync.Once
	manifestText string
	manifestErr  error
)

// ManifestJSON returns the manifest text for every built-in tool. It is
// rendered and validated once per process, so every call returns the same
// string.
func ManifestJSON() (string, error) {
	manifestOnce.Do(func() {
		manifestText, manifestErr = renderManifest(Descriptors())
	})
	return manifestText, manifestErr
}
