package plugin

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-plugin/internal/codec"
	"github.com/ironsheep/vision-tools-plugin/internal/config"
	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
	"github.com/ironsheep/vision-tools-plugin/internal/vision"
)

// CapabilityTool is the only capability kind the plugin serves.
const CapabilityTool = "tool"

// Options configures a Context.
type Options struct {
	// Provider performs the image analysis. The Context takes ownership
	// and closes it.
	Provider vision.Provider

	// ImageCacheSize bounds the decoded image cache; 0 disables it.
	ImageCacheSize int

	Logger zerolog.Logger
}

// Context is one plugin instance, created by init and released by destroy.
// Invoke may be called concurrently.
type Context struct {
	id       string
	registry *Registry
	provider vision.Provider
	images   *imaging.Cache
	log      zerolog.Logger

	// initErr is set when the registry could not be built; every call then
	// fails with an internal error.
	initErr error

	closeOnce sync.Once
	closeErr  error
}

// NewContext builds a Context with its tool registry.
func NewContext(opts Options) (*Context, error) {
	if opts.Provider == nil {
		return nil, errors.New("plugin: nil provider")
	}

	id := uuid.NewString()
	c := &Context{
		id:       id,
		provider: opts.Provider,
		images:   imaging.NewCache(opts.ImageCacheSize),
		log:      opts.Logger.With().Str("context_id", id).Logger(),
	}

	h := &handlers{provider: c.provider, images: c.images, log: c.log}
	registry, err := newRegistry(Descriptors(), h.binders())
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	c.registry = registry

	c.log.Debug().Int("tools", registry.Len()).Msg("context created")
	return c, nil
}

// Open builds a Context from configuration with the native provider. It
// never fails: a registry error yields a Context that reports an internal
// error for every call.
func Open(cfg config.Config, log zerolog.Logger) *Context {
	var provider vision.Provider = vision.NewNative(vision.NativeOptions{
		TessdataPrefix: cfg.TessdataPrefix,
		FaceCascade:    cfg.FaceCascade,
		Logger:         log,
	})
	if cfg.SerializeProvider {
		provider = vision.NewSerialized(provider)
	}

	c, err := NewContext(Options{
		Provider:       provider,
		ImageCacheSize: cfg.ImageCacheSize,
		Logger:         log,
	})
	if err != nil {
		log.Error().Err(err).Msg("plugin context unusable")
		_ = provider.Close()
		return &Context{id: uuid.NewString(), log: log, initErr: err}
	}
	return c
}

// ID returns the context's unique identifier, used in logs.
func (c *Context) ID() string {
	return c.id
}

// Registry returns the context's tool registry.
func (c *Context) Registry() *Registry {
	return c.registry
}

// Manifest returns the manifest text. It is the same for every context.
func (c *Context) Manifest() string {
	text, err := ManifestJSON()
	if err != nil {
		c.log.Error().Err(err).Msg("manifest invalid")
		return codec.ErrorResult(msgInternal)
	}
	return text
}

// Invoke runs one capability call and returns its JSON result, or an
// {"error": ...} object. It never panics.
func (c *Context) Invoke(kind, id, payload string) (out string) {
	start := time.Now()
	log := c.log.With().Str("tool", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Dur("duration", time.Since(start)).
				Msg("tool panicked")
			out = codec.ErrorResult(msgInternal)
		}
	}()

	result, err := c.dispatch(kind, id, payload)
	if err != nil {
		perr := classify(err)
		log.Warn().
			Err(perr.Err).
			Str("kind", perr.Kind.String()).
			Dur("duration", time.Since(start)).
			Msg(perr.Message)
		return codec.ErrorResult(perr.Message)
	}

	out = codec.Encode(result)
	log.Debug().
		Dur("duration", time.Since(start)).
		Bool("encoded", out != codec.EncodingFailure).
		Msg("tool completed")
	return out
}

func (c *Context) dispatch(kind, id, payload string) (interface{}, error) {
	if c.initErr != nil {
		return nil, internalError(c.initErr)
	}
	if kind != CapabilityTool {
		return nil, unknownCapabilityType(kind)
	}
	tool, ok := c.registry.Lookup(id)
	if !ok {
		return nil, unknownTool(id)
	}
	return tool.handler(payload)
}

// Close releases the provider and the image cache. Further calls return the
// first result.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		if c.images != nil {
			c.images.Clear()
		}
		if c.provider != nil {
			c.closeErr = c.provider.Close()
		}
		c.log.Debug().Msg("context closed")
	})
	return c.closeErr
}
