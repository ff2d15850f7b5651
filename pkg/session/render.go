package session

import (
	"context"
	"time"

	"github.com/matzehuels/clusterview/pkg/cache"
	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/observability"
	"github.com/matzehuels/clusterview/pkg/render"
)

// RenderCache holds rendered artifacts across sessions. Sessions of the
// same dataset in the same state share entries.
type RenderCache struct {
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration
}

// Render draws the current view in format (svg, dot, png, or pdf). With a
// non-nil rc, image formats are served from and stored in the cache.
//
// fdp runs its layout to completion, so every image render ends with a
// settled layout and reports it through [Session.EngineStopped].
func (s *Session) Render(ctx context.Context, format string, rc *RenderCache) (data []byte, err error) {
	if !render.ValidFormats[format] {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format)
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, format, time.Since(start), err) }()

	snap := s.store.Snapshot()
	view := s.engine.Compute(snap)
	if format == render.FormatDOT {
		return []byte(s.renderer.ToDOT(view)), nil
	}

	var key string
	if rc != nil && rc.Cache != nil {
		keyer := rc.Keyer
		if keyer == nil {
			keyer = cache.NewDefaultKeyer()
		}
		key = keyer.RenderKey(s.fingerprint, snap, cache.RenderKeyOpts{
			Format:     format,
			Width:      s.render.Width,
			Height:     s.render.Height,
			Background: s.render.Background,
			Scale:      s.render.Scale,
			Params:     s.Params(),

			NodeRelSize: s.render.NodeRelSize,
		})
		if data, ok, err := rc.Cache.Get(ctx, key); err == nil && ok {
			s.EngineStopped()
			return data, nil
		} else if err != nil {
			s.logger.Warn("render cache read failed", "err", err)
		}
	}

	switch format {
	case render.FormatPNG:
		data, err = s.renderer.RenderPNG(ctx, view, s.render.Scale)
	case render.FormatPDF:
		data, err = s.renderer.RenderPDF(ctx, view)
	default:
		data, err = s.renderer.RenderSVG(ctx, view)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}

	if key != "" {
		if err := rc.Cache.Set(ctx, key, data, rc.TTL); err != nil {
			s.logger.Warn("render cache write failed", "err", err)
		}
	}
	s.EngineStopped()
	return data, nil
}
