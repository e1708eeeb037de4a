package session

import (
	"context"
	"time"

	"github.com/detour-routing/detour/pkg/geo"
	"go.uber.org/zap"
)

const (
	// DefaultAnimationTick is the reveal interval between path points.
	DefaultAnimationTick = 30 * time.Millisecond
	// DefaultFramePaddingKm grows the fitted viewport past the path bounds.
	DefaultFramePaddingKm = 0.25
)

// Animator reveals a computed path progressively: the polyline starts
// empty and grows one point per tick, while the viewport is fitted to the
// full path bounds immediately on start so the destination framing is
// visible before the reveal finishes.
type Animator struct {
	log       *zap.Logger
	surface   Surface
	tick      time.Duration
	paddingKm float64
}

func NewAnimator(log *zap.Logger, surface Surface, tick time.Duration, paddingKm float64) *Animator {
	if tick <= 0 {
		tick = DefaultAnimationTick
	}
	if paddingKm <= 0 {
		paddingKm = DefaultFramePaddingKm
	}
	return &Animator{log: log, surface: surface, tick: tick, paddingKm: paddingKm}
}

// Animate attaches an empty polyline, reframes the viewport, and starts
// the cooperative reveal. The returned handle is valid immediately; the
// reveal runs until the path is exhausted or ctx is canceled. A canceled
// reveal stops before its next tick and never writes to a surface whose
// artifact is already gone.
func (a *Animator) Animate(ctx context.Context, path []geo.Point, color string) Handle {
	h := a.surface.AddPolyline(nil, color)
	a.surface.FitBounds(geo.PathBound(path, a.paddingKm))

	go a.reveal(ctx, h, path)
	return h
}

func (a *Animator) reveal(ctx context.Context, h Handle, path []geo.Point) {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for _, p := range path {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := a.surface.AppendPoint(h, p); err != nil {
			// artifact was removed mid-reveal (route deleted or session
			// torn down): expected race, stop quietly
			a.log.Debug("animation target gone, stopping reveal", zap.Int64("handle", int64(h)))
			return
		}
	}
}
