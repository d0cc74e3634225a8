package preview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/janpfeifer/curvewarp/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreview(t *testing.T, rewarp RewarpFn) *Preview {
	original := image.NewRGBA(image.Rect(0, 0, 8, 6))
	p := NewWithApp(test.NewApp(), "photos/beach.jpg", original, original,
		projection.CylinderAlongY, projection.Concave, rewarp)
	p.BuildWindow()
	return p
}

func (p *Preview) isRewarping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rewarping
}

func TestDefaultName(t *testing.T) {
	p := newTestPreview(t, nil)
	assert.Equal(t, "beach_cylinderalongy_concave", p.DefaultName())

	p.Name = ""
	assert.Equal(t, "curvewarp_cylinderalongy_concave", p.DefaultName())
}

func TestControlsDisabledWithoutRewarp(t *testing.T) {
	p := newTestPreview(t, nil)
	assert.True(t, p.variantSelect.Disabled())
	assert.True(t, p.convexCheck.Disabled())
	assert.Equal(t, "CylinderAlongY", p.variantSelect.Selected)
	assert.False(t, p.convexCheck.Checked)
	assert.Contains(t, p.status.Text, "CylinderAlongY, concave: 8 x 6 pixels")
}

func TestRewarp(t *testing.T) {
	marker := color.RGBA{R: 200, A: 255}
	var calls []string
	p := newTestPreview(t, func(_ context.Context, variant projection.Variant, convexity projection.Convexity) (*image.RGBA, error) {
		calls = append(calls, variant.String()+"/"+convexity.String())
		img := image.NewRGBA(image.Rect(0, 0, 8, 6))
		img.SetRGBA(4, 3, marker)
		return img, nil
	})

	p.variantSelect.SetSelected("Hemisphere")
	require.Eventually(t, func() bool {
		variant, _ := p.Projection()
		return variant == projection.Hemisphere && !p.isRewarping()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, marker, p.Remapped().RGBAAt(4, 3))
	assert.NotSame(t, p.Original(), p.Remapped())

	p.convexCheck.SetChecked(true)
	require.Eventually(t, func() bool {
		_, convexity := p.Projection()
		return convexity == projection.Convex && !p.isRewarping()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Hemisphere/concave", "Hemisphere/convex"}, calls)
	assert.Equal(t, "beach_hemisphere_convex", p.DefaultName())
}

func TestRewarpFailure(t *testing.T) {
	p := newTestPreview(t, func(context.Context, projection.Variant, projection.Convexity) (*image.RGBA, error) {
		return nil, errors.New("boom")
	})
	original := p.Remapped()
	p.variantSelect.SetSelected("CylinderAlongX")
	require.Eventually(t, func() bool {
		return !p.isRewarping() && strings.Contains(p.status.Text, "boom")
	}, 2*time.Second, 10*time.Millisecond)
	variant, _ := p.Projection()
	assert.Equal(t, projection.CylinderAlongY, variant)
	assert.Same(t, original, p.Remapped())
	assert.Equal(t, "CylinderAlongY", p.variantSelect.Selected, "selector back to the projection in effect")
}

func TestRewarpWhileBusy(t *testing.T) {
	release := make(chan struct{})
	p := newTestPreview(t, func(context.Context, projection.Variant, projection.Convexity) (*image.RGBA, error) {
		<-release
		return image.NewRGBA(image.Rect(0, 0, 8, 6)), nil
	})

	p.variantSelect.SetSelected("Hemisphere")
	require.True(t, p.isRewarping())

	// Rejected while busy: controls show the projection in effect.
	p.convexCheck.SetChecked(true)
	assert.Contains(t, p.status.Text, "Still remapping")
	assert.False(t, p.convexCheck.Checked)
	assert.Equal(t, "CylinderAlongY", p.variantSelect.Selected)

	close(release)
	require.Eventually(t, func() bool {
		variant, _ := p.Projection()
		return variant == projection.Hemisphere && !p.isRewarping()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Hemisphere", p.variantSelect.Selected)
	assert.False(t, p.convexCheck.Checked)
}

func TestViewPortConcurrentRefresh(t *testing.T) {
	p := newTestPreview(t, nil)
	vp := p.remapVP

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			vp.Refresh()
		}
	}()
	for ii := 0; ii < 200; ii++ {
		w, h := 10+ii%7, 5+ii%3
		img := vp.draw(w, h)
		require.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
	}
	<-done

	pixelW, pixelH := vp.PixelSize()
	assert.Equal(t, 10+199%7, pixelW)
	assert.Equal(t, 5+199%3, pixelH)
}

func TestOverBackground(t *testing.T) {
	bg := color.RGBA{R: 100, G: 100, B: 100, A: 255}
	assert.Equal(t, bg, overBackground(color.RGBA{}, bg))
	opaque := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	assert.Equal(t, opaque, overBackground(opaque, bg))
	assert.Equal(t, color.RGBA{R: 149, G: 49, B: 49, A: 255},
		overBackground(color.RGBA{R: 100, A: 128}, bg))
}
