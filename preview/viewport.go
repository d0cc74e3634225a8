package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/golang/glog"
)

// ViewPort displays one of the preview images according to zoom and
// translation. Scrolling zooms and dragging moves the view; both are mirrored on
// the sibling viewport, so the original and remapped images stay aligned.
//
// It is both a CanvasObject and a WidgetRenderer, like the edit window's
// view port it derives from.
type ViewPort struct {
	widget.BaseWidget

	// p points back to the preview window.
	p *Preview

	// img returns the image currently displayed.
	img func() *image.RGBA

	// sibling mirrors the geometry of this viewport.
	sibling *ViewPort

	// mu guards the zoom, the view geometry and the cache: they are changed by
	// UI events, by Fyne's render loop and by the rewarp goroutine.
	mu sync.Mutex

	// Log2Zoom is the log2 of the zoom multiplier, it's what we show to the user.
	Log2Zoom float64

	// Area of the image visible in the viewport: start (viewX, viewY) and sizes in
	// image pixels -- each may be zoomed in/out when displaying.
	viewX, viewY, viewW, viewH int

	// Fyne objects.
	minSize fyne.Size
	raster  *canvas.Raster

	// Cache image for current dimensions/zoom/translation. Once handed to the
	// raster it is never written again: renderCache swaps in a new one.
	cache *image.RGBA

	// Dragging.
	dragging                       bool
	dragStart                      fyne.Position
	dragStartViewX, dragStartViewY int
}

// Ensure ViewPort implements the following interfaces.
var (
	vpPlaceholder = &ViewPort{}
	_             = fyne.CanvasObject(vpPlaceholder)
	_             = fyne.Draggable(vpPlaceholder)
	_             = fyne.Scrollable(vpPlaceholder)
	_             = desktop.Hoverable(vpPlaceholder)
)

// NewViewPort creates a viewport showing the image returned by img.
func NewViewPort(p *Preview, img func() *image.RGBA) (vp *ViewPort) {
	vp = &ViewPort{
		p:        p,
		img:      img,
		Log2Zoom: p.App.Preferences().Float(ZoomPreference),
	}
	vp.raster = canvas.NewRaster(vp.draw)
	vp.ExtendBaseWidget(vp)
	return
}

func (vp *ViewPort) Resize(size fyne.Size) {
	glog.V(2).Infof("Resize(size={w=%g, h=%g})", size.Width, size.Height)
	vp.BaseWidget.Resize(size)
	vp.raster.Resize(size)
}

func (vp *ViewPort) SetMinSize(size fyne.Size) {
	vp.minSize = size
}

func (vp *ViewPort) MinSize() fyne.Size {
	return vp.minSize
}

func (vp *ViewPort) CreateRenderer() fyne.WidgetRenderer {
	glog.V(2).Info("CreateRenderer()")
	return vp
}

func (vp *ViewPort) Destroy() {}

func (vp *ViewPort) Layout(size fyne.Size) {
	glog.V(2).Infof("Layout: size=(w=%g, h=%g)", size.Width, size.Height)
	vp.raster.Resize(size)
}

func (vp *ViewPort) Refresh() {
	glog.V(3).Info("Refresh()")
	vp.renderCache()
	canvas.Refresh(vp)
}

func (vp *ViewPort) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{vp.raster}
}

// PixelSize returns the size in pixels of this CanvasObject, based on the last request to redraw.
func (vp *ViewPort) PixelSize() (x, y int) {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return wh(vp.cache)
}

// Scrolled implements fyne.Scrollable: it zooms in/out, preserving the image
// pixel under the mouse.
func (vp *ViewPort) Scrolled(ev *fyne.ScrollEvent) {
	glog.V(2).Infof("Scrolled(dx=%f, dy=%f, position=%+v)", ev.Scrolled.DX, ev.Scrolled.DY, ev.Position)
	size := vp.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	ratioX := ev.Position.X / size.Width
	ratioY := ev.Position.Y / size.Height

	vp.mu.Lock()
	imgX := int(ratioX*float32(vp.viewW) + float32(vp.viewX) + 0.5)
	imgY := int(ratioY*float32(vp.viewH) + float32(vp.viewY) + 0.5)
	vp.Log2Zoom += float64(ev.Scrolled.DY) / 50.0
	vp.updateViewSize()
	vp.viewX = imgX - int(ratioX*float32(vp.viewW)+0.5)
	vp.viewY = imgY - int(ratioY*float32(vp.viewH)+0.5)
	log2Zoom := vp.Log2Zoom
	vp.mu.Unlock()

	vp.Refresh()
	vp.syncSibling()
	vp.p.zoomChanged(log2Zoom)
}

// SetZoom sets the zoom level, keeping the view top-left corner.
func (vp *ViewPort) SetZoom(log2Zoom float64) {
	vp.mu.Lock()
	vp.Log2Zoom = log2Zoom
	vp.updateViewSize()
	vp.mu.Unlock()
	vp.Refresh()
	vp.syncSibling()
}

// syncSibling copies the view geometry to the sibling viewport.
func (vp *ViewPort) syncSibling() {
	if vp.sibling == nil {
		return
	}
	vp.mu.Lock()
	log2Zoom, viewX, viewY := vp.Log2Zoom, vp.viewX, vp.viewY
	vp.mu.Unlock()

	s := vp.sibling
	s.mu.Lock()
	s.Log2Zoom = log2Zoom
	s.updateViewSize()
	s.viewX, s.viewY = viewX, viewY
	s.mu.Unlock()
	s.Refresh()
}

// updateViewSize must be called with vp.mu held.
func (vp *ViewPort) updateViewSize() {
	zoom := vp.zoom()
	pixelW, pixelH := wh(vp.cache)
	vp.viewW = int(float64(pixelW)*zoom + 0.5)
	vp.viewH = int(float64(pixelH)*zoom + 0.5)
}

// draw implements canvas.Raster Generator: it generates the image that will be drawn.
// The image should already be rendered in vp.cache, but this handles exception cases.
func (vp *ViewPort) draw(w, h int) image.Image {
	glog.V(2).Infof("draw(w=%d, h=%d)", w, h)
	vp.mu.Lock()
	defer vp.mu.Unlock()
	currentW, currentH := wh(vp.cache)
	if vp.cache != nil && currentW == w && currentH == h {
		return vp.cache
	}

	// Regenerate cache.
	vp.cache = image.NewRGBA(image.Rect(0, 0, w, h))
	vp.updateViewSize()
	vp.renderCacheLocked()
	return vp.cache
}

// wh extracts the width and height of an image.
func wh(img *image.RGBA) (int, int) {
	if img == nil {
		return 0, 0
	}
	rect := img.Bounds()
	return rect.Dx(), rect.Dy()
}

// zoom must be called with vp.mu held.
func (vp *ViewPort) zoom() float64 {
	return math.Exp2(-vp.Log2Zoom)
}

func (vp *ViewPort) renderCache() {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	vp.renderCacheLocked()
}

// renderCacheLocked renders a new cache with the size of the current one.
func (vp *ViewPort) renderCacheLocked() {
	if vp.cache == nil {
		return
	}
	const bytesPerPixel = 4 // RGBA.
	w, h := wh(vp.cache)
	cache := image.NewRGBA(image.Rect(0, 0, w, h))
	img := vp.img()
	imgW, imgH := wh(img)
	zoom := vp.zoom()

	var c color.RGBA
	glog.V(3).Infof("renderCache(): cache=(w=%d, h=%d), zoom=%g, viewX=%d, viewY=%d, viewW=%d, viewH=%d",
		w, h, zoom, vp.viewX, vp.viewY, vp.viewW, vp.viewH)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pos := (y*w + x) * bytesPerPixel
			imgX := int(math.Round(float64(x)*zoom)) + vp.viewX
			imgY := int(math.Round(float64(y)*zoom)) + vp.viewY
			if imgX < 0 || imgX >= imgW || imgY < 0 || imgY >= imgH {
				c = bgPattern(x, y)
			} else {
				c = img.RGBAAt(imgX, imgY)
				if c.A < 0xFF {
					c = overBackground(c, bgPattern(x, y))
				}
			}
			cache.Pix[pos] = c.R
			cache.Pix[pos+1] = c.G
			cache.Pix[pos+2] = c.B
			cache.Pix[pos+3] = c.A
		}
	}
	vp.cache = cache
}

var (
	bgDark, bgLight = color.RGBA{R: 58, G: 58, B: 58, A: 0xFF}, color.RGBA{R: 84, G: 84, B: 84, A: 0xFF}
)

func bgPattern(x, y int) color.RGBA {
	const boxSize = 25
	if (x/boxSize)%2 == (y/boxSize)%2 {
		return bgDark
	}
	return bgLight
}

// overBackground composes the premultiplied c over the opaque background bg,
// so transparent areas of the warp (outside the surface) show the pattern.
func overBackground(c, bg color.RGBA) color.RGBA {
	a := uint16(0xFF - c.A)
	return color.RGBA{
		R: c.R + uint8(uint16(bg.R)*a/0xFF),
		G: c.G + uint8(uint16(bg.G)*a/0xFF),
		B: c.B + uint8(uint16(bg.B)*a/0xFF),
		A: 0xFF,
	}
}

// Dragged implements fyne.Draggable: it moves the view around.
func (vp *ViewPort) Dragged(ev *fyne.DragEvent) {
	if !vp.dragging {
		vp.dragging = true
		vp.dragStart = ev.Position
		vp.mu.Lock()
		vp.dragStartViewX, vp.dragStartViewY = vp.viewX, vp.viewY
		vp.mu.Unlock()
		return
	}
	size := vp.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	delta := ev.Position.Subtract(vp.dragStart)
	ratioX := delta.X / size.Width
	ratioY := delta.Y / size.Height
	vp.mu.Lock()
	vp.viewX = vp.dragStartViewX - int(ratioX*float32(vp.viewW)+0.5)
	vp.viewY = vp.dragStartViewY - int(ratioY*float32(vp.viewH)+0.5)
	vp.mu.Unlock()
	vp.Refresh()
	vp.syncSibling()
}

// DragEnd implements fyne.Draggable.
func (vp *ViewPort) DragEnd() {
	vp.mu.Lock()
	glog.V(2).Infof("DragEnd(): view at (%d, %d)", vp.viewX, vp.viewY)
	vp.mu.Unlock()
	vp.dragging = false
}

// MouseIn implements desktop.Hoverable.
func (vp *ViewPort) MouseIn(_ *desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable: it shows the image pixel under the mouse.
func (vp *ViewPort) MouseMoved(ev *desktop.MouseEvent) {
	size := vp.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	vp.mu.Lock()
	x := int(ev.Position.X/size.Width*float32(vp.viewW) + float32(vp.viewX) + 0.5)
	y := int(ev.Position.Y/size.Height*float32(vp.viewH) + float32(vp.viewY) + 0.5)
	vp.mu.Unlock()
	vp.p.setPointer(fmt.Sprintf("(%d, %d)", x, y))
}

// MouseOut implements desktop.Hoverable.
func (vp *ViewPort) MouseOut() {
	vp.p.setPointer("")
}
