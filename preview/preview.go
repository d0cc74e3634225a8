// Package preview implements the before/after window of curvewarp: the original
// (padded) image next to the remapped one, with controls to change the
// projection live and save the result.
package preview

import (
	"context"
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/validation"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/golang/glog"
	"github.com/janpfeifer/curvewarp/clipboard"
	"github.com/janpfeifer/curvewarp/imageio"
	"github.com/janpfeifer/curvewarp/projection"
)

// RewarpFn recomputes the remapped image for a new projection.
type RewarpFn func(ctx context.Context, variant projection.Variant, convexity projection.Convexity) (*image.RGBA, error)

// Preview is the preview application.
type Preview struct {
	// Fyne: Application and Window
	App fyne.App
	Win fyne.Window

	// Name is used for the window title and the default save file name.
	Name string

	// Rewarp is called when the user changes the projection. If nil, the
	// projection controls are disabled.
	Rewarp RewarpFn

	// Images and projection, guarded by mu: they are replaced from the rewarp goroutine.
	mu                 sync.Mutex
	original, remapped *image.RGBA
	variant            projection.Variant
	convexity          projection.Convexity
	rewarping          bool

	// UI elements
	zoomEntry           *widget.Entry
	status, pointer     *widget.Label
	originalVP, remapVP *ViewPort
	variantSelect       *widget.Select
	convexCheck         *widget.Check
}

const (
	DefaultPathPreference = "DefaultPath"
	ZoomPreference        = "Log2Zoom"
)

// AppID used for the Fyne application, and its preferences.
const AppID = "CurveWarp"

// New creates the preview for the given images, on a new Fyne application.
// It doesn't open the window yet.
func New(name string, original, remapped *image.RGBA, variant projection.Variant, convexity projection.Convexity,
	rewarp RewarpFn) *Preview {
	return NewWithApp(app.NewWithID(AppID), name, original, remapped, variant, convexity, rewarp)
}

// NewWithApp creates the preview on the given Fyne application.
func NewWithApp(a fyne.App, name string, original, remapped *image.RGBA, variant projection.Variant,
	convexity projection.Convexity, rewarp RewarpFn) *Preview {
	return &Preview{
		App:       a,
		Name:      name,
		Rewarp:    rewarp,
		variant:   variant,
		convexity: convexity,
		original:  original,
		remapped:  remapped,
	}
}

// Run builds the window and blocks until it is closed.
func (p *Preview) Run() {
	p.BuildWindow()
	p.Win.ShowAndRun()
}

// Original returns the image being remapped.
func (p *Preview) Original() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.original
}

// Remapped returns the current remapped image.
func (p *Preview) Remapped() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remapped
}

// Projection returns the projection of the current remapped image.
func (p *Preview) Projection() (projection.Variant, projection.Convexity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.variant, p.convexity
}

// BuildWindow creates the window and all its widgets.
func (p *Preview) BuildWindow() {
	p.Win = p.App.NewWindow(fmt.Sprintf("CurveWarp: %s", p.Name))

	// Build menu.
	menuFile := fyne.NewMenu("File",
		fyne.NewMenuItem("Save (ctrl+s)", func() { p.SaveImage() }),
		fyne.NewMenuItem("Copy (ctrl+c)", func() { p.CopyImage() }),
	) // Quit is added automatically.
	p.Win.SetMainMenu(fyne.NewMainMenu(menuFile))

	// Image canvases.
	p.originalVP = NewViewPort(p, p.Original)
	p.remapVP = NewViewPort(p, p.Remapped)
	p.originalVP.sibling = p.remapVP
	p.remapVP.sibling = p.originalVP

	// Projection controls.
	names := make([]string, 0, len(projection.Variants))
	for _, v := range projection.Variants {
		names = append(names, v.String())
	}
	p.variantSelect = widget.NewSelect(names, nil)
	variant, convexity := p.Projection()
	p.variantSelect.SetSelected(variant.String())
	p.variantSelect.OnChanged = func(name string) {
		variant, err := projection.ParseVariant(name)
		if err != nil {
			glog.Errorf("Invalid variant selected: %s", err)
			return
		}
		_, convexity := p.Projection()
		p.rewarp(variant, convexity)
	}
	p.convexCheck = widget.NewCheck("Convex", nil)
	p.convexCheck.SetChecked(convexity == projection.Convex)
	p.convexCheck.OnChanged = func(convex bool) {
		variant, _ := p.Projection()
		p.rewarp(variant, projection.ConvexityFor(convex))
	}
	if p.Rewarp == nil {
		p.variantSelect.Disable()
		p.convexCheck.Disable()
	}
	toolBar := container.NewHBox(
		widget.NewLabel("Projection:"),
		p.variantSelect,
		p.convexCheck,
		widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() { p.SaveImage() }),
		widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() { p.CopyImage() }),
	)

	// Status bar with zoom control.
	p.zoomEntry = &widget.Entry{Validator: validation.NewRegexp(`\d`, "Must contain a number")}
	p.zoomEntry.SetPlaceHolder("0.0")
	p.zoomEntry.OnChanged = func(str string) {
		glog.V(2).Infof("Zoom level changed to %s", str)
		val, err := strconv.ParseFloat(str, 64)
		if err == nil {
			p.setZoom(val)
		}
	}
	zoomReset := widget.NewButtonWithIcon("", theme.ZoomFitIcon(), func() {
		p.zoomEntry.SetText("0")
		p.setZoom(0)
	})
	p.status = widget.NewLabel("")
	p.pointer = widget.NewLabel("")
	p.updateStatus()
	statusBar := container.NewBorder(
		nil,
		nil,
		nil,
		container.NewHBox(p.pointer, widget.NewLabel("Zoom:"), p.zoomEntry, zoomReset),
		p.status,
	)

	// Stitch all together.
	split := container.NewHSplit(p.originalVP, p.remapVP)
	split.Offset = 0.5
	topLevel := container.NewBorder(toolBar, statusBar, nil, nil, container.NewMax(split))
	p.Win.SetContent(topLevel)
	p.Win.Resize(fyne.NewSize(1024.0, 600.0))

	// Register shortcuts.
	p.Win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyQ, Modifier: desktop.ControlModifier},
		func(shortcut fyne.Shortcut) {
			glog.Infof("Quit requested by shortcut %s", shortcut.ShortcutName())
			p.App.Quit()
		})
	p.Win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: desktop.ControlModifier},
		func(shortcut fyne.Shortcut) { p.SaveImage() })
	p.Win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyC, Modifier: desktop.ControlModifier},
		func(shortcut fyne.Shortcut) { p.CopyImage() })
}

func (p *Preview) setZoom(log2Zoom float64) {
	p.originalVP.SetZoom(log2Zoom)
	p.zoomChanged(log2Zoom)
}

// zoomChanged saves the new zoom level and updates the zoom entry.
func (p *Preview) zoomChanged(log2Zoom float64) {
	p.App.Preferences().SetFloat(ZoomPreference, log2Zoom)
	text := fmt.Sprintf("%.3g", log2Zoom)
	if p.zoomEntry != nil && p.zoomEntry.Text != text {
		if parsed, err := strconv.ParseFloat(p.zoomEntry.Text, 64); err != nil || parsed != log2Zoom {
			p.zoomEntry.SetText(text)
		}
	}
}

func (p *Preview) setPointer(text string) {
	if p.pointer != nil {
		p.pointer.SetText(text)
	}
}

func (p *Preview) updateStatus() {
	remapped := p.Remapped()
	variant, convexity := p.Projection()
	p.status.SetText(fmt.Sprintf("%s, %s: %d x %d pixels",
		variant, convexity, remapped.Rect.Dx(), remapped.Rect.Dy()))
}

// rewarp recomputes the remapped image in a separate goroutine, so the UI
// remains interactive.
func (p *Preview) rewarp(variant projection.Variant, convexity projection.Convexity) {
	p.mu.Lock()
	if p.Rewarp == nil || (variant == p.variant && convexity == p.convexity) {
		p.mu.Unlock()
		return
	}
	if p.rewarping {
		p.mu.Unlock()
		p.status.SetText("Still remapping, try again in a moment.")
		p.syncControls()
		return
	}
	p.rewarping = true
	p.mu.Unlock()

	p.status.SetText(fmt.Sprintf("Remapping to %s, %s ...", variant, convexity))
	go func() {
		defer func() {
			p.mu.Lock()
			p.rewarping = false
			p.mu.Unlock()
		}()
		remapped, err := p.Rewarp(context.Background(), variant, convexity)
		if err != nil {
			glog.Errorf("Failed to remap to %s, %s: %s", variant, convexity, err)
			p.status.SetText(fmt.Sprintf("Remap failed: %v", err))
			p.syncControls()
			return
		}
		p.mu.Lock()
		p.remapped = remapped
		p.variant, p.convexity = variant, convexity
		p.mu.Unlock()
		p.syncControls()
		p.remapVP.Refresh()
		p.updateStatus()
	}()
}

// syncControls sets the projection controls to the projection in effect.
// Their OnChanged callbacks see no change and return.
func (p *Preview) syncControls() {
	variant, convexity := p.Projection()
	p.variantSelect.SetSelected(variant.String())
	p.convexCheck.SetChecked(convexity == projection.Convex)
}

// DefaultName returns a default name for the remapped image.
func (p *Preview) DefaultName() string {
	base := strings.TrimSuffix(filepath.Base(p.Name), filepath.Ext(p.Name))
	if base == "" || base == "." {
		base = "curvewarp"
	}
	variant, convexity := p.Projection()
	return fmt.Sprintf("%s_%s_%s", base, strings.ToLower(variant.String()), convexity)
}

// CopyImage copies the remapped image to the clipboard.
func (p *Preview) CopyImage() {
	if err := clipboard.CopyImage(p.Remapped()); err != nil {
		glog.Errorf("Failed to copy image to clipboard: %s", err)
		p.status.SetText(fmt.Sprintf("Failed to copy image to clipboard: %s", err))
		return
	}
	p.status.SetText("Remapped image copied to clipboard.")
}

// SaveImage opens a file save dialog box to save the remapped image.
func (p *Preview) SaveImage() {
	glog.V(2).Info("Preview.SaveImage")
	var fileSave *dialog.FileDialog
	fileSave = dialog.NewFileSave(
		func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				glog.Errorf("Failed to save image: %s", err)
				p.status.SetText(fmt.Sprintf("Failed to save image: %s", err))
				return
			}
			if writer == nil {
				p.status.SetText("Save file cancelled.")
				return
			}
			glog.V(2).Infof("SaveImage(): URI=%s", writer.URI())
			defer func() { _ = writer.Close() }()

			// Always default to previous path used:
			defaultPath := path.Dir(writer.URI().Path())
			p.App.Preferences().SetString(DefaultPathPreference, defaultPath)

			format := strings.TrimPrefix(strings.ToLower(path.Ext(writer.URI().Path())), ".")
			if format == "" {
				format = "png"
			}
			if err = imageio.Encode(writer, format, p.Remapped()); err != nil {
				glog.Errorf("Failed to save image to %q: %s", writer.URI(), err)
				p.status.SetText(fmt.Sprintf("Failed to save image to %q: %s", writer.URI(), err))
				return
			}
			p.status.SetText(fmt.Sprintf("Saved image to %q", writer.URI()))
		}, p.Win)
	fileSave.SetFileName(p.DefaultName() + ".png")
	if defaultPath := p.App.Preferences().String(DefaultPathPreference); defaultPath != "" {
		lister, err := storage.ListerForURI(storage.NewFileURI(defaultPath))
		if err == nil {
			fileSave.SetLocation(lister)
		} else {
			glog.Warningf("Cannot create a ListableURI for %q", defaultPath)
		}
	}
	size := p.Win.Canvas().Size()
	size.Width *= 0.90
	size.Height *= 0.90
	fileSave.Resize(size)
	fileSave.Show()
}
