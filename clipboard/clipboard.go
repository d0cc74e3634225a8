// Package clipboard copies remapped images to the system clipboard.
package clipboard

import (
	"bytes"
	"image"
	"sync"

	"github.com/golang/glog"
	"github.com/janpfeifer/curvewarp/imageio"
	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// CopyImage copies img to the clipboard, encoded as PNG.
// It fails if the platform has no clipboard available (e.g. no X11 display).
func CopyImage(img image.Image) error {
	initOnce.Do(func() { initErr = clipboard.Init() })
	if initErr != nil {
		return initErr
	}
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, "png", img); err != nil {
		return err
	}
	glog.V(2).Infof("clipboard.CopyImage(%s): %d bytes", img.Bounds(), buf.Len())
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}
