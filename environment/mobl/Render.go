package mobl

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/samuelfneumann/moblarms/environment/sim"
)

// ErrAmbiguousCamera is returned when a render request names a camera by
// both id and name
var ErrAmbiguousCamera = errors.New("both camera id and camera name " +
	"specified")

// Default size of rendered images
const (
	RenderWidth  = 1280
	RenderHeight = 800
)

// Metadata describes how an environment can be rendered
type Metadata struct {
	RenderModes     []sim.RenderMode
	FramesPerSecond int

	// ImageSize is the width and height of recorded frames
	ImageSize [2]int
}

// Metadata returns the environment's rendering metadata
func (f *FixedEye) Metadata() Metadata {
	return Metadata{
		RenderModes:     []sim.RenderMode{sim.Human, sim.RGBArray, sim.DepthArray},
		FramesPerSecond: int(math.Round(1 / f.Dt())),
		ImageSize:       [2]int{RenderWidth, RenderHeight},
	}
}

// RenderOptions selects what Render draws. At most one of CameraID and
// CameraName may be set; if neither is, the track camera is used. Zero
// Width and Height select RenderWidth and RenderHeight.
type RenderOptions struct {
	Mode       sim.RenderMode
	Width      int
	Height     int
	CameraID   *int
	CameraName string
}

// Render renders the scene. In rgb_array mode it returns an *image.RGBA
// and in depth_array mode an *image.Gray16, both with a top-left origin.
// In human mode the scene is drawn to a window and the returned image is
// nil.
func (f *FixedEye) Render(opts RenderOptions) (image.Image, error) {
	if opts.Width == 0 {
		opts.Width = RenderWidth
	}
	if opts.Height == 0 {
		opts.Height = RenderHeight
	}

	switch opts.Mode {
	case sim.Human:
		v, err := f.viewer(opts.Mode)
		if err != nil {
			return nil, errors.Wrap(err, "render")
		}
		return nil, errors.Wrap(v.Render(opts.Width, opts.Height, -1),
			"render")

	case sim.RGBArray, sim.DepthArray:
	default:
		return nil, errors.Errorf("render: unknown render mode %q", opts.Mode)
	}

	camera, err := f.cameraID(opts)
	if err != nil {
		return nil, errors.Wrap(err, "render")
	}

	v, err := f.viewer(opts.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "render")
	}
	if err := v.Render(opts.Width, opts.Height, camera); err != nil {
		return nil, errors.Wrap(err, "render")
	}

	depth := opts.Mode == sim.DepthArray
	frame, err := v.ReadPixels(opts.Width, opts.Height, depth)
	if err != nil {
		return nil, errors.Wrap(err, "render")
	}

	if depth {
		return frame.DepthImage(), nil
	}
	return frame.Image(), nil
}

// cameraID resolves the camera of a render request. Unknown camera names
// select the viewer's free camera.
func (f *FixedEye) cameraID(opts RenderOptions) (int, error) {
	if opts.CameraID != nil && opts.CameraName != "" {
		return -1, ErrAmbiguousCamera
	}
	if opts.CameraID != nil {
		return *opts.CameraID, nil
	}

	name := opts.CameraName
	if name == "" {
		name = TrackCam
	}
	id, err := f.sim.CameraID(name)
	if err != nil {
		f.logger.Warnw("unknown camera, using free camera", "camera", name)
		return -1, nil
	}
	return id, nil
}

// viewer returns the viewer for a render mode, creating it on first use
func (f *FixedEye) viewer(mode sim.RenderMode) (sim.Viewer, error) {
	if v, ok := f.viewers[mode]; ok {
		return v, nil
	}

	v, err := f.sim.NewViewer(mode)
	if err != nil {
		return nil, err
	}
	f.viewers[mode] = v
	return v, nil
}

// Close releases all viewers and the simulation
func (f *FixedEye) Close() error {
	var err error
	for mode, v := range f.viewers {
		err = multierr.Combine(err, errors.Wrapf(v.Close(),
			"close: %v viewer", mode))
		delete(f.viewers, mode)
	}
	return multierr.Combine(err, f.sim.Close())
}
