package experiment

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/samuelfneumann/moblarms/environment/mobl"
	"github.com/samuelfneumann/moblarms/environment/sim"
)

// Size of the inset oculomotor image before it is scaled up
const (
	OcularWidth  = 120
	OcularHeight = 80
	OcularScale  = 3
)

// GrabPiPImage renders the for_testing camera at width x height and
// embeds the oculomotor camera's view, scaled up OcularScale times with
// nearest-neighbour sampling, in the bottom-right corner
func GrabPiPImage(env mobl.Env, width, height int) (*image.RGBA, error) {
	insetWidth, insetHeight := OcularWidth*OcularScale, OcularHeight*OcularScale
	if width < insetWidth || height < insetHeight {
		return nil, errors.Errorf("grabPiPImage: frame %vx%v smaller than "+
			"inset %vx%v", width, height, insetWidth, insetHeight)
	}

	base := env.Base()
	img, err := base.Render(mobl.RenderOptions{
		Mode:       sim.RGBArray,
		Width:      width,
		Height:     height,
		CameraName: mobl.ForTestingCam,
	})
	if err != nil {
		return nil, errors.Wrap(err, "grabPiPImage")
	}

	ocular, err := base.Render(mobl.RenderOptions{
		Mode:       sim.RGBArray,
		Width:      OcularWidth,
		Height:     OcularHeight,
		CameraName: mobl.OculomotorCam,
	})
	if err != nil {
		return nil, errors.Wrap(err, "grabPiPImage")
	}
	inset := imaging.Resize(ocular, insetWidth, insetHeight,
		imaging.NearestNeighbor)

	frame, ok := img.(*image.RGBA)
	if !ok {
		frame = image.NewRGBA(img.Bounds())
		gg.NewContextForRGBA(frame).DrawImage(img, 0, 0)
	}
	dc := gg.NewContextForRGBA(frame)
	dc.DrawImage(inset, width-insetWidth, height-insetHeight)
	return frame, nil
}
