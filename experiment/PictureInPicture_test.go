package experiment

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"

	"github.com/samuelfneumann/moblarms/environment/mobl"
	"github.com/samuelfneumann/moblarms/environment/sim"
)

func TestGrabPiPImage(t *testing.T) {
	env := testEnv(t)
	_, err := env.Reset()
	test.That(t, err, test.ShouldBeNil)

	width, height := 400, 260
	frame, err := GrabPiPImage(env, width, height)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Bounds(), test.ShouldResemble,
		image.Rect(0, 0, width, height))

	ocular, err := env.Base().Render(mobl.RenderOptions{
		Mode:       sim.RGBArray,
		Width:      OcularWidth,
		Height:     OcularHeight,
		CameraName: mobl.OculomotorCam,
	})
	test.That(t, err, test.ShouldBeNil)

	// The inset's bottom-right pixel is the ocular image's, and each
	// ocular pixel covers an OcularScale square
	x0, y0 := width-OcularWidth*OcularScale, height-OcularHeight*OcularScale
	sameColor(t, frame.At(width-1, height-1),
		ocular.At(OcularWidth-1, OcularHeight-1))
	sameColor(t, frame.At(x0+1, y0+1), ocular.At(0, 0))
	sameColor(t, frame.At(x0+OcularWidth*OcularScale/2+1,
		y0+OcularHeight*OcularScale/2+1),
		ocular.At(OcularWidth/2, OcularHeight/2))

	_, err = GrabPiPImage(env, 100, 100)
	test.That(t, err, test.ShouldNotBeNil)
}

func sameColor(t *testing.T, have, want color.Color) {
	t.Helper()
	hr, hg, hb, _ := have.RGBA()
	wr, wg, wb, _ := want.RGBA()
	for i, h := range []uint32{hr, hg, hb} {
		w := []uint32{wr, wg, wb}[i]
		test.That(t, float64(h>>8), test.ShouldAlmostEqual, float64(w>>8), 2)
	}
}
