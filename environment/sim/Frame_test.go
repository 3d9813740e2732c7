package sim

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.viam.com/test"
)

func TestFrameOrigin(t *testing.T) {
	f := NewFrame(2, 3, true)

	// Bottom row of the buffer is the bottom of the image
	f.RGB[0] = 200
	f.Depth[0] = 0.25

	r, _, _ := f.RGBAt(0, 2)
	test.That(t, r, test.ShouldEqual, 200)
	test.That(t, f.DepthAt(0, 2), test.ShouldEqual, 0.25)

	r, _, _ = f.RGBAt(0, 0)
	test.That(t, r, test.ShouldEqual, 0)

	img := f.Image()
	test.That(t, img.RGBAAt(0, 2), test.ShouldResemble, color.RGBA{200, 0, 0, 255})
	depth := 0.25
	test.That(t, f.DepthImage().Gray16At(0, 2).Y, test.ShouldEqual, uint16(depth*0xffff))
}

func TestFrameFromImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 9, 255})
		}
	}
	img.SetRGBA(3, 0, color.RGBA{1, 2, 3, 255})

	f := FrameFromImage(img)
	test.That(t, f.Depth, test.ShouldBeNil)
	test.That(t, f.Image(), test.ShouldResemble, img)
}

func TestRegistry(t *testing.T) {
	Register("registry-test", func(string, *zap.SugaredLogger) (Simulator, error) {
		return nil, ErrRenderUnavailable
	})
	test.That(t, Backends(), test.ShouldContain, "registry-test")
	test.That(t, func() {
		Register("registry-test", nil)
	}, test.ShouldPanic)

	_, err := Load("registry-test", "", zap.NewNop().Sugar())
	test.That(t, errors.Is(err, ErrRenderUnavailable), test.ShouldBeTrue)

	_, err = Load("missing", "", zap.NewNop().Sugar())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing")
}

func TestEqualityTypeString(t *testing.T) {
	test.That(t, EqJoint.String(), test.ShouldEqual, "joint")
	test.That(t, EqualityType(42).String(), test.ShouldEqual, "unknown")
}
