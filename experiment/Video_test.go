package experiment

import (
	"context"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
)

func TestRGB24(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(2, 1, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	buf := make([]byte, 3*2*3)
	test.That(t, RGB24(img, buf, 3, 2), test.ShouldBeNil)
	test.That(t, buf[:3], test.ShouldResemble, []byte{10, 20, 30})
	test.That(t, buf[15:], test.ShouldResemble, []byte{40, 50, 60})

	// Sub-images keep their own origin
	sub := img.SubImage(image.Rect(1, 1, 3, 2)).(*image.RGBA)
	small := make([]byte, 2*3)
	test.That(t, RGB24(sub, small, 2, 1), test.ShouldBeNil)
	test.That(t, small[3:], test.ShouldResemble, []byte{40, 50, 60})

	// Images other than RGBA go through the generic path
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(1, 0, color.Gray{Y: 200})
	test.That(t, RGB24(gray, buf, 3, 2), test.ShouldBeNil)
	test.That(t, buf[3:6], test.ShouldResemble, []byte{200, 200, 200})

	test.That(t, RGB24(img, buf, 4, 2), test.ShouldNotBeNil)
	test.That(t, RGB24(img, buf[:5], 3, 2), test.ShouldNotBeNil)
}

func TestVideoWriter(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	filename := filepath.Join(t.TempDir(), "videos", "out.mp4")
	v, err := NewVideoWriter(context.Background(), filename, 32, 16, 10,
		zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	frame := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for i := 0; i < 10; i++ {
		frame.Set(i, i, color.RGBA{R: 255, A: 255})
		test.That(t, v.WriteFrame(frame), test.ShouldBeNil)
	}
	test.That(t, v.WriteFrame(image.NewRGBA(image.Rect(0, 0, 8, 8))),
		test.ShouldNotBeNil)
	test.That(t, v.Frames(), test.ShouldEqual, 10)
	test.That(t, v.Close(), test.ShouldBeNil)

	info, err := os.Stat(filename)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}

func TestVideoWriterInvalidSize(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	_, err := NewVideoWriter(context.Background(),
		filepath.Join(t.TempDir(), "out.mp4"), 0, 16, 10, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
