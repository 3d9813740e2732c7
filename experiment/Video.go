package experiment

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoEncoder is returned when the ffmpeg executable cannot be found
var ErrNoEncoder = errors.New("ffmpeg not found in PATH")

// FrameWriter consumes the frames of a recording
type FrameWriter interface {
	WriteFrame(img image.Image) error
	Close() error
}

// VideoWriter streams frames to an ffmpeg process which encodes them as
// an H.264 mp4. Frames are piped to the encoder as they are written
// rather than buffered in memory.
type VideoWriter struct {
	filename      string
	width, height int
	logger        *zap.SugaredLogger

	pipe   *io.PipeWriter
	group  *errgroup.Group
	buf    []byte
	frames int
}

// NewVideoWriter starts an encoder writing a width x height video at fps
// frames per second to filename. Cancelling ctx kills the encoder.
func NewVideoWriter(ctx context.Context, filename string, width, height,
	fps int, logger *zap.SugaredLogger) (*VideoWriter, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errors.Wrap(ErrNoEncoder, "newVideoWriter")
	}
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, errors.Errorf("newVideoWriter: invalid video %vx%v at "+
			"%v fps", width, height, fps)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, errors.Wrap(err, "newVideoWriter: could not create "+
			"directory")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	in, out := io.Pipe()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
			"format":    "rawvideo",
			"pix_fmt":   "rgb24",
			"s":         fmt.Sprintf("%dx%d", width, height),
			"framerate": fps,
		}).Output(filename, ffmpeg.KwArgs{
			"vcodec":  "libx264",
			"pix_fmt": "yuv420p",
		}).OverWriteOutput()
		stream.Context = ctx

		err := stream.WithInput(in).Run()
		if err != nil {
			err = errors.Wrap(err, "ffmpeg")
		}

		// Unblock pending writes if the encoder exits early
		in.CloseWithError(err)
		return err
	})

	logger.Debugw("started video encoder", "file", filename,
		"width", width, "height", height, "fps", fps)

	return &VideoWriter{
		filename: filename,
		width:    width,
		height:   height,
		logger:   logger,
		pipe:     out,
		group:    group,
		buf:      make([]byte, width*height*3),
	}, nil
}

// WriteFrame encodes a frame. The frame must match the video's size.
func (v *VideoWriter) WriteFrame(img image.Image) error {
	if err := RGB24(img, v.buf, v.width, v.height); err != nil {
		return errors.Wrap(err, "writeFrame")
	}
	if _, err := v.pipe.Write(v.buf); err != nil {
		return errors.Wrap(err, "writeFrame")
	}
	v.frames++
	return nil
}

// Frames returns the number of frames written
func (v *VideoWriter) Frames() int {
	return v.frames
}

// Close finishes the video and waits for the encoder to exit
func (v *VideoWriter) Close() error {
	if err := v.pipe.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	if err := v.group.Wait(); err != nil {
		return errors.Wrapf(err, "close: could not encode %v", v.filename)
	}
	v.logger.Debugw("finished video", "file", v.filename, "frames", v.frames)
	return nil
}

// RGB24 packs img into buf as rows of 8-bit RGB triples with a top-left
// origin. The image must be width x height and buf must hold 3 bytes per
// pixel.
func RGB24(img image.Image, buf []byte, width, height int) error {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return errors.Errorf("rgb24: invalid frame size \n\thave(%vx%v) "+
			"\n\twant(%vx%v)", b.Dx(), b.Dy(), width, height)
	}
	if len(buf) < width*height*3 {
		return errors.Errorf("rgb24: buffer of %v bytes too small for "+
			"%vx%v frame", len(buf), width, height)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < height; y++ {
			off := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			row := rgba.Pix[off : off+4*width]
			dst := buf[3*y*width : 3*(y+1)*width]
			for x := 0; x < width; x++ {
				copy(dst[3*x:3*x+3], row[4*x:4*x+3])
			}
		}
		return nil
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			buf[i], buf[i+1], buf[i+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			i += 3
		}
	}
	return nil
}
