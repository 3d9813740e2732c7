package kinematic

import (
	"math"
	"sort"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/samuelfneumann/moblarms/environment/sim"
)

var (
	defaultTendonRGBA = [4]float64{0.6, 0.5, 0.45, 1}
	background        = [4]float64{0.78, 0.82, 0.86, 1}
)

// segmentRadius is the radius of the capsules drawn between joints
const segmentRadius = 0.02

// primitive is a projected sphere or capsule. Spheres have a single
// point; capsules have two.
type primitive struct {
	x, y, d []float64

	// radius is in pixels, world is the world radius of spheres
	radius float64
	world  float64
	rgba   [4]float64
}

func (p primitive) depth() float64 {
	var sum float64
	for _, d := range p.d {
		sum += d
	}
	return sum / float64(len(p.d))
}

// project maps a world point to pixel coordinates with a top-left origin
// and returns its distance in front of the camera
func project(cam camera, width, height int, p vec3) (x, y, d, focal float64) {
	c := cam.rot.applyT(p.sub(cam.pos))
	d = -c[2]
	focal = float64(height) / 2 / math.Tan(cam.fovy*math.Pi/360)
	x = float64(width)/2 + focal*c[0]/d
	y = float64(height)/2 - focal*c[1]/d
	return x, y, d, focal
}

// primitives returns everything visible from cam, farthest first
func (s *Sim) primitives(cam camera, width, height int) []primitive {
	near := s.model.Near
	var prims []primitive

	for g, rgba := range s.geomRGBA {
		if rgba[3] <= 0 {
			continue
		}
		radius := s.geomRadius[g]
		x, y, d, f := project(cam, width, height, s.geomX[g].pos)
		if d-radius < near {
			continue
		}
		prims = append(prims, primitive{
			x: []float64{x}, y: []float64{y}, d: []float64{d},
			radius: f * radius / d, world: radius, rgba: rgba,
		})
	}

	// Capsules between the base and the end of every link with an offset
	start, from := -1, vec3(s.model.Base)
	for i, l := range s.model.Chain {
		if l.Offset == ([3]float64{}) {
			continue
		}
		to := s.linkFrame[i].pos
		x1, y1, d1, f := project(cam, width, height, from)
		x2, y2, d2, _ := project(cam, width, height, to)
		if d1 > near && d2 > near {
			prims = append(prims, primitive{
				x: []float64{x1, x2}, y: []float64{y1, y2},
				d:      []float64{d1, d2},
				radius: f * segmentRadius * 2 / (d1 + d2),
				rgba:   s.segmentRGBA(start+1, i),
			})
		}
		start, from = i, to
	}

	sort.SliceStable(prims, func(i, j int) bool {
		return prims[i].depth() > prims[j].depth()
	})
	return prims
}

// segmentRGBA returns the mean colour of the tendons of all muscles
// acting on joints of links first through last
func (s *Sim) segmentRGBA(first, last int) [4]float64 {
	var rgba [4]float64
	n := 0
	for l := first; l <= last; l++ {
		j := s.linkJoint[l]
		if j < 0 {
			continue
		}
		for m, mj := range s.muscleJoint {
			if mj != j {
				continue
			}
			for k := range rgba {
				rgba[k] += s.tendonRGBA[m][k]
			}
			n++
		}
	}
	if n == 0 {
		return defaultTendonRGBA
	}
	for k := range rgba {
		rgba[k] /= float64(n)
	}
	return rgba
}

// render draws the scene from cam into a frame with a bottom-left origin
func (s *Sim) render(cam camera, width, height int, depth bool) (sim.Frame, error) {
	if width <= 0 || height <= 0 {
		return sim.Frame{}, errors.Errorf("render: invalid image size "+
			"%vx%v", width, height)
	}
	prims := s.primitives(cam, width, height)

	dc := gg.NewContext(width, height)
	dc.SetRGBA(background[0], background[1], background[2], background[3])
	dc.Clear()
	dc.SetLineCapRound()

	for _, p := range prims {
		dc.SetRGBA(p.rgba[0], p.rgba[1], p.rgba[2], p.rgba[3])
		if len(p.x) == 1 {
			dc.DrawCircle(p.x[0], p.y[0], p.radius)
			dc.Fill()
			continue
		}
		dc.SetLineWidth(2 * p.radius)
		dc.DrawLine(p.x[0], p.y[0], p.x[1], p.y[1])
		dc.Stroke()
	}

	f := sim.FrameFromImage(dc.Image())
	if depth {
		f.Depth = s.depth(prims, width, height)
	}
	return f, nil
}

// depth rasterizes primitives into a depth buffer with a bottom-left
// origin. Depth is linear between the near and far clipping planes, so the
// background has depth 1.
func (s *Sim) depth(prims []primitive, width, height int) []float64 {
	near, far := s.model.Near, s.model.Far
	buf := make([]float64, width*height)
	for i := range buf {
		buf[i] = 1
	}

	write := func(x, y int, d float64) {
		z := (d - near) / (far - near)
		if z < 0 || z > 1 {
			return
		}
		i := (height-1-y)*width + x
		if z < buf[i] {
			buf[i] = z
		}
	}

	for _, p := range prims {
		x0, y0, x1, y1 := p.bounds(width, height)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if d, ok := p.depthAt(float64(x)+0.5, float64(y)+0.5); ok {
					write(x, y, d)
				}
			}
		}
	}
	return buf
}

// bounds returns the pixel rectangle covered by p, clipped to the image
func (p primitive) bounds(width, height int) (x0, y0, x1, y1 int) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := range p.x {
		minX, maxX = math.Min(minX, p.x[i]), math.Max(maxX, p.x[i])
		minY, maxY = math.Min(minY, p.y[i]), math.Max(maxY, p.y[i])
	}

	clamp := func(v float64, hi int) int {
		return int(math.Max(0, math.Min(float64(hi), v)))
	}
	return clamp(math.Floor(minX-p.radius), width),
		clamp(math.Floor(minY-p.radius), height),
		clamp(math.Ceil(maxX+p.radius), width),
		clamp(math.Ceil(maxY+p.radius), height)
}

// depthAt returns the distance of the surface of p seen through pixel
// (x, y)
func (p primitive) depthAt(x, y float64) (float64, bool) {
	if len(p.x) == 1 {
		dx, dy := x-p.x[0], y-p.y[0]
		rho := math.Sqrt(dx*dx+dy*dy) / p.radius
		if rho > 1 {
			return 0, false
		}
		return p.d[0] - p.world*math.Sqrt(1-rho*rho), true
	}

	ex, ey := p.x[1]-p.x[0], p.y[1]-p.y[0]
	length := ex*ex + ey*ey
	t := 0.0
	if length > 0 {
		t = math.Max(0, math.Min(1, ((x-p.x[0])*ex+(y-p.y[0])*ey)/length))
	}
	cx, cy := p.x[0]+t*ex, p.y[0]+t*ey
	if (x-cx)*(x-cx)+(y-cy)*(y-cy) > p.radius*p.radius {
		return 0, false
	}
	return p.d[0] + t*(p.d[1]-p.d[0]), true
}

// Render renders the named camera
func (s *Sim) Render(width, height int, camera string, depth bool) (sim.Frame,
	error) {
	id, err := s.CameraID(camera)
	if err != nil {
		return sim.Frame{}, errors.Wrap(err, "render")
	}
	return s.render(s.cameras[id], width, height, depth)
}

// freeCamera looks at the base of the chain from the front right
func (s *Sim) freeCamera() camera {
	base := vec3(s.model.Base)
	pos := base.add(vec3{2, -2, 0.6})
	return camera{
		name: "free",
		pos:  pos,
		rot:  lookAt(pos, base, vec3{0, 0, 1}),
		fovy: 45,
	}
}

// NewViewer returns an offscreen viewer. Windows are not supported.
func (s *Sim) NewViewer(mode sim.RenderMode) (sim.Viewer, error) {
	switch mode {
	case sim.RGBArray, sim.DepthArray:
		return &offscreen{sim: s}, nil
	case sim.Human:
		return nil, errors.Wrap(sim.ErrRenderUnavailable,
			"newViewer: kinematic backend has no window support")
	}
	return nil, errors.Errorf("newViewer: unknown render mode %q", mode)
}

// offscreen renders into a buffer which is read back with ReadPixels
type offscreen struct {
	sim    *Sim
	last   sim.Frame
	closed bool
}

func (o *offscreen) Render(width, height, camera int) error {
	if o.closed {
		return errors.New("render: viewer closed")
	}

	cam := o.sim.freeCamera()
	if camera >= 0 {
		if camera >= len(o.sim.cameras) {
			return errors.Wrapf(sim.ErrNoSuchName, "render: camera %v",
				camera)
		}
		cam = o.sim.cameras[camera]
	}

	f, err := o.sim.render(cam, width, height, true)
	if err != nil {
		return err
	}
	o.last = f
	return nil
}

func (o *offscreen) ReadPixels(width, height int, depth bool) (sim.Frame,
	error) {
	if o.last.Width != width || o.last.Height != height {
		return sim.Frame{}, errors.Errorf("readPixels: requested %vx%v "+
			"but last render was %vx%v", width, height, o.last.Width,
			o.last.Height)
	}

	f := sim.Frame{
		Width:  width,
		Height: height,
		RGB:    append([]uint8(nil), o.last.RGB...),
	}
	if depth {
		f.Depth = append([]float64(nil), o.last.Depth...)
	}
	return f, nil
}

func (o *offscreen) Close() error {
	o.closed = true
	o.last = sim.Frame{}
	return nil
}
