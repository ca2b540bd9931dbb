// Package renderer schedules the frame over a pool of workers. The
// frame is cut into square tiles rendered center-first, so previews
// show the interesting part of the image early.
package renderer

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajgappmark/RGK/asset/texture"
	"github.com/ajgappmark/RGK/log"
	"github.com/ajgappmark/RGK/tracer"
)

const (
	progressInterval = 100 * time.Millisecond
	previewInterval  = 1 * time.Second

	progressBarWidth = 60
)

// TracerFactory builds one tracer instance per worker. Tracers keep
// per-pixel state, so workers never share them; seed derives the
// worker's sampler stream.
type TracerFactory func(seed int64) tracer.Tracer

// A renderTask is one rectangular tile, [x0,x1) x [y0,y1).
type renderTask struct {
	x0, y0, x1, y1 int
}

type Renderer struct {
	opts    Options
	factory TracerFactory
	fb      *texture.Texture

	// The preview writer races with workers for the framebuffer;
	// both take this.
	fbMu sync.Mutex

	pixelsDone  uint64
	raysCast    uint64
	tilesDone   uint32
	stopMonitor chan struct{}

	stats  FrameStats
	logger log.Logger
}

func New(opts Options, factory TracerFactory) (*Renderer, error) {
	opts.fill()
	if factory == nil {
		return nil, ErrNoTracerFactory
	}
	if opts.FrameW <= 0 || opts.FrameH <= 0 {
		return nil, ErrInvalidFrameDims
	}
	if opts.TileSize < 1 {
		return nil, ErrInvalidTileSize
	}
	return &Renderer{
		opts:    opts,
		factory: factory,
		logger:  log.New("renderer"),
	}, nil
}

// Render renders the frame into fb and blocks until it is complete.
func (r *Renderer) Render(fb *texture.Texture) error {
	if fb.Width != r.opts.FrameW || fb.Height != r.opts.FrameH {
		return ErrInvalidFrameDims
	}
	r.fb = fb

	seed := r.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tasks := r.makeTasks()
	r.logger.Infof("rendering %dx%d frame: %d tiles, %d workers, %d samples/pixel",
		r.opts.FrameW, r.opts.FrameH, len(tasks), r.opts.NumWorkers, r.opts.Multisample)

	start := time.Now()
	r.stopMonitor = make(chan struct{})
	var monitorDone sync.WaitGroup
	monitorDone.Add(1)
	go func() {
		defer monitorDone.Done()
		r.monitor(len(tasks))
	}()

	taskCh := make(chan renderTask)
	splats := make([][]tracer.Splat, r.opts.NumWorkers)

	var wg sync.WaitGroup
	for w := 0; w < r.opts.NumWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			splats[w] = r.worker(r.factory(seed+int64(w)), taskCh)
		}(w)
	}

	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)
	wg.Wait()

	close(r.stopMonitor)
	monitorDone.Wait()

	applied := r.applySplats(splats)

	r.stats = FrameStats{
		RenderTime:     time.Since(start),
		Rays:           atomic.LoadUint64(&r.raysCast),
		PixelsRendered: int(atomic.LoadUint64(&r.pixelsDone)),
		TilesRendered:  int(atomic.LoadUint32(&r.tilesDone)),
		SplatsApplied:  applied,
		Workers:        r.opts.NumWorkers,
	}
	r.logger.Noticef("frame done in %s, %.2fM rays (%.2fM rays/sec)",
		r.stats.RenderTime.Round(time.Millisecond),
		float64(r.stats.Rays)/1e6, r.stats.RaysPerSec()/1e6)
	return nil
}

func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// makeTasks tiles the frame and orders tiles by distance from the
// image center.
func (r *Renderer) makeTasks() []renderTask {
	size := r.opts.TileSize
	var tasks []renderTask
	for y := 0; y < r.opts.FrameH; y += size {
		for x := 0; x < r.opts.FrameW; x += size {
			t := renderTask{x0: x, y0: y, x1: x + size, y1: y + size}
			if t.x1 > r.opts.FrameW {
				t.x1 = r.opts.FrameW
			}
			if t.y1 > r.opts.FrameH {
				t.y1 = r.opts.FrameH
			}
			tasks = append(tasks, t)
		}
	}

	cx := float64(r.opts.FrameW) / 2
	cy := float64(r.opts.FrameH) / 2
	dist2 := func(t renderTask) float64 {
		dx := float64(t.x0+t.x1)/2 - cx
		dy := float64(t.y0+t.y1)/2 - cy
		return dx*dx + dy*dy
	}
	sort.Slice(tasks, func(i, j int) bool { return dist2(tasks[i]) < dist2(tasks[j]) })
	return tasks
}

func (r *Renderer) worker(tr tracer.Tracer, tasks <-chan renderTask) []tracer.Splat {
	var splats []tracer.Splat
	for t := range tasks {
		for y := t.y0; y < t.y1; y++ {
			for x := t.x0; x < t.x1; x++ {
				res := tr.RenderPixel(x, y, false)

				r.fbMu.Lock()
				r.fb.SetPixel(x, y, res.Color)
				r.fbMu.Unlock()

				splats = append(splats, res.Splats...)
				atomic.AddUint64(&r.raysCast, res.Rays)
				atomic.AddUint64(&r.pixelsDone, 1)
			}
		}
		atomic.AddUint32(&r.tilesDone, 1)
	}
	return splats
}

// applySplats composites the collected light subpath contributions,
// scaled down by the per-pixel sample count.
func (r *Renderer) applySplats(perWorker [][]tracer.Splat) int {
	scale := 1.0 / float32(r.opts.Multisample)
	applied := 0
	for _, splats := range perWorker {
		for _, s := range splats {
			if s.X < 0 || s.X >= r.opts.FrameW || s.Y < 0 || s.Y >= r.opts.FrameH {
				continue
			}
			r.fb.AddPixel(s.X, s.Y, s.Radiance.Mul(scale))
			applied++
		}
	}
	return applied
}

// monitor periodically prints a progress bar and refreshes the preview
// image until the frame completes.
func (r *Renderer) monitor(totalTasks int) {
	progress := time.NewTicker(progressInterval)
	defer progress.Stop()
	preview := time.NewTicker(previewInterval)
	defer preview.Stop()

	totalPixels := uint64(r.opts.FrameW * r.opts.FrameH)
	for {
		select {
		case <-r.stopMonitor:
			if r.opts.ShowProgress {
				r.printProgress(totalPixels, totalTasks)
				fmt.Println()
			}
			if r.opts.PreviewFile != "" {
				r.writePreview()
			}
			return
		case <-progress.C:
			if r.opts.ShowProgress {
				r.printProgress(totalPixels, totalTasks)
			}
		case <-preview.C:
			if r.opts.PreviewFile != "" {
				r.writePreview()
			}
		}
	}
}

func (r *Renderer) printProgress(totalPixels uint64, totalTasks int) {
	done := atomic.LoadUint64(&r.pixelsDone)
	frac := float64(done) / float64(totalPixels)
	filled := int(frac * progressBarWidth)

	bar := make([]byte, progressBarWidth)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '-'
		}
	}

	fmt.Printf("\033[2K\rRendered %d/%d pixels, [%s] %5.1f%% done. (tile %d/%d, %.2fM rays)",
		done, totalPixels, bar, frac*100,
		atomic.LoadUint32(&r.tilesDone), totalTasks,
		float64(atomic.LoadUint64(&r.raysCast))/1e6)
}

func (r *Renderer) writePreview() {
	// Snapshot under the lock; encoding can take a while and must not
	// stall the workers.
	snap := texture.New(r.fb.Width, r.fb.Height)
	r.fbMu.Lock()
	for y := 0; y < r.fb.Height; y++ {
		for x := 0; x < r.fb.Width; x++ {
			snap.SetPixel(x, y, r.fb.GetPixel(x, y))
		}
	}
	r.fbMu.Unlock()

	if err := snap.Write(r.opts.PreviewFile); err != nil {
		r.logger.Warningf("preview write failed: %v", err)
	}
}
