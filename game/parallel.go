package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// agentSnapshot captures what the steering phase needs for one agent.
// Body points into Game.bodies, State into ECS storage; neither moves
// until the apply phase finishes.
type agentSnapshot struct {
	Entity    ecs.Entity
	Archetype uint8
	Body      int // index into Game.bodies
	State     *steering.State
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	Force  r2.Vec
	Report steering.Report
}

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
	dt         float64
}

// parallelState holds resources for parallel steering computation.
type parallelState struct {
	snapshots  []agentSnapshot
	intents    []intent
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(numWorkers int) *parallelState {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: numWorkers,
		snapshots:  make([]agentSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, chunk.dt)
			p.doneChan <- struct{}{}
		}
	}
}

// updateSteering runs every agent's accumulator against the current index.
// Each agent only writes its own State and intent, so chunks need no locking.
func (g *Game) updateSteering() {
	n := len(g.parallel.snapshots)
	if n == 0 {
		return
	}

	if cap(g.parallel.intents) < n {
		g.parallel.intents = make([]intent, n)
	}
	g.parallel.intents = g.parallel.intents[:n]

	dt := g.cfg.Physics.DT
	workers := 1
	if n < parallelThreshold || g.parallel.numWorkers == 1 {
		g.computeChunk(0, n, dt)
	} else {
		workers = g.computeParallel(n, dt)
	}
	g.perfCollector.SetWorkload(n, workers)
}

// computeParallel dispatches work to the worker pool and returns the number of chunks.
func (g *Game) computeParallel(n int, dt float64) int {
	// Ensure workers are running
	if !g.parallel.running {
		g.parallel.startWorkers(g)
	}

	numWorkers := g.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		g.parallel.workChan <- workChunk{start: start, end: end, dt: dt}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-g.parallel.doneChan
	}
	return chunksDispatched
}

// computeChunk processes a range of agents for a single worker.
func (g *Game) computeChunk(i0, i1 int, dt float64) {
	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		out := &g.parallel.intents[i]

		out.Force = snap.State.Steering(steering.Tick{
			Self:    &g.bodies[snap.Body],
			Index:   g.index,
			Elapsed: dt,
		})
		out.Report = snap.State.Report()
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
