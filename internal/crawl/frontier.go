package crawl

// Frontier owns the ordered work queue of not-yet-visited canonical URLs and
// the set of URLs already processed. It is mutated by exactly one goroutine
// (the crawl loop), so it carries no locking.
type Frontier struct {
	queue   []string
	queued  map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push enqueues a canonical URL unless it was already visited or is already
// queued. It reports whether the URL was accepted.
func (f *Frontier) Push(canonical string) bool {
	if _, ok := f.visited[canonical]; ok {
		return false
	}
	if _, ok := f.queued[canonical]; ok {
		return false
	}
	f.queued[canonical] = struct{}{}
	f.queue = append(f.queue, canonical)
	return true
}

// Pop removes and returns the oldest queued URL, FIFO.
func (f *Frontier) Pop() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.queued, next)
	return next, true
}

// MarkVisited records a URL as processed. A URL enters the visited set at
// most once; the second call is a no-op.
func (f *Frontier) MarkVisited(canonical string) {
	f.visited[canonical] = struct{}{}
}

// Visited reports whether the URL has been processed.
func (f *Frontier) Visited(canonical string) bool {
	_, ok := f.visited[canonical]
	return ok
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int { return len(f.queue) }

// VisitedCount returns the number of processed URLs, used for the crawl cap.
func (f *Frontier) VisitedCount() int { return len(f.visited) }
