package thermal

// historyCapacity bounds the event history; oldest entries are evicted.
const historyCapacity = 1000

// eventRing is a fixed-capacity ring buffer of thermal events.
type eventRing struct {
	buf   []Event
	head  int // index of the next write
	size  int
	total int
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{buf: make([]Event, capacity)}
}

// Append stores ev, evicting the oldest entry when full.
func (r *eventRing) Append(ev Event) {
	r.buf[r.head] = ev
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
	r.total++
}

// Last returns up to n most recent events, oldest first.
func (r *eventRing) Last(n int) []Event {
	if n > r.size {
		n = r.size
	}
	out := make([]Event, 0, n)
	start := r.head - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Len returns the number of retained events.
func (r *eventRing) Len() int { return r.size }

// Total returns the number of events ever appended, including evicted ones.
func (r *eventRing) Total() int { return r.total }
