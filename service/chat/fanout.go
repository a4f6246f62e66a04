package chat

import (
	"CampusChat/tools/safe"
)

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout delivers one payload to many clients off the event-handling path.
// With a single worker (the default) broadcast order is preserved; more
// workers trade ordering for throughput.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		safe.SafeGo(func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					c.Deliver(job.payload)
				}
			}
		})
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}
