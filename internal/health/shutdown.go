package health

import "sync/atomic"

// ready gates the readiness probe during graceful shutdown. The process
// starts ready and flips to not-ready before draining in-flight requests so
// the load balancer stops routing new traffic first.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate.
func SetReady(v bool) {
	ready.Store(v)
}

// Ready reports whether the process accepts new traffic.
func Ready() bool {
	return ready.Load()
}
