// Package shutdown coordinates graceful process termination.
//
// Components register named hooks as they start. When SIGINT or SIGTERM
// arrives (or the context passed to WaitContext ends, or Trigger is
// called) the hooks run in reverse registration order under one shared
// timeout, so the last thing started is the first thing stopped.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("tcp server", srv.Shutdown)
//	if err := h.Wait(); err != nil { ... }
package shutdown
