// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return att.Flush() })
//	err := h.Wait(ctx) // SIGINT, SIGTERM, ctx cancel or h.Trigger()
package shutdown
