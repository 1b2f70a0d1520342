/*
Package sandbox dry-runs widget init scripts server side.

A Runtime is a goja VM whose browser globals are stubs: `Chart` and
`$(...).DataTable` record each construction instead of drawing,
`document.getElementById` answers from a dom.Document, and console output is
captured. Node-style globals (require, process, module, exports) are removed
and timers are no-ops.

A run is bounded by Config.Timeout and by the caller's context; either one
interrupts the VM.

# Usage

	pool, _ := sandbox.NewPool(sandbox.DefaultConfig(), 4)
	defer pool.Close()

	result, err := pool.Execute(ctx, initScript, page)
	for _, w := range result.Widgets {
		// w.Library, w.Target, w.Found, w.Config
	}
*/
package sandbox
