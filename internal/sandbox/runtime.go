package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/widgetkit/internal/dom"
	"github.com/dop251/goja"
)

// ErrScript wraps failures raised by the executed script.
var ErrScript = errors.New("script failed")

// Runtime wraps a goja VM with stubbed browser globals
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// Per-execution state, guarded by mu
	page    *dom.Document
	console []LogEntry
	widgets []Construction
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.setup(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs script against page. A nil page makes every target missing.
func (r *Runtime) Execute(ctx context.Context, script string, page *dom.Document) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("runtime is closed")
	}

	r.page = page
	r.console = []LogEntry{}
	r.widgets = []Construction{}
	defer func() { r.page = nil }()

	start := time.Now()

	done := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		var timeout <-chan time.Time
		if r.config.Timeout > 0 {
			timer := time.NewTimer(r.config.Timeout)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-timeout:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	val, err := r.vm.RunString(script)
	close(done)
	<-watcher
	r.vm.ClearInterrupt()

	result := &Result{
		Console:  r.console,
		Widgets:  r.widgets,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Error = fmt.Errorf("%w: %w", ErrScript, err)
		return result, result.Error
	}
	result.Value = exportValue(val)
	return result, nil
}

// Reset replaces the VM, dropping any globals the last script defined.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setup()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vm = nil
	r.console = nil
	r.widgets = nil
	return nil
}

func (r *Runtime) setup() error {
	vm := goja.New()
	if r.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.vm = vm

	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		fn := noop
		if r.config.EnableConsole {
			fn = r.consoleFunc(level)
		}
		if err := console.Set(level, fn); err != nil {
			return err
		}
	}

	document := vm.NewObject()
	if err := document.Set("getElementById", r.getElementByID); err != nil {
		return err
	}

	location := vm.NewObject()
	if err := location.Set("href", r.config.PageURL); err != nil {
		return err
	}
	window := vm.NewObject()
	if err := window.Set("location", location); err != nil {
		return err
	}

	globals := map[string]any{
		"console":     console,
		"document":    document,
		"window":      window,
		"setTimeout":  noop,
		"setInterval": noop,
		"Chart":       r.chartConstructor,
		"$":           r.query,
		"jQuery":      r.query,
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		return goja.Undefined()
	}
}

// getElementByID returns an element proxy, or null when the page lacks the id.
func (r *Runtime) getElementByID(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).String()
	if r.page == nil || !r.page.HasID(id) {
		return goja.Null()
	}
	elem := r.vm.NewObject()
	_ = elem.Set("id", id)
	return elem
}

// chartConstructor stands in for `new Chart(element, config)`.
func (r *Runtime) chartConstructor(call goja.ConstructorCall) *goja.Object {
	target := call.Argument(0)
	c := Construction{Library: ChartJS, Config: r.stringify(call.Argument(1))}
	if obj, ok := target.(*goja.Object); ok {
		c.Target = obj.Get("id").String()
		c.Found = true
	}
	r.widgets = append(r.widgets, c)
	return call.This
}

// query stands in for `$(selector)`, exposing only DataTable.
func (r *Runtime) query(call goja.FunctionCall) goja.Value {
	selector := call.Argument(0).String()
	sel := r.vm.NewObject()
	_ = sel.Set("length", r.matches(selector))
	_ = sel.Set("DataTable", func(inner goja.FunctionCall) goja.Value {
		cfg := inner.Argument(0)
		r.widgets = append(r.widgets, Construction{
			Library:  DataTables,
			Target:   selector,
			Found:    r.matches(selector) > 0,
			Config:   r.stringify(cfg),
			Rendered: r.renderSamples(cfg),
		})
		return sel
	})
	return sel
}

func (r *Runtime) matches(selector string) int {
	if r.page == nil || !r.page.Exists(selector) {
		return 0
	}
	return 1
}

func (r *Runtime) renderSamples(cfg goja.Value) []string {
	obj, ok := cfg.(*goja.Object)
	if !ok {
		return nil
	}
	defs, ok := obj.Get("columnDefs").(*goja.Object)
	if !ok {
		return nil
	}

	var out []string
	n := int(defs.Get("length").ToInteger())
	row := r.vm.ToValue([]any{SampleKey})
	for i := 0; i < n; i++ {
		def, ok := defs.Get(fmt.Sprint(i)).(*goja.Object)
		if !ok {
			continue
		}
		render, ok := goja.AssertFunction(def.Get("render"))
		if !ok {
			continue
		}
		v, err := render(goja.Undefined(), goja.Null(), r.vm.ToValue("display"), row)
		if err != nil {
			continue
		}
		out = append(out, v.String())
	}
	return out
}

func (r *Runtime) stringify(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	json := r.vm.Get("JSON").ToObject(r.vm)
	fn, ok := goja.AssertFunction(json.Get("stringify"))
	if !ok {
		return ""
	}
	out, err := fn(json, v)
	if err != nil || goja.IsUndefined(out) {
		return ""
	}
	return out.String()
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
