// Package check runs the pre-run gate over a resolved pipeline: document
// rules and a secret scan, evaluated after substitution and before any step
// executes. Critical findings abort the run.
package check

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/pierworks/stevedore/src/spec"
)

// Severity classifies a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Finding is one issue raised by a check module.
type Finding struct {
	Step     string // step id, "" for document-level findings
	Module   string
	Severity Severity
	Message  string
}

// Module inspects a resolved pipeline.
type Module interface {
	Name() string
	Check(ctx context.Context, p *spec.Pipeline) ([]Finding, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Module{}
)

// Register adds a module constructor to the global registry.
// Called from init() in each module file.
func Register(name string, constructor func() Module) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("check: duplicate module registration: %s", name))
	}
	registry[name] = constructor
}

// All returns sorted names of all registered modules.
func All() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a new instance of the named module.
func Get(name string) (Module, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("check: unknown module: %s", name)
	}
	return ctor(), nil
}

// Engine fans modules out over a resolved pipeline.
type Engine struct {
	Modules []Module
}

// NewEngine creates an engine with every registered module except those in
// skip.
func NewEngine(skip []string) (*Engine, error) {
	skipSet := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipSet[name] = true
	}

	e := &Engine{}
	for _, name := range All() {
		if skipSet[name] {
			continue
		}
		m, err := Get(name)
		if err != nil {
			return nil, err
		}
		e.Modules = append(e.Modules, m)
	}
	return e, nil
}

// Run evaluates all modules, bounded to GOMAXPROCS concurrent module runs.
// Findings come back grouped by module registration order.
func (e *Engine) Run(ctx context.Context, p *spec.Pipeline) ([]Finding, error) {
	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))

	perModule := make([][]Finding, len(e.Modules))
	errs := make([]error, len(e.Modules))

	var wg sync.WaitGroup
	for i, m := range e.Modules {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, m Module) {
			defer wg.Done()
			defer sem.Release(1)
			perModule[i], errs[i] = m.Check(ctx, p)
		}(i, m)
	}
	wg.Wait()

	var findings []Finding
	for i := range e.Modules {
		if errs[i] != nil {
			return nil, fmt.Errorf("check %s: %w", e.Modules[i].Name(), errs[i])
		}
		findings = append(findings, perModule[i]...)
	}
	return findings, nil
}

// Tally counts findings by severity.
func Tally(findings []Finding) (critical, warning, info int) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		default:
			info++
		}
	}
	return
}
