// Package driver supplies the module-resolution seam import statements
// call through. ModuleRegistry is an in-memory, concurrency-safe,
// path-keyed module cache: modules are registered ahead of time rather
// than parsed on first import, since no lexer/parser lives in this repo.
package driver

import (
	"fmt"
	"sync"

	"github.com/jndean/railway/ast"
)

// Loader resolves an import's filename to the parsed module it names.
// Satisfied by ModuleRegistry, or by a test double holding a handful of
// *ast.Module fixtures.
type Loader interface {
	Load(filename string) (*ast.Module, error)
}

// ModuleRegistry is a Loader backed by an in-memory map holding every
// module registered under a filename key. Load only reads that map.
type ModuleRegistry struct {
	mu      sync.RWMutex
	modules map[string]*ast.Module
}

// NewModuleRegistry builds an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[string]*ast.Module)}
}

// Register adds or replaces the module resolved for filename.
func (r *ModuleRegistry) Register(filename string, mod *ast.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[filename] = mod
}

// Load implements Loader.
func (r *ModuleRegistry) Load(filename string) (*ast.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mod, ok := r.modules[filename]
	if !ok {
		return nil, fmt.Errorf("driver: no module registered for %q", filename)
	}
	return mod, nil
}
