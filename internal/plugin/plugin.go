// Package plugin implements the dependency-ordered realm-assembly
// mechanism of spec.md §4.9: intrinsics are contributed by small,
// independent Plugin values, installed in an order a topological sort of
// their declared dependencies determines, with every plugin's globals
// staged and committed together only once the whole DAG has run.
package plugin

import (
	"sort"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// Plugin is one installable unit of intrinsic setup: a name, the names
// of plugins it depends on (which must run first, so it can reference
// their intrinsics), and an Install callback that receives the realm
// being assembled.
type Plugin struct {
	Name    string
	Depends []string
	Install func(realm *runtime.Realm) *errors.LanguageError
}

// Registry collects plugins and installs them in dependency order.
type Registry struct {
	plugins map[string]Plugin
	order   []string // insertion order; topoSort breaks ties by name, not by this order
}

// NewRegistry allocates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds p to the registry. Registering the same name twice
// replaces the earlier entry (useful for a host swapping out a stock
// intrinsic plugin with a custom one of the same name).
func (r *Registry) Register(p Plugin) {
	if _, exists := r.plugins[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	r.plugins[p.Name] = p
}

// InstallAll topologically sorts every registered plugin by its
// Depends edges and runs each Install callback in that order, then
// commits every staged global in one pass (spec.md §4.9: "a plugin's
// intrinsic can reference another's well-known object regardless of
// install order within the same DAG layer" — true because globals are
// staged, not committed, during Install).
func (r *Registry) InstallAll(realm *runtime.Realm) *errors.LanguageError {
	order, err := r.topoSort()
	if err != nil {
		return err
	}
	for _, name := range order {
		p := r.plugins[name]
		if p.Install == nil {
			continue
		}
		if err := p.Install(realm); err != nil {
			return err
		}
	}
	realm.CommitGlobals()
	return nil
}

// topoSort implements Kahn's algorithm, always taking the
// alphabetically first ready plugin so repeated runs over the same
// registry are reproducible.
func (r *Registry) topoSort() ([]string, *errors.LanguageError) {
	indegree := make(map[string]int, len(r.order))
	dependents := make(map[string][]string)
	for _, name := range r.order {
		indegree[name] = 0
	}
	for _, name := range r.order {
		for _, dep := range r.plugins[name].Depends {
			if _, ok := r.plugins[dep]; !ok {
				return nil, errors.New(errors.Error, "plugin %q depends on unregistered plugin %q", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range r.order {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var out []string
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)
		var newlyReady []string
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				newlyReady = append(newlyReady, dep)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}

	if len(out) != len(r.order) {
		return nil, errors.New(errors.Error, "plugin dependency cycle detected among %d unresolved plugin(s)", len(r.order)-len(out))
	}
	return out, nil
}
