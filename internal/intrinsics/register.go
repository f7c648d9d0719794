package intrinsics

import "github.com/escore/escore/internal/plugin"

// NewDefaultRegistry builds the plugin.Registry a host realm installs
// to get the full standard intrinsic set: every built-in object this
// package implements, wired together through the dependency edges each
// plugin file declares on its own Plugin value.
func NewDefaultRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	r.Register(CorePlugin)
	r.Register(ObjectPlugin)
	r.Register(FunctionPlugin)
	r.Register(ArrayPlugin)
	r.Register(StringPlugin)
	r.Register(NumberPlugin)
	r.Register(BooleanPlugin)
	r.Register(SymbolPlugin)
	r.Register(BigIntPlugin)
	r.Register(ErrorPlugin)
	r.Register(IteratorPlugin)
	r.Register(PromisePlugin)
	r.Register(RegExpPlugin)
	r.Register(CollectionsPlugin)
	r.Register(ProxyPlugin)
	r.Register(ConsolePlugin)
	r.Register(TextEncodingPlugin)
	r.Register(JSONPlugin)
	return r
}
