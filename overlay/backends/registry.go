// Package backends is the build-time plugin registry of overlay collaborators.
//
// Backends register themselves in init():
//
//	backends.MustRegister(backends.Backend{ ... })
//
// The binary must import the backend package for registration to occur.
package backends

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

// Options are backend-specific settings, keyed by Option.Name.
type Options map[string]string

// Option documents one key a backend understands. It doubles as a CLI flag named
// "<backend>-<name>".
type Option struct {
	Name    string
	Default string
	Usage   string
}

type OpenParams struct {
	Networks []primitives.ProtocolID
	Options  Options
	Logger   *slog.Logger
}

type Backend struct {
	Name        string
	Description string
	Usage       Usage
	Options     []Option

	// Open returns one overlay.Network per requested network and an optional close function.
	Open func(ctx context.Context, p OpenParams) (map[primitives.ProtocolID]overlay.Network, func() error, error)
}

type optionFlag struct {
	value string
	set   bool
}

func (f *optionFlag) String() string {
	if f == nil {
		return ""
	}
	return f.value
}

func (f *optionFlag) Set(s string) error {
	f.value, f.set = s, true
	return nil
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
	flags    = map[string]map[string]*optionFlag{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("backends: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("backends: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("backends: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("backends: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// FlagName is the CLI flag carrying option opt of backend.
func FlagName(backend, opt string) string {
	return backend + "-" + strings.ReplaceAll(opt, "_", "-")
}

// RegisterFlags registers one flag per option of every backend matching usage.
//
// This enables single-pass flag parsing (Go's flag package rejects unknown flags).
// Flags that are set on the command line override config Options.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		mu.Lock()
		if flags[b.Name] == nil {
			flags[b.Name] = map[string]*optionFlag{}
		}
		for _, o := range b.Options {
			f := &optionFlag{value: o.Default}
			flags[b.Name][o.Name] = f
			fs.Var(f, FlagName(b.Name, o.Name), o.Usage)
		}
		mu.Unlock()
	}
}

// resolve merges option defaults, then config values, then explicitly set flags.
func resolve(b Backend, cfg Options) (Options, error) {
	out := make(Options, len(b.Options))
	known := make(map[string]bool, len(b.Options))
	for _, o := range b.Options {
		known[o.Name] = true
		out[o.Name] = o.Default
	}
	for k, v := range cfg {
		if !known[k] {
			return nil, fmt.Errorf("backends: backend %q has no option %q", b.Name, k)
		}
		out[k] = v
	}
	mu.RLock()
	defer mu.RUnlock()
	for name, f := range flags[b.Name] {
		if f.set {
			out[name] = f.value
		}
	}
	return out, nil
}

// Open opens the named backend if it exists and matches usage.
func Open(ctx context.Context, name string, usage Usage, p OpenParams) (map[primitives.ProtocolID]overlay.Network, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("backend %q not supported in this binary", name)
	}
	if len(p.Networks) == 0 {
		return nil, nil, fmt.Errorf("backends: no networks requested")
	}
	opts, err := resolve(b, p.Options)
	if err != nil {
		return nil, nil, err
	}
	p.Options = opts
	if p.Logger == nil {
		p.Logger = slog.New(slog.DiscardHandler)
	}
	return b.Open(ctx, p)
}
