package backends

import (
	"context"
	"flag"
	"testing"

	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

func registerEcho(t *testing.T, name string, got *Options) {
	t.Helper()
	err := Register(Backend{
		Name:    name,
		Usage:   UsageDaemon,
		Options: []Option{{Name: "peer_count", Default: "4"}, {Name: "mode", Default: "fast"}},
		Open: func(ctx context.Context, p OpenParams) (map[primitives.ProtocolID]overlay.Network, func() error, error) {
			*got = p.Options
			return map[primitives.ProtocolID]overlay.Network{}, nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestOpen_OptionPrecedence(t *testing.T) {
	var got Options
	registerEcho(t, "test-precedence", &got)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, UsageDaemon)
	if err := fs.Parse([]string{"-" + FlagName("test-precedence", "mode"), "slow"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, _, err := Open(context.Background(), "test-precedence", UsageDaemon, OpenParams{
		Networks: []primitives.ProtocolID{primitives.History},
		Options:  Options{"peer_count": "9", "mode": "config"},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got["peer_count"] != "9" {
		t.Fatalf("config value lost: %v", got)
	}
	if got["mode"] != "slow" {
		t.Fatalf("flag did not override config: %v", got)
	}
}

func TestOpen_Rejects(t *testing.T) {
	var got Options
	registerEcho(t, "test-rejects", &got)

	p := OpenParams{Networks: []primitives.ProtocolID{primitives.State}}
	if _, _, err := Open(context.Background(), "missing", UsageDaemon, p); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if _, _, err := Open(context.Background(), "test-rejects", UsageCLI, p); err == nil {
		t.Fatalf("expected usage mismatch error")
	}
	p.Options = Options{"bogus": "1"}
	if _, _, err := Open(context.Background(), "test-rejects", UsageDaemon, p); err == nil {
		t.Fatalf("expected unknown option error")
	}
	if _, _, err := Open(context.Background(), "test-rejects", UsageDaemon, OpenParams{}); err == nil {
		t.Fatalf("expected missing networks error")
	}
	if err := Register(Backend{Name: "test-rejects", Usage: UsageDaemon, Open: func(context.Context, OpenParams) (map[primitives.ProtocolID]overlay.Network, func() error, error) {
		return nil, nil, nil
	}}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
