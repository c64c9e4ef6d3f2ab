package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"ethportal.io/api/contentid"
	"ethportal.io/api/contentkey"
	"ethportal.io/api/model"
	"ethportal.io/api/overlay"
	"ethportal.io/api/overlay/backends"
	"ethportal.io/api/portalrpc"
	"ethportal.io/api/primitives"

	_ "ethportal.io/api/overlay/grpcoverlay"
	_ "ethportal.io/api/overlay/memnet"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "encode":
		return cmdEncode(args[1:], out, errOut)
	case "decode":
		return cmdDecode(args[1:], out, errOut)
	case "id":
		return cmdID(args[1:], out, errOut)
	case "distance":
		return cmdDistance(args[1:], out, errOut)
	case "schema":
		return cmdSchema(args[1:], out, errOut)
	case "lookup":
		return cmdLookup(args[1:], out, errOut)
	case "backends":
		for _, b := range backends.List(backends.UsageCLI) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "portal-key: Portal Network content-key tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  portal-key encode --network <history|state> --type <contentType> --value <json>")
	fmt.Fprintln(w, "  portal-key decode --network <history|state> <0xkey>")
	fmt.Fprintln(w, "  portal-key id --network <history|state> (<0xkey> | --type <contentType> --value <json>)")
	fmt.Fprintln(w, "  portal-key distance <0xid|cid> <0xid|cid>")
	fmt.Fprintln(w, "  portal-key schema [--network <history|state>]")
	fmt.Fprintln(w, "  portal-key lookup --network <history|state> [--backend <name>] [--gossip <0xcontent>] <0xkey>")
	fmt.Fprintln(w, "  portal-key backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --value is the JSON-RPC value: a hex string of the fields or an object")
	fmt.Fprintln(w, "      portal-key encode --network history --type BlockHeaderByHash --value '\"0x<32-byte hash>\"'")
	fmt.Fprintln(w, "  - id prints the content id followed by its CIDv1 (raw, sha2-256)")
	fmt.Fprintln(w, "  - lookup with --gossip first offers the content to the overlay, then searches for it")
}

// keyFlags are the flags shared by every command that takes a content key.
type keyFlags struct {
	network     string
	contentType string
	value       string
}

func (k *keyFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&k.network, "network", "history", "Sub-network (history, state or 0x500b/0x500a)")
	fs.StringVar(&k.contentType, "type", "", "JSON-RPC contentType (with --value)")
	fs.StringVar(&k.value, "value", "", "JSON-RPC value: hex string or object (with --type)")
}

// parse resolves the key from --type/--value or from a single positional hex key.
func (k *keyFlags) parse(args []string) (primitives.ProtocolID, contentkey.Key, error) {
	p, err := primitives.ParseNetwork(k.network)
	if err != nil {
		return primitives.ProtocolID{}, nil, err
	}
	codec, err := overlay.CodecFor(p)
	if err != nil {
		return primitives.ProtocolID{}, nil, err
	}
	switch {
	case k.contentType != "" && len(args) == 0:
		key, err := codec.DecodeValue(k.contentType, json.RawMessage(k.value))
		return p, key, err
	case k.contentType == "" && k.value == "" && len(args) == 1:
		b, err := primitives.DecodeHex(args[0])
		if err != nil {
			return p, nil, fmt.Errorf("content key: %w", err)
		}
		key, err := codec.Decode(b)
		return p, key, err
	default:
		return p, nil, errors.New("give either one hex content key or --type with --value")
	}
}

func cmdEncode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var kf keyFlags
	kf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if kf.contentType == "" || fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: portal-key encode --network <history|state> --type <contentType> --value <json>")
		return 2
	}
	p, key, err := kf.parse(nil)
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}
	codec, err := overlay.CodecFor(p)
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}
	b, err := codec.Encode(key)
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, primitives.EncodeHex(b))
	return 0
}

type decoded struct {
	model.ContentKey
	ContentID primitives.ContentID `json:"contentId"`
	CID       string               `json:"cid"`
}

func cmdDecode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var kf keyFlags
	fs.StringVar(&kf.network, "network", "history", "Sub-network (history, state or 0x500b/0x500a)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: portal-key decode --network <history|state> <0xkey>")
		return 2
	}
	p, key, err := kf.parse(fs.Args())
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}
	codec, _ := overlay.CodecFor(p)
	name, value, err := codec.EncodeValue(key)
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}
	id := contentid.Derive(key)
	c, err := contentid.CID(id)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(decoded{
		ContentKey: model.ContentKey{ContentType: name, Value: value},
		ContentID:  id,
		CID:        c.String(),
	}); err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	return 0
}

func cmdID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var kf keyFlags
	kf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	_, key, err := kf.parse(fs.Args())
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}
	id := contentid.Derive(key)
	c, err := contentid.CID(id)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	_, _ = fmt.Fprintln(out, c)
	return 0
}

func cmdDistance(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "usage: portal-key distance <0xid|cid> <0xid|cid>")
		return 2
	}
	a, err := parseID(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "first id: %v\n", err)
		return 1
	}
	b, err := parseID(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "second id: %v\n", err)
		return 1
	}
	d := contentid.XOR(a, b)
	_, _ = fmt.Fprintln(out, d)
	_, _ = fmt.Fprintf(out, "log2 %d\n", d.Log2())
	return 0
}

// parseID accepts a 0x content id or the CID printed by "id".
func parseID(s string) (primitives.ContentID, error) {
	if strings.HasPrefix(s, "0x") {
		return primitives.ParseContentID(s)
	}
	c, err := cid.Decode(s)
	if err != nil {
		return primitives.ContentID{}, err
	}
	return contentid.FromCID(c)
}

func cmdSchema(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(errOut)
	network := fs.String("network", "", "Only print methods of this sub-network")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	schemas, err := portalrpc.MethodSchemas()
	if err != nil {
		fmt.Fprintf(errOut, "schema: %v\n", err)
		return 1
	}
	if *network != "" {
		p, err := primitives.ParseNetwork(*network)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		filtered := schemas[:0]
		for _, s := range schemas {
			if strings.HasPrefix(s.Name, portalrpc.MethodName(p, "")) {
				filtered = append(filtered, s)
			}
		}
		schemas = filtered
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"methods": schemas}); err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	return 0
}

func cmdLookup(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var kf keyFlags
	fs.StringVar(&kf.network, "network", "history", "Sub-network (history, state or 0x500b/0x500a)")
	backend := fs.String("backend", "memory", "Overlay backend ("+strings.Join(backends.Names(backends.UsageCLI), ", ")+")")
	gossip := fs.String("gossip", "", "Hex content to gossip before the lookup")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall lookup timeout")
	backends.RegisterFlags(fs, backends.UsageCLI)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: portal-key lookup --network <history|state> [--backend <name>] [--gossip <0xcontent>] <0xkey>")
		return 2
	}
	p, key, err := kf.parse(fs.Args())
	if err != nil {
		printKeyError(errOut, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	networks, closeFn, err := backends.Open(ctx, *backend, backends.UsageCLI, backends.OpenParams{Networks: []primitives.ProtocolID{p}})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}
	n := networks[p]
	ref := overlay.NewContentRef(key)

	if *gossip != "" {
		content, err := primitives.DecodeHex(*gossip)
		if err != nil {
			fmt.Fprintf(errOut, "--gossip: %v\n", err)
			return 2
		}
		count, err := n.Gossip(ctx, ref, content)
		if err != nil {
			fmt.Fprintf(errOut, "gossip: %v\n", err)
			return 1
		}
		fmt.Fprintf(errOut, "gossiped to %d peers\n", count)
	}

	content, err := n.RecursiveFindContent(ctx, ref)
	if errors.Is(err, overlay.ErrContentNotFound) {
		fmt.Fprintf(errOut, "content %s not found\n", ref.ID)
		return 1
	}
	if err != nil {
		fmt.Fprintf(errOut, "lookup: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, primitives.EncodeHex(content))
	return 0
}

func printKeyError(w io.Writer, err error) {
	var e *contentkey.Error
	if errors.As(err, &e) {
		fmt.Fprintf(w, "%s (%s): %s\n", e.Kind, e.RuleID, e.Message)
		return
	}
	fmt.Fprintln(w, err)
}
