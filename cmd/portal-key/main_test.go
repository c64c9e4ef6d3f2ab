package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
)

const blockHash = "d1c390624d3bd4e409a61a858e5dcc5517729a9170d014a6c96530d64dd8621d"

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestEncodeDecodeID(t *testing.T) {
	code, out, errOut := runCmd(t, "encode", "--network", "history", "--type", "BlockHeaderByHash", "--value", `"0x`+blockHash+`"`)
	if code != 0 {
		t.Fatalf("encode exit %d: %s", code, errOut)
	}
	key := strings.TrimSpace(out)
	if key != "0x00"+blockHash {
		t.Fatalf("encode: got %s", key)
	}

	code, out, errOut = runCmd(t, "decode", "--network", "history", key)
	if code != 0 {
		t.Fatalf("decode exit %d: %s", code, errOut)
	}
	var got decoded
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.ContentType != "BlockHeaderByHash" || string(got.Value) != `"0x`+blockHash+`"` {
		t.Fatalf("decode: got %+v", got)
	}

	raw, _ := hex.DecodeString("00" + blockHash)
	want := sha256.Sum256(raw)
	code, out, errOut = runCmd(t, "id", "--network", "history", key)
	if code != 0 {
		t.Fatalf("id exit %d: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "0x"+hex.EncodeToString(want[:]) {
		t.Fatalf("id: got %q", out)
	}
	if !strings.HasPrefix(lines[1], "b") || lines[1] != got.CID {
		t.Fatalf("id cid: got %q, decode cid %q", lines[1], got.CID)
	}
}

func TestDecode_Rejects(t *testing.T) {
	code, _, errOut := runCmd(t, "decode", "--network", "history", "0x00"+blockHash[:62])
	if code != 1 || !strings.Contains(errOut, "KEY-LEN-001") {
		t.Fatalf("truncated: exit %d: %s", code, errOut)
	}
	code, _, errOut = runCmd(t, "decode", "--network", "beacon", "0x00")
	if code != 1 {
		t.Fatalf("unknown network: exit %d: %s", code, errOut)
	}
	code, _, _ = runCmd(t, "decode")
	if code != 2 {
		t.Fatalf("missing key: exit %d", code)
	}
	code, _, errOut = runCmd(t, "encode", "--network", "history", "--type", "ContractBytecode", "--value", `"0x00"`)
	if code != 1 || !strings.Contains(errOut, "UnsupportedVariant") {
		t.Fatalf("unsupported: exit %d: %s", code, errOut)
	}
}

func TestDistance(t *testing.T) {
	a := "0x" + strings.Repeat("00", 32)
	b := "0x" + strings.Repeat("00", 31) + "05"
	code, out, errOut := runCmd(t, "distance", a, b)
	if code != 0 {
		t.Fatalf("distance exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "log2 3") {
		t.Fatalf("distance: got %q", out)
	}

	_, idOut, _ := runCmd(t, "id", "--network", "history", "0x00"+blockHash)
	lines := strings.Fields(idOut)
	code, out, errOut = runCmd(t, "distance", lines[0], lines[1])
	if code != 0 || !strings.HasPrefix(out, "0x"+strings.Repeat("00", 32)) {
		t.Fatalf("id vs its cid: exit %d: %q %s", code, out, errOut)
	}
	if code, _, _ := runCmd(t, "distance", a, "not-a-cid"); code != 1 {
		t.Fatalf("bad cid: exit %d", code)
	}
}

func TestSchema_FiltersNetwork(t *testing.T) {
	code, out, errOut := runCmd(t, "schema", "--network", "state")
	if code != 0 {
		t.Fatalf("schema exit %d: %s", code, errOut)
	}
	var doc struct {
		Methods []struct {
			Name string `json:"name"`
		} `json:"methods"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("schema output: %v", err)
	}
	if len(doc.Methods) != 10 {
		t.Fatalf("schema: got %d methods", len(doc.Methods))
	}
	for _, m := range doc.Methods {
		if !strings.HasPrefix(m.Name, "portal_state") {
			t.Fatalf("schema: unexpected method %s", m.Name)
		}
	}
}

func TestLookup_MemoryBackend(t *testing.T) {
	key := "0x01" + blockHash
	code, _, errOut := runCmd(t, "lookup", "--network", "history", key)
	if code != 1 || !strings.Contains(errOut, "not found") {
		t.Fatalf("empty overlay: exit %d: %s", code, errOut)
	}

	code, out, errOut := runCmd(t, "lookup", "--network", "history", "--memory-peers", "3", "--gossip", "0x0800000008000000C0", key)
	if code != 0 {
		t.Fatalf("lookup exit %d: %s", code, errOut)
	}
	if strings.TrimSpace(out) != "0x0800000008000000c0" || !strings.Contains(errOut, "gossiped to 3 peers") {
		t.Fatalf("lookup: out %q err %q", out, errOut)
	}
}

func TestBackendsAndUsage(t *testing.T) {
	code, out, _ := runCmd(t, "backends")
	if code != 0 || !strings.Contains(out, "memory") || !strings.Contains(out, "grpc") {
		t.Fatalf("backends: exit %d: %q", code, out)
	}
	if code, _, _ := runCmd(t); code != 2 {
		t.Fatalf("no args: exit %d", code)
	}
	if code, _, _ := runCmd(t, "nope"); code != 2 {
		t.Fatalf("unknown command: exit %d", code)
	}
}
