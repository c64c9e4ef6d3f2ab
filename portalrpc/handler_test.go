package portalrpc

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ethportal.io/api/history"
	"ethportal.io/api/model"
	"ethportal.io/api/overlay"
	"ethportal.io/api/overlay/memnet"
	"ethportal.io/api/primitives"
)

// recordingNetwork answers every content lookup with err and records the refs it saw.
type recordingNetwork struct {
	overlay.Network
	err  error
	refs []overlay.ContentRef
}

func (n *recordingNetwork) Protocol() primitives.ProtocolID { return primitives.History }

func (n *recordingNetwork) RecursiveFindContent(ctx context.Context, ref overlay.ContentRef) ([]byte, error) {
	n.refs = append(n.refs, ref)
	return nil, n.err
}

func (n *recordingNetwork) LocalContent(ctx context.Context, ref overlay.ContentRef) ([]byte, error) {
	n.refs = append(n.refs, ref)
	return nil, n.err
}

func TestCall_FindContentNotFoundIsNull(t *testing.T) {
	net := &recordingNetwork{err: overlay.ErrContentNotFound}
	h := NewHandler(map[primitives.ProtocolID]overlay.Network{primitives.History: net})

	params := `[{"contentType":"BlockHeaderByHash","value":"0x` + hashHex + `"}]`
	result, err := h.Call(context.Background(), "portal_historyRecursiveFindContent", json.RawMessage(params))
	if !assert.Nil(t, err) {
		return
	}
	assert.JSONEq(t, `null`, string(result))

	if !assert.Len(t, net.refs, 1) {
		return
	}
	encoded := append([]byte{0x00}, mustHex(t, hashHex)...)
	assert.Equal(t, encoded, net.refs[0].Key)
	assert.Equal(t, primitives.ContentID(sha256.Sum256(encoded)), net.refs[0].ID)

	var h2 history.BlockHeaderByHash
	copy(h2.BlockHash[:], mustHex(t, hashHex))
	assert.Equal(t, overlay.NewContentRef(h2), net.refs[0])
}

func TestCall_ErrorCodes(t *testing.T) {
	net := &recordingNetwork{err: errors.New("peer timed out")}
	h := NewHandler(map[primitives.ProtocolID]overlay.Network{primitives.History: net})
	ctx := context.Background()

	_, err := h.Call(ctx, "portal_historyRecursiveFindContent", json.RawMessage(`[{"contentType":"BlockHeaderByHash"}]`))
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrInvalidParams, err.Code)
	}

	_, err = h.Call(ctx, "portal_historyRecursiveFindContent", json.RawMessage(`[{"contentType":"BlockHeaderByHash","value":"0xabc"}]`))
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrInvalidParams, err.Code)
	}

	_, err = h.Call(ctx, "portal_historyLocalContent", json.RawMessage(`["0x00`+hashHex[:62]+`"]`))
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrInvalidParams, err.Code)
		assert.Equal(t, model.ErrorData{Kind: "MalformedContentKey", RuleID: "KEY-LEN-001"}, err.Data)
	}

	_, err = h.Call(ctx, "portal_historyStore", json.RawMessage(`["0x00`+hashHex+`","0x080000000b000000c0ffee05"]`))
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrInvalidParams, err.Code)
		assert.Equal(t, model.ErrorData{Kind: "MalformedContent", RuleID: "CONTENT-SEL-001"}, err.Data)
	}

	_, err = h.Call(ctx, "portal_historyLocalContent", json.RawMessage(`[{"contentType":"AccountTrieProof","value":"0x00"}]`))
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrMethodNotFound, err.Code)
	}

	_, err = h.Call(ctx, "portal_stateRadius", nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrMethodNotFound, err.Code)
	}

	_, err = h.Call(ctx, "portal_historyLocalContent", json.RawMessage(`["0x00`+hashHex+`"]`))
	if assert.NotNil(t, err) {
		assert.Equal(t, model.ErrOverlay, err.Code)
		assert.Equal(t, "peer timed out", err.Message)
	}
}

func TestCall_MemnetFlow(t *testing.T) {
	_, local, err := memnet.Build(primitives.History, 4, primitives.MaxU256, t.Name(), nil)
	if !assert.Nil(t, err) {
		return
	}
	h := NewHandler(map[primitives.ProtocolID]overlay.Network{primitives.History: local})
	ctx := context.Background()
	key := `{"contentType":"BlockBodyByHash","value":"0x` + hashHex + `"}`

	result, cerr := h.Call(ctx, "portal_historyLocalContent", json.RawMessage(`[`+key+`]`))
	if !assert.Nil(t, cerr) {
		return
	}
	assert.JSONEq(t, `null`, string(result))

	result, cerr = h.Call(ctx, "portal_historyStore", json.RawMessage(`{"contentKey":`+key+`,"content":"0x0800000008000000C0"}`))
	if !assert.Nil(t, cerr) {
		return
	}
	assert.JSONEq(t, `true`, string(result))

	result, cerr = h.Call(ctx, "portal_historyLocalContent", json.RawMessage(`[`+key+`]`))
	if !assert.Nil(t, cerr) {
		return
	}
	assert.JSONEq(t, `"0x0800000008000000c0"`, string(result))

	result, cerr = h.Call(ctx, "portal_historyGossip", json.RawMessage(`[`+key+`,"0x0800000008000000c0"]`))
	if !assert.Nil(t, cerr) {
		return
	}
	assert.JSONEq(t, `4`, string(result))

	result, cerr = h.Call(ctx, "portal_historyFindContent", json.RawMessage(`["`+local.ENR().String()+`",`+key+`]`))
	if !assert.Nil(t, cerr) {
		return
	}
	assert.JSONEq(t, `{"content":"0x0800000008000000c0"}`, string(result))

	result, cerr = h.Call(ctx, "portal_historyPing", json.RawMessage(`["`+local.ENR().String()+`"]`))
	if !assert.Nil(t, cerr) {
		return
	}
	var pong model.PongInfo
	if assert.Nil(t, json.Unmarshal(result, &pong)) {
		assert.Equal(t, uint64(1), pong.ENRSeq)
		assert.Equal(t, primitives.MaxU256, pong.DataRadius)
	}

	result, cerr = h.Call(ctx, "portal_historyRoutingTableInfo", nil)
	if !assert.Nil(t, cerr) {
		return
	}
	var rt model.RoutingTableInfo
	if assert.Nil(t, json.Unmarshal(result, &rt)) {
		assert.Equal(t, local.ID(), rt.LocalNodeID)
	}
}

func TestMethodSchemas(t *testing.T) {
	schemas, err := MethodSchemas()
	if !assert.Nil(t, err) {
		return
	}
	assert.Len(t, schemas, len(primitives.Networks())*len(Methods()))

	byName := map[string]model.MethodSchema{}
	for _, s := range schemas {
		byName[s.Name] = s
	}
	offer, ok := byName["portal_stateOffer"]
	if !assert.True(t, ok) {
		return
	}
	names := []string{}
	for _, p := range offer.Params {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{ParamENR, ParamContentKey, ParamContent}, names)

	_, err = json.Marshal(schemas)
	assert.Nil(t, err)
}

func TestEncodeResult(t *testing.T) {
	var nilInfo *model.ContentInfo
	for _, tc := range []struct {
		in   any
		want string
	}{
		{nil, `null`},
		{nilInfo, `null`},
		{primitives.Bytes{0xAB}, `"0xab"`},
		{primitives.Bytes{}, `"0x"`},
		{true, `true`},
	} {
		got, err := EncodeResult(tc.in)
		if assert.Nil(t, err) {
			assert.JSONEq(t, tc.want, string(got))
		}
	}
}
