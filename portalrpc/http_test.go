package portalrpc

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethportal.io/api/model"
	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	net := &recordingNetwork{err: overlay.ErrContentNotFound}
	h := NewHandler(map[primitives.ProtocolID]overlay.Network{primitives.History: net})
	srv := httptest.NewServer(NewHTTPHandler(h))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func TestHTTP_SingleRequest(t *testing.T) {
	srv := newTestServer(t)
	body := `{"jsonrpc":"2.0","id":7,"method":"portal_historyRecursiveFindContent",` +
		`"params":[{"contentType":"BlockHeaderByHash","value":"0x` + hashHex + `"}]}`
	status, b := post(t, srv, body)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":null}`, string(b))
}

func TestHTTP_Errors(t *testing.T) {
	srv := newTestServer(t)
	cases := []struct {
		name string
		body string
		code model.ErrorCode
	}{
		{"parse error", `{"jsonrpc":`, model.ErrParse},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"portal_historyRadius"}`, model.ErrInvalidRequest},
		{"non-object request", `42`, model.ErrInvalidRequest},
		{"empty batch", `[]`, model.ErrInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"portal_historyNope"}`, model.ErrMethodNotFound},
		{"missing param", `{"jsonrpc":"2.0","id":1,"method":"portal_historyLocalContent","params":[]}`, model.ErrInvalidParams},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, b := post(t, srv, tc.body)
			assert.Equal(t, http.StatusOK, status)
			var resp model.Response
			require.NoError(t, json.Unmarshal(b, &resp))
			if assert.NotNil(t, resp.Error) {
				assert.Equal(t, tc.code, resp.Error.Code)
			}
			assert.Nil(t, resp.Result)
		})
	}
}

func TestHTTP_BatchAndNotifications(t *testing.T) {
	srv := newTestServer(t)
	key := `"0x00` + hashHex + `"`
	body := `[
		{"jsonrpc":"2.0","id":"a","method":"portal_historyLocalContent","params":[` + key + `]},
		{"jsonrpc":"2.0","method":"portal_historyLocalContent","params":[` + key + `]},
		{"jsonrpc":"2.0","id":"b","method":"portal_stateLocalContent","params":[` + key + `]}
	]`
	status, b := post(t, srv, body)
	assert.Equal(t, http.StatusOK, status)

	var resps []model.Response
	require.NoError(t, json.Unmarshal(b, &resps))
	require.Len(t, resps, 2)
	assert.JSONEq(t, `"a"`, string(resps[0].ID))
	assert.JSONEq(t, `null`, string(resps[0].Result))
	assert.JSONEq(t, `"b"`, string(resps[1].ID))
	if assert.NotNil(t, resps[1].Error) {
		assert.Equal(t, model.ErrMethodNotFound, resps[1].Error.Code)
	}

	status, b = post(t, srv, `{"jsonrpc":"2.0","method":"portal_historyLocalContent","params":[`+key+`]}`)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, b)
}

func TestHTTP_HealthAndSchema(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var doc struct {
		Methods []struct {
			Name string `json:"name"`
		} `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Len(t, doc.Methods, len(primitives.Networks())*len(Methods()))
	assert.Equal(t, "portal_historyRoutingTableInfo", doc.Methods[0].Name)
}

func TestHTTP_Discover(t *testing.T) {
	srv := newTestServer(t)
	status, b := post(t, srv, `{"jsonrpc":"2.0","id":1,"method":"rpc_discover"}`)
	assert.Equal(t, http.StatusOK, status)
	var resp struct {
		Result struct {
			Methods []json.RawMessage `json:"methods"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.NotEmpty(t, resp.Result.Methods)
}
