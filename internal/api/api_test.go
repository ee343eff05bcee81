package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/fragments/internal/api"
	"github.com/starford/fragments/internal/testutil"
)

func newTestServer(t *testing.T, auth api.AuthConfig) *httptest.Server {
	t.Helper()
	router := api.NewRouter(testutil.Service(t), auth, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, contentType string, body []byte, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func createFragment(t *testing.T, srv *httptest.Server, contentType string, payload []byte) string {
	t.Helper()
	resp := doRequest(t, http.MethodPost, srv.URL+"/fragments", contentType, payload, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	fragment, _ := body["fragment"].(map[string]any)
	id, _ := fragment["id"].(string)
	if id == "" {
		t.Fatalf("create response missing fragment id: %v", body)
	}
	return id
}

func TestCreateFragment(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	resp := doRequest(t, http.MethodPost, srv.URL+"/fragments", "text/plain", []byte("This is a fragment"), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	fragment, _ := body["fragment"].(map[string]any)
	if fragment["type"] != "text/plain" {
		t.Errorf("type = %v", fragment["type"])
	}
	if fragment["size"] != float64(len("This is a fragment")) {
		t.Errorf("size = %v", fragment["size"])
	}

	location := resp.Header.Get("Location")
	wantSuffix := "/v1/fragments/" + fragment["id"].(string)
	if !strings.HasSuffix(location, wantSuffix) {
		t.Errorf("Location = %q, want suffix %q", location, wantSuffix)
	}
}

func TestCreateUnsupportedType(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	resp := doRequest(t, http.MethodPost, srv.URL+"/fragments", "application/pdf", []byte("%PDF"), nil)
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["status"] != "error" {
		t.Errorf("status field = %v", body["status"])
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != float64(http.StatusUnsupportedMediaType) {
		t.Errorf("error.code = %v", errObj["code"])
	}
	if msg, _ := errObj["message"].(string); msg == "" {
		t.Error("error.message is empty")
	}
}

func TestListFragments(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id1 := createFragment(t, srv, "text/plain", []byte("one"))
	id2 := createFragment(t, srv, "text/markdown", []byte("# two"))

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	ids, _ := body["fragments"].([]any)
	if len(ids) != 2 {
		t.Fatalf("fragments = %v", body["fragments"])
	}
	for _, want := range []string{id1, id2} {
		found := false
		for _, got := range ids {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("id %s missing from listing", want)
		}
	}
}

func TestListFragmentsExpanded(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/markdown", []byte("# doc"))

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments?expand=1", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	records, _ := body["fragments"].([]any)
	if len(records) != 1 {
		t.Fatalf("fragments = %v", body["fragments"])
	}
	record, _ := records[0].(map[string]any)
	if record["id"] != id || record["type"] != "text/markdown" {
		t.Errorf("record = %v", record)
	}
	if record["created"] == nil || record["updated"] == nil {
		t.Errorf("record missing timestamps: %v", record)
	}
}

func TestListEmpty(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	ids, isSlice := body["fragments"].([]any)
	if !isSlice || len(ids) != 0 {
		t.Errorf("fragments = %v, want empty array", body["fragments"])
	}
}

func TestGetFragmentRaw(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	payload := []byte("stored exactly")
	id := createFragment(t, srv, "text/plain; charset=utf-8", payload)

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id, "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("body = %q, want %q", buf.Bytes(), payload)
	}
}

func TestGetFragmentConverted(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/markdown", []byte("# Hello World"))

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id+".html", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/html" {
		t.Errorf("Content-Type = %q", got)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<h1") {
		t.Errorf("body = %q", buf.String())
	}
}

func TestGetFragmentUnsupportedConversion(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/plain", []byte("just text"))

	for _, ext := range []string{"png", "exe"} {
		resp := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id+"."+ext, "", nil, nil)
		if resp.StatusCode != http.StatusUnsupportedMediaType {
			t.Errorf(".%s status = %d, want 415", ext, resp.StatusCode)
		}
	}
}

func TestGetFragmentMissing(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments/no-such-id", "", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "error" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestGetFragmentInfo(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "application/json", []byte(`{"a":1}`))

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id+"/info", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	fragment, _ := body["fragment"].(map[string]any)
	if fragment["id"] != id || fragment["type"] != "application/json" {
		t.Errorf("fragment = %v", fragment)
	}
	if fragment["size"] != float64(len(`{"a":1}`)) {
		t.Errorf("size = %v", fragment["size"])
	}
}

func TestUpdateFragment(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/plain", []byte("before"))

	resp := doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "text/plain", []byte("after"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	fragment, _ := body["fragment"].(map[string]any)
	if fragment["size"] != float64(len("after")) {
		t.Errorf("size = %v", fragment["size"])
	}

	get := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id, "", nil, nil)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(get.Body); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "after" {
		t.Errorf("stored payload = %q", buf.String())
	}
}

func TestUpdateFragmentTypeChange(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/plain", []byte("text"))

	resp := doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "application/json", []byte("{}"), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUpdateFragmentMissing(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	resp := doRequest(t, http.MethodPut, srv.URL+"/fragments/no-such-id", "text/plain", []byte("x"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateFragmentIfMatch(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/plain", []byte("v1"))

	info := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id+"/info", "", nil, nil)
	fragment, _ := decodeBody(t, info)["fragment"].(map[string]any)
	token, _ := fragment["checksum"].(string)
	if token == "" {
		t.Fatal("info response missing checksum")
	}

	// Quoted token in standard ETag form.
	header := http.Header{"If-Match": []string{`"` + token + `"`}}
	resp := doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "text/plain", []byte("v2"), header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("matching If-Match status = %d", resp.StatusCode)
	}

	// Same token is now stale.
	resp = doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "text/plain", []byte("v3"), header)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale If-Match status = %d, want 409", resp.StatusCode)
	}
}

func TestUpdateFragmentIfMatchForms(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/plain", []byte("v1"))

	info := doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id+"/info", "", nil, nil)
	fragment, _ := decodeBody(t, info)["fragment"].(map[string]any)
	token, _ := fragment["checksum"].(string)

	// "*" conditions only on existence, which holds.
	header := http.Header{"If-Match": []string{"*"}}
	resp := doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "text/plain", []byte("v2"), header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("If-Match * status = %d", resp.StatusCode)
	}

	fragment, _ = decodeBody(t, resp)["fragment"].(map[string]any)
	current, _ := fragment["checksum"].(string)

	// Weak validator with the current token succeeds.
	header = http.Header{"If-Match": []string{`W/"` + current + `"`}}
	resp = doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "text/plain", []byte("v3"), header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("weak If-Match status = %d", resp.StatusCode)
	}

	// Weak validator with a superseded token still conflicts.
	header = http.Header{"If-Match": []string{`W/"` + token + `"`}}
	resp = doRequest(t, http.MethodPut, srv.URL+"/fragments/"+id, "text/plain", []byte("v4"), header)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale weak If-Match status = %d, want 409", resp.StatusCode)
	}
}

func TestDeleteFragment(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeDisabled})

	id := createFragment(t, srv, "text/plain", []byte("x"))

	resp := doRequest(t, http.MethodDelete, srv.URL+"/fragments/"+id, "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/fragments/"+id, "", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodDelete, srv.URL+"/fragments/"+id, "", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("repeated delete status = %d, want 404", resp.StatusCode)
	}
}

func TestTokenAuth(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{Mode: api.AuthModeToken, Token: "secret-token"})

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments", "", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no credentials status = %d, want 401", resp.StatusCode)
	}

	header := http.Header{"Authorization": []string{"Bearer wrong"}}
	resp = doRequest(t, http.MethodGet, srv.URL+"/fragments", "", nil, header)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", resp.StatusCode)
	}

	header = http.Header{"Authorization": []string{"Bearer secret-token"}}
	resp = doRequest(t, http.MethodGet, srv.URL+"/fragments", "", nil, header)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{
		Mode:  api.AuthModeBasic,
		Users: map[string]string{"alice": "pw-a", "bob": "pw-b"},
	})

	resp := doRequest(t, http.MethodGet, srv.URL+"/fragments", "", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no credentials status = %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/fragments", nil)
	req.SetBasicAuth("alice", "wrong")
	wrongPw, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer wrongPw.Body.Close()
	if wrongPw.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", wrongPw.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/fragments", nil)
	req.SetBasicAuth("alice", "pw-a")
	okResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer okResp.Body.Close()
	if okResp.StatusCode != http.StatusOK {
		t.Errorf("valid credentials status = %d, want 200", okResp.StatusCode)
	}
}

func TestBasicAuthOwnerIsolation(t *testing.T) {
	srv := newTestServer(t, api.AuthConfig{
		Mode:  api.AuthModeBasic,
		Users: map[string]string{"alice": "pw-a", "bob": "pw-b"},
	})

	post, _ := http.NewRequest(http.MethodPost, srv.URL+"/fragments", strings.NewReader("alice's data"))
	post.Header.Set("Content-Type", "text/plain")
	post.SetBasicAuth("alice", "pw-a")
	created, err := http.DefaultClient.Do(post)
	if err != nil {
		t.Fatal(err)
	}
	defer created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", created.StatusCode)
	}
	fragment, _ := decodeBody(t, created)["fragment"].(map[string]any)
	id, _ := fragment["id"].(string)

	get, _ := http.NewRequest(http.MethodGet, srv.URL+"/fragments/"+id, nil)
	get.SetBasicAuth("bob", "pw-b")
	resp, err := http.DefaultClient.Do(get)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-owner get status = %d, want 404", resp.StatusCode)
	}
}
