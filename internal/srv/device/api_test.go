package device

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/viacast/vialcd/apimodel"
	"github.com/viacast/vialcd/internal/srv/config"
	"github.com/viacast/vialcd/internal/srv/event"
)

func newTestApi(t *testing.T, apiKey string, handle func(data interface{}) error) *httptest.Server {
	t.Helper()
	cfg := &config.ServerConfig{ServerParam: &config.ServerParam{ApiParam: config.ApiParam{Enabled: true, ApiKey: apiKey}}}
	api := NewApi(cfg)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-api.EventChannel():
				ev.Result <- handle(ev.Data)
			case <-done:
				return
			}
		}
	}()

	srv := httptest.NewServer(api.Handler(func(h http.Handler) http.Handler { return h }))
	t.Cleanup(func() {
		srv.Close()
		close(done)
	})
	return srv
}

func doRequest(t *testing.T, method, url, apiKey, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestApi_ForwardsRequestsToEventLoop(t *testing.T) {
	events := make(chan interface{}, 1)
	srv := newTestApi(t, "", func(data interface{}) error {
		events <- data
		return nil
	})

	cases := []struct {
		method string
		path   string
		body   string
		want   interface{}
	}{
		{"PUT", "/api/display/rotate/3", "", event.ApiEventRotateData{Rotate: 3}},
		{"PUT", "/api/display/always_text_bar/true", "", event.ApiEventAlwaysTextBarData{On: true}},
		{"PUT", "/api/display/always_status_bar/0", "", event.ApiEventAlwaysStatusBarData{On: false}},
		{"POST", "/api/display/wake", "", event.ApiEventWakeData{}},
		{"POST", "/api/icons/reload", "", event.ApiEventIconsReloadData{}},
		{"PUT", "/api/text/2/3", "Hello", event.ApiEventTextData{X: 2, Y: 3, Text: "Hello"}},
		{"PUT", "/api/chr/1/1/%C3%A9", "", event.ApiEventChrData{X: 1, Y: 1, Chr: 'é'}},
		{"PUT", "/api/icon/4/2/arrow_up", "", event.ApiEventIconData{X: 4, Y: 2, Name: "arrow_up"}},
		{"PUT", "/api/hbar/1/2/10/550", "", event.ApiEventHBarData{X: 1, Y: 2, Length: 10, Promille: 550}},
		{"PUT", "/api/vbar/3/4/2/1000", "", event.ApiEventVBarData{X: 3, Y: 4, Length: 2, Promille: 1000}},
		{"POST", "/api/clear", "", event.ApiEventClearData{}},
		{"POST", "/api/keypad/E", "", event.ApiEventKeypadData{Code: 'E'}},
	}
	for _, tc := range cases {
		resp := doRequest(t, tc.method, srv.URL+tc.path, "", tc.body)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s %s: status %d", tc.method, tc.path, resp.StatusCode)
			continue
		}
		if got := <-events; got != tc.want {
			t.Errorf("%s %s: event %#v, want %#v", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestApi_RejectsBadParameters(t *testing.T) {
	srv := newTestApi(t, "", func(data interface{}) error {
		t.Errorf("unexpected event %#v", data)
		return nil
	})

	for _, path := range []string{
		"/api/display/rotate/4",
		"/api/display/rotate/x",
		"/api/display/always_text_bar/maybe",
		"/api/chr/1/1/ab",
		"/api/icon/1/1/unknown",
		"/api/text/a/1",
		"/api/hbar/1/1/-2/500",
		"/api/vbar/1/1/2/full",
	} {
		if resp := doRequest(t, "PUT", srv.URL+path, "", ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("PUT %s: status %d", path, resp.StatusCode)
		}
	}
	if resp := doRequest(t, "POST", srv.URL+"/api/keypad/X", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST keypad X: status %d", resp.StatusCode)
	}
	if resp := doRequest(t, "GET", srv.URL+"/api/display/wake", "", ""); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET wake: status %d", resp.StatusCode)
	}
}

func TestApi_ChecksApiKey(t *testing.T) {
	srv := newTestApi(t, "secret", func(data interface{}) error { return nil })

	if resp := doRequest(t, "GET", srv.URL+"/api/is_alive", "", ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("missing key: status %d", resp.StatusCode)
	}
	if resp := doRequest(t, "GET", srv.URL+"/api/is_alive", "wrong", ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong key: status %d", resp.StatusCode)
	}
	if resp := doRequest(t, "GET", srv.URL+"/api/is_alive", "secret", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("good key: status %d", resp.StatusCode)
	}
}

func TestApi_StatusAndKeys(t *testing.T) {
	srv := newTestApi(t, "", func(data interface{}) error {
		switch d := data.(type) {
		case event.ApiEventStatusData:
			d.Status.Rotate = 2
			d.Status.Text = []string{"Hi"}
		case event.ApiEventKeysData:
			d.Keys.Keys = append(d.Keys.Keys, KeyEnter.String())
		}
		return nil
	})

	resp := doRequest(t, "GET", srv.URL+"/api/status", "", "")
	var status apimodel.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Rotate != 2 || len(status.Text) != 1 || status.Text[0] != "Hi" {
		t.Errorf("status = %+v", status)
	}

	resp = doRequest(t, "GET", srv.URL+"/api/keys", "", "")
	var keys apimodel.KeyList
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		t.Fatal(err)
	}
	if len(keys.Keys) != 1 || keys.Keys[0] != "Enter" {
		t.Errorf("keys = %+v", keys)
	}
}

func TestApi_LoopErrors(t *testing.T) {
	srv := newTestApi(t, "", func(data interface{}) error {
		if _, ok := data.(event.ApiEventKeypadData); ok {
			return ErrKeypadBusy
		}
		return errors.New("refused")
	})

	if resp := doRequest(t, "POST", srv.URL+"/api/keypad/L", "", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("busy keypad: status %d", resp.StatusCode)
	}
	resp := doRequest(t, "POST", srv.URL+"/api/clear", "", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("refused clear: status %d", resp.StatusCode)
	}
	var msg apimodel.ErrorMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.ErrMessage != "refused" {
		t.Errorf("message = %q", msg.ErrMessage)
	}
}

func TestApi_CreatesCertificateOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.ServerConfig{
		ConfigDir:   dir,
		ServerParam: &config.ServerParam{ApiParam: config.ApiParam{Enabled: true, Tls: true}},
	}
	api := NewApi(cfg)

	if err := api.ensureCertificate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := os.ReadFile(api.selfSignedCertFilename())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tls.LoadX509KeyPair(api.selfSignedCertFilename(), api.selfSignedKeyFilename()); err != nil {
		t.Fatalf("generated pair not loadable: %v", err)
	}

	if err := api.ensureCertificate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := os.ReadFile(api.selfSignedCertFilename())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("existing certificate was regenerated")
	}
}
