package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/flowstory"
	httpadapter "github.com/aretw0/flowstory/pkg/adapters/http"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/dsl"
	"github.com/aretw0/flowstory/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *httptest.Server
	session *session.Session
}

func newFixture(t *testing.T, opts ...httpadapter.Option) *fixture {
	t.Helper()
	b := dsl.New("KEY")
	b.Frame("1:1").Named("Login").Button("1:10", "1:2")
	b.Frame("1:2").Named("Home")

	eng, err := flowstory.New(b.MustBuild())
	require.NoError(t, err)

	streams := httpadapter.NewStreamManager(nil)
	sess := session.New(eng, streams)
	srv := httptest.NewServer(httpadapter.NewHandler(sess, streams, opts...))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, session: sess}
}

// subscribe opens the event stream and returns the decoded messages.
func (f *fixture) subscribe(t *testing.T) <-chan domain.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	connected := make(chan struct{})
	out := make(chan domain.Message, 16)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if line == "data: connected" {
				close(connected)
				continue
			}
			payload, ok := strings.CutPrefix(line, "data: ")
			if !ok {
				continue
			}
			var msg domain.Message
			if json.Unmarshal([]byte(payload), &msg) == nil {
				out <- msg
			}
		}
	}()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not connect")
	}
	return out
}

func next(t *testing.T, ch <-chan domain.Message, msgType string) domain.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			require.True(t, ok, "stream closed")
			if msg.Type == msgType {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %s message received", msgType)
		}
	}
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSelection_StreamsFlow(t *testing.T) {
	f := newFixture(t)
	events := f.subscribe(t)

	resp := post(t, f.srv.URL+"/selection", `{"nodeId":"1:1"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	assert.Equal(t, "Analyzing flow...", next(t, events, domain.MessageProcessing).Message)
	msg := next(t, events, domain.MessageFlowSelected)
	assert.Equal(t, "Login", msg.Name)
	assert.Equal(t, 2, msg.FrameCount)
	assert.Equal(t, 1, msg.ConnectionCount)
}

func TestSelection_NoFrame(t *testing.T) {
	f := newFixture(t)
	events := f.subscribe(t)

	post(t, f.srv.URL+"/selection", `{"nodeId":"1:10"}`)

	msg := next(t, events, domain.MessageNoSelection)
	assert.Equal(t, session.TextNoSelection, msg.Message)
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t)
	events := f.subscribe(t)

	resp := post(t, f.srv.URL+"/messages", `{"type":"selection-change","nodeId":"1:2"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "Home", next(t, events, domain.MessageFlowSelected).Name)

	resp = post(t, f.srv.URL+"/messages", `{"type":"resize"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = post(t, f.srv.URL+"/messages", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetGraph(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/graph")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, f.session.Select(context.Background(), "1:1"))

	resp, err = http.Get(f.srv.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "graph TD")
	assert.Contains(t, string(body), "class n1_1 current;")

	resp2, err := http.Get(f.srv.URL + "/graph?format=json")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var flow domain.FlowExtractionResult
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&flow))
	assert.Len(t, flow.Frames, 2)
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t, httpadapter.WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "metrics")
	})))

	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "flowstory-http", info["app"])
	assert.Equal(t, strings.TrimSpace(flowstory.Version), info["version"])

	resp, err = http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "metrics", string(body))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/selection", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := httpadapter.NewStreamManager(nil)
	_, ch, cancel := sm.Subscribe()
	assert.Equal(t, 1, sm.Subscribers())

	require.NoError(t, sm.Publish(context.Background(), domain.Message{Type: domain.MessageInfo, Message: "hi"}))
	assert.JSONEq(t, `{"type":"info","message":"hi"}`, <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}
