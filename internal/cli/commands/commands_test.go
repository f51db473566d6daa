package commands

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcprobe/rpcprobe/internal/auth"
	"github.com/rpcprobe/rpcprobe/internal/rpctest"
)

type harness struct {
	server *rpctest.Server
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := rpctest.NewServer()
	s.SetUnit(time.Millisecond)
	t.Cleanup(s.Close)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("log_level = \"error\"\n"), 0644))
	return &harness{server: s, dir: dir}
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	base := []string{
		"--config", filepath.Join(h.dir, "config.toml"),
		"--env-file", filepath.Join(h.dir, "missing.env"),
		"--endpoint", h.server.URL(),
		"--no-color",
	}
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_RunsDefaultScenario(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t)
	require.NoError(t, err)

	want := "ping: pong immediately\n" +
		"{\n  \"jsonrpc\": \"2.0\",\n  \"id\": 1,\n  \"result\": \"pong\"\n}\n" +
		"ping: pong after 4 secs\n" +
		"{\n  \"jsonrpc\": \"2.0\",\n  \"id\": 1,\n  \"result\": \"pong\"\n}\n"
	assert.Equal(t, want, stdout)

	received := h.server.Received()
	require.Len(t, received, 2)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"ping","params":[],"id":1}`, string(received[0].Body))
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"wait","params":[4],"id":1}`, string(received[1].Body))
}

func TestRoot_DefaultScenarioHonorsIDMode(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "--id-mode", "sequence")
	require.NoError(t, err)

	received := h.server.Received()
	require.Len(t, received, 2)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"ping","params":[],"id":1}`, string(received[0].Body))
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"wait","params":[4],"id":2}`, string(received[1].Body))
}

func TestWait_HonorsIDMode(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "wait", "1", "--id-mode", "uuid")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "\"id\": 1")

	received := h.server.Received()
	require.Len(t, received, 1)
	var req map[string]interface{}
	require.NoError(t, json.Unmarshal(received[0].Body, &req))
	assert.IsType(t, "", req["id"])
}

func TestRoot_ServerDownAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.server.Close()

	stdout, stderr, err := h.run(t)
	require.Error(t, err)
	assert.Equal(t, "ping: pong immediately\n", stdout)
	assert.Contains(t, stderr, "Error [offline]")
}

func TestRoot_HTTPStatus(t *testing.T) {
	h := newHarness(t)
	h.server.SetStatus(503)

	_, stderr, err := h.run(t, "ping")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [http-status]")
	assert.Len(t, h.server.Received(), 1)
}

func TestCall(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "call", "wait", "2", "--label", "short wait", "--expect", "result=\"pong\"", "--expect", "error=null", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "short wait\n{\"jsonrpc\":\"2.0\",\"id\":1,\"result\":\"pong\"}\n", stdout)

	received := h.server.Received()
	require.Len(t, received, 1)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"wait","params":[2],"id":1}`, string(received[0].Body))
}

func TestCall_ExpectationFailure(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "call", "nope", "--expect", "error=null")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [expectation]")
}

func TestCall_BadExpectFlag(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "call", "ping", "--expect", "nonsense")
	assert.ErrorContains(t, err, "want key=value")
}

func TestPingAndWait(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "ping", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"label":"ping: pong immediately"`)

	stdout, _, err = h.run(t, "wait", "3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "ping: pong after 3 secs\n"))

	_, _, err = h.run(t, "wait", "soon")
	assert.Error(t, err)
}

func TestRun_ScenarioFilesAndSummary(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "checks.yaml")
	data := `
name: checks
steps:
  - name: peers
    method: peerCount
    expect:
      result: 42
  - name: ping
    method: ping
    expect:
      script: result === "pong"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	metricsPath := filepath.Join(h.dir, "rpcprobe.prom")

	stdout, stderr, err := h.run(t, "run", path, "--summary", "--metrics-file", metricsPath, "--id-mode", "sequence")
	require.NoError(t, err)
	assert.Contains(t, stdout, "peers\n")
	assert.Contains(t, stderr, "Scenario: checks")

	received := h.server.Received()
	require.Len(t, received, 2)
	assert.Contains(t, string(received[0].Body), `"id":1`)
	assert.Contains(t, string(received[1].Body), `"id":2`)

	metricsData, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metricsData), `rpcprobe_calls_total{method="peerCount",outcome="ok"}`)
}

func TestRun_InvalidConfig(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "--id-mode", "random")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [config]")
	assert.Empty(t, h.server.Received())
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	good := filepath.Join(h.dir, "good.yaml")
	bad := filepath.Join(h.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("name: ok\nsteps: [{name: a, method: ping}]\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("steps: [{name: a}]\n"), 0644))

	stdout, _, err := h.run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok   "+good)

	stdout, _, err = h.run(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, stdout, "FAIL "+bad)
	assert.Contains(t, stdout, "name: required field is missing")
	assert.Empty(t, h.server.Received())
}

func TestParseParams(t *testing.T) {
	params := ParseParams([]string{"4", "true", `"x"`, "plain", `{"a":1}`})
	assert.Equal(t, []interface{}{float64(4), true, "x", "plain", map[string]interface{}{"a": float64(1)}}, params)
	assert.Equal(t, []interface{}{}, ParseParams(nil))
}

func TestCall_SummaryListsLoggedFailures(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "call", "ping", "--expect", `result="nope"`, "--summary", "--log-level", "warn")
	require.Error(t, err)
	assert.Contains(t, stderr, "Log entries (1):")
	assert.Contains(t, stderr, "WARN ")
}

type memSecrets map[string]string

func (m memSecrets) GetSecret(id string) (string, error) {
	s, ok := m[id]
	if !ok {
		return "", stderrors.New("element not found")
	}
	return s, nil
}

func (m memSecrets) SetSecret(id, secret string) error {
	m[id] = secret
	return nil
}

func (m memSecrets) RemoveSecret(id string) error {
	if _, ok := m[id]; !ok {
		return stderrors.New("element not found")
	}
	delete(m, id)
	return nil
}

func useSecrets(t *testing.T) memSecrets {
	t.Helper()
	store := memSecrets{}
	prev := secretStore
	secretStore = func() auth.SecretManager { return store }
	t.Cleanup(func() { secretStore = prev })
	return store
}

func TestAuth_SetTokenThenCall(t *testing.T) {
	h := newHarness(t)
	store := useSecrets(t)

	cmd := NewRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader("s3cr3t-token\n"))
	cmd.SetArgs([]string{"auth", "set-token", "local"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "s3cr3t-token", store["local"])
	assert.Contains(t, stdout.String(), `stored token "local"`)

	cfg := "log_level = \"error\"\n\n[auth]\ntoken_keychain_id = \"local\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "config.toml"), []byte(cfg), 0644))

	_, _, err := h.run(t, "ping")
	require.NoError(t, err)
	received := h.server.Received()
	require.Len(t, received, 1)
	assert.Equal(t, "Bearer s3cr3t-token", received[0].Header.Get("Authorization"))

	cmd = NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"auth", "remove-token", "local"})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, store)

	_, stderr, err := h.run(t, "ping")
	require.Error(t, err)
	assert.Contains(t, stderr, "local")
}

func TestAuth_SetTokenRejectsEmptyInput(t *testing.T) {
	store := useSecrets(t)

	cmd := NewRootCmd()
	cmd.SetIn(strings.NewReader("  \n"))
	cmd.SetArgs([]string{"auth", "set-token", "local"})
	assert.Error(t, cmd.Execute())
	assert.Empty(t, store)
}
