package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepci/internal/core"
	"stepci/internal/provision"
)

const submittedPipeline = `
name: python-ci
on: [push, pull_request]
steps:
  - name: lint
    run: black --check .
  - name: test
    run: pytest
`

type scriptedRunner struct {
	failStep string
	calls    []string
}

func (s *scriptedRunner) RunCommand(_ context.Context, step core.Step, _ *provision.Environment) (string, int, error) {
	s.calls = append(s.calls, step.Name)
	if step.Name == s.failStep {
		return "boom\n", 1, fmt.Errorf("exit status 1")
	}
	return step.Name + " ok\n", 0, nil
}

func newTestServer(cmds core.CommandRunner) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)

	runner := core.NewRunner(cmds, provision.NewLocal(), nil)
	runner.Logger = log
	return New(runner, log)
}

func do(t *testing.T, router http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func submit(t *testing.T, router http.Handler, yaml string) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/pipelines", yaml)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp submitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestSubmitPipeline(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})
	router := srv.Routes()

	id := submit(t, router, submittedPipeline)

	rec := do(t, router, http.MethodGet, "/pipelines/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pipelineResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "python-ci", resp.Name)
	assert.Equal(t, []string{"push", "pull_request"}, resp.On)
	assert.Equal(t, 2, resp.Steps)
}

func TestSubmitInvalidPipeline(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})
	router := srv.Routes()

	rec := do(t, router, http.MethodPost, "/pipelines", "name: empty\non: [push]\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no steps")
}

func TestDispatchRunsMatchingEvent(t *testing.T) {
	cmds := &scriptedRunner{}
	srv := newTestServer(cmds)
	router := srv.Routes()
	id := submit(t, router, submittedPipeline)

	rec := do(t, router, http.MethodPost, "/pipelines/"+id+"/dispatch", `{"event":"push"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dispatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Skipped)
	require.NotNil(t, resp.Run)
	assert.Equal(t, core.RunSuccess, resp.Run.Status)
	assert.Len(t, resp.Run.Logs, 2)
	assert.Equal(t, []string{"lint", "test"}, cmds.calls)
}

func TestDispatchReportsFailedRun(t *testing.T) {
	cmds := &scriptedRunner{failStep: "lint"}
	srv := newTestServer(cmds)
	router := srv.Routes()
	id := submit(t, router, submittedPipeline)

	rec := do(t, router, http.MethodPost, "/pipelines/"+id+"/dispatch", `{"event":"pull_request"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dispatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Run)
	assert.Equal(t, core.RunFailure, resp.Run.Status)
	assert.Equal(t, "lint", resp.Run.FailedStep)
	assert.Len(t, resp.Run.Logs, 1)
	// the step after the failure never ran
	assert.Equal(t, []string{"lint"}, cmds.calls)
}

func TestDispatchSkipsNonMatchingEvent(t *testing.T) {
	cmds := &scriptedRunner{}
	srv := newTestServer(cmds)
	router := srv.Routes()
	id := submit(t, router, submittedPipeline)

	rec := do(t, router, http.MethodPost, "/pipelines/"+id+"/dispatch", `{"event":"schedule"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dispatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Skipped)
	assert.Nil(t, resp.Run)
	assert.Empty(t, cmds.calls)
}

func TestDispatchUnknownPipeline(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})
	router := srv.Routes()

	rec := do(t, router, http.MethodPost, "/pipelines/missing/dispatch", `{"event":"push"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDispatchRequiresEvent(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})
	router := srv.Routes()
	id := submit(t, router, submittedPipeline)

	rec := do(t, router, http.MethodPost, "/pipelines/"+id+"/dispatch", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})
	router := srv.Routes()
	id := submit(t, router, submittedPipeline)

	rec := do(t, router, http.MethodPost, "/pipelines/"+id+"/dispatch", `{"event":"push"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var dispatched dispatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dispatched))
	require.NotNil(t, dispatched.Run)

	rec = do(t, router, http.MethodGet, "/runs/"+dispatched.Run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var run core.RunResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	assert.Equal(t, dispatched.Run.ID, run.ID)
	assert.Equal(t, core.RunSuccess, run.Status)
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(&scriptedRunner{})
	router := srv.Routes()

	rec := do(t, router, http.MethodGet, "/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
