package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) (*httptest.Server, *map[string]any) {
	t.Helper()
	lastPut := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/skins":
			if r.URL.Query().Get("page") == "1" {
				_, _ = w.Write([]byte(`[{"id":"s1","name":"Prime Vandal","weapon":"Vandal","inCollection":true}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case r.Method == http.MethodGet && r.URL.Path == "/loadouts/l1":
			_, _ = w.Write([]byte(`{"id":"l1","name":"Main","entries":[{"weapon":"Vandal","skinId":"s1"}]}`))
		case r.Method == http.MethodPut && r.URL.Path == "/loadouts/l1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&lastPut))
			_, _ = w.Write([]byte(`{"id":"l1","name":"Main","entries":[{"weapon":"Phantom","skinId":"s2"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Not found"}`))
		}
	}))
	return srv, &lastPut
}

func TestRun_Browse(t *testing.T) {
	srv, _ := fakeAPI(t)
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), []string{"-api", srv.URL, "browse", "-pages", "3", "-size", "5"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "s1\tVandal\tPrime Vandal [owned]\n", out.String())
}

func TestRun_Assign(t *testing.T) {
	srv, lastPut := fakeAPI(t)
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), []string{"-api", srv.URL, "-token", "tok", "assign", "-id", "l1", "Phantom=s2", "Vandal="}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "l1 saved, 1 weapons assigned\n", out.String())

	entries := (*lastPut)["entries"].(map[string]any)
	assert.Equal(t, "s2", entries["Phantom"])
	assert.Nil(t, entries["Vandal"])
}

func TestRun_Errors(t *testing.T) {
	srv, _ := fakeAPI(t)
	defer srv.Close()

	err := run(context.Background(), nil, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "missing command")

	err = run(context.Background(), []string{"frobnicate"}, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown command")

	err = run(context.Background(), []string{"-api", srv.URL, "assign", "-id", "l1", "Vandal"}, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "weapon=skinId")

	err = run(context.Background(), []string{"-api", srv.URL, "import"}, strings.NewReader(`{}`), &bytes.Buffer{})
	assert.ErrorContains(t, err, "Not found")
}
