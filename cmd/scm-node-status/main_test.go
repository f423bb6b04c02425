package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bakermat/steelconnect-node-status/pkg/report"
	"github.com/bakermat/steelconnect-node-status/pkg/scm"
	"github.com/bakermat/steelconnect-node-status/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

// noPrompter fails every prompt so tests notice unexpected questions.
type noPrompter struct{}

func (noPrompter) Prompt(label string) (string, error) {
	return "", errors.New("unexpected prompt: " + label)
}

func (noPrompter) PromptSecret(label string) (string, error) {
	return "", errors.New("unexpected prompt: " + label)
}

type fakeRealm struct {
	orgs    []map[string]any
	sites   []map[string]any
	nodes   []map[string]any
	version map[string]any
}

func defaultRealm() fakeRealm {
	return fakeRealm{
		orgs: []map[string]any{
			{"id": "org-1", "name": "acme", "longname": "Acme Corporation"},
		},
		sites: []map[string]any{
			{"id": "S1", "name": "main", "longname": "Main", "city": "Sydney", "org": "org-1"},
		},
		nodes: []map[string]any{
			{"id": "A", "serial": "123", "state": "online", "model": "kodiak", "site": "S1", "org": "org-1", "firmware_version": "2.11.0-12-panther"},
			{"id": "B", "serial": "456", "state": "offline", "model": "kodiak", "site": "S2", "org": "org-1", "firmware_version": "2.11.0-12-panther"},
		},
		version: map[string]any{"scm_version": "2.11.0", "scm_build": "58"},
	}
}

func (f fakeRealm) serve(t *testing.T) *httptest.Server {
	t.Helper()
	encode := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/scm.config/1.0/orgs", func(w http.ResponseWriter, r *http.Request) {
		encode(w, map[string]any{"items": f.orgs})
	})
	mux.HandleFunc("/api/scm.config/1.0/status", func(w http.ResponseWriter, r *http.Request) {
		if f.version == nil {
			http.NotFound(w, r)
			return
		}
		encode(w, f.version)
	})
	mux.HandleFunc("/api/scm.config/1.0/org/org-1/sites", func(w http.ResponseWriter, r *http.Request) {
		encode(w, map[string]any{"items": f.sites})
	})
	mux.HandleFunc("/api/scm.reporting/1.0/org/org-1/nodes", func(w http.ResponseWriter, r *http.Request) {
		encode(w, map[string]any{"items": f.nodes})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testClients routes each realm name to its test server.
func testClients(servers map[string]*httptest.Server) clientFactory {
	return func(rc types.RealmCredentials, logger *zap.Logger) *scm.Client {
		srv := servers[rc.Realm]
		return scm.NewClient(rc.Realm, rc.Username, rc.Password,
			scm.WithBaseURL(srv.URL),
			scm.WithHTTPClient(srv.Client()),
			scm.WithLogger(logger))
	}
}

// runRoot executes the root command and returns what it wrote to stdout.
func runRoot(t *testing.T, newClient clientFactory, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := runRootStreams(t, newClient, args...)
	return stdout, err
}

func runRootStreams(t *testing.T, newClient clientFactory, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(noPrompter{}, newClient)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func singleRealmArgs(extra ...string) []string {
	args := []string{"-s", "realm-a.example.cc", "-o", "acme", "-u", "admin", "-p", "secret"}
	return append(args, extra...)
}

func TestRootTextOutput(t *testing.T) {
	srv := defaultRealm().serve(t)
	clients := testClients(map[string]*httptest.Server{"realm-a.example.cc": srv})

	out, err := runRoot(t, clients, singleRealmArgs("--no-color")...)

	require.NoError(t, err)
	assert.Contains(t, out, "Checking realm-a.example.cc, version 2.11.0-58 (")
	assert.Contains(t, out, strings.Repeat("*", bannerWidth))
	assert.Contains(t, out, formatLine("SCM Realm", "Organisation", "Site", "Model", "Firmware", "Serial"))
	assert.Contains(t, out, formatLine("realm-a.example.cc", "acme", "Main", "SDI-S48", "2.11.0-12", "123"))
	assert.NotContains(t, out, "456")
	assert.Contains(t, out, "Total: 1 nodes (1 online, 0 offline)")
	assert.NotContains(t, out, "\x1b[")
}

func TestRootColouredOutput(t *testing.T) {
	realm := defaultRealm()
	realm.nodes[1]["site"] = "S1"
	srv := realm.serve(t)
	clients := testClients(map[string]*httptest.Server{"realm-a.example.cc": srv})

	out, err := runRoot(t, clients, singleRealmArgs()...)

	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[32m")
	assert.Contains(t, out, "\x1b[91m")
	assert.Contains(t, out, "Total: 2 nodes (1 online, 1 offline)")
}

func TestRootLegacyRealm(t *testing.T) {
	realm := defaultRealm()
	realm.version = nil
	srv := realm.serve(t)
	clients := testClients(map[string]*httptest.Server{"realm-a.example.cc": srv})

	out, err := runRoot(t, clients, singleRealmArgs("--no-color")...)

	require.NoError(t, err)
	assert.Contains(t, out, "Checking realm-a.example.cc, version < 2.9 (")
}

func TestRootOrgNotFound(t *testing.T) {
	srv := defaultRealm().serve(t)
	clients := testClients(map[string]*httptest.Server{"realm-a.example.cc": srv})

	_, err := runRoot(t, clients, "-s", "realm-a.example.cc", "-o", "globex", "-u", "admin", "-p", "secret")

	require.Error(t, err)
	assert.Equal(t, scm.KindOrgNotFound, scm.Classify(err))
	assert.Equal(t, "\nCould not find an org with name 'globex'", scm.Pretty(err))
}

func TestRootStructuredFormats(t *testing.T) {
	srv := defaultRealm().serve(t)
	clients := testClients(map[string]*httptest.Server{"realm-a.example.cc": srv})

	expected := report.Report{
		Rows: []report.Row{{
			Realm:        "realm-a.example.cc",
			Organisation: "acme",
			Site:         "Main",
			Model:        "SDI-S48",
			Firmware:     "2.11.0-12",
			Serial:       "123",
			State:        "online",
			Online:       true,
		}},
		Summary: report.Summary{Total: 1, Online: 1},
	}

	t.Run("json", func(t *testing.T) {
		stdout, stderr, err := runRootStreams(t, clients, singleRealmArgs("--format", "json")...)
		require.NoError(t, err)

		var got report.Report
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		assert.Equal(t, expected, got)
		assert.Contains(t, stderr, "Checking realm-a.example.cc, version 2.11.0-58 (")
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, stderr, err := runRootStreams(t, clients, singleRealmArgs("--format", "yaml")...)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(stdout, "nodes:"), "stdout should start with the document: %q", stdout)
		var got report.Report
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
		assert.Equal(t, expected, got)
		assert.Contains(t, stderr, "Checking realm-a.example.cc")
	})

	t.Run("table", func(t *testing.T) {
		out, err := runRoot(t, clients, singleRealmArgs("--format", "table", "--no-color")...)
		require.NoError(t, err)

		assert.Contains(t, out, "Checking realm-a.example.cc")
		assert.Contains(t, out, "SCM Realm")
		assert.Contains(t, out, "SDI-S48")
		assert.Contains(t, out, "2.11.0-12")
		assert.Contains(t, out, "┌")
		assert.Contains(t, out, "Total: 1 nodes (1 online, 0 offline)")
	})
}

func TestRootInvalidFormat(t *testing.T) {
	_, err := runRoot(t, nil, singleRealmArgs("--format", "xml")...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported output format "xml"`)
}

func TestRootBatchFile(t *testing.T) {
	realmB := defaultRealm()
	realmB.orgs = []map[string]any{{"id": "org-1", "name": "beta", "longname": "Beta Ltd"}}
	realmB.sites = []map[string]any{{"id": "S9", "longname": "Warehouse", "org": "org-1"}}
	realmB.nodes = []map[string]any{{"id": "C", "serial": "789", "state": "offline", "model": "panther", "site": "S9", "firmware_version": nil}}

	servers := map[string]*httptest.Server{
		"realm-a.example.cc": defaultRealm().serve(t),
		"realm-b.example.cc": realmB.serve(t),
	}
	path := filepath.Join(t.TempDir(), "realms.csv")
	require.NoError(t, os.WriteFile(path, []byte("scm,username,password,org\n"+
		"realm-b.example.cc,admin,secret,\n"+
		"realm-a.example.cc,admin,secret,acme\n"), 0600))

	out, err := runRoot(t, testClients(servers), "-f", path, "-o", "beta", "--no-color")

	require.NoError(t, err)
	checkA := strings.Index(out, "Checking realm-a.example.cc")
	checkB := strings.Index(out, "Checking realm-b.example.cc")
	require.GreaterOrEqual(t, checkA, 0)
	require.Greater(t, checkB, checkA)

	rowA := strings.Index(out, formatLine("realm-a.example.cc", "acme", "Main", "SDI-S48", "2.11.0-12", "123"))
	rowB := strings.Index(out, formatLine("realm-b.example.cc", "beta", "Warehouse", "SDI-5030", types.NotAvailable, "789"))
	require.GreaterOrEqual(t, rowA, 0)
	require.Greater(t, rowB, rowA)
	assert.Contains(t, out, "Total: 2 nodes (1 online, 1 offline)")
}

func TestRootBatchAbortsOnFirstFailure(t *testing.T) {
	servers := map[string]*httptest.Server{
		"realm-a.example.cc": defaultRealm().serve(t),
		"realm-b.example.cc": defaultRealm().serve(t),
	}
	path := filepath.Join(t.TempDir(), "realms.csv")
	require.NoError(t, os.WriteFile(path, []byte("scm,username,password,org\n"+
		"realm-a.example.cc,admin,secret,globex\n"+
		"realm-b.example.cc,admin,secret,acme\n"), 0600))

	out, err := runRoot(t, testClients(servers), "-f", path, "--no-color")

	require.Error(t, err)
	assert.Equal(t, scm.KindOrgNotFound, scm.Classify(err))
	assert.Contains(t, err.Error(), "realm realm-a.example.cc")
	assert.NotContains(t, out, "Checking")
	assert.NotContains(t, out, "Total:")
}

func TestRootMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")

	_, err := runRoot(t, nil, "-f", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.csv does not exist")
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, nil, "version")

	require.NoError(t, err)
	assert.Equal(t, "scm-node-status dev\n", out)
}

func TestCollectWritesProgressPerRealm(t *testing.T) {
	servers := map[string]*httptest.Server{
		"realm-a.example.cc": defaultRealm().serve(t),
		"realm-b.example.cc": defaultRealm().serve(t),
	}
	realms := []types.RealmCredentials{
		{Realm: "realm-a.example.cc", Username: "admin", Password: "secret", Org: "acme"},
		{Realm: "realm-b.example.cc", Username: "admin", Password: "secret", Org: "Acme Corporation"},
	}
	var progress bytes.Buffer

	rep, err := collect(context.Background(), &progress, realms, testClients(servers), zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, report.Summary{Total: 2, Online: 2}, rep.Summary)
	lines := strings.Split(strings.TrimSpace(progress.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Checking realm-a.example.cc, version 2.11.0-58 ("))
	assert.True(t, strings.HasPrefix(lines[1], "Checking realm-b.example.cc, version 2.11.0-58 ("))
}

func TestFormatLatency(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{1234567 * time.Nanosecond, "1.23"},
		{1500 * time.Microsecond, "1.5"},
		{42 * time.Millisecond, "42"},
		{0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatLatency(tt.d))
		})
	}
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "\nTotal: 3 nodes (2 online, 1 offline)\n", summaryLine(report.Summary{Total: 3, Online: 2, Offline: 1}))
}
