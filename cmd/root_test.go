package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGuidanceCommand(t *testing.T) {
	out, err := runRoot(t, "guidance", "Snowflakeの", "動的テーブル")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "Snowflakeの 動的テーブル", body["original_query"])
	assert.Len(t, body["steps"], 4)
}

func TestSearchCommand(t *testing.T) {
	cortexServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/cortex/agent:run", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"delta":{"content":[{"type":"text","text":"Dynamic tables refresh automatically."}]}}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer cortexServer.Close()

	testChdir(t, t.TempDir())
	t.Setenv("SNOWFLAKE_ACCOUNT_URL", cortexServer.URL)
	t.Setenv("SNOWFLAKE_PAT", "pat")
	t.Setenv("CORTEX_SEARCH_SERVICE", "DOCS")

	out, err := runRoot(t, "search", "--log-level", "error", "dynamic", "tables")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Dynamic tables refresh automatically.","citations":[]}`, out)
}

func TestAgentCommandMissingConfig(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("SNOWFLAKE_ACCOUNT_URL", "")
	t.Setenv("SNOWFLAKE_PAT", "")
	t.Setenv("CORTEX_SEARCH_SERVICE", "")

	_, err := runRoot(t, "agent", "how many orders?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNOWFLAKE_PAT")
}

func TestQueryArg(t *testing.T) {
	assert.Equal(t, "a b", queryArg([]string{" a", "b "}))
}
