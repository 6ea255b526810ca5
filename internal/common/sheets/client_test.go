package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	require.Error(t, err)
}

func TestReplaceValues(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		paths []string
		rows  [][]interface{}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method)
		paths = append(paths, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":clear") {
			_, _ = w.Write([]byte(`{}`))
			return
		}

		var body struct {
			Values [][]interface{} `json:"values"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rows = body.Values
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"updatedRows": len(body.Values)})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Config{Endpoint: srv.URL + "/", WithoutAuth: true})
	require.NoError(t, err)

	n, err := client.ReplaceValues(context.Background(), "sheet-1", "Applications!A1", [][]interface{}{
		{"Name", "Email"},
		{"Abebe", "a@b.co"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{http.MethodPost, http.MethodPut}, calls)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], "/values/Applications:clear"), paths[0])
	assert.True(t, strings.HasSuffix(paths[1], "/values/Applications!A1"), paths[1])
	require.Len(t, rows, 2)
	assert.Equal(t, "Abebe", rows[1][0])
}

func TestClearRange(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Applications!A1", "Applications"},
		{"Applications!A1:I200", "Applications"},
		{"'Q1 Export'!B2", "'Q1 Export'"},
		{"A1", "A:ZZZ"},
		{"A1:I", "A:ZZZ"},
		{"Applications", "Applications"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, clearRange(tt.in))
		})
	}
}
