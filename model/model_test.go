package model

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Model = (*MockModel)(nil)

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("hello", "hi there")

	resp, err := m.Generate(context.Background(), Request{
		Contents: []Content{{Role: "user", Text: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockModel_ConcurrentScriptConsumption(t *testing.T) {
	m := NewMockModel("test")
	const n = 8
	for i := 0; i < n; i++ {
		m.AddScript(Response{Text: string(rune('a' + i))})
	}

	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := m.Generate(context.Background(), Request{
				Contents: []Content{{Role: "user", Text: "go"}},
			})
			assert.NoError(t, err)
			results <- resp.Text
		}()
	}
	wg.Wait()
	close(results)

	// Each scripted response is handed out exactly once.
	var got []string
	for text := range results {
		got = append(got, text)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, got)
}
