package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mcpkit/mcp-core-go/mcp"
)

func TestQueueFIFOAndDrain(t *testing.T) {
	q := NewQueue()
	q.Enqueue(mcp.ToolsListChangedNotificationMethod, nil)
	q.Enqueue(mcp.ResourcesListChangedNotificationMethod, map[string]any{"uri": "a://b"})
	q.Enqueue(mcp.ToolsListChangedNotificationMethod, nil)

	if got := q.Size(); got != 3 {
		t.Fatalf("size = %d, want 3", got)
	}

	drained := q.Drain()
	if len(drained) != 3 {
		t.Fatalf("drained %d, want 3", len(drained))
	}
	wantOrder := []mcp.Method{
		mcp.ToolsListChangedNotificationMethod,
		mcp.ResourcesListChangedNotificationMethod,
		mcp.ToolsListChangedNotificationMethod,
	}
	for i, n := range drained {
		if n.Method != wantOrder[i] {
			t.Fatalf("drained[%d] = %s, want %s", i, n.Method, wantOrder[i])
		}
	}

	if got := q.Size(); got != 0 {
		t.Fatalf("size after drain = %d, want 0", got)
	}
	if again := q.Drain(); again != nil {
		t.Fatalf("second drain = %v, want nil", again)
	}
}

func TestQueueNoDeduplication(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(mcp.PromptsListChangedNotificationMethod, nil)
	}
	if got := q.Size(); got != 5 {
		t.Fatalf("size = %d, want 5 identical records", got)
	}
}

func TestQueueConcurrentEnqueue(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(mcp.ToolsListChangedNotificationMethod, fmt.Sprintf("%d/%d", i, j))
			}
		}()
	}
	wg.Wait()
	if got := q.Size(); got != 800 {
		t.Fatalf("size = %d, want 800", got)
	}
}
