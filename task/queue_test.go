package task

import "sync"
import "testing"

import "github.com/stretchr/testify/require"

func TestQueueDelivers(t *testing.T) {
	var mu sync.Mutex
	var got []string

	q := NewQueue(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Name)
		mu.Unlock()
	})

	require.NoError(t, q.Send(Event{Name: "a"}))
	require.NoError(t, q.Send(Event{Name: "b"}))
	q.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0])
	require.Equal(t, "b", got[1])
}

func TestQueueSendAfterClose(t *testing.T) {
	q := NewQueue(func(Event) {})
	q.Close()
	require.ErrorIs(t, q.Send(Event{Name: "late"}), ErrClosed)
}
