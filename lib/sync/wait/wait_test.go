package wait

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitWithTimeout(t *testing.T) {
	var w Wait
	w.Add(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Done()
	}()
	require.False(t, w.WaitWithTimeout(time.Second))

	w.Add(1)
	require.True(t, w.WaitWithTimeout(10*time.Millisecond))
	w.Done()
	w.Wait()
}
