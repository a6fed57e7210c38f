package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinLeaveEdges(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	req.Equal(1, r.Join(1, "1"))
	req.Equal(2, r.Join(1, "1"))
	req.Equal(1, r.Leave(1, "1"))
	req.Equal(0, r.Leave(1, "1"))

	// Leave on an unknown pair stays at zero instead of going negative.
	req.Equal(0, r.Leave(1, "1"))
}

func TestCountersAreIndependentPerRoomAndIdentity(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	r.Join(1, "1")
	r.Join(1, "2")
	r.Join(2, "1")

	req.ElementsMatch([]string{"1", "2"}, r.Online(1))
	req.ElementsMatch([]string{"1"}, r.Online(2))

	req.Equal(0, r.Leave(1, "1"))
	req.ElementsMatch([]string{"2"}, r.Online(1))
}

func TestConcurrentJoinsEmitExactlyOneOnlineEdge(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	const sessions = 64
	var wg sync.WaitGroup
	onlineEdges := make(chan struct{}, sessions)

	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Join(1, "1") == 1 {
				onlineEdges <- struct{}{}
			}
		}()
	}
	wg.Wait()
	req.Len(onlineEdges, 1)

	offlineEdges := make(chan struct{}, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Leave(1, "1") == 0 {
				offlineEdges <- struct{}{}
			}
		}()
	}
	wg.Wait()
	req.Len(offlineEdges, 1)
}
