package ws

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// A client that unsubscribes from its last auction and then disconnects
// must tear down cleanly: the handler owns the event channel, closes it
// exactly once, and the event listener exits instead of spinning on the
// closed channel.
func TestDisconnectAfterUnsubscribeTearsDownOnce(t *testing.T) {
	h := NewHandler(WsHandlerParams{Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &WsClient{id: "client-1", ctx: ctx, cancel: cancel}

	h.createEventChannel(client.id)

	done := make(chan struct{})
	go func() {
		h.listenForClientEvents(client)
		close(done)
	}()

	require.NotPanics(t, func() { h.removeEventChannel(client.id) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event listener did not exit after channel close")
	}

	// Repeated teardown is a no-op
	require.NotPanics(t, func() { h.removeEventChannel(client.id) })
}

func TestCreateEventChannelReturnsExisting(t *testing.T) {
	h := NewHandler(WsHandlerParams{Logger: zerolog.Nop()})

	first := h.createEventChannel("client-1")
	second := h.createEventChannel("client-1")
	require.Equal(t, first, second)

	h.removeEventChannel("client-1")
	require.Nil(t, h.getEventChannel("client-1"))
}
