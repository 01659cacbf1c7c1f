package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pagekit/core/server"
)

func TestServerRunAndShutdown(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "pong")
		}))
	}()

	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.ErrorIs(t, srv.Run(context.Background(), http.NotFoundHandler()), server.ErrServerAlreadyRunning)
}

func TestServerWaitsForInFlightRequests(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(2*time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			time.Sleep(100 * time.Millisecond)
			_, _ = io.WriteString(w, "slow")
		}))
	}()
	<-srv.Ready()

	result := make(chan string, 1)
	go func() {
		resp, err := http.Get("http://" + srv.Addr().String())
		if err != nil {
			result <- err.Error()
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		result <- string(body)
	}()

	<-started
	cancel()
	assert.Equal(t, "slow", <-result)
	assert.NoError(t, <-done)
}

func TestServerErrors(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, server.New(":0").Run(context.Background(), nil), server.ErrNilHandler)
	assert.ErrorIs(t, server.New("256.0.0.1:bad").Run(context.Background(), http.NotFoundHandler()), server.ErrStart)

	_, err := server.NewFromConfig(server.Config{})
	assert.ErrorIs(t, err, server.ErrMissingAddress)

	_, err = server.NewFromConfig(server.Config{Addr: ":0", TLSCertFile: "missing.pem", TLSKeyFile: "missing.key"})
	assert.ErrorIs(t, err, server.ErrLoadTLS)
}
