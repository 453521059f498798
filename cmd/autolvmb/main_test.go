package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWaitShutdownReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		waitShutdown(ctx, make(chan os.Signal))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitShutdown did not return on context cancel")
	}
}

func TestWaitShutdownReturnsOnSignal(t *testing.T) {
	sig := make(chan os.Signal, 1)

	done := make(chan struct{})
	go func() {
		waitShutdown(context.Background(), sig)
		close(done)
	}()

	sig <- syscall.SIGTERM
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitShutdown did not return on SIGTERM")
	}
}
