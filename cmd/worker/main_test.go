package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHandleJob_ShutdownDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handleJob(ctx, nil, "job-1", time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
