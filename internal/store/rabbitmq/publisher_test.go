package rabbitmq

import "testing"

func TestJobQueues_DeadLetterChain(t *testing.T) {
	specs := jobQueues("distribution_jobs")
	if len(specs) != 3 {
		t.Fatalf("expected 3 queues, got %d", len(specs))
	}

	byName := map[string]queueSpec{}
	for _, q := range specs {
		byName[q.Name] = q
	}

	main, ok := byName["distribution_jobs"]
	if !ok {
		t.Fatal("main queue missing")
	}
	if got := main.Args["x-dead-letter-routing-key"]; got != "distribution_jobs.dlq" {
		t.Fatalf("main queue dead-letters to %v, want the dlq", got)
	}

	retry, ok := byName["distribution_jobs.retry"]
	if !ok {
		t.Fatal("retry queue missing")
	}
	if got := retry.Args["x-dead-letter-routing-key"]; got != "distribution_jobs" {
		t.Fatalf("retry queue dead-letters to %v, want the main queue", got)
	}

	dlq, ok := byName["distribution_jobs.dlq"]
	if !ok {
		t.Fatal("dlq missing")
	}
	if dlq.Args != nil {
		t.Fatalf("dlq must be terminal, got args %v", dlq.Args)
	}

	// dead-letter targets must be declared before the queues that use them
	if specs[0].Name != "distribution_jobs.dlq" || specs[2].Name != "distribution_jobs" {
		t.Fatalf("unexpected declaration order: %v, %v, %v", specs[0].Name, specs[1].Name, specs[2].Name)
	}
}
