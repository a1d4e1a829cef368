package journal

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced so that several wikis
// (or a test and a live setup) can share one Redis server.
//
// Key pattern: wikisync:{namespace}:{entity}:{id}
// Channel pattern: wikisync:{namespace}:{event_type}_events

// RunKey returns the Redis key for a run hash.
// Pattern: wikisync:{namespace}:run:{run_id}
func RunKey(namespace, runID string) string {
	return fmt.Sprintf("wikisync:%s:run:%s", namespace, runID)
}

// RunsIndexKey returns the Redis key of the ZSET indexing runs by creation time.
// Pattern: wikisync:{namespace}:runs
func RunsIndexKey(namespace string) string {
	return fmt.Sprintf("wikisync:%s:runs", namespace)
}

// OutcomeEventsChannel returns the Pub/Sub channel carrying per-page outcomes.
// Pattern: wikisync:{namespace}:outcome_events
func OutcomeEventsChannel(namespace string) string {
	return fmt.Sprintf("wikisync:%s:outcome_events", namespace)
}

// RunEventsChannel returns the Pub/Sub channel carrying run status changes.
// Pattern: wikisync:{namespace}:run_events
func RunEventsChannel(namespace string) string {
	return fmt.Sprintf("wikisync:%s:run_events", namespace)
}
