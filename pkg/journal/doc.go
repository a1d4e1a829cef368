// Package journal records wikisync batch runs in Redis so they can be
// reviewed before their edits reach the wiki.
//
// # Overview
//
// A run that decides on at least one edit is saved as a pending Run. The
// operator can list runs, look at the edits and the diffs of pages flagged
// for review, and then submit or discard them. Runs executed without
// --dry-run are submitted straight away and their status is updated to
// submitted or failed.
//
// While a run is in progress every page outcome is published on a Pub/Sub
// channel, which "wikisync watch" follows.
//
// # Redis Schema
//
// All Redis keys follow the pattern: wikisync:{namespace}:{entity}:{id}
//
// Runs: wikisync:{namespace}:run:{run_id} (hash)
// Run index: wikisync:{namespace}:runs (ZSET scored by created_at_ms)
//
// Pub/Sub channels: wikisync:{namespace}:{event_type}_events
//
// Outcome Events: wikisync:{namespace}:outcome_events
// Run Events: wikisync:{namespace}:run_events
//
// # Usage Example
//
//	client, err := journal.NewClient(&redis.Options{Addr: "localhost:6379"}, "melvor")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	run, err := client.GetRun(ctx, runID)
//	if journal.IsNotFound(err) {
//		// no such run
//	}
package journal
