// Package wiki provides the transport layer wikisync uses to talk to a
// MediaWiki installation through its action API (api.php).
//
// # Overview
//
// The reconciliation engine never talks HTTP directly. It depends on the small
// interfaces declared here (Reader, Writer, Transport) and receives page reads
// as Snapshot values. A Snapshot carries fetch failures as data instead of as
// errors, so a batch run can tell "nothing to do" apart from "could not check"
// and keep going. Only failures that make the rest of a run pointless
// (authentication, cancelled contexts) are returned as errors.
//
// # Client
//
// Client is the concrete implementation. It keeps a cookie jar for the login
// session, caches the CSRF token and paces write requests so that bulk edits
// stay under the wiki's rate limits.
//
//	client, err := wiki.NewClient(wiki.Options{
//		APIURL:       "https://wiki.example.org/api.php",
//		UserAgent:    "wikisync/1.0",
//		EditInterval: 500 * time.Millisecond,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := client.Login(ctx, "Bot", password); err != nil {
//		log.Fatal(err)
//	}
//	snap, err := client.FetchPage(ctx, "Bronze Dagger")
//
// # Edits
//
// Edit values are always fully resolved page (or section) text. They are
// accumulated by the caller and submitted in one call with a shared summary
// comment. Edits are submitted in order and one at a time.
//
// The wikitest subpackage holds an in-memory Transport for tests.
package wiki
