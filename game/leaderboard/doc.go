// Package leaderboard records winning scores and ranks them.
//
// Two Store implementations are provided:
//   - FileStore: an append-only scoreboard.csv log plus a top10.csv ranking
//     rewritten after every append
//   - SQLStore: a SQLite database whose schema is embedded in the binary
//
// Rankings are ordered by score, highest first. Equal scores keep the order
// in which they were recorded. Only positive scores are accepted, and player
// names may not contain commas or line breaks.
//
// Usage:
//
//	store, err := leaderboard.Open("sqlite", "scores.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Append(ctx, leaderboard.NewEntry("ada", 5600, 1))
//	top, err := store.Top(ctx, leaderboard.TopN)
package leaderboard
