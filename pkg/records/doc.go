// Package records stores the accounts, profiles and user statistics behind
// the dashboard.
//
// Two record kinds are addressable through [Store]: [KindProfiles] rows are
// keyed by the owning account id, [KindStats] rows carry their own id plus
// the owner's id in UserID. [Store.Get] looks a record up by owner;
// [Store.Update] addresses it by its own id with a column [Patch].
//
// Backends:
//   - [SQLStore] over database/sql, for SQLite (modernc.org/sqlite) and
//     Postgres (github.com/lib/pq)
//   - [MongoStore] over go.mongodb.org/mongo-driver
//   - [MemoryStore] for tests and the offline demo
//
// Use [Open] to pick a backend from a DSN:
//
//	store, err := records.Open(ctx, "sqlite://moto.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	stats, err := records.GetStats(ctx, store, accountID)
package records
