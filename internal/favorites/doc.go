// package favorites persists the user's favorited tracks.
//
// A favorite is keyed by (track id, provider). Two [Store] implementations are provided: [PostgresStore] for a shared
// server database and [SQLiteStore] for a local file. Both keep a snapshot of the track metadata so that listing
// favorites does not require another provider search.
//
// [Toggle] is the only place the player-facing IsFavorited flag is changed, and it changes only after the store call
// succeeds.
package favorites
