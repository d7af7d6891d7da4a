// Package credentials persists vault credential rows.
//
// Rows carry the encrypted secret (ciphertext with the GCM tag appended) and
// its IV next to plaintext metadata: service, username, notes and the
// creation timestamp. The repository never sees key material and never
// decrypts; it stores and returns opaque bytes.
//
// Two implementations exist, SQLiteRepository and PostgresRepository. Both are
// bound to a dbx.DBTX, so the same code runs against a *sql.DB or inside a
// transaction opened with dbx.WithTx.
//
// Listings are ordered newest first (created_at, then id, descending). Search
// matches a case-insensitive substring of the service name; LIKE wildcards in
// the search term are escaped and match literally.
package credentials
