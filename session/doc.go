// Package session provides the server-side record of active logins: at most
// one live session per username, holding the current token and last-activity
// time.
//
// Two [Store] implementations are included. [MemoryStore] is the default
// in-process store with per-shard locking. [RedisStore] backs sessions by a
// shared Redis so multiple processes can serve the same users; records are
// stored in a compact binary format with a format-version byte.
//
// # Architecture boundaries
//
// This package owns session persistence only. It does NOT decode
// credentials, verify passwords, or enforce the idle timeout — those
// decisions belong to the Engine. Expiry here (the Redis TTL) is a
// best-effort guardrail; the authoritative idle check happens lazily at
// authentication time.
package session
