// Package migrate is a forward-only schema migration engine.
//
// Given a bundle of SQL scripts, it brings any number of target databases to
// the latest known version. Every target keeps a ledger table of the versions
// applied to it, and each run:
//
//   - creates the ledger table if it doesn't exist,
//   - applies the optional "base" script if the ledger is empty, recording it
//     as version 0,
//   - applies every "pre" script,
//   - applies the versioned scripts newer than the highest ledger version, in
//     ascending order, recording each one as soon as it commits,
//   - applies every "post" script.
//
// Each script runs in its own transaction. The first failure stops its target,
// and is reported in that target's Outcome without affecting other targets.
// Targets are processed concurrently, up to Request.Concurrency at a time.
//
// Scripts are read from a ScriptSource, found by a Locator. See the source
// package for filesystem and embedded implementations.
package migrate
