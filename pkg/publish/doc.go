// Package publish synchronizes a CMS client's edits (a posts collection and
// its images) into a version-controlled repository through that repository's
// content API.
//
// The core is the upsert protocol. Every file write first looks up the
// file's current content-address and attaches it to the write when present,
// so the remote accepts the write as an update instead of rejecting it as a
// conflicting create. A publish request is planned into an ordered list of
// steps and executed by a Pipeline that stops at the first failure.
//
// Content stores (GitHub, memory, filesystem, S3) and history stores
// (memory, Postgres) are provided under subpackages.
package publish
