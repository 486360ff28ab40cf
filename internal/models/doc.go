// Package models defines the domain types shared by the ingestion parser and
// the upload controller.
//
// The package contains two categories of types:
//
//  1. Parse results: [Track], [Playlist], [ExportBatch] and [BatchMeta], the
//     immutable output of a single parse run. An ExportBatch is fully
//     materialized before any upload begins so the JSON snapshot written from
//     it is a faithful pre-upload checkpoint.
//  2. Upload outcomes: [UploadResult] with its [UploadStatus] state tags,
//     per-track [TrackFailure] records and the append-only [RateLimitEvent]
//     log entries.
//
// All types are plain data; nothing in this package talks to the network or
// the filesystem.
package models
