// Package models defines the entities exchanged with the media manager back end and the records podx keeps locally.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from the back end's JSON API
//   - [Track], [Album] : library and device catalog entries
//   - [Device], [Storage], [DeviceInfo] : the connected portable player
//   - [Playlist], [Artist], [Genre] : device catalog groupings
//   - [BulkRequest], [BulkResult] : batch add/remove of track ids
//   - [UploadResponse], [UploadEntry], [UploadResult] : per-file upload outcomes
//   - [M3UImport], [TrackIDs] : playlist import and content sync helpers
//
// 2. Persistent Entities: records in the local SQLite history
//   - [UploadRun] : one upload queue submission with its bucket counts
//   - [UploadRecord] : the outcome of one file within a run
//   - [BulkAction] : one add/remove batch sent to the device
//
// Persistent entities implement the [Model] interface; the [Repository] interface defines their data access.
package models
