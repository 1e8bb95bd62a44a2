// ABOUTME: Byte source package for the playback pipeline
// ABOUTME: Opens files, stdin, HTTP, WebSocket and S3 streams as io.ReadCloser
// Package source acquires the raw byte stream a Demuxer reads from. It has
// no parsing knowledge.
package source
