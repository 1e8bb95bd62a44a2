// ABOUTME: Playback pipeline package
// ABOUTME: Bounded PCM queue and the driver that plays an Ogg stream to a sink
// Package playback runs an Ogg stream from a byte source to an audio sink.
//
// A Driver moves through Opening, SyncingHeaders, Streaming, Draining and
// Closed, or ends in Failed with a single *Error. Decoding and sink feeding
// run concurrently, joined by a Queue whose capacity bounds how far decode
// may run ahead of playback.
package playback
