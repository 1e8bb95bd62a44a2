// ABOUTME: Codec header validation package
// ABOUTME: Turns the leading packets of a stream into an immutable Descriptor
// Package header validates the header packets that open an Ogg logical
// stream and produces the Descriptor a decoder needs.
//
// The Validator moves through ExpectIdentification, ExpectComment and
// ExpectSetup to Ready. A bad first packet is a NotACodecStreamError; any
// later malformed or out-of-order header is a CorruptHeaderError. Once
// Ready, packets pass through as StepAudio.
package header
