// Package network carries the JSON wire protocol between kernel-side
// clients and the window server. Envelopes travel as newline-delimited
// UTF-8 JSON, one request per line, with responses written in arrival
// order on the same connection. Two transports speak the identical
// line protocol: a plain TCP listener and an SSH server.
package network

// LineHandler handles one request line and returns the encoded
// response envelope. The dispatcher implements this.
type LineHandler interface {
	HandleLine(line []byte) []byte
}

// MaxLineBytes bounds a single request line. DrawToSurface payloads
// carry base64 pixel data, so the bound is generous: a full
// 1920x1080 RGBA frame is ~11MB encoded.
const MaxLineBytes = 32 << 20
