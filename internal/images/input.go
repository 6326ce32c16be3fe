package images

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Input is an image payload as received at the HTTP boundary. It is either
// RawBytes from a file upload or a Base64String from a JSON or form field.
type Input interface {
	decode() ([]byte, error)
	source() string
}

// RawBytes is an uploaded file's content.
type RawBytes []byte

func (b RawBytes) decode() ([]byte, error) { return []byte(b), nil }
func (RawBytes) source() string            { return "file" }

// Base64String is an inline payload, optionally carrying a data-URI header
// such as "data:image/png;base64,".
type Base64String string

func (s Base64String) decode() ([]byte, error) {
	payload := stripDataURIPrefix(string(s))
	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return data, nil
}

func (Base64String) source() string { return "base64" }

// Source names the variant of in for logs.
func Source(in Input) string {
	if in == nil {
		return ""
	}
	return in.source()
}

// stripDataURIPrefix drops everything up to and including the first comma.
func stripDataURIPrefix(s string) string {
	if _, after, found := strings.Cut(s, ","); found {
		return after
	}
	return s
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
// Line breaks and surrounding spaces, common in pasted payloads, are ignored.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
