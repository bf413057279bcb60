package server

import (
	"fmt"

	"github.com/pthm/hxpart/lib/encoding"
)

// editToken ties a submitted form to the item and version it was
// rendered from. New items get their ID when the form is first shown.
type editToken struct {
	ID          string `msgpack:"id"`
	ContentType string `msgpack:"ct"`
	Version     int    `msgpack:"v"`
}

func (s *Server) sealToken(tok editToken) (string, error) {
	return s.codec.Seal(tok, encoding.Signed)
}

// openToken reads the token from a parsed form and checks it names
// contentType and, for existing items, id.
func (s *Server) openToken(raw, contentType, id string) (editToken, error) {
	var tok editToken
	if raw == "" {
		return tok, fmt.Errorf("%w: missing", ErrTokenInvalid)
	}
	if err := s.codec.Open(raw, encoding.Signed, s.tokenTTL, &tok); err != nil {
		return tok, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if contentType != "" && tok.ContentType != contentType {
		return tok, fmt.Errorf("%w: issued for %s", ErrTokenInvalid, tok.ContentType)
	}
	if id != "" && tok.ID != id {
		return tok, fmt.Errorf("%w: issued for another item", ErrTokenInvalid)
	}
	return tok, nil
}
