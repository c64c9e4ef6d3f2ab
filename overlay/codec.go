package overlay

import (
	"fmt"

	"ethportal.io/api/contentid"
	"ethportal.io/api/contentkey"
	"ethportal.io/api/history"
	"ethportal.io/api/primitives"
	"ethportal.io/api/state"
)

// CodecFor returns the content-key table of a sub-network.
func CodecFor(p primitives.ProtocolID) (*contentkey.Codec, error) {
	switch p {
	case primitives.History:
		return history.Codec, nil
	case primitives.State:
		return state.Codec, nil
	default:
		return nil, fmt.Errorf("%w: no content keys for network %s", ErrInvalidRequest, p)
	}
}

// DecodeRef validates untrusted key bytes against the network's codec and derives the id.
func DecodeRef(p primitives.ProtocolID, key []byte) (ContentRef, error) {
	c, err := CodecFor(p)
	if err != nil {
		return ContentRef{}, err
	}
	if _, err := c.Decode(key); err != nil {
		return ContentRef{}, err
	}
	return ContentRef{Key: append([]byte(nil), key...), ID: contentid.FromEncoded(key)}, nil
}

// CheckContent applies the network's container checks to a payload stored under ref. State
// payloads carry no container checks.
func CheckContent(p primitives.ProtocolID, ref ContentRef, content []byte) error {
	if p != primitives.History {
		return nil
	}
	k, err := history.Codec.Decode(ref.Key)
	if err != nil {
		return err
	}
	return history.CheckContent(k, content)
}
