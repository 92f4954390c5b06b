package cache

import (
	"encoding/json"
	"fmt"
)

// envelope is the wire form of an Entry in remote backends.
// Expire is unix seconds, -1 for permanent.
type envelope struct {
	Payload []byte   `json:"payload"`
	Expire  int64    `json:"expire"`
	Tags    []string `json:"tags,omitempty"`
}

func encodeEntry(payload []byte, expiry Expiry, tags []string) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Payload: payload,
		Expire:  expiry.Unix(),
		Tags:    cloneTags(tags),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: failed to encode entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (Entry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return Entry{
		Payload: env.Payload,
		Expiry:  ExpiryFromUnix(env.Expire),
		Tags:    env.Tags,
	}, nil
}
