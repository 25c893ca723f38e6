// Package refcode turns internal listing IDs into short, non-sequential
// public reference codes for URLs, so crawlers cannot enumerate listings
// by walking the ID space.
package refcode

import (
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

const minLength = 8

type Codec struct {
	h *hashids.HashID
}

func New(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &Codec{h: h}, nil
}

func (c *Codec) Encode(id int64) (string, error) {
	return c.h.EncodeInt64([]int64{id})
}

func (c *Codec) Decode(code string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(code)
	if err != nil {
		return 0, fmt.Errorf("invalid reference code: %w", err)
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("invalid reference code")
	}
	return ids[0], nil
}
