package codec

import (
	"strings"

	"github.com/pkg/errors"

	"oggplay/pkg/common"
)

// Comment is the vendor string and KEY=value tags both codecs carry in their
// second header packet.
type Comment struct {
	Vendor string
	Tags   []string
}

// Get returns the first value of a tag, matching keys case-insensitively.
func (c *Comment) Get(key string) (string, bool) {
	for _, tag := range c.Tags {
		i := strings.IndexByte(tag, '=')
		if i < 0 {
			continue
		}
		if strings.EqualFold(tag[:i], key) {
			return tag[i+1:], true
		}
	}
	return "", false
}

// ParseComment decodes a comment body (after the packet type and magic) and
// returns the bytes that follow it.
func ParseComment(b []byte) (*Comment, []byte, error) {
	vendor, b, ok := common.ReadLengthPrefixed(b)
	if !ok {
		return nil, nil, errors.Wrap(ErrBadHeader, "read vendor string")
	}

	if len(b) < 4 {
		return nil, nil, errors.Wrap(ErrBadHeader, "read comment count")
	}
	count := common.BytesAsUint32(b[:4], false)
	b = b[4:]

	// every tag needs at least its 4 byte length
	if uint64(count)*4 > uint64(len(b)) {
		return nil, nil, errors.Wrapf(ErrBadHeader, "comment count %d exceeds packet", count)
	}

	c := &Comment{Vendor: string(vendor), Tags: make([]string, 0, count)}
	for i := uint32(0); i < count; i++ {
		var tag []byte
		tag, b, ok = common.ReadLengthPrefixed(b)
		if !ok {
			return nil, nil, errors.Wrapf(ErrBadHeader, "read comment %d", i)
		}
		c.Tags = append(c.Tags, string(tag))
	}

	return c, b, nil
}

// EncodeComment is the inverse of ParseComment.
func EncodeComment(c *Comment) []byte {
	size := 8 + len(c.Vendor)
	for _, tag := range c.Tags {
		size += 4 + len(tag)
	}

	b := make([]byte, 0, size)
	b = appendLengthPrefixed(b, c.Vendor)
	b = appendUint32(b, uint32(len(c.Tags)))
	for _, tag := range c.Tags {
		b = appendLengthPrefixed(b, tag)
	}
	return b
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	common.UintAsBytes(v, tmp[:], false)
	return append(b, tmp[:]...)
}

func appendLengthPrefixed(b []byte, s string) []byte {
	b = appendUint32(b, uint32(len(s)))
	return append(b, s...)
}
