package storage

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
)

/**
 * @brief Hands artifacts to the enhancer as data URLs, so nothing has to
 * be reachable from the outside. Contents are still kept in memory so the
 * API can serve them back.
 */
type InlineStore struct {
	mem *MemoryStore
}

func NewInlineStore() *InlineStore {
	return &InlineStore{mem: NewMemoryStore("")}
}

func (s *InlineStore) Driver() Driver { return DriverInline }

func (s *InlineStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	info, err := s.mem.Put(ctx, key, r, contentType)
	if err != nil {
		return Info{}, err
	}
	info.URL = s.dataURL(key, info)
	return info, nil
}

func (s *InlineStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, rc, err := s.mem.Get(ctx, key)
	if err != nil {
		return Info{}, nil, err
	}
	info.URL = s.dataURL(key, info)
	return info, rc, nil
}

func (s *InlineStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.mem.Delete(ctx, key)
}

func (s *InlineStore) dataURL(key string, info Info) string {
	s.mem.mu.RLock()
	data := s.mem.objs[key].data
	s.mem.mu.RUnlock()
	return DataURL(info.ContentType, data)
}

// DataURL encodes data as a base64 data URL.
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var b strings.Builder
	b.Grow(len(contentType) + 13 + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(contentType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
