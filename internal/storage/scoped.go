package storage

import "context"

type scoped struct {
	base  Storage
	scope string
}

// Scoped namespaces every key of base under scope, one scope per session.
func Scoped(base Storage, scope string) Storage {
	return &scoped{base: base, scope: scope}
}

func (s *scoped) key(key string) string {
	return s.scope + ":" + key
}

func (s *scoped) Get(c context.Context, key string) ([]byte, error) {
	return s.base.Get(c, s.key(key))
}

func (s *scoped) Set(c context.Context, key string, value []byte) error {
	return s.base.Set(c, s.key(key), value)
}

func (s *scoped) Remove(c context.Context, key string) error {
	return s.base.Remove(c, s.key(key))
}
