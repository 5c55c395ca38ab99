package repository

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithKeyPrefix sets the namespace of every key, "syncops" by default.
func WithKeyPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}
