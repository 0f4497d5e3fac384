package storage

import (
	"strings"

	"github.com/zhangyunhao116/skipmap"
)

type orderedMap = skipmap.FuncMap[string, string]

// Store is the in-memory key->value map of a storage node.
// Безопасно для конкурентного доступа, данные не переживают рестарт процесса.
type Store struct {
	data *orderedMap
}

func New() *Store {
	return &Store{
		data: skipmap.NewFunc[string, string](func(a, b string) bool {
			return strings.Compare(a, b) < 0
		}),
	}
}

func (s *Store) Put(key, value string) {
	s.data.Store(key, value)
}

func (s *Store) Get(key string) (string, bool) {
	return s.data.Load(key)
}

func (s *Store) Len() int {
	return s.data.Len()
}

// Keys returns all keys in ascending order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.data.Len())
	s.data.Range(func(key, _ string) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
