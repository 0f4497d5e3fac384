package cluster

import (
	"sort"
	"sync/atomic"

	"github.com/zhangyunhao116/skipmap"
)

const DefaultVirtualNodes = 100

type positionMap = skipmap.FuncMap[uint64, Node]

// снимок позиций в порядке обхода кольца
type ringTable struct {
	version   uint64
	positions []uint64
	owners    []Node
	distinct  int
}

// HashRing реализует consistent hashing с виртуальными нодами.
// Кольцо наполняется через AddNode на старте и дальше читается конкурентно.
type HashRing struct {
	virtualNodes int
	hash         HashFunc

	positions *positionMap
	version   atomic.Uint64
	table     atomic.Pointer[ringTable]
}

func NewHashRing(virtualNodes int, hash HashFunc) *HashRing {
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}
	if hash == nil {
		hash = SHA256Hash
	}
	return &HashRing{
		virtualNodes: virtualNodes,
		hash:         hash,
		positions: skipmap.NewFunc[uint64, Node](func(a, b uint64) bool {
			return a < b
		}),
	}
}

// AddNode раскладывает ноду на virtualNodes позиций "{id}-VN{i}".
// При совпадении позиций выигрывает последняя запись.
func (h *HashRing) AddNode(node Node) {
	for i := 0; i < h.virtualNodes; i++ {
		h.positions.Store(h.hash(virtualNodeLabel(node.ID, i)), node)
	}
	h.version.Add(1)
}

func (h *HashRing) Hash(input string) uint64 {
	return h.hash(input)
}

func (h *HashRing) VirtualNodes() int {
	return h.virtualNodes
}

// GetNode возвращает владельца ключа: первую позицию >= hash(key), с переходом через ноль.
func (h *HashRing) GetNode(key string) (Node, error) {
	replicas, err := h.GetReplicas(key, 1)
	if err != nil {
		return Node{}, err
	}
	return replicas[0], nil
}

// GetReplicas walks the ring clockwise from the key's position and collects up
// to n distinct physical nodes in the order they are met. With fewer physical
// nodes than n every node is returned exactly once.
func (h *HashRing) GetReplicas(key string, n int) ([]Node, error) {
	if n < 1 {
		return nil, ErrInvalidReplicationFactor
	}

	t := h.snapshot()
	if len(t.positions) == 0 {
		return nil, ErrEmptyRing
	}

	want := min(n, t.distinct)
	start := t.successor(h.hash(key))
	visited := make(map[string]struct{}, want)
	replicas := make([]Node, 0, want)

	// не больше одного круга
	for i := 0; i < len(t.positions) && len(replicas) < want; i++ {
		node := t.owners[(start+i)%len(t.positions)]
		if _, ok := visited[node.ID]; ok {
			continue
		}
		visited[node.ID] = struct{}{}
		replicas = append(replicas, node)
	}
	return replicas, nil
}

// Nodes возвращает уникальные физические ноды, отсортированные по id.
func (h *HashRing) Nodes() []Node {
	t := h.snapshot()
	seen := make(map[string]struct{}, t.distinct)
	result := make([]Node, 0, t.distinct)
	for _, n := range t.owners {
		if _, ok := seen[n.ID]; !ok {
			seen[n.ID] = struct{}{}
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len is the number of occupied virtual positions.
func (h *HashRing) Len() int {
	return h.positions.Len()
}

// Size is the number of distinct physical nodes.
func (h *HashRing) Size() int {
	return h.snapshot().distinct
}

func (h *HashRing) snapshot() *ringTable {
	v := h.version.Load()
	if t := h.table.Load(); t != nil && t.version == v {
		return t
	}

	size := h.positions.Len()
	t := &ringTable{
		version:   v,
		positions: make([]uint64, 0, size),
		owners:    make([]Node, 0, size),
	}
	seen := make(map[string]struct{})
	h.positions.Range(func(pos uint64, node Node) bool {
		t.positions = append(t.positions, pos)
		t.owners = append(t.owners, node)
		seen[node.ID] = struct{}{}
		return true
	})
	t.distinct = len(seen)

	h.table.Store(t)
	return t
}

func (t *ringTable) successor(hash uint64) int {
	idx := sort.Search(len(t.positions), func(i int) bool { return t.positions[i] >= hash })
	if idx == len(t.positions) {
		idx = 0
	}
	return idx
}
