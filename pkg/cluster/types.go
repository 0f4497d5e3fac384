package cluster

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Node is a physical storage node: its id and the base URL of its HTTP API.
type Node struct {
	ID      string `json:"id" yaml:"id" validate:"required"`
	Address string `json:"address" yaml:"address" validate:"required,url"`
}

func NewNode(id, address string) Node {
	return Node{ID: id, Address: address}
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%s)", n.ID, n.Address)
}

// NodeIDs возвращает id нод в исходном порядке.
func NodeIDs(nodes []Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// ValidateNodes проверяет топологию, пришедшую не из конфига (например из ZooKeeper):
// непустой список, уникальные id, адрес - это URL.
func ValidateNodes(nodes []Node) error {
	if len(nodes) == 0 {
		return ErrEmptyRing
	}
	v := validator.New()
	if err := v.Var(nodes, "unique=ID"); err != nil {
		return fmt.Errorf("duplicate node id: %w", err)
	}
	for _, n := range nodes {
		if err := v.Struct(n); err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	return nil
}
