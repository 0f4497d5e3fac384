package cluster

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/go-zookeeper/zk"
)

// memZK хранит znode в памяти: путь -> данные.
type memZK struct {
	mu    sync.Mutex
	data  map[string][]byte
	sets  int
	state zk.State
}

func newMemZK() *memZK {
	return &memZK{data: map[string][]byte{}, state: zk.StateHasSession}
}

func (m *memZK) Children(p string) ([]string, *zk.Stat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p]; !ok {
		return nil, nil, zk.ErrNoNode
	}
	var out []string
	for k := range m.data {
		if rest, ok := strings.CutPrefix(k, p+"/"); ok && !strings.Contains(rest, "/") {
			out = append(out, rest)
		}
	}
	return out, &zk.Stat{}, nil
}

func (m *memZK) Get(p string) ([]byte, *zk.Stat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[p]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return d, &zk.Stat{}, nil
}

func (m *memZK) Create(p string, data []byte, _ int32, _ []zk.ACL) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p]; ok {
		return "", zk.ErrNodeExists
	}
	m.data[p] = data
	return p, nil
}

func (m *memZK) Set(p string, data []byte, _ int32) (*zk.Stat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p]; !ok {
		return nil, zk.ErrNoNode
	}
	m.data[p] = data
	m.sets++
	return &zk.Stat{}, nil
}

func (m *memZK) Exists(p string) (bool, *zk.Stat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[p]
	return ok, &zk.Stat{}, nil
}

func (m *memZK) State() zk.State { return m.state }

func (m *memZK) Close() {}

func TestZKPaths(t *testing.T) {
	if got := nodePath("ringkv", "A"); got != "/ringkv/nodes/A" {
		t.Fatalf("nodePath = %q", got)
	}
	if got := nodesPath("/ringkv/"); got != "/ringkv/nodes" {
		t.Fatalf("nodesPath = %q", got)
	}
}

func TestZKTopology_PublishAndNodes(t *testing.T) {
	conn := newMemZK()
	topo := &ZKTopology{conn: conn, rootPath: "ringkv"}

	for _, n := range []Node{
		NewNode("C", "http://node-c:8080"),
		NewNode("A", "http://node-a:8080"),
		NewNode("B", "http://node-b:8080"),
	} {
		if err := topo.Publish(n); err != nil {
			t.Fatalf("Publish(%s): %v", n.ID, err)
		}
	}
	if _, ok := conn.data["/ringkv"]; !ok {
		t.Fatal("root path was not created")
	}

	nodes, err := topo.Nodes()
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if got := strings.Join(NodeIDs(nodes), ","); got != "A,B,C" {
		t.Fatalf("ids = %s, want A,B,C", got)
	}
	if nodes[0].Address != "http://node-a:8080" {
		t.Fatalf("A address = %q", nodes[0].Address)
	}
}

func TestZKTopology_RepublishOverwrites(t *testing.T) {
	conn := newMemZK()
	topo := &ZKTopology{conn: conn, rootPath: "ringkv"}

	if err := topo.Publish(NewNode("A", "http://old:8080")); err != nil {
		t.Fatal(err)
	}
	if err := topo.Publish(NewNode("A", "http://new:8080")); err != nil {
		t.Fatal(err)
	}
	if conn.sets != 1 {
		t.Fatalf("sets = %d, want 1", conn.sets)
	}

	nodes, err := topo.Nodes()
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Address != "http://new:8080" {
		t.Fatalf("nodes = %+v", nodes)
	}
}

func TestZKTopology_NodesWithoutRoot(t *testing.T) {
	topo := &ZKTopology{conn: newMemZK(), rootPath: "ringkv"}
	if _, err := topo.Nodes(); !errors.Is(err, zk.ErrNoNode) {
		t.Fatalf("expected ErrNoNode, got %v", err)
	}
}

func TestZKTopology_WaitConnected(t *testing.T) {
	conn := newMemZK()
	topo := &ZKTopology{conn: conn, rootPath: "ringkv"}
	if err := topo.waitConnected(0); err != nil {
		t.Fatalf("connected: %v", err)
	}

	conn.state = zk.StateDisconnected
	if err := topo.waitConnected(0); err == nil {
		t.Fatal("expected timeout while disconnected")
	}
}
