package cluster

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// ZKTopology хранит статический список нод в ZooKeeper: {root}/nodes/{id} -> address.
// Узлы persistent, список читается один раз на старте координатора.
type ZKTopology struct {
	conn     zkConn
	rootPath string
}

// zkConn is the subset of *zk.Conn the topology uses.
type zkConn interface {
	Children(path string) ([]string, *zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	Set(path string, data []byte, version int32) (*zk.Stat, error)
	Exists(path string) (bool, *zk.Stat, error)
	State() zk.State
	Close()
}

// servers: ["zk1:2181", "zk2:2181"]
func NewZKTopology(servers []string, rootPath string, sessionTimeout time.Duration) (*ZKTopology, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zk connect: %w", err)
	}
	t := &ZKTopology{conn: conn, rootPath: rootPath}
	if err := t.waitConnected(2 * sessionTimeout); err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *ZKTopology) Close() error {
	t.conn.Close()
	return nil
}

// Publish записывает адрес ноды, перезаписывая старое значение.
func (t *ZKTopology) Publish(node Node) error {
	if err := t.ensurePath(nodesPath(t.rootPath)); err != nil {
		return fmt.Errorf("ensure nodes path: %w", err)
	}

	p := nodePath(t.rootPath, node.ID)
	_, err := t.conn.Create(p, []byte(node.Address), 0, zk.WorldACL(zk.PermAll))
	if errors.Is(err, zk.ErrNodeExists) {
		_, err = t.conn.Set(p, []byte(node.Address), -1)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", p, err)
	}
	return nil
}

// Nodes читает опубликованные ноды, отсортированные по id.
func (t *ZKTopology) Nodes() ([]Node, error) {
	children, _, err := t.conn.Children(nodesPath(t.rootPath))
	if err != nil {
		return nil, fmt.Errorf("zk children: %w", err)
	}
	sort.Strings(children)

	nodes := make([]Node, 0, len(children))
	for _, id := range children {
		data, _, err := t.conn.Get(nodePath(t.rootPath, id))
		if err != nil {
			return nil, fmt.Errorf("zk get %s: %w", id, err)
		}
		nodes = append(nodes, Node{ID: id, Address: string(data)})
	}
	return nodes, nil
}

func (t *ZKTopology) ensurePath(p string) error {
	cur := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		cur = cur + "/" + part
		exists, _, err := t.conn.Exists(cur)
		if err != nil {
			return err
		}
		if !exists {
			_, err = t.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll))
			if err != nil && !errors.Is(err, zk.ErrNodeExists) {
				return err
			}
		}
	}
	return nil
}

func (t *ZKTopology) waitConnected(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		st := t.conn.State()
		if st == zk.StateConnected || st == zk.StateHasSession {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("zk: not connected after %s, state=%v", timeout, st)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func nodesPath(root string) string {
	return path.Join("/", root, "nodes")
}

func nodePath(root, id string) string {
	return path.Join(nodesPath(root), id)
}
