package dungeon

import (
	"fmt"
)

// Container - прямоугольная область дерева разбиения.
// Комнату может держать только лист.
type Container struct {
	ID int `json:"id"`
	Rect
	Room     *Room     `json:"room,omitempty"`
	Corridor *Corridor `json:"corridor,omitempty"`

	// Spawn помечает контейнер, зарезервированный под комнату спавна.
	Spawn bool `json:"spawn,omitempty"`
}

// NodeKind - тег варианта узла дерева.
type NodeKind uint8

const (
	NodeLeaf NodeKind = iota
	NodeSplit
	NodeCluster
)

func (k NodeKind) String() string {
	switch k {
	case NodeLeaf:
		return "leaf"
	case NodeSplit:
		return "split"
	case NodeCluster:
		return "cluster"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Node - узел дерева. Split держит Left/Right, Cluster - Children,
// Leaf - ничего. Обход всегда идет по Kind, а не по наличию полей.
type Node struct {
	Kind      NodeKind   `json:"kind"`
	Container *Container `json:"container"`
	Left      *Node      `json:"left,omitempty"`
	Right     *Node      `json:"right,omitempty"`
	Children  []*Node    `json:"children,omitempty"`
}

func NewLeaf(c *Container) *Node {
	return &Node{Kind: NodeLeaf, Container: c}
}

func NewSplit(c *Container, left, right *Node) *Node {
	return &Node{Kind: NodeSplit, Container: c, Left: left, Right: right}
}

func NewCluster(c *Container, children ...*Node) *Node {
	return &Node{Kind: NodeCluster, Container: c, Children: children}
}

// Walk обходит дерево в прямом порядке (pre-order).
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch n.Kind {
	case NodeSplit:
		n.Left.Walk(fn)
		n.Right.Walk(fn)
	case NodeCluster:
		for _, child := range n.Children {
			child.Walk(fn)
		}
	}
}

// Leaves возвращает контейнеры листьев слева направо.
func (n *Node) Leaves() []*Container {
	var leaves []*Container
	n.Walk(func(node *Node) {
		if node.Kind == NodeLeaf {
			leaves = append(leaves, node.Container)
		}
	})
	return leaves
}

// Tree - дерево разбиения этажа.
type Tree struct {
	Root *Node `json:"root"`

	// Links - коридоры ближайших соседей/MST, которые не принадлежат одному
	// контейнеру.
	Links []*Corridor `json:"links,omitempty"`
}

// Leaves возвращает все листья дерева.
func (t *Tree) Leaves() []*Container {
	if t == nil || t.Root == nil {
		return nil
	}
	return t.Root.Leaves()
}

// Rooms возвращает все размещенные комнаты в порядке обхода листьев.
func (t *Tree) Rooms() []*Room {
	var rooms []*Room
	for _, leaf := range t.Leaves() {
		if leaf.Room != nil {
			rooms = append(rooms, leaf.Room)
		}
	}
	return rooms
}

// Corridors возвращает коридоры узлов и связи дерева.
func (t *Tree) Corridors() []*Corridor {
	var out []*Corridor
	if t == nil || t.Root == nil {
		return nil
	}
	t.Root.Walk(func(n *Node) {
		if n.Container.Corridor != nil {
			out = append(out, n.Container.Corridor)
		}
	})
	return append(out, t.Links...)
}

// Container ищет контейнер по ID.
func (t *Tree) Container(id int) *Container {
	var found *Container
	t.Root.Walk(func(n *Node) {
		if n.Container.ID == id {
			found = n.Container
		}
	})
	return found
}

// Translate сдвигает все дерево (используется круговой стратегией спавна,
// когда внутреннее подземелье переносится в центр расширенной карты).
func (t *Tree) Translate(dx, dy int) {
	t.Root.Walk(func(n *Node) {
		c := n.Container
		c.Rect = c.Rect.Translate(dx, dy)
		if c.Room != nil {
			c.Room.X += dx
			c.Room.Y += dy
		}
		if c.Corridor != nil {
			c.Corridor.translate(dx, dy)
		}
	})
	for _, link := range t.Links {
		link.translate(dx, dy)
	}
}

// Validate проверяет инварианты дерева: комнаты только в листьях,
// не больше одной комнаты на лист, у Split ровно два ребенка.
func (t *Tree) Validate() error {
	var err error
	t.Root.Walk(func(n *Node) {
		if err != nil {
			return
		}
		switch n.Kind {
		case NodeSplit:
			if n.Left == nil || n.Right == nil {
				err = fmt.Errorf("split node %d has missing child", n.Container.ID)
				return
			}
			if n.Container.Room != nil {
				err = fmt.Errorf("non-leaf container %d holds a room", n.Container.ID)
			}
		case NodeCluster:
			if n.Container.Room != nil {
				err = fmt.Errorf("non-leaf container %d holds a room", n.Container.ID)
			}
		}
	})
	return err
}

// idGen выдает стабильные ID контейнерам в порядке создания.
type idGen struct{ next int }

func (g *idGen) container(r Rect) *Container {
	c := &Container{ID: g.next, Rect: r}
	g.next++
	return c
}
