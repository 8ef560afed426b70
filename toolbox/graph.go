package toolbox

import (
	"fmt"

	"github.com/pkg/errors"
)

// Op is the operation a graph node computes from its children.
type Op int

const (
	// OpInput nodes hold a value set by the caller.  They are never recomputed.
	OpInput Op = iota

	// OpSum computes the edge-weighted sum of all children.
	OpSum

	// The activation ops apply an activation function to the first child.
	OpSigmoid
	OpReLU
	OpTanh
	OpLinear
)

func (op Op) String() string {
	switch op {
	case OpInput:
		return "input"
	case OpSum:
		return "sum"
	case OpSigmoid, OpReLU, OpTanh, OpLinear:
		return op.activation().String()
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

func (op Op) activation() ActivationType {
	switch op {
	case OpSigmoid:
		return Sigmoid
	case OpReLU:
		return ReLU
	case OpTanh:
		return Tanh
	case OpLinear:
		return Linear
	default:
		panic(fmt.Sprintf("%v is not an activation op", op))
	}
}

// ActivationOp returns the unary op applying kind.
func ActivationOp(kind ActivationType) Op {
	switch kind {
	case Sigmoid:
		return OpSigmoid
	case ReLU:
		return OpReLU
	case Tanh:
		return OpTanh
	case Linear:
		return OpLinear
	default:
		panic("unhandled activation function")
	}
}

// NodeID addresses a node within the Graph that created it.
type NodeID int

type edge struct {
	child  NodeID
	weight float32
}

// Node is one scalar of a computation graph.
type Node struct {
	Value    float32
	Gradient float32
	Op       Op

	children []edge
}

// Graph owns a set of scalar nodes and the order they are evaluated in.
//
// The evaluation order is whatever Schedule was called with; the passes do
// not check it against the edges (see Validate).  Input nodes only need to be
// scheduled if they should have their gradients visited in order, since they
// are never recomputed.
type Graph struct {
	nodes []Node
	order []NodeID
}

func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) add(n Node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// Input adds an input node holding value.
func (g *Graph) Input(value float32) NodeID {
	return g.add(Node{Op: OpInput, Value: value})
}

// Sum adds a weighted-sum node.  Its terms are added with Connect.
func (g *Graph) Sum() NodeID {
	return g.add(Node{Op: OpSum})
}

// Activation adds a node applying kind to its first child.
func (g *Graph) Activation(kind ActivationType) NodeID {
	return g.add(Node{Op: ActivationOp(kind)})
}

// Connect appends child to parent's children with the given edge weight.
// Activation nodes ignore the weight.
func (g *Graph) Connect(parent, child NodeID, weight float32) {
	g.check(parent)
	g.check(child)
	g.nodes[parent].children = append(g.nodes[parent].children, edge{child: child, weight: weight})
}

// Schedule appends nodes to the evaluation order.
func (g *Graph) Schedule(ids ...NodeID) {
	for _, id := range ids {
		g.check(id)
	}
	g.order = append(g.order, ids...)
}

func (g *Graph) check(id NodeID) {
	if id < 0 || int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("node %d does not belong to this graph (%d nodes)", id, len(g.nodes)))
	}
}

// Node returns the node with the given id.  The pointer is invalidated by the
// next node added to the graph.
func (g *Graph) Node(id NodeID) *Node {
	g.check(id)
	return &g.nodes[id]
}

func (g *Graph) Value(id NodeID) float32 {
	return g.Node(id).Value
}

func (g *Graph) SetValue(id NodeID, v float32) {
	g.Node(id).Value = v
}

func (g *Graph) Gradient(id NodeID) float32 {
	return g.Node(id).Gradient
}

// SetGradient sets a node's gradient.  Seed the output node (usually with 1)
// before BackwardPass.
func (g *Graph) SetGradient(id NodeID, grad float32) {
	g.Node(id).Gradient = grad
}

func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Order returns a copy of the evaluation order.
func (g *Graph) Order() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// ForwardPass recomputes every scheduled node in order.
func (g *Graph) ForwardPass() {
	for _, id := range g.order {
		g.computeForward(id)
	}
}

// BackwardPass propagates gradients through every scheduled node in reverse
// order.  Gradients accumulate, so call ResetGradients between unrelated
// passes.
func (g *Graph) BackwardPass() {
	for i := len(g.order) - 1; i >= 0; i-- {
		g.computeBackward(g.order[i])
	}
}

// ResetGradients zeroes the gradient of every node in the graph, scheduled or
// not.
func (g *Graph) ResetGradients() {
	for i := range g.nodes {
		g.nodes[i].Gradient = 0
	}
}

// computeForward reads only the children's values.
func (g *Graph) computeForward(id NodeID) {
	n := &g.nodes[id]
	switch n.Op {
	case OpInput:
	case OpSum:
		var v float32
		for _, e := range n.children {
			v += g.nodes[e.child].Value * e.weight
		}
		n.Value = v
	default:
		if len(n.children) > 0 {
			n.Value = Activate(n.Op.activation(), g.nodes[n.children[0].child].Value)
		}
	}
}

// computeBackward writes only the children's gradients.  Activation nodes
// take the derivative at the child's (pre-activation) value.
func (g *Graph) computeBackward(id NodeID) {
	n := &g.nodes[id]
	switch n.Op {
	case OpInput:
	case OpSum:
		for _, e := range n.children {
			g.nodes[e.child].Gradient += n.Gradient * e.weight
		}
	default:
		if len(n.children) > 0 {
			child := &g.nodes[n.children[0].child]
			child.Gradient += n.Gradient * DerivativeAt(n.Op.activation(), child.Value)
		}
	}
}

// Validate reports ErrInvalidGraph if the evaluation order is not a
// topological order: every child of a scheduled non-input node must be an
// input or be scheduled earlier, and no node may be scheduled twice.
func (g *Graph) Validate() error {
	position := make(map[NodeID]int, len(g.order))
	for p, id := range g.order {
		if prev, ok := position[id]; ok {
			return errors.Wrapf(ErrInvalidGraph, "node %d scheduled at %d and %d", id, prev, p)
		}
		position[id] = p
	}

	for p, id := range g.order {
		for _, e := range g.nodes[id].children {
			if g.nodes[e.child].Op == OpInput {
				continue
			}
			cp, ok := position[e.child]
			if !ok {
				return errors.Wrapf(ErrInvalidGraph, "node %d (%v) reads node %d, which is never scheduled", id, g.nodes[id].Op, e.child)
			}
			if cp >= p {
				return errors.Wrapf(ErrInvalidGraph, "node %d (%v) is scheduled at %d but reads node %d scheduled at %d", id, g.nodes[id].Op, p, e.child, cp)
			}
		}
	}
	return nil
}
