// Package chronon implements a temporal property graph: a directed
// multigraph whose nodes and edges carry typed properties and a history
// of events along an integer time axis, with views restricted to
// arbitrary time windows and arbitrary subsets of named edge layers.
//
// Two graph variants are offered. Graph is an event graph: an edge
// exists only at the instants it was added, and never supports
// deletion. PersistentGraph additionally supports DeleteEdge; an
// addition remains in force until an explicit deletion, governed by a
// dual addition/deletion log per (edge, layer).
//
// Both variants share the same read surface through View, NodeView,
// and EdgeView: Window, Before, After, At, and Layers narrow a view;
// Nodes, Edges, Node, and Edge query it; Materialize walks a view back
// into an independent graph of the source's variant.
package chronon
