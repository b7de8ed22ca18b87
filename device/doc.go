// Package device models the target FPGA chip as a catalogue of supported
// part numbers and a recursively bisectable grid of rectangular slots.
//
// A Slot is a value type identified by its down-left/up-right coordinates;
// the SlotManager owns the root slot, caches the bisection tree, and can
// expose any uniform-depth level of that tree as an adjacency graph over
// *core.Graph, the same way gridgraph.GridGraph turns a 2-D integer grid
// into a graph — here the "cells" are leaf slots and the weight of an
// adjacency edge is always 1 (one pipeline hop).
package device
