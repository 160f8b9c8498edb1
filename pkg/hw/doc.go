// Package hw provides typed access to memory-mapped registers.
package hw

// All hardware state reached by the bring-up code goes through a Bus and
// a Barrier. On a host the Sim type backs both with a sparse word store
// and an operation trace; on a bare-metal target (build tag tamago) the
// MMIO type issues volatile loads/stores and real barrier instructions.
