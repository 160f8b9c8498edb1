// Package comm provides the L0 receive path.
package comm

// L0 firmware receives fixed-size chunks on a serial transport. Each
// chunk carries one payload byte and a terminator:
//
//	offset  0 1 2 3 4 5 6  7
//	        x x x x x P \r \n
//
// The receive path (an interrupt handler on the board, a goroutine on a
// host) stores a chunk in a single-slot RxBuffer. The parser task takes
// a snapshot of it and feeds the Framer, which appends the payload byte
// to the partial message until the configured sentinel arrives.
//
// Chunks without terminator are discarded and counted, they never stop
// the parser.
//
// Producer: receive path
// Consumer: parser task
