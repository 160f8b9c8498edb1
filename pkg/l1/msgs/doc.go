// Package msgs provides the uplink message envelope.
package msgs

// Completed L0 messages are forwarded to subscribers as a protobuf
// google.protobuf.Struct:
//
//	device   string  device ID
//	seq      number  message sequence, starting from 1
//	data     string  base64 of the message bytes, sentinel included
//	text     string  quoted message bytes for display
//	time     string  RFC 3339 receive time
//
// Producer: xmemd
// Consumer: xmemmon and other MQTT subscribers
