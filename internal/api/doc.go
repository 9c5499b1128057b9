// Package api defines the wire surface of the ledger: the gRPC service
// description shared by server and client, the JSON-over-protobuf message
// conversions and the error classification used by both transports.
package api
