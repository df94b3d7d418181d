// Package allotment implements the gRPC transport for the allotment service.
//
// It adapts domain types to wire messages, maps domain errors to gRPC status
// codes with an ErrorInfo reason and exposes the notification hub as a
// server stream.
package allotment
