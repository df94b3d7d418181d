// Package pb holds the wire contract of allotment.v1.AllotmentService:
// request and response messages, the service descriptor, the typed client
// and the JSON codec the messages travel with.
package pb
