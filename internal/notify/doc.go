// Package notify implements the in-process notification hub.
//
// Subscribers register under a recipient key (a student's roll number) and
// receive events addressed to that key plus every broadcast. Delivery never
// blocks the publisher: a subscriber whose buffer is full misses the event.
package notify
