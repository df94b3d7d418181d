// Package client implements the allotment-admin commands.
//
// A Session connects to the allotment server as the detected system actor
// and logs the outcome of each administrative or student request.
package client
