package main

import "github.com/oshokin/room-allotment/cmd/allotment-server/cmd"

func main() {
	cmd.Execute()
}
