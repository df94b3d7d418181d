package main

import "github.com/oshokin/room-allotment/cmd/allotment-admin/cmd"

func main() {
	cmd.Execute()
}
