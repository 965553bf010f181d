package main

import "sensorgate/cmd/gateway/cmd"

func main() {
	cmd.Execute()
}
