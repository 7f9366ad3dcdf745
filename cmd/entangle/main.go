package main

import "github.com/oshokin/photon-entanglement/cmd/entangle/cmd"

func main() {
	cmd.Execute()
}
