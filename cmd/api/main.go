package main

import "github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/cli"

func main() {
	cli.Execute()
}
