// Command vinctl validates and decodes VINs locally and drives a running
// VIN lookup server.
package main

func main() {
	Execute()
}
