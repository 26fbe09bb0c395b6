// Command obrigctl runs maintenance tasks against the OBRIG database.
package main

func main() {
	Execute()
}
