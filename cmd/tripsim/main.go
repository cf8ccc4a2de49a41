// README: tripsim renders a simulated driver approach in the terminal.
package main

func main() {
	Execute()
}
