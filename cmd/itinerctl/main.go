// Command itinerctl is the operator CLI for the Itinera API: it applies
// database migrations and issues bearer tokens for development and support.
package main

func main() {
	Execute()
}
