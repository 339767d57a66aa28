// Command tramita drives a SEI document-management portal from the
// terminal: session login, process transactions, document issuance and
// signature blocks, all through a real browser session.
package main

func main() {
	Execute()
}
