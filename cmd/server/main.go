// @title Transferly API
// @version 1.0
// @description Password-protected, expiring file transfers.
// @BasePath /
package main

func main() {
	Execute()
}
