package main

import "snapfeed-backend/cmd"

func main() {
	cmd.Run()
}
