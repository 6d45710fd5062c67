package main

import "smartbin-backend/internal/cli"

func main() {
	cli.Execute()
}
