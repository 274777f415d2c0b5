package main

import "meal-planner/internal/cli"

func main() {
	cli.Execute()
}
