package main

import (
	"os"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
