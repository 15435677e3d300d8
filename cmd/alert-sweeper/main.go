package main

import "github.com/kasu-devops/sitekeeper/cmd/alert-sweeper/cmd"

func main() {
	cmd.Execute()
}
