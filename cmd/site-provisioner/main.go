package main

import "github.com/kasu-devops/sitekeeper/cmd/site-provisioner/cmd"

func main() {
	cmd.Execute()
}
