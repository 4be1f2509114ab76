package main

import "github.com/ksugimori/docscan/internal/cli"

func main() {
	cli.Execute()
}
