package main

import "github.com/fakturo/glyph/cmd/glyph/cmd"

func main() {
	cmd.Execute()
}
