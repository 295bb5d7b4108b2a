// The main package for the charabase executable.
package main

import "charabase/cmd"

func main() {
	cmd.Execute()
}
