// Command cleanfire is a terminal chat with the Clean Fire Grandmaster.
package main

import "github.com/diogo/cleanfire/internal/commands"

func main() {
	commands.Execute()
}
