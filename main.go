package main

import "dbconsole/cmd"

func main() {
	cmd.Execute()
}
