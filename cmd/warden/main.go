// warden: bounded autonomy for automation engines.
// Scores proposed actions, enforces configured boundaries, auto-executes
// what is safely in bounds, and queues the rest for a human.
package main

import "github.com/avrelio/warden/internal/cli"

func main() {
	cli.Execute()
}
