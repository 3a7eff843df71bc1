// retimer-idle is an interactive idle detector built on one retimer.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/retimer/timer"
	"github.com/drake/retimer/ui"
)

func main() {
	delay := flag.Duration("delay", 750*time.Millisecond, "Pause that counts as idle")
	flag.Parse()

	svc := timer.NewService(nil)
	defer svc.DisarmAll()

	model, err := ui.NewIdleModel(svc, *delay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := tea.NewProgram(model).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
