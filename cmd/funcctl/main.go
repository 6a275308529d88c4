// Command funcctl is a terminal browser over the deployed function and
// trigger metadata store.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/sqlitestore"
)

func main() {
	dsn := flag.String("sqlite-dsn", "functiond.db", "sqlite DSN of the function metadata store")
	useMemory := flag.Bool("memory", false, "browse an empty in-memory store (for local experimentation)")
	flag.Parse()

	var funcRepo function.FunctionRepository
	var trigRepo function.TriggerRepository

	if *useMemory {
		funcRepo = function.NewMemoryFunctionRepository()
		trigRepo = function.NewMemoryTriggerRepository()
	} else {
		st, err := sqlitestore.Open(*dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "funcctl: open store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
		funcRepo = st.Functions()
		trigRepo = st.Triggers()
	}

	p := tea.NewProgram(newModel(funcRepo, trigRepo))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "funcctl: %v\n", err)
		os.Exit(1)
	}
}
