package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/notekeeper/internal/admin"
)

func main() {
	if err := admin.NewRootCommand(admin.Connect).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
