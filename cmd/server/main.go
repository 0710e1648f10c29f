package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joacim-boive/phantom-tracker/internal/app"
)

func main() {
	application, err := app.New()

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start application: %v\n", err)
		os.Exit(1)
	}

	application.WaitForShutdown()
	application.Stop()
}
