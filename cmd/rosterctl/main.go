// Command rosterctl is the staff console for stipend rosters: import a
// roster, list recipients by stage, apply transitions and write the
// mail-merge export. It talks to the same roster store as the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cctx := newCommandContext(openConfiguredStore)
	err := newRootCommand(cctx).Execute()
	cctx.close()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
