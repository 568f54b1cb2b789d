package display

import (
	"fmt"
	"os"

	"github.com/backmassage/cloudlift/internal/logging"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if logging.Magenta != "" {
		fmt.Fprint(os.Stdout, "\033[1;95m")
	}
	fmt.Fprint(os.Stdout, `  ____ _                 _ _     _  __ _
 / ___| | ___  _   _  __| | |   (_)/ _| |_
| |   | |/ _ \| | | |/ _`+"`"+` | |   | | |_| __|
| |___| | (_) | |_| | (_| | |___| |  _| |_
 \____|_|\___/ \__,_|\__,_|_____|_|_|  \__|
`)
	if logging.Magenta != "" {
		fmt.Fprintln(os.Stdout, logging.NC)
	}
}
