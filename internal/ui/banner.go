package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// Banner colors
var (
	titleColor    = color.New(color.FgHiCyan, color.Bold)
	subtitleColor = color.New(color.FgCyan)
	successColor  = color.New(color.FgGreen)
	errorColor    = color.New(color.FgRed)
	warningColor  = color.New(color.FgYellow)
	sectionColor  = color.New(color.FgHiYellow, color.Bold)
	itemColor     = color.New(color.FgWhite)
)

// PrintBanner prints the QuietWeb banner
func PrintBanner() {
	banner := `
  ____        _      _ __        __   _
 / __ \ _   _(_) ___| |\ \      / /__| |__
| |  | | | | | |/ _ \ __\ \ /\ / / _ \ '_ \
| |__| | |_| | |  __/ |_ \ V  V /  __/ |_) |
 \___\_\\__,_|_|\___|\__| \_/\_/ \___|_.__/
`
	titleColor.Println(banner)
	titleColor.Println("QuietWeb – Focus Sessions for a Quieter Web")
	subtitleColor.Println("Block the noise, keep the signal")
	fmt.Println(color.New(color.FgHiCyan).Sprint("============================================="))
}
