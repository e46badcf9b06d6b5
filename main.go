package main

import (
	"github.com/mj1618/droidtile/cmd"

	_ "github.com/mj1618/droidtile/internal/platform/adb"
	_ "github.com/mj1618/droidtile/internal/platform/sim"
)

func main() {
	cmd.Execute()
}
