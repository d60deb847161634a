package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Skillgate.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient from indigo to rose.
	s1 := termenv.String("  ___ _    _ _ _            _       ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String(" / __| |__(_) | |__ _ __ _| |_ ___ ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" \\__ \\ / / | | / _` / _` |  _/ -_)").Foreground(p.Color("#e879f9"))
	s4 := termenv.String(" |___/_\\_\\_|_|_\\__, \\__,_|\\__\\___|").Foreground(p.Color("#f472b6"))
	s5 := termenv.String("               |___/               ").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
