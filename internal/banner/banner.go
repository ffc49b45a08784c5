// Package banner prints a service's startup configuration summary to
// stdout before it blocks on its signal channel.
package banner

import (
	"fmt"
	"strings"
)

const rule = `----------------------------------------------------------------------`

// ConfigLine is one label/value row in the startup summary.
type ConfigLine struct {
	Label string
	Value string
}

// Print displays serviceName and its configuration lines, aligned by
// label width.
func Print(serviceName string, config []ConfigLine) {
	fmt.Println(rule)
	fmt.Println(serviceName)
	fmt.Println(rule)

	maxLen := 0
	for _, c := range config {
		if len(c.Label) > maxLen {
			maxLen = len(c.Label)
		}
	}

	for _, c := range config {
		padding := strings.Repeat(" ", maxLen-len(c.Label))
		fmt.Printf("  %s%s : %s\n", c.Label, padding, c.Value)
	}

	fmt.Println()
	fmt.Println("Ready.")
	fmt.Println(rule)
	fmt.Println()
}
