// Package resources holds built-in stylesheets shipped with the engine.
package resources

import (
	"embed"
	"fmt"
)

const (
	UserAgentCSS  = "user-agent.css"
	ServoCSS      = "servo.css"
	QuirksModeCSS = "quirks-mode.css"
)

//go:embed *.css
var files embed.FS

// UserAgentStylesheets lists built-in user-agent stylesheets in cascade order.
var UserAgentStylesheets = []string{UserAgentCSS, ServoCSS}

// Read returns content of the named built-in stylesheet.
func Read(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read built-in stylesheet %q: %w", name, err)
	}
	return data, nil
}
