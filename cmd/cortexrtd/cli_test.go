package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIBasicCommands(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
		expectHelp  bool
	}{
		{name: "root help", args: []string{"--help"}, expectHelp: true},
		{name: "serve help", args: []string{"serve", "--help"}, expectHelp: true},
		{name: "register help", args: []string{"register", "--help"}, expectHelp: true},
		{name: "invalid command", args: []string{"invalid"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetErr(&buf)
			rootCmd.SetArgs(tt.args)

			err := rootCmd.Execute()

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.expectHelp {
				assert.Contains(t, buf.String(), "Usage:")
			}
		})
	}
}

func TestRegisterCommandRequiresFile(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"register"})

	err := rootCmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}
