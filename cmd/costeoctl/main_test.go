package main

import (
	"bytes"
	"testing"
)

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	root := rootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"migrate", "down", "zero", "--dsn", "postgres://u:p@localhost:1/none"})

	err := root.Execute()
	if err == nil || err.Error() != `steps must be a positive number, got "zero"` {
		t.Fatalf("err=%v", err)
	}
}

func TestMigrateHasSubcommands(t *testing.T) {
	root := rootCommand()
	cmd, _, err := root.Find([]string{"migrate"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := map[string]bool{"up": false, "down": false, "version": false}
	for _, c := range cmd.Commands() {
		want[c.Name()] = true
	}
	for name, ok := range want {
		if !ok {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
