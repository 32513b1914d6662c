package main

import (
	"testing"

	"battle-companion/internal/battle"
)

func TestParseIntent(t *testing.T) {
	cases := []struct {
		args []string
		want battle.Intent
	}{
		{[]string{"match"}, battle.OneVOne()},
		{[]string{"match", "ai"}, battle.VersusAI()},
		{[]string{"match", "single"}, battle.VersusAI()},
		{[]string{"create"}, battle.CreateRoomIntent()},
		{[]string{"join", "u42-ABC"}, battle.JoinRoomIntent("u42-ABC")},
	}
	for _, tc := range cases {
		got, err := parseIntent(tc.args)
		if err != nil {
			t.Fatalf("parseIntent(%v): %v", tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("parseIntent(%v) = %+v, want %+v", tc.args, got, tc.want)
		}
	}
}

func TestParseIntentRejects(t *testing.T) {
	for _, args := range [][]string{nil, {"match", "2v2"}, {"join"}, {"join", "  "}, {"spectate"}} {
		if _, err := parseIntent(args); err == nil {
			t.Fatalf("parseIntent(%v) succeeded, want error", args)
		}
	}
}
