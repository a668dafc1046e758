package main

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
)

func TestCurrentEmail(t *testing.T) {
	rows := []credential.Credential{
		{Username: "admin", Email: "root@example.com"},
		{Username: "bob", Email: "bob@example.com"},
		{Username: "bob", Email: "bob2@example.com"},
	}

	got, err := currentEmail(rows, "bob")
	if err != nil {
		t.Fatalf("currentEmail: %v", err)
	}
	if got != "bob@example.com" {
		t.Errorf("expected the first row's email, got %q", got)
	}

	if _, err := currentEmail(rows, "carol"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersUpdate_EmailDefaultsToUnchanged(t *testing.T) {
	cmd := usersUpdateCmd()
	if err := cmd.ParseFlags([]string{"--username", "robert"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cmd.Flags().Changed("email") {
		t.Error("email should not count as changed when omitted")
	}
	if err := cmd.ParseFlags([]string{"--email", ""}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if !cmd.Flags().Changed("email") {
		t.Error("an explicit empty email should count as changed")
	}
}
