package chat

import "testing"

func TestUsersUniqueNames(t *testing.T) {
	users := NewUsers()

	alice := NewSession("alice", NewMockConn())
	if err := users.Add(alice); err != nil {
		t.Fatal(err)
	}

	imposter := NewSession("alice", NewMockConn())
	if err := users.Add(imposter); err != ErrNameTaken {
		t.Errorf("Got: %v; Expected: %v", err, ErrNameTaken)
	}

	if got := users.Len(); got != 1 {
		t.Errorf("Got: %d; Expected: 1", got)
	}

	if err := users.Remove("alice"); err != nil {
		t.Fatal(err)
	}
	if err := users.Remove("alice"); err != ErrUserMissing {
		t.Errorf("Got: %v; Expected: %v", err, ErrUserMissing)
	}

	// Name is free again.
	if err := users.Add(imposter); err != nil {
		t.Errorf("Got: %v; Expected: nil", err)
	}
}

func TestUsersListSorted(t *testing.T) {
	users := NewUsers()
	for _, name := range []string{"carol", "alice", "bob"} {
		if err := users.Add(NewSession(name, NewMockConn())); err != nil {
			t.Fatal(err)
		}
	}

	got := users.List()
	expected := []string{"alice", "bob", "carol"}
	if len(got) != len(expected) {
		t.Fatalf("Got: %d sessions; Expected: %d", len(got), len(expected))
	}
	for i, s := range got {
		if s.Name() != expected[i] {
			t.Errorf("Got: %q at %d; Expected: %q", s.Name(), i, expected[i])
		}
	}
}

func TestValidName(t *testing.T) {
	valid := []string{"alice", "Bob", "9lives", "a"}
	invalid := []string{"", "_alice", ".", "-dash", "*system*"}

	for _, name := range valid {
		if !ValidName(name) {
			t.Errorf("Expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if ValidName(name) {
			t.Errorf("Expected %q to be invalid", name)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"alice", "alice"},
		{" alice\r\n", "alice"},
		{"a!l@i#c$e", "alice"},
		{"morethansixteencharacters", "morethansixteenc"},
		{"dots.and-dashes", "dots.and-dashes"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.out {
			t.Errorf("Got: %q; Expected: %q", got, tt.out)
		}
	}
}
