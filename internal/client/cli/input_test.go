package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	require.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyEOF(t *testing.T) {
	var out bytes.Buffer
	_, err := GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func stubTerminal(t *testing.T, tty bool) {
	t.Helper()
	old := isTerminal
	isTerminal = func(int) bool { return tty }
	t.Cleanup(func() { isTerminal = old })
}

func TestGetPassword(t *testing.T) {
	stubTerminal(t, true)
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	pw, err := GetPassword(rdr("not this\n"), &out)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), pw)
	require.Equal(t, "Enter password: \n", out.String())
}

func TestGetPassword_Error(t *testing.T) {
	stubTerminal(t, true)
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword(rdr(""), &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetPassword_PipedReadsSharedReader(t *testing.T) {
	stubTerminal(t, false)
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		t.Fatal("terminal read on piped input")
		return nil, nil
	}

	in := rdr("a@x.io\ns3cret\r\nnext\n")
	var out bytes.Buffer
	email, err := GetSimpleText(in, "Enter email", &out)
	require.NoError(t, err)
	pw, err := GetPassword(in, &out)
	require.NoError(t, err)
	rest, err := GetSimpleText(in, "More", &out)
	require.NoError(t, err)

	require.Equal(t, "a@x.io", email)
	require.Equal(t, []byte("s3cret"), pw)
	require.Equal(t, "next", rest)

	_, err = GetPassword(rdr(""), &out)
	require.Error(t, err)
}

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetChoice(t *testing.T) {
	choices := []string{"SEEKER", "FACILITATOR"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "default on empty line", input: "\n", want: "SEEKER"},
		{name: "exact", input: "FACILITATOR\n", want: "FACILITATOR"},
		{name: "lower case", input: "facilitator\n", want: "FACILITATOR"},
		{name: "invalid", input: "admin\n", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetChoice(rdr(tc.input), "Role", choices, "SEEKER", &out)
			if tc.wantErr {
				require.ErrorIs(t, err, errInvalidChoice)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
