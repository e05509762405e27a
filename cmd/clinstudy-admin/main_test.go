package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	created bool
	err     error
	email   string
}

func (f *fakeCreator) EnsureAdmin(_ context.Context, email, _ string) (bool, error) {
	f.email = email
	return f.created, f.err
}

func TestCreateAdmin(t *testing.T) {
	var out bytes.Buffer
	creator := &fakeCreator{created: true}

	require.NoError(t, createAdmin(context.Background(), creator, "  root@example.com ", "StrongPass1!", &out))
	assert.Equal(t, "root@example.com", creator.email)
	assert.Contains(t, out.String(), "created")
}

func TestCreateAdminAlreadyRegistered(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, createAdmin(context.Background(), &fakeCreator{}, "root@example.com", "StrongPass1!", &out))
	assert.Contains(t, out.String(), "already registered")
}

func TestCreateAdminErrors(t *testing.T) {
	var out bytes.Buffer

	err := createAdmin(context.Background(), &fakeCreator{}, " ", "pw", &out)
	assert.Error(t, err)

	boom := errors.New("boom")
	err = createAdmin(context.Background(), &fakeCreator{err: boom}, "root@example.com", "pw", &out)
	assert.ErrorIs(t, err, boom)
}

func TestReadPipedPassword(t *testing.T) {
	pw, err := readPipedPassword(strings.NewReader("s3cret-value\r\ns3cret-value\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", pw)

	pw, err = readPipedPassword(strings.NewReader("no-newline\nno-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)
}

func TestReadPipedPasswordRequiresConfirmation(t *testing.T) {
	_, err := readPipedPassword(strings.NewReader("first\nsecond\n"))
	assert.ErrorIs(t, err, errPasswordMismatch)

	_, err = readPipedPassword(strings.NewReader("only-once\n"))
	assert.Error(t, err)

	_, err = readPipedPassword(strings.NewReader(""))
	assert.Error(t, err)
}
