package hostext

import (
	"testing"

	"github.com/dentiny/httpmux/httpmux/client"
)

type fakeRegistrar struct {
	registered map[string]*client.Client
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{registered: make(map[string]*client.Client)}
}

func (f *fakeRegistrar) RegisterClient(name string, c *client.Client) {
	f.registered[name] = c
}

func TestRegister_RegistersClientUnderName(t *testing.T) {
	reg := newFakeRegistrar()

	c, err := Register(reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if c == nil {
		t.Fatal("Register returned a nil Client")
	}
	if reg.registered[Name] != c {
		t.Fatalf("registrar did not receive the client under %q", Name)
	}
}

func TestRegister_NilRegistrarStillReturnsClient(t *testing.T) {
	c, err := Register(nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if c == nil {
		t.Fatal("Register returned a nil Client")
	}
}

func TestRegister_CallerOptsOverrideDefaults(t *testing.T) {
	reg := newFakeRegistrar()

	c, err := Register(reg, client.WithCABundle("/explicit/override.pem"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if c == nil {
		t.Fatal("Register returned a nil Client")
	}
}
