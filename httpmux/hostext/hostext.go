// Package hostext is the thin shim a host process (e.g. an analytics
// engine with a remote-file-system layer) calls once at startup to
// obtain a client.Client wired to engine defaults. Register binds
// against a generic Registrar rather than any particular host's loader
// type.
package hostext

import (
	"github.com/dentiny/httpmux/httpmux/client"
	"github.com/dentiny/httpmux/httpmux/tlsutil"
)

// Name and Version identify this extension to a host.
const (
	Name    = "httpmux"
	Version = "0.1.0"
)

// Registrar is whatever the host uses to keep track of named clients
// it has loaded.
type Registrar interface {
	RegisterClient(name string, c *client.Client)
}

// Register builds a Client from defaultOpts plus any caller-supplied
// opts, discovering the platform CA bundle the way the engine's TLS
// setup normally would so a host doesn't have to know about tlsutil
// itself, and hands the result to reg under Name.
//
// Caller-supplied opts are applied last and can override anything
// Register infers, including the discovered CA bundle.
func Register(reg Registrar, opts ...client.Option) (*client.Client, error) {
	var defaultOpts []client.Option
	if bundle := tlsutil.DiscoverCABundle(); bundle != "" {
		defaultOpts = append(defaultOpts, client.WithCABundle(bundle))
	}

	c, err := client.New(append(defaultOpts, opts...)...)
	if err != nil {
		return nil, err
	}
	if reg != nil {
		reg.RegisterClient(Name, c)
	}
	return c, nil
}
