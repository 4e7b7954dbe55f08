package pool

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
)

// Options configures a pool. The connection settings are passed on to client.Create
// and have no effect on the in-process client.
type Options struct {
	DB       int
	Password string
	SSL      bool
	Encoding codec.Encoding // default encoding of the pooled client

	// Engine is shared by every client the pool creates. nil creates a new engine
	// that is owned by the pool and closed with it.
	Engine db.KVDB

	// MinSize and MaxSize are accepted for compatibility. The pool always holds a
	// single client and reports both sizes as 1.
	MinSize int
	MaxSize int

	CommandsFactory client.Factory // nil = client.DefaultFactory
}

// DefaultOptions returns the options of a pool with a single utf-8 client
func DefaultOptions() Options {
	return Options{
		Encoding: codec.MustNamed("utf-8"),
		MinSize:  1,
		MaxSize:  10,
	}
}

// String returns a string representation of the pool configuration
func (o Options) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString(fmt.Sprintf("\n%s:\n", title))
	}
	addField := func(name string, value interface{}) {
		sb.WriteString(fmt.Sprintf("  %-22s: %v\n", name, value))
	}

	addSection("Connection")
	addField("DB", o.DB)
	if o.Password != "" {
		addField("Password", "********")
	} else {
		addField("Password", "<none>")
	}
	addField("SSL", o.SSL)
	addField("Encoding", o.Encoding)

	addSection("Pool")
	addField("Min Size (requested)", o.MinSize)
	addField("Max Size (requested)", o.MaxSize)
	addField("Effective Size", 1)
	if o.Engine != nil {
		addField("Engine", o.Engine.GetInfo().DbType)
	} else {
		addField("Engine", "<new maple engine>")
	}
	if o.CommandsFactory != nil {
		addField("Commands Factory", "custom")
	} else {
		addField("Commands Factory", "default")
	}

	return sb.String()
}
