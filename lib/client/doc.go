// Package client implements an in-process test double of a Redis client.
//
// The client exposes the command surface of a network client (one method per
// command, grouped into the IGenericCommands, IHashCommands, IListCommands and
// ISetCommands interfaces) but runs every command directly against a db.KVDB
// engine. No server, socket or goroutine is involved, so application code written
// against IRedis can be unit tested without any infrastructure.
//
// Replies:
//
//	Bulk replies are returned as any: []byte if the reply is not decoded, string if it
//	is decoded with a text encoding, nil for missing values. The default encoding is set
//	in Options and can be overridden per call with a trailing codec.Encoding argument.
//	The helpers in the codec package convert replies to concrete types.
//
// Errors:
//
//   - *ArgumentError: an argument has the wrong type or shape, e.g. a float timeout for
//     Expire. The engine is not touched.
//   - *ReplyError: the command was rejected, e.g. WRONGTYPE when a command is applied to
//     a key of another kind. The error code is the same for every command.
//   - *WatchError / *ExecError: returned by Pipeline.Execute.
//
// Pipelines:
//
//	p := r.Pipeline()
//	_ = p.Watch("balance")
//	p.Send("DECRBY", "balance", 10)
//	p.Queue(func(r client.IRedis) (any, error) { return r.Get("balance") })
//	results, err := p.Execute()
//
// Iteration:
//
//	it := r.IScan(&client.ScanOptions{Match: "user:*"})
//	for key, err := range it.All() {
//		...
//	}
//
// Every command is counted in the mkv_client_commands_total metric (VictoriaMetrics).
package client
