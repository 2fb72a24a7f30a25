package ams

import "context"

// Dispatcher is the command-dispatch collaborator the vendor adapters drive.
// It abstracts "issue a named command with parameters" and "query a vendor
// object's JSON status payload" over whatever printer-control transport the
// host wires in; this package never sees the wire format. RunCommand
// returning nil means the command was accepted, not that the operation
// finished — terminal completion arrives later through the StatusSink.
type Dispatcher interface {
	RunCommand(ctx context.Context, name string, params map[string]any) error
	QueryObject(ctx context.Context, object string) (map[string]any, error)
}

// StatusSink is implemented by vendor adapters and fed by the transport
// glue: parsed status payloads as they stream in, and asynchronous command
// failures that surface after acceptance.
type StatusSink interface {
	UpdateStatus(object string, payload map[string]any)
	CommandError(err error)
}

// Detection is what the external discovery collaborator hands the factory:
// the detected AMS type plus, for tool-changer configurations, the
// discovered tool names.
type Detection struct {
	Type      Type
	ToolNames []string
}
