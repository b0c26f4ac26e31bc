// Package workflowpb holds the wire types and stubs for the remote workflow
// service. The service descriptor is maintained by hand and messages travel
// through a JSON codec, so no protoc step is needed to build the module.
package workflowpb
